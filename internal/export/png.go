/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	applog "svgadjuster/internal/log"
)

// maxRasterSide bounds either side of a rendered image in pixels.
const maxRasterSide = 8192

// RasterOptions controls PNG rendering.
// - Scale: pixels per viewBox unit; defaults to 1
// - Background: fill behind the drawing; defaults to white, use color.Transparent for none
type RasterOptions struct {
	Scale      float64
	Background color.Color
}

// Rasterize renders markup into an RGBA image sized by its viewBox times the scale.
// Elements the rasterizer does not support (text among them) are skipped.
func Rasterize(markup string, opt RasterOptions) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(markup), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(icon.ViewBox.W * scale))
	h := int(math.Ceil(icon.ViewBox.H * scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New("svg has an empty viewBox")
	}
	if w > maxRasterSide || h > maxRasterSide {
		return nil, fmt.Errorf("raster size %dx%d exceeds %d pixels per side", w, h, maxRasterSide)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var bg color.Color = color.White
	if opt.Background != nil {
		bg = opt.Background
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	applog.WithComponent("export").Debug("rasterized", slog.Int("w", w), slog.Int("h", h))
	return img, nil
}

// PNG renders markup and writes it as PNG to w.
func PNG(w io.Writer, markup string, opt RasterOptions) error {
	img, err := Rasterize(markup, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Thumbnail renders markup into a PNG fitting a size x size box, keeping the aspect ratio.
func Thumbnail(markup string, size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("thumbnail size must be positive")
	}
	src, err := Rasterize(markup, RasterOptions{Scale: 1})
	if err != nil {
		return nil, err
	}
	sb := src.Bounds()
	f := math.Min(float64(size)/float64(sb.Dx()), float64(size)/float64(sb.Dy()))
	tw := max(1, int(math.Round(float64(sb.Dx())*f)))
	th := max(1, int(math.Round(float64(sb.Dy())*f)))
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
