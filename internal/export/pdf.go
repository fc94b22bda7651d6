/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"svgadjuster/internal/document"
	applog "svgadjuster/internal/log"
	"svgadjuster/internal/tree"
)

// PDFOptions controls PDF export behavior.
// Units are points; one viewBox unit maps to Scale points (default 1).
// Built-in Helvetica keeps text vector without embedding.
type PDFOptions struct {
	Scale float64
	Title string
}

// PDF draws the document tree onto a single page sized to the viewBox and writes it to w.
// Supported: rect, circle, ellipse, line, polyline, polygon, path (M L H V C Q Z, absolute and
// relative), text, and g with translate(). Definitions and images are not drawn.
func PDF(w io.Writer, root *document.Root, opt PDFOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf")
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	vb := root.ViewBox
	pw, ph := vb.Width*scale, vb.Height*scale
	if pw <= 0 || ph <= 0 {
		return fmt.Errorf("empty viewBox %q", vb.String())
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	title := opt.Title
	if title == "" {
		title = "SVG Adjuster export"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("SVG Adjuster", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()

	pdf.TransformBegin()
	pdf.TransformScale(scale*100, scale*100, 0, 0)
	pdf.TransformTranslate(-vb.X, -vb.Y)
	c := &canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, n := range root.Nodes {
		c.node(n)
	}
	pdf.TransformEnd()

	if c.skipped > 0 {
		l.Debug("nodes not drawn", slog.Int("count", c.skipped))
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type canvas struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	skipped int
}

var black = paint{c: color.RGBA{A: 255}, on: true}

// style applies fill and stroke of n and returns the gofpdf style string, or "" when nothing paints.
func (c *canvas) style(n *document.Node, fillable bool) string {
	s := ""
	if fillable {
		if fill := parsePaint(n.Attrs["fill"], black); fill.on {
			c.pdf.SetFillColor(int(fill.c.R), int(fill.c.G), int(fill.c.B))
			s += "F"
		}
	}
	// stroke defaults to none
	if v := n.Attrs["stroke"]; v != "" {
		if stroke := parsePaint(v, black); stroke.on {
			c.pdf.SetDrawColor(int(stroke.c.R), int(stroke.c.G), int(stroke.c.B))
			c.pdf.SetLineWidth(num(n, "stroke-width", 1))
			s += "D"
		}
	}
	return s
}

func (c *canvas) node(n *document.Node) {
	switch n.Kind {
	case document.KindGroup:
		tx, ty, ok := tree.TranslateOf(n.Attrs["transform"])
		c.pdf.TransformBegin()
		if ok {
			c.pdf.TransformTranslate(tx, ty)
		}
		for _, ch := range n.Children {
			c.node(ch)
		}
		c.pdf.TransformEnd()
	case document.KindRect:
		if st := c.style(n, true); st != "" {
			c.pdf.Rect(num(n, "x", 0), num(n, "y", 0), num(n, "width", 0), num(n, "height", 0), st)
		}
	case document.KindCircle:
		if st := c.style(n, true); st != "" {
			c.pdf.Circle(num(n, "cx", 0), num(n, "cy", 0), num(n, "r", 0), st)
		}
	case document.KindEllipse:
		if st := c.style(n, true); st != "" {
			c.pdf.Ellipse(num(n, "cx", 0), num(n, "cy", 0), num(n, "rx", 0), num(n, "ry", 0), 0, st)
		}
	case document.KindLine:
		if st := c.style(n, false); st != "" {
			c.pdf.Line(num(n, "x1", 0), num(n, "y1", 0), num(n, "x2", 0), num(n, "y2", 0))
		}
	case document.KindPolygon, document.KindPolyline:
		pts := parsePoints(n.Attrs["points"])
		if len(pts) < 2 {
			return
		}
		if n.Kind == document.KindPolygon {
			if st := c.style(n, true); st != "" {
				c.pdf.Polygon(pts, st)
			}
			return
		}
		if st := c.style(n, true); st != "" {
			c.pdf.MoveTo(pts[0].X, pts[0].Y)
			for _, p := range pts[1:] {
				c.pdf.LineTo(p.X, p.Y)
			}
			c.pdf.DrawPath(st)
		}
	case document.KindPath:
		if st := c.style(n, true); st != "" {
			if c.path(n.Attrs["d"]) {
				c.pdf.DrawPath(st)
			}
		}
	case document.KindText:
		fill := parsePaint(n.Attrs["fill"], black)
		if !fill.on || strings.TrimSpace(n.Content) == "" {
			return
		}
		c.pdf.SetTextColor(int(fill.c.R), int(fill.c.G), int(fill.c.B))
		c.pdf.SetFont("Helvetica", "", num(n, "font-size", 16))
		c.pdf.Text(num(n, "x", 0), num(n, "y", 0), c.tr(n.Content))
	default:
		c.skipped++
	}
}

func num(n *document.Node, attr string, def float64) float64 {
	v, ok := n.Attr(attr)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return def
	}
	return f
}

var reNumber = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

func parsePoints(s string) []gofpdf.PointType {
	nums := reNumber.FindAllString(s, -1)
	pts := make([]gofpdf.PointType, 0, len(nums)/2)
	for i := 0; i+1 < len(nums); i += 2 {
		x, _ := strconv.ParseFloat(nums[i], 64)
		y, _ := strconv.ParseFloat(nums[i+1], 64)
		pts = append(pts, gofpdf.PointType{X: x, Y: y})
	}
	return pts
}

var rePathToken = regexp.MustCompile(`[A-Za-z]|[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// path feeds path data to the pdf path builder and reports whether anything was emitted.
// Parsing stops at the first unsupported command or missing argument.
func (c *canvas) path(d string) bool {
	toks := rePathToken.FindAllString(d, -1)
	i := 0
	isCmd := func(t string) bool {
		b := t[0]
		return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
	}
	next := func() (float64, bool) {
		if i >= len(toks) || isCmd(toks[i]) {
			return 0, false
		}
		v, err := strconv.ParseFloat(toks[i], 64)
		i++
		return v, err == nil
	}

	var cx, cy, sx, sy float64
	var cmd byte
	started := false
loop:
	for i < len(toks) {
		if isCmd(toks[i]) {
			cmd = toks[i][0]
			i++
		} else if cmd == 0 || cmd == 'Z' || cmd == 'z' {
			break
		}
		rel := cmd >= 'a'
		var ox, oy float64
		if rel {
			ox, oy = cx, cy
		}
		switch cmd {
		case 'M', 'm':
			x, ok1 := next()
			y, ok2 := next()
			if !ok1 || !ok2 {
				break loop
			}
			cx, cy = ox+x, oy+y
			sx, sy = cx, cy
			c.pdf.MoveTo(cx, cy)
			started = true
			// further coordinate pairs are implicit line-tos
			if cmd == 'M' {
				cmd = 'L'
			} else {
				cmd = 'l'
			}
		case 'L', 'l':
			x, ok1 := next()
			y, ok2 := next()
			if !ok1 || !ok2 || !started {
				break loop
			}
			cx, cy = ox+x, oy+y
			c.pdf.LineTo(cx, cy)
		case 'H', 'h':
			x, ok := next()
			if !ok || !started {
				break loop
			}
			cx = ox + x
			c.pdf.LineTo(cx, cy)
		case 'V', 'v':
			y, ok := next()
			if !ok || !started {
				break loop
			}
			cy = oy + y
			c.pdf.LineTo(cx, cy)
		case 'C', 'c':
			var a [6]float64
			for k := range a {
				v, ok := next()
				if !ok || !started {
					break loop
				}
				a[k] = v
			}
			c.pdf.CurveBezierCubicTo(ox+a[0], oy+a[1], ox+a[2], oy+a[3], ox+a[4], oy+a[5])
			cx, cy = ox+a[4], oy+a[5]
		case 'Q', 'q':
			var a [4]float64
			for k := range a {
				v, ok := next()
				if !ok || !started {
					break loop
				}
				a[k] = v
			}
			c.pdf.CurveTo(ox+a[0], oy+a[1], ox+a[2], oy+a[3])
			cx, cy = ox+a[2], oy+a[3]
		case 'Z', 'z':
			if started {
				c.pdf.ClosePath()
			}
			cx, cy = sx, sy
		default:
			break loop
		}
	}
	return started
}
