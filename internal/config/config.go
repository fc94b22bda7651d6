/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads and saves the user configuration of svgadjuster.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Library       LibraryConfig `yaml:"library"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

type EditorConfig struct {
	NudgeStep float64 `yaml:"nudge_step"`
	GridSize  float64 `yaml:"grid_size"`
	ShowGrid  bool    `yaml:"show_grid"`
	MoveMode  string  `yaml:"move_mode"` // "single" | "group"
}

type LibraryConfig struct {
	// DSN is a sqlite file path or a postgres:// URL. The postgres password
	// is not stored here; it lives in the OS keychain.
	DSN          string `yaml:"dsn"`
	SeedExamples bool   `yaml:"seed_examples"`
}

type ExportConfig struct {
	Scale     float64 `yaml:"scale"`
	ThumbSize int     `yaml:"thumb_size"`
	Backups   bool    `yaml:"backups"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{NudgeStep: 5.5, GridSize: 50, ShowGrid: true, MoveMode: "single"},
		Library:       LibraryConfig{DSN: "", SeedExamples: true},
		Export:        ExportConfig{Scale: 1, ThumbSize: 128, Backups: true},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath   = "SVA_CONFIG"
	EnvNudgeStep    = "SVA_NUDGE_STEP"
	EnvGridSize     = "SVA_GRID_SIZE"
	EnvShowGrid     = "SVA_SHOW_GRID"
	EnvMoveMode     = "SVA_MOVE_MODE"
	EnvLibraryDSN   = "SVA_LIBRARY_DSN"
	EnvSeedExamples = "SVA_SEED_EXAMPLES"
	EnvExportScale  = "SVA_EXPORT_SCALE"
	// logging
	EnvLogLevel  = "SVA_LOG_LEVEL"
	EnvLogFormat = "SVA_LOG_FORMAT"
	EnvLogSource = "SVA_LOG_SOURCE"
	EnvLogFile   = "SVA_LOG_FILE"
)

// Service/keys for the OS keyring.
const (
	keyringService     = "SVGAdjuster"
	keyringLibraryPass = "library_password"
)

// SecretStore abstracts the keyring so tests can stub it.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore with github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error   { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

var secretStore SecretStore = osKeyring{}

// ConfigDir returns the per-user directory holding config.yaml and the default library.
func ConfigDir() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return filepath.Dir(p), nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "SVGAdjuster")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "SVGAdjuster")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "svgadjuster")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "svgadjuster")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file (if present), applies defaults and env overrides.
// A malformed file is reported as an error alongside the defaults.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the config YAML and, if non-empty, stores the library password in the keyring.
func Save(cfg AppConfig, libraryPassword string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if libraryPassword != "" {
		if err := secretStore.Set(keyringService, keyringLibraryPass, libraryPassword); err != nil {
			return fmt.Errorf("store library password: %w", err)
		}
	}
	return nil
}

// ForgetLibraryPassword removes the stored library password, if any.
func ForgetLibraryPassword() error {
	return secretStore.Delete(keyringService, keyringLibraryPass)
}

// LibraryDSN resolves the DSN the library should open. An empty DSN maps to
// library.db next to the config file. A postgres URL without a password gets
// the one stored in the keyring, if there is one.
func (c AppConfig) LibraryDSN() (string, error) {
	dsn := strings.TrimSpace(c.Library.DSN)
	if dsn == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "library.db"), nil
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("library dsn: %w", err)
	}
	if u.User == nil {
		return dsn, nil
	}
	if _, has := u.User.Password(); has {
		return dsn, nil
	}
	pw, err := secretStore.Get(keyringService, keyringLibraryPass)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return dsn, nil
		}
		return "", fmt.Errorf("read library password: %w", err)
	}
	u.User = url.UserPassword(u.User.Username(), pw)
	return u.String(), nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.NudgeStep > 0 {
		dst.Editor.NudgeStep = src.Editor.NudgeStep
	}
	if src.Editor.GridSize > 0 {
		dst.Editor.GridSize = src.Editor.GridSize
	}
	dst.Editor.ShowGrid = src.Editor.ShowGrid
	if m := normalizeMoveMode(src.Editor.MoveMode); m != "" {
		dst.Editor.MoveMode = m
	}
	if v := strings.TrimSpace(src.Library.DSN); v != "" {
		dst.Library.DSN = v
	}
	dst.Library.SeedExamples = src.Library.SeedExamples
	if src.Export.Scale > 0 {
		dst.Export.Scale = src.Export.Scale
	}
	if src.Export.ThumbSize > 0 {
		dst.Export.ThumbSize = src.Export.ThumbSize
	}
	dst.Export.Backups = src.Export.Backups
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func normalizeMoveMode(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return "single"
	case "group":
		return "group"
	default:
		return ""
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvNudgeStep)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.NudgeStep = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.GridSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvShowGrid)); v != "" {
		cfg.Editor.ShowGrid = truthy(v)
	}
	if m := normalizeMoveMode(os.Getenv(EnvMoveMode)); m != "" {
		cfg.Editor.MoveMode = m
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryDSN)); v != "" {
		cfg.Library.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSeedExamples)); v != "" {
		cfg.Library.SeedExamples = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.Scale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"editor.nudge_step":     EnvNudgeStep,
	"editor.grid_size":      EnvGridSize,
	"editor.show_grid":      EnvShowGrid,
	"editor.move_mode":      EnvMoveMode,
	"library.dsn":           EnvLibraryDSN,
	"library.seed_examples": EnvSeedExamples,
	"export.scale":          EnvExportScale,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// EnvKeys lists the config keys that an environment variable can override, sorted.
func EnvKeys() []string {
	keys := make([]string, 0, len(envByKey))
	for k := range envByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
