package config

import (
	"fmt"
	"os"
	"strconv"
)

// Output modes for label files.
const (
	ModeRaw  = "raw"
	ModeYOLO = "yolo"
	ModeBoth = "both"
)

type Config struct {
	// Dataset layout
	DatasetRoot  string
	LabelDirName string

	// Label output
	Mode         string
	RemapClasses bool
	Decimals     int

	// Inspection API
	Port   string
	APIKey string

	LogLevel string
}

func Load() Config {
	cfg := Config{
		DatasetRoot:  envOr("TOOTHLABEL_DATASET_ROOT", "."),
		LabelDirName: envOr("TOOTHLABEL_LABEL_DIR", "Tooth_Labels"),

		Mode:         envOr("TOOTHLABEL_MODE", ModeBoth),
		RemapClasses: envBool("TOOTHLABEL_REMAP_CLASSES", false),
		Decimals:     envInt("TOOTHLABEL_DECIMALS", 6),

		Port:   envOr("PORT", "8090"),
		APIKey: os.Getenv("TOOTHLABEL_API_KEY"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.LabelDirName == "" {
		cfg.LabelDirName = "Tooth_Labels"
	}
	if cfg.Decimals < 0 {
		cfg.Decimals = 6
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DatasetRoot == "" {
		return fmt.Errorf("dataset root is required")
	}
	switch c.Mode {
	case ModeRaw, ModeYOLO, ModeBoth:
	default:
		return fmt.Errorf("invalid mode %q (want raw, yolo or both)", c.Mode)
	}
	if c.Decimals < 0 || c.Decimals > 12 {
		return fmt.Errorf("decimals must be in [0,12], got %d", c.Decimals)
	}
	return nil
}

// WantRaw reports whether absolute-pixel lines should be written.
func (c Config) WantRaw() bool {
	return c.Mode == ModeRaw || c.Mode == ModeBoth
}

// WantNormalized reports whether normalized lines should be written.
func (c Config) WantNormalized() bool {
	return c.Mode == ModeYOLO || c.Mode == ModeBoth
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
