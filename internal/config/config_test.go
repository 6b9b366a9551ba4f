package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DatasetRoot != "." {
		t.Errorf("expected dataset root %q, got %q", ".", cfg.DatasetRoot)
	}
	if cfg.LabelDirName != "Tooth_Labels" {
		t.Errorf("expected label dir %q, got %q", "Tooth_Labels", cfg.LabelDirName)
	}
	if cfg.Mode != ModeBoth {
		t.Errorf("expected mode %q, got %q", ModeBoth, cfg.Mode)
	}
	if cfg.Decimals != 6 {
		t.Errorf("expected 6 decimals, got %d", cfg.Decimals)
	}
	if cfg.RemapClasses {
		t.Error("expected remap disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOOTHLABEL_DATASET_ROOT", "/data/radiographs")
	t.Setenv("TOOTHLABEL_MODE", "yolo")
	t.Setenv("TOOTHLABEL_REMAP_CLASSES", "true")
	t.Setenv("TOOTHLABEL_DECIMALS", "4")

	cfg := Load()
	if cfg.DatasetRoot != "/data/radiographs" {
		t.Errorf("expected dataset root from env, got %q", cfg.DatasetRoot)
	}
	if cfg.Mode != ModeYOLO {
		t.Errorf("expected mode yolo, got %q", cfg.Mode)
	}
	if !cfg.RemapClasses {
		t.Error("expected remap enabled")
	}
	if cfg.Decimals != 4 {
		t.Errorf("expected 4 decimals, got %d", cfg.Decimals)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Load()
	cfg.Mode = "voc"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestValidateRejectsExcessiveDecimals(t *testing.T) {
	cfg := Load()
	cfg.Decimals = 20
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for decimals > 12")
	}
}

func TestValidateRejectsNegativeDecimals(t *testing.T) {
	// A negative precision reaches the writer's %.*f verbs unchecked and
	// produces unparsable label lines, so it must fail validation.
	cfg := Load()
	cfg.Decimals = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative decimals")
	}
}

func TestModeSelectors(t *testing.T) {
	tests := []struct {
		mode       string
		raw, norm  bool
	}{
		{ModeRaw, true, false},
		{ModeYOLO, false, true},
		{ModeBoth, true, true},
	}
	for _, tt := range tests {
		cfg := Config{Mode: tt.mode}
		if cfg.WantRaw() != tt.raw {
			t.Errorf("mode %s: WantRaw=%v, want %v", tt.mode, cfg.WantRaw(), tt.raw)
		}
		if cfg.WantNormalized() != tt.norm {
			t.Errorf("mode %s: WantNormalized=%v, want %v", tt.mode, cfg.WantNormalized(), tt.norm)
		}
	}
}
