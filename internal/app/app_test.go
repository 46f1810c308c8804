package app

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfiguration(t *testing.T) {
	conf := DefaultConfiguration()
	if conf.WindowWidth != 1920 || conf.WindowHeight != 1080 {
		t.Errorf("window = %dx%d, want 1920x1080", conf.WindowWidth, conf.WindowHeight)
	}
	if !conf.WindowCentered {
		t.Error("window not centered by default")
	}
	if !conf.DebugGraphics {
		t.Error("graphics debugging off by default")
	}
	if conf.Fullscreen || conf.VSync {
		t.Error("fullscreen and vsync should default off")
	}
}

func TestReadConfMissingFile(t *testing.T) {
	conf, err := ReadConf(filepath.Join(t.TempDir(), "settings.conf"))
	if err != nil {
		t.Fatalf("missing settings should fall back to defaults: %v", err)
	}
	if conf != DefaultConfiguration() {
		t.Error("missing settings did not yield the defaults")
	}
}
