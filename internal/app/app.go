// Package app ties the pieces together: configuration, asset storage, the
// window and the renderer, plus the main loop that pumps them.
package app

import (
	"os"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/m1nuz/vulkan-renderer/internal/journal"
	"github.com/m1nuz/vulkan-renderer/internal/render"
	"github.com/m1nuz/vulkan-renderer/internal/storage"
	"github.com/m1nuz/vulkan-renderer/internal/window"
)

const (
	appName    = "Vulkan Renderer"
	engineName = "No Engine"
)

type Configuration struct {
	WindowWidth    int
	WindowHeight   int
	Title          string
	Fullscreen     bool
	VSync          bool
	WindowCentered bool
	DebugGraphics  bool
}

func DefaultConfiguration() Configuration {
	return Configuration{
		WindowWidth:    1920,
		WindowHeight:   1080,
		Title:          appName,
		Fullscreen:     false,
		VSync:          false,
		WindowCentered: true,
		DebugGraphics:  true,
	}
}

// ReadConf loads the configuration file at path, falling back to defaults
// when it is absent. The settings format is not parsed yet.
func ReadConf(path string) (Configuration, error) {
	conf := DefaultConfiguration()
	if _, err := os.Stat(path); err != nil {
		journal.Debug(journal.App, "no settings at %s, using defaults", path)
	}
	return conf, nil
}

// Run owns the application lifetime: bring everything up, pump frames until
// the window closes, tear everything down.
func Run(conf Configuration) error {
	journal.Message(journal.App, "start")

	store := storage.New()
	if err := store.Open("assets"); err != nil {
		return errors.Wrap(err, "app: open storage")
	}
	defer store.Close()

	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "app: init glfw")
	}
	defer glfw.Terminate()

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "app: init vulkan")
	}

	win, err := window.Create(window.Config{
		Title:    conf.Title,
		Width:    conf.WindowWidth,
		Height:   conf.WindowHeight,
		Centered: conf.WindowCentered,
	})
	if err != nil {
		return errors.Wrap(err, "app: create window")
	}
	defer win.Destroy()

	renderer, err := render.CreateRenderer(render.CreateRendererInfo{
		AppName:    conf.Title,
		EngineName: engineName,
		Validate:   conf.DebugGraphics,
		Window:     win,
	}, store)
	if err != nil {
		return errors.Wrap(err, "app: create renderer")
	}
	defer renderer.Destroy()

	for win.ProcessEvents() {
		renderer.DrawFrame()
	}

	journal.Message(journal.App, "shutdown")
	return nil
}
