// Package window wraps the GLFW window the renderer presents into. It is a
// thin capability layer: create, poll events, query size, make a surface.
package window

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Config struct {
	Title    string
	Width    int
	Height   int
	Centered bool
}

type Window struct {
	handle *glfw.Window
}

// Create opens a hidden window without a client API context, optionally
// centers it on the primary monitor, then shows it.
func Create(conf Config) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.False)

	handle, err := glfw.CreateWindow(conf.Width, conf.Height, conf.Title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "window: create")
	}

	w := &Window{handle: handle}
	if conf.Centered {
		w.center(glfw.GetPrimaryMonitor())
	}
	handle.SetCursorPos(float64(conf.Width)/2, float64(conf.Height)/2)
	handle.Show()

	return w, nil
}

func (w *Window) center(monitor *glfw.Monitor) {
	if monitor == nil {
		return
	}
	mode := monitor.GetVideoMode()
	if mode == nil {
		return
	}
	monitorX, monitorY := monitor.GetPos()
	width, height := w.handle.GetSize()
	w.handle.SetPos(monitorX+(mode.Width-width)/2, monitorY+(mode.Height-height)/2)
}

// ProcessEvents polls pending events and reports whether the window should
// stay open.
func (w *Window) ProcessEvents() bool {
	if w.handle.ShouldClose() {
		return false
	}
	glfw.PollEvents()
	return true
}

func (w *Window) FramebufferSize() (width, height int) {
	return w.handle.GetFramebufferSize()
}

// RequiredInstanceExtensions lists the Vulkan instance extensions the
// windowing system needs for presentation.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

// CreateSurface makes a presentation surface for the given instance.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "window: create surface")
	}
	return vk.SurfaceFromPointer(surfPtr), nil
}

func (w *Window) Destroy() {
	w.handle.Destroy()
}
