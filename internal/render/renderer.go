// Package render drives the frame loop. The Loop owns the slot protocol and
// the Renderer implements its steps on top of the vulkan package.
package render

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/m1nuz/vulkan-renderer/internal/journal"
	"github.com/m1nuz/vulkan-renderer/internal/storage"
	"github.com/m1nuz/vulkan-renderer/internal/vulkan"
	"github.com/m1nuz/vulkan-renderer/internal/window"
)

// MaxFramesInFlight bounds how many frames the CPU may record ahead of the
// GPU. Three slots keep a mailbox chain busy without runaway latency.
const MaxFramesInFlight = 3

const (
	baseVertexShader   = "Base.vert.spv"
	baseFragmentShader = "Base.frag.spv"
)

type CreateRendererInfo struct {
	AppName    string
	EngineName string
	Validate   bool
	Window     *window.Window
}

// Renderer couples the device, swapchain and pipeline with the frame loop.
// It is the loop's backend, translating each slot step into API calls.
type Renderer struct {
	Device    *vulkan.Device
	Swapchain *vulkan.Swapchain
	Pipeline  *vulkan.Pipeline

	loop *Loop
}

// CreateRenderer bootstraps the full graphics stack over the given window
// and fetches the base shaders from storage.
func CreateRenderer(info CreateRendererInfo, store *storage.Storage) (*Renderer, error) {
	device, err := vulkan.CreateDevice(vulkan.CreateDeviceInfo{
		AppName:           info.AppName,
		EngineName:        info.EngineName,
		Validate:          info.Validate,
		Window:            info.Window,
		MaxFramesInFlight: MaxFramesInFlight,
	})
	if err != nil {
		return nil, errors.Wrap(err, "render: create device")
	}

	width, height := info.Window.FramebufferSize()
	swapchain, err := vulkan.CreateSwapchain(vulkan.CreateSwapchainInfo{
		Device:         device,
		Extent:         vk.Extent2D{Width: uint32(width), Height: uint32(height)},
		FramesInFlight: MaxFramesInFlight,
	})
	if err != nil {
		device.Destroy()
		return nil, errors.Wrap(err, "render: create swapchain")
	}

	shaders, err := baseShaders(store)
	if err != nil {
		swapchain.Destroy(device.Handle)
		device.Destroy()
		return nil, errors.Wrap(err, "render: load shaders")
	}
	pipeline, err := vulkan.CreatePipeline(vulkan.CreatePipelineInfo{
		Device:     device.Handle,
		RenderPass: swapchain.RenderPass,
		Shaders:    shaders,
	})
	if err != nil {
		swapchain.Destroy(device.Handle)
		device.Destroy()
		return nil, errors.Wrap(err, "render: create pipeline")
	}

	r := &Renderer{
		Device:    device,
		Swapchain: swapchain,
		Pipeline:  pipeline,
	}
	r.loop = NewLoop(r, MaxFramesInFlight)

	journal.Message(journal.Render, "renderer ready, %d frames in flight", MaxFramesInFlight)
	return r, nil
}

func baseShaders(store *storage.Storage) ([]vulkan.ShaderStage, error) {
	names := []string{baseVertexShader, baseFragmentShader}
	stages := make([]vulkan.ShaderStage, 0, len(names))
	for _, name := range names {
		id := storage.ResourceID(storage.KindShader, name)
		shader, ok := store.GetShader(id)
		if !ok {
			return nil, errors.Errorf("shader %s not found", name)
		}
		stages = append(stages, vulkan.ShaderStage{
			Type:   shaderType(shader.Type),
			Binary: shader.Binary,
		})
	}
	return stages, nil
}

func shaderType(t storage.ShaderType) vulkan.ShaderType {
	switch t {
	case storage.ShaderVertex:
		return vulkan.ShaderVertex
	case storage.ShaderFragment:
		return vulkan.ShaderFragment
	case storage.ShaderGeometry:
		return vulkan.ShaderGeometry
	}
	return vulkan.ShaderUnknown
}

// DrawFrame runs one iteration of the frame loop.
func (r *Renderer) DrawFrame() {
	r.loop.Iterate()
}

// WaitFrame blocks until the slot's previous submission retired, then
// re-arms its fence for this frame.
func (r *Renderer) WaitFrame(slot int) error {
	fences := []vk.Fence{r.Swapchain.InFlight[slot]}
	if err := vulkan.Error(vk.WaitForFences(r.Device.Handle, 1, fences, vk.True, vk.MaxUint64)); err != nil {
		return err
	}
	return vulkan.Error(vk.ResetFences(r.Device.Handle, 1, fences))
}

// Acquire asks the chain for the next image, signaling the slot's
// image-available semaphore when it is ready.
func (r *Renderer) Acquire(slot int) (uint32, Status) {
	var image uint32
	ret := vk.AcquireNextImage(r.Device.Handle, r.Swapchain.Handle, vk.MaxUint64,
		r.Swapchain.ImageAvailable[slot], vk.NullFence, &image)
	return image, statusOf(ret)
}

// Record re-records the slot's command buffer against the acquired image's
// framebuffer: one pass, one pipeline, one three-vertex draw.
func (r *Renderer) Record(slot int, image uint32) error {
	cmd := r.Device.CommandBuffers[slot]
	if err := vulkan.Error(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return err
	}
	if err := vulkan.Error(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	})); err != nil {
		return err
	}

	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{0, 0, 0, 1}),
	}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.Swapchain.RenderPass,
		Framebuffer: r.Swapchain.Framebuffers[image],
		RenderArea: vk.Rect2D{
			Extent: r.Swapchain.Extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, r.Pipeline.Handle)
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(r.Swapchain.Extent.Width),
		Height:   float32(r.Swapchain.Extent.Height),
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
		Extent: r.Swapchain.Extent,
	}})
	vk.CmdDraw(cmd, 3, 1, 0, 0)

	vk.CmdEndRenderPass(cmd)
	return vulkan.Error(vk.EndCommandBuffer(cmd))
}

// Submit hands the slot's commands to the graphics queue. Execution waits
// for the acquired image at color output and signals the render-finished
// semaphore plus the slot fence.
func (r *Renderer) Submit(slot int, image uint32) Status {
	ret := vk.QueueSubmit(r.Device.Graphics.Handle, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.Swapchain.ImageAvailable[slot]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{r.Device.CommandBuffers[slot]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{r.Swapchain.RenderFinished[slot]},
	}}, r.Swapchain.InFlight[slot])
	return statusOf(ret)
}

// Present queues the image for display once rendering finished.
func (r *Renderer) Present(slot int, image uint32) Status {
	ret := vk.QueuePresent(r.Device.Present.Handle, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.Swapchain.RenderFinished[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{r.Swapchain.Handle},
		PImageIndices:      []uint32{image},
	})
	return statusOf(ret)
}

func statusOf(ret vk.Result) Status {
	switch ret {
	case vk.Success:
		return StatusOK
	case vk.Suboptimal:
		return StatusSuboptimal
	case vk.ErrorOutOfDate:
		return StatusOutOfDate
	}
	return StatusFailed
}

// Destroy waits for the device to go idle and tears the stack down in
// reverse creation order.
func (r *Renderer) Destroy() {
	if r == nil {
		return
	}
	if r.Device != nil && r.Device.Handle != nil {
		vk.DeviceWaitIdle(r.Device.Handle)
	}
	r.Pipeline.Destroy()
	if r.Device != nil {
		r.Swapchain.Destroy(r.Device.Handle)
	}
	r.Device.Destroy()
}
