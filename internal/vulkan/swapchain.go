package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/m1nuz/vulkan-renderer/internal/journal"
)

type CreateSwapchainInfo struct {
	Device         *Device
	Extent         vk.Extent2D
	FramesInFlight uint32
}

// Swapchain bundles the presentation chain with everything keyed to it: the
// per-image views and framebuffers, the render pass that targets them, and
// the per-slot synchronization primitives of the frame ring.
type Swapchain struct {
	Handle      vk.Swapchain
	Format      vk.Format
	Extent      vk.Extent2D
	PresentMode vk.PresentMode

	RenderPass   vk.RenderPass
	Images       []vk.Image
	Views        []vk.ImageView
	Framebuffers []vk.Framebuffer

	FramesInFlight uint32
	ImageAvailable []vk.Semaphore
	RenderFinished []vk.Semaphore
	InFlight       []vk.Fence
}

// CreateSwapchain builds the chain and its dependents in order. A failure
// leaves already created objects for the caller to Destroy.
func CreateSwapchain(info CreateSwapchainInfo) (*Swapchain, error) {
	sc := &Swapchain{FramesInFlight: info.FramesInFlight}

	if err := sc.createChain(info); err != nil {
		sc.Destroy(info.Device.Handle)
		return nil, errors.Wrap(err, "swapchain: create chain")
	}
	if err := sc.createImageViews(info.Device.Handle); err != nil {
		sc.Destroy(info.Device.Handle)
		return nil, errors.Wrap(err, "swapchain: create image views")
	}
	if err := sc.createRenderPass(info.Device.Handle); err != nil {
		sc.Destroy(info.Device.Handle)
		return nil, errors.Wrap(err, "swapchain: create render pass")
	}
	if err := sc.createFramebuffers(info.Device.Handle); err != nil {
		sc.Destroy(info.Device.Handle)
		return nil, errors.Wrap(err, "swapchain: create framebuffers")
	}
	if err := sc.createSyncObjects(info.Device.Handle); err != nil {
		sc.Destroy(info.Device.Handle)
		return nil, errors.Wrap(err, "swapchain: create sync objects")
	}

	journal.Debug(journal.Vulkan, "swapchain %dx%d, %d images, present mode %d",
		sc.Extent.Width, sc.Extent.Height, len(sc.Images), sc.PresentMode)

	return sc, nil
}

// chooseSurfaceFormat prefers 8-bit BGRA with sRGB encoding and otherwise
// takes whatever the surface offers first.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		f.Deref()
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	first := formats[0]
	first.Deref()
	return first
}

// choosePresentMode prefers mailbox for low latency without tearing. FIFO is
// the guaranteed fallback.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's current extent when the platform fixes it
// and otherwise clamps the desired size into the supported range.
func chooseExtent(caps vk.SurfaceCapabilities, desired vk.Extent2D) vk.Extent2D {
	current := caps.CurrentExtent
	current.Deref()
	if current.Width != vk.MaxUint32 {
		return current
	}
	min := caps.MinImageExtent
	min.Deref()
	max := caps.MaxImageExtent
	max.Deref()
	return vk.Extent2D{
		Width:  clampUint32(desired.Width, min.Width, max.Width),
		Height: clampUint32(desired.Height, min.Height, max.Height),
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (sc *Swapchain) createChain(info CreateSwapchainInfo) error {
	device := info.Device

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(device.GPU, device.Surface, &caps)
	if err := Error(ret); err != nil {
		return err
	}
	caps.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(device.GPU, device.Surface, &formatCount, nil)
	if formatCount == 0 {
		return errors.New("no surface formats")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(device.GPU, device.Surface, &formatCount, formats)

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(device.GPU, device.Surface, &modeCount, nil)
	if modeCount == 0 {
		return errors.New("no present modes")
	}
	modes := make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(device.GPU, device.Surface, &modeCount, modes)

	format := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(modes)
	extent := chooseExtent(caps, info.Extent)

	// One image over the minimum keeps the driver from stalling acquisition.
	// MaxImageCount of zero means unbounded.
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	preTransform := caps.CurrentTransform
	if caps.SupportedTransforms&vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit) != 0 {
		preTransform = vk.SurfaceTransformIdentityBit
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          device.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     preTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if device.Graphics.Family != device.Present.Family {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{device.Graphics.Family, device.Present.Family}
	}

	var chain vk.Swapchain
	if err := Error(vk.CreateSwapchain(device.Handle, &createInfo, nil, &chain)); err != nil {
		return err
	}
	sc.Handle = chain
	sc.Format = format.Format
	sc.Extent = extent
	sc.PresentMode = presentMode

	var count uint32
	vk.GetSwapchainImages(device.Handle, chain, &count, nil)
	sc.Images = make([]vk.Image, count)
	vk.GetSwapchainImages(device.Handle, chain, &count, sc.Images)
	return nil
}

func (sc *Swapchain) createImageViews(device vk.Device) error {
	sc.Views = make([]vk.ImageView, len(sc.Images))
	for i, image := range sc.Images {
		var view vk.ImageView
		ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   sc.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}, nil, &view)
		if err := Error(ret); err != nil {
			return err
		}
		sc.Views[i] = view
	}
	return nil
}

// createRenderPass builds the single-subpass pass the frame loop renders
// with: clear on load, store on write, hand the image off for presentation.
func (sc *Swapchain) createRenderPass(device vk.Device) error {
	attachment := vk.AttachmentDescription{
		Format:         sc.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorRef},
	}
	// The external dependency delays the clear until the acquired image is
	// actually ready for color output.
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{attachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}, nil, &renderPass)
	if err := Error(ret); err != nil {
		return err
	}
	sc.RenderPass = renderPass
	return nil
}

func (sc *Swapchain) createFramebuffers(device vk.Device) error {
	sc.Framebuffers = make([]vk.Framebuffer, len(sc.Views))
	for i, view := range sc.Views {
		var framebuffer vk.Framebuffer
		ret := vk.CreateFramebuffer(device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      sc.RenderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           sc.Extent.Width,
			Height:          sc.Extent.Height,
			Layers:          1,
		}, nil, &framebuffer)
		if err := Error(ret); err != nil {
			return err
		}
		sc.Framebuffers[i] = framebuffer
	}
	return nil
}

// createSyncObjects makes one semaphore pair and one fence per frame slot.
// Fences start signaled so the first wait on each slot passes immediately.
func (sc *Swapchain) createSyncObjects(device vk.Device) error {
	count := int(sc.FramesInFlight)
	sc.ImageAvailable = make([]vk.Semaphore, count)
	sc.RenderFinished = make([]vk.Semaphore, count)
	sc.InFlight = make([]vk.Fence, count)

	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	for i := 0; i < count; i++ {
		if err := Error(vk.CreateSemaphore(device, &semaphoreInfo, nil, &sc.ImageAvailable[i])); err != nil {
			return err
		}
		if err := Error(vk.CreateSemaphore(device, &semaphoreInfo, nil, &sc.RenderFinished[i])); err != nil {
			return err
		}
		if err := Error(vk.CreateFence(device, &fenceInfo, nil, &sc.InFlight[i])); err != nil {
			return err
		}
	}
	return nil
}

// Destroy releases everything keyed to the chain and then the chain itself.
// The caller must make sure the device is idle first.
func (sc *Swapchain) Destroy(device vk.Device) {
	if sc == nil || device == nil {
		return
	}
	for _, s := range sc.ImageAvailable {
		if s != vk.NullSemaphore {
			vk.DestroySemaphore(device, s, nil)
		}
	}
	for _, s := range sc.RenderFinished {
		if s != vk.NullSemaphore {
			vk.DestroySemaphore(device, s, nil)
		}
	}
	for _, f := range sc.InFlight {
		if f != vk.NullFence {
			vk.DestroyFence(device, f, nil)
		}
	}
	sc.ImageAvailable, sc.RenderFinished, sc.InFlight = nil, nil, nil

	for _, fb := range sc.Framebuffers {
		if fb != vk.NullFramebuffer {
			vk.DestroyFramebuffer(device, fb, nil)
		}
	}
	sc.Framebuffers = nil

	if sc.RenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(device, sc.RenderPass, nil)
		sc.RenderPass = vk.NullRenderPass
	}
	for _, view := range sc.Views {
		if view != vk.NullImageView {
			vk.DestroyImageView(device, view, nil)
		}
	}
	sc.Views = nil

	if sc.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(device, sc.Handle, nil)
		sc.Handle = vk.NullSwapchain
	}
}
