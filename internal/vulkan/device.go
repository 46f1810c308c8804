// Package vulkan owns the Vulkan objects of the renderer: the instance and
// logical device, the swapchain with its presentation plumbing, and the
// graphics pipeline. Everything here is created in terms of the handles the
// package exposes, so callers never touch the C API directly.
package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/m1nuz/vulkan-renderer/internal/journal"
	"github.com/m1nuz/vulkan-renderer/internal/window"
)

// Queue couples a device queue handle with the family it was taken from. The
// family index is needed again for command pools and swapchain sharing.
type Queue struct {
	Handle vk.Queue
	Family uint32
}

type CreateDeviceInfo struct {
	AppName           string
	EngineName        string
	Validate          bool
	Window            *window.Window
	MaxFramesInFlight uint32
}

// Device is the per-application graphics context: one instance, one picked
// GPU, one logical device with a graphics and a present queue, and the
// command pool the frame loop records into.
type Device struct {
	Instance vk.Instance
	GPU      vk.PhysicalDevice
	Handle   vk.Device
	Surface  vk.Surface

	Graphics Queue
	Present  Queue

	CommandPool    vk.CommandPool
	CommandBuffers []vk.CommandBuffer

	debugCallback    vk.DebugReportCallback
	gpuProperties    vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties
}

// CreateDevice bootstraps the whole context in dependency order. Any failure
// unwinds what was created so far and reports which step went wrong.
func CreateDevice(info CreateDeviceInfo) (*Device, error) {
	d := &Device{}

	if info.Validate {
		available, err := ValidationLayers()
		if err != nil {
			return nil, errors.Wrap(err, "device: enumerate layers")
		}
		_, missing := checkExisting(available, defaultValidationLayers)
		if missing > 0 {
			journal.Warning(journal.Vulkan, "%d validation layers unavailable, disabling validation", missing)
			info.Validate = false
		}
	}

	if err := d.createInstance(info); err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "device: create instance")
	}
	if info.Validate {
		callback, err := setupDebug(d.Instance)
		if err != nil {
			journal.Warning(journal.Vulkan, "debug callback unavailable: %v", err)
		} else {
			d.debugCallback = callback
		}
	}

	surface, err := info.Window.CreateSurface(d.Instance)
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "device: create surface")
	}
	d.Surface = surface

	if err := d.pickPhysicalDevice(); err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "device: pick physical device")
	}
	if err := d.createLogicalDevice(info); err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "device: create logical device")
	}
	if err := d.createCommandBuffers(info.MaxFramesInFlight); err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "device: create command buffers")
	}

	d.gpuProperties.Deref()
	journal.Message(journal.Vulkan, "using %s", vk.ToString(d.gpuProperties.DeviceName[:]))

	return d, nil
}

var defaultValidationLayers = []string{
	"VK_LAYER_KHRONOS_validation",
}

func (d *Device) createInstance(info CreateDeviceInfo) error {
	extensions := info.Window.RequiredInstanceExtensions()
	if info.Validate {
		extensions = append(extensions, "VK_EXT_debug_report")
	}

	available, err := InstanceExtensions()
	if err != nil {
		return err
	}
	existing, missing := checkExisting(available, extensions)
	if missing > 0 {
		return errors.Errorf("%d required instance extensions unavailable", missing)
	}

	var layers []string
	if info.Validate {
		layers = safeStrings(defaultValidationLayers)
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(info.AppName),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PEngineName:        safeString(info.EngineName),
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         vk.ApiVersion10,
		},
		EnabledExtensionCount:   uint32(len(existing)),
		PpEnabledExtensionNames: existing,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance)
	if err := Error(ret); err != nil {
		return err
	}
	d.Instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return errors.Wrap(err, "init instance")
	}
	return nil
}

// pickPhysicalDevice selects the first discrete GPU that can render and
// present. Laptops with only an integrated GPU are rejected.
func (d *Device) pickPhysicalDevice() error {
	var count uint32
	if err := Error(vk.EnumeratePhysicalDevices(d.Instance, &count, nil)); err != nil {
		return err
	}
	if count == 0 {
		return errors.New("no devices with Vulkan support")
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := Error(vk.EnumeratePhysicalDevices(d.Instance, &count, gpus)); err != nil {
		return err
	}

	for _, gpu := range gpus {
		graphics, present, ok := d.findQueueFamilies(gpu)
		if !ok {
			continue
		}
		if !d.isSuitable(gpu) {
			continue
		}
		d.GPU = gpu
		d.Graphics.Family = graphics
		d.Present.Family = present
		vk.GetPhysicalDeviceProperties(gpu, &d.gpuProperties)
		vk.GetPhysicalDeviceMemoryProperties(gpu, &d.memoryProperties)
		return nil
	}
	return errors.New("no suitable device found")
}

func (d *Device) isSuitable(gpu vk.PhysicalDevice) bool {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &properties)
	properties.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	limits := properties.Limits
	limits.Deref()

	return properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu &&
		features.GeometryShader == vk.True &&
		limits.MaxImageDimension2D >= 4096 &&
		vk.Version(properties.ApiVersion).Major() >= 1
}

// findQueueFamilies locates a graphics family and a present family on the
// gpu. A family that can do both wins over a split pair.
func (d *Device) findQueueFamilies(gpu vk.PhysicalDevice) (graphics, present uint32, ok bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)

	const none = vk.MaxUint32
	graphics, present = none, none
	for i, family := range families {
		family.Deref()

		supportsGraphics := family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, uint32(i), d.Surface, &supportsPresent)

		if supportsGraphics && supportsPresent == vk.True {
			return uint32(i), uint32(i), true
		}
		if supportsGraphics && graphics == none {
			graphics = uint32(i)
		}
		if supportsPresent == vk.True && present == none {
			present = uint32(i)
		}
	}
	if graphics == none || present == none {
		return 0, 0, false
	}
	return graphics, present, true
}

func (d *Device) createLogicalDevice(info CreateDeviceInfo) error {
	priorities := []float32{1.0}
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.Graphics.Family,
		QueueCount:       1,
		PQueuePriorities: priorities,
	}}
	if d.Present.Family != d.Graphics.Family {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: d.Present.Family,
			QueueCount:       1,
			PQueuePriorities: priorities,
		})
	}

	var layers []string
	if info.Validate {
		layers = safeStrings(defaultValidationLayers)
	}

	var device vk.Device
	ret := vk.CreateDevice(d.GPU, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   1,
		PpEnabledExtensionNames: []string{"VK_KHR_swapchain\x00"},
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &device)
	if err := Error(ret); err != nil {
		return err
	}
	d.Handle = device

	var graphics, present vk.Queue
	vk.GetDeviceQueue(device, d.Graphics.Family, 0, &graphics)
	vk.GetDeviceQueue(device, d.Present.Family, 0, &present)
	d.Graphics.Handle = graphics
	d.Present.Handle = present
	return nil
}

func (d *Device) createCommandBuffers(count uint32) error {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.Handle, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.Present.Family,
	}, nil, &pool)
	if err := Error(ret); err != nil {
		return err
	}
	d.CommandPool = pool

	buffers := make([]vk.CommandBuffer, count)
	ret = vk.AllocateCommandBuffers(d.Handle, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}, buffers)
	if err := Error(ret); err != nil {
		return err
	}
	d.CommandBuffers = buffers
	return nil
}

// Destroy tears the context down in reverse creation order. It tolerates a
// partially constructed Device, so CreateDevice can call it on failure.
func (d *Device) Destroy() {
	if d == nil {
		return
	}
	if d.Handle != nil {
		vk.DeviceWaitIdle(d.Handle)
		if len(d.CommandBuffers) > 0 {
			vk.FreeCommandBuffers(d.Handle, d.CommandPool, uint32(len(d.CommandBuffers)), d.CommandBuffers)
			d.CommandBuffers = nil
		}
		if d.CommandPool != vk.NullCommandPool {
			vk.DestroyCommandPool(d.Handle, d.CommandPool, nil)
			d.CommandPool = vk.NullCommandPool
		}
		vk.DestroyDevice(d.Handle, nil)
		d.Handle = nil
	}
	if d.Instance != nil {
		if d.Surface != vk.NullSurface {
			vk.DestroySurface(d.Instance, d.Surface, nil)
			d.Surface = vk.NullSurface
		}
		destroyDebug(d.Instance, d.debugCallback)
		d.debugCallback = vk.NullDebugReportCallback
		vk.DestroyInstance(d.Instance, nil)
		d.Instance = nil
	}
}
