package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/m1nuz/vulkan-renderer/internal/journal"
)

// setupDebug registers a diagnostics callback and returns the owned handle.
// The handle lives on the Device so multiple contexts stay independent.
func setupDebug(instance vk.Instance) (vk.DebugReportCallback, error) {
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: debugReportFunc,
	}, nil, &callback)
	if err := Error(ret); err != nil {
		return vk.NullDebugReportCallback, err
	}
	return callback, nil
}

func destroyDebug(instance vk.Instance, callback vk.DebugReportCallback) {
	if callback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(instance, callback, nil)
	}
}

func debugReportFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		journal.Error(journal.Vulkan, "[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0,
		flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		journal.Warning(journal.Vulkan, "[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		journal.Debug(journal.Vulkan, "[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		journal.Message(journal.Vulkan, "[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
