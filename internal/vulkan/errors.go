package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Error maps a Vulkan result onto a Go error carrying the platform code.
// Success maps to nil.
func Error(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return errors.Errorf("vulkan error: %s (%d)", vk.Error(ret).Error(), ret)
}
