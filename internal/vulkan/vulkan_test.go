package vulkan

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestCheckExisting(t *testing.T) {
	actual := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}
	required := []string{"VK_KHR_surface\x00", "VK_EXT_debug_report"}

	existing, missing := checkExisting(actual, required)
	if missing != 1 {
		t.Errorf("missing = %d, want 1", missing)
	}
	if len(existing) != 1 || existing[0] != "VK_KHR_surface\x00" {
		t.Errorf("existing = %v, want the surface extension, NUL-terminated", existing)
	}
}

func TestSafeString(t *testing.T) {
	if got := safeString("abc"); got != "abc\x00" {
		t.Errorf("safeString(abc) = %q", got)
	}
	if got := safeString("abc\x00"); got != "abc\x00" {
		t.Errorf("safeString did not keep existing terminator: %q", got)
	}
}

func TestRepackUint32(t *testing.T) {
	words := repackUint32([]byte{0x03, 0x02, 0x23, 0x07, 0x01, 0x00, 0x00, 0x00})
	if len(words) != 2 {
		t.Fatalf("len = %d, want 2", len(words))
	}
	if words[0] != 0x07230203 {
		t.Errorf("words[0] = %#x, want the SPIR-V magic", words[0])
	}
	if words[1] != 1 {
		t.Errorf("words[1] = %#x, want 1", words[1])
	}
}

func TestClampUint32(t *testing.T) {
	if got := clampUint32(5, 10, 20); got != 10 {
		t.Errorf("clamp below = %d, want 10", got)
	}
	if got := clampUint32(25, 10, 20); got != 20 {
		t.Errorf("clamp above = %d, want 20", got)
	}
	if got := clampUint32(15, 10, 20); got != 15 {
		t.Errorf("clamp inside = %d, want 15", got)
	}
}

func TestStageBit(t *testing.T) {
	cases := []struct {
		in   ShaderType
		want vk.ShaderStageFlagBits
	}{
		{ShaderVertex, vk.ShaderStageVertexBit},
		{ShaderFragment, vk.ShaderStageFragmentBit},
		{ShaderGeometry, vk.ShaderStageGeometryBit},
	}
	for _, c := range cases {
		got, err := stageBit(c.in)
		if err != nil {
			t.Fatalf("stageBit(%d): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("stageBit(%d) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := stageBit(ShaderUnknown); err == nil {
		t.Error("unknown stage did not error")
	}
}

func TestErrorMapping(t *testing.T) {
	if err := Error(vk.Success); err != nil {
		t.Errorf("success mapped to %v", err)
	}
	if err := Error(vk.ErrorDeviceLost); err == nil {
		t.Error("device loss mapped to nil")
	}
}
