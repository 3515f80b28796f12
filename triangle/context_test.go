package triangle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestPreferDiscrete(t *testing.T) {
	for idx, tc := range []struct {
		name  string
		types []vk.PhysicalDeviceType
		want  int
	}{
		{"discrete only", []vk.PhysicalDeviceType{vk.PhysicalDeviceTypeDiscreteGpu}, 0},
		{"integrated then discrete", []vk.PhysicalDeviceType{
			vk.PhysicalDeviceTypeIntegratedGpu, vk.PhysicalDeviceTypeDiscreteGpu}, 1},
		{"first discrete wins", []vk.PhysicalDeviceType{
			vk.PhysicalDeviceTypeIntegratedGpu, vk.PhysicalDeviceTypeDiscreteGpu,
			vk.PhysicalDeviceTypeDiscreteGpu}, 1},
		{"no discrete falls back to 0", []vk.PhysicalDeviceType{
			vk.PhysicalDeviceTypeIntegratedGpu, vk.PhysicalDeviceTypeVirtualGpu}, 0},
		{"cpu only", []vk.PhysicalDeviceType{vk.PhysicalDeviceTypeCpu}, 0},
	} {
		t.Run(fmt.Sprintf("%d/%s", idx, tc.name), func(t *testing.T) {
			require.Equal(t, tc.want, preferDiscrete(tc.types))
		})
	}
}

func TestPickQueueFamily(t *testing.T) {
	for idx, tc := range []struct {
		name    string
		caps    []queueFamilyCaps
		want    uint32
		wantErr bool
	}{
		{"family zero has both", []queueFamilyCaps{
			{Graphics: true, Present: true}}, 0, false},
		{"skips graphics-only family", []queueFamilyCaps{
			{Graphics: true}, {Graphics: true, Present: true}}, 1, false},
		{"skips present-only family", []queueFamilyCaps{
			{Present: true}, {Graphics: true, Present: true}}, 1, false},
		{"first qualifying family wins", []queueFamilyCaps{
			{}, {Graphics: true, Present: true}, {Graphics: true, Present: true}}, 1, false},
		{"split capabilities do not qualify", []queueFamilyCaps{
			{Graphics: true}, {Present: true}}, 0, true},
		{"no families", nil, 0, true},
	} {
		t.Run(fmt.Sprintf("%d/%s", idx, tc.name), func(t *testing.T) {
			got, err := pickQueueFamily(tc.caps)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestHasLayer(t *testing.T) {
	available := []string{
		"VK_LAYER_MESA_device_select",
		"VK_LAYER_KHRONOS_validation",
	}
	require.True(t, hasLayer(available, validationLayerName))
	require.False(t, hasLayer(available, "VK_LAYER_LUNARG_api_dump"))
	require.False(t, hasLayer(nil, validationLayerName))
}

func TestCheckImageCount(t *testing.T) {
	require.NoError(t, checkImageCount(2))
	require.Error(t, checkImageCount(1))
	require.Error(t, checkImageCount(3))
	require.Error(t, checkImageCount(0))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 100, cfg.X)
	require.Equal(t, 100, cfg.Y)
	require.Equal(t, uint32(800), cfg.Width)
	require.Equal(t, uint32(600), cfg.Height)
	require.Equal(t, "../shaders/vert.spv", cfg.VertShaderPath)
	require.Equal(t, "../shaders/frag.spv", cfg.FragShaderPath)
	require.NotEmpty(t, cfg.Title)
}
