package triangle

import (
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestImageCountRange(t *testing.T) {
	require.Equal(t, "2 - 8", imageCountRange(2, 8))
	require.Equal(t, "1+", imageCountRange(1, 0))
}

func TestPhysicalDeviceType(t *testing.T) {
	require.Equal(t, "Discrete GPU", physicalDeviceType(vk.PhysicalDeviceTypeDiscreteGpu))
	require.Equal(t, "Integrated GPU", physicalDeviceType(vk.PhysicalDeviceTypeIntegratedGpu))
	require.Equal(t, "Unknown", physicalDeviceType(vk.PhysicalDeviceType(42)))
}
