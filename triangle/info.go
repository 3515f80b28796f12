package triangle

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/tablewriter"
)

// Report renders a one-shot summary of the selected device and surface,
// printed by the mains right after bring-up.
func (ctx *Context) Report() string {
	var gpuProperties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(ctx.gpu, &gpuProperties)
	gpuProperties.Deref()

	table := tablewriter.CreateTable()
	table.UTF8Box()
	table.AddTitle("VULKAN DEVICE AND SWAPCHAIN")
	table.AddRow("Physical Device Name", vk.ToString(gpuProperties.DeviceName[:]))
	table.AddRow("Physical Device Vendor", fmt.Sprintf("%x", gpuProperties.VendorID))
	table.AddRow("Physical Device Type", physicalDeviceType(gpuProperties.DeviceType))
	table.AddRow("API Version", vk.Version(gpuProperties.ApiVersion))
	table.AddRow("Driver Version", vk.Version(gpuProperties.DriverVersion))
	table.AddSeparator()
	table.AddRow("Queue Family", ctx.QueueFamilyIndex)
	table.AddRow("Image Format", fmt.Sprintf("%d", ctx.Format))
	table.AddRow("Image Extent", fmt.Sprintf("%dx%d", ctx.Extent.Width, ctx.Extent.Height))
	table.AddRow("Image Count", len(ctx.Images))

	var surfaceCapabilities vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(ctx.gpu, ctx.Surface, &surfaceCapabilities)
	if ret == vk.Success {
		surfaceCapabilities.Deref()
		table.AddRow("Image Count (supported)", imageCountRange(
			surfaceCapabilities.MinImageCount, surfaceCapabilities.MaxImageCount))
	}

	return table.Render()
}

// imageCountRange formats a surface's supported image count range. A max of
// zero means the surface imposes no upper limit.
func imageCountRange(min, max uint32) string {
	if max == 0 {
		return fmt.Sprintf("%d+", min)
	}
	return fmt.Sprintf("%d - %d", min, max)
}

func physicalDeviceType(dev vk.PhysicalDeviceType) string {
	switch dev {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	case vk.PhysicalDeviceTypeOther:
		return "Other"
	default:
		return "Unknown"
	}
}
