// Package triangle brings up a Vulkan device and swapchain for a window and
// draws a single shader-defined triangle to it every frame. The bring-up is a
// single linear pass: instance, debug callback, surface, device, queue,
// swapchain, image views. Nothing is revisited after construction, so window
// resizing is not supported.
package triangle

import (
	"fmt"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// swapchainImageCount is the number of images requested from the swapchain.
// The whole frame protocol assumes double buffering, so a platform that hands
// out any other count fails the bring-up.
const swapchainImageCount = 2

// Config carries everything the mains decide: window placement, shader
// locations and the sink for validation layer output.
type Config struct {
	Title  string
	X, Y   int
	Width  uint32
	Height uint32

	VertShaderPath string
	FragShaderPath string

	// DebugLog receives validation layer messages. Defaults to the standard
	// logger.
	DebugLog *log.Logger
}

func DefaultConfig() Config {
	return Config{
		Title:          "Triangle",
		X:              100,
		Y:              100,
		Width:          800,
		Height:         600,
		VertShaderPath: "../shaders/vert.spv",
		FragShaderPath: "../shaders/frag.spv",
	}
}

// Window is the platform service the bring-up consumes. The GLFW and SDL2
// mains adapt their window handles to it.
type Window interface {
	// InstanceExtensions returns the instance extensions the platform needs
	// for surface creation (VK_KHR_surface plus the platform surface one).
	InstanceExtensions() []string
	// CreateSurface binds a presentation surface to the window.
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Context is the immutable object graph produced by NewContext. Everything
// here is owned for the lifetime of the process; Destroy exists for orderly
// shutdown via closer.
type Context struct {
	gpu vk.PhysicalDevice
	dbg vk.DebugReportCallback

	Instance         vk.Instance
	Surface          vk.Surface
	Device           vk.Device
	Queue            vk.Queue
	QueueFamilyIndex uint32
	Swapchain        vk.Swapchain
	Images           []vk.Image
	ImageViews       []vk.ImageView
	Format           vk.Format
	Extent           vk.Extent2D
}

// debugOut is the sink the debug report trampoline writes to. The callback
// must be a package-level function to cross cgo, so the injected logger lives
// here rather than on the Context.
var debugOut = log.Default()

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	debugOut.Printf("[vulkan %s] %s", pLayerPrefix, pMessage)
	return vk.Bool32(vk.False)
}

// NewContext runs the full bring-up sequence against the given window.
// Every failure is terminal for the caller; there is no partial recovery.
func NewContext(cfg Config, window Window) (*Context, error) {
	if cfg.DebugLog != nil {
		debugOut = cfg.DebugLog
	}
	ctx := &Context{}

	// The validation layer is a hard requirement of this debug-oriented
	// bring-up, not a runtime feature probe.
	layers, err := instanceLayerNames()
	if err != nil {
		return nil, err
	}
	if !hasLayer(layers, validationLayerName) {
		return nil, fmt.Errorf("validation layer %s not present", validationLayerName)
	}

	instanceExtensions := make([]string, 0, 3)
	for _, ext := range window.InstanceExtensions() {
		instanceExtensions = append(instanceExtensions, nullTerm(ext))
	}
	instanceExtensions = append(instanceExtensions, "VK_EXT_debug_report\x00")

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   "My Clever App Name\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "My Even Cleverer Engine Name\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}
	instanceCreateInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledLayerCount:       1,
		PpEnabledLayerNames:     []string{nullTerm(validationLayerName)},
		EnabledExtensionCount:   uint32(len(instanceExtensions)),
		PpEnabledExtensionNames: instanceExtensions,
	}
	err = vk.Error(vk.CreateInstance(&instanceCreateInfo, nil, &ctx.Instance))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateInstance failed with %s", err)
	}
	vk.InitInstance(ctx.Instance)

	// The callback accepts every severity and category; it only forwards the
	// text to the debug sink, never filters or aborts.
	dbgCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportInformationBit |
			vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit |
			vk.DebugReportErrorBit | vk.DebugReportDebugBit),
		PfnCallback: dbgCallbackFunc,
	}
	err = vk.Error(vk.CreateDebugReportCallback(ctx.Instance, &dbgCreateInfo, nil, &ctx.dbg))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateDebugReportCallback failed with %s", err)
	}

	ctx.Surface, err = window.CreateSurface(ctx.Instance)
	if err != nil {
		return nil, fmt.Errorf("surface creation failed with %s", err)
	}

	if err := ctx.pickPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := ctx.createDeviceAndQueue(); err != nil {
		return nil, err
	}
	if err := ctx.createSwapchain(); err != nil {
		return nil, err
	}
	if err := ctx.createImageViews(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func instanceLayerNames() ([]string, error) {
	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	if err := vk.Error(ret); err != nil {
		return nil, fmt.Errorf("vk.EnumerateInstanceLayerProperties failed with %s", err)
	}
	props := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, props)
	if err := vk.Error(ret); err != nil {
		return nil, fmt.Errorf("vk.EnumerateInstanceLayerProperties failed with %s", err)
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

// pickPhysicalDevice prefers the first discrete GPU and falls back to the
// first enumerated device otherwise.
func (ctx *Context) pickPhysicalDevice() error {
	var gpuCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(ctx.Instance, &gpuCount, nil))
	if err != nil {
		return fmt.Errorf("vk.EnumeratePhysicalDevices failed with %s", err)
	}
	if gpuCount == 0 {
		return fmt.Errorf("no GPUs found on the system")
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(ctx.Instance, &gpuCount, gpus))
	if err != nil {
		return fmt.Errorf("vk.EnumeratePhysicalDevices failed with %s", err)
	}

	types := make([]vk.PhysicalDeviceType, len(gpus))
	for i, gpu := range gpus {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &props)
		props.Deref()
		types[i] = props.DeviceType
	}
	ctx.gpu = gpus[preferDiscrete(types)]
	return nil
}

// queueFamilyCaps is the per-family capability pair the selection runs on.
type queueFamilyCaps struct {
	Graphics bool
	Present  bool
}

func (ctx *Context) createDeviceAndQueue() error {
	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(ctx.gpu, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(ctx.gpu, &familyCount, families)

	caps := make([]queueFamilyCaps, familyCount)
	for i := range families {
		families[i].Deref()
		caps[i].Graphics = families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var presentSupport vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(ctx.gpu, uint32(i), ctx.Surface, &presentSupport)
		caps[i].Present = presentSupport == vk.True
	}
	family, err := pickQueueFamily(caps)
	if err != nil {
		return err
	}
	ctx.QueueFamilyIndex = family

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: ctx.QueueFamilyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	deviceExtensions := []string{
		"VK_KHR_swapchain\x00",
	}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
	}
	err = vk.Error(vk.CreateDevice(ctx.gpu, &deviceCreateInfo, nil, &ctx.Device))
	if err != nil {
		return fmt.Errorf("vk.CreateDevice failed with %s", err)
	}

	var queue vk.Queue
	vk.GetDeviceQueue(ctx.Device, ctx.QueueFamilyIndex, 0, &queue)
	ctx.Queue = queue
	return nil
}

func (ctx *Context) createSwapchain() error {
	var surfaceCapabilities vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(ctx.gpu, ctx.Surface, &surfaceCapabilities))
	if err != nil {
		return fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities failed with %s", err)
	}
	surfaceCapabilities.Deref()
	surfaceCapabilities.CurrentExtent.Deref()

	// Format and extent are fixed here for the lifetime of the context.
	ctx.Format = vk.FormatB8g8r8a8Srgb
	ctx.Extent = surfaceCapabilities.CurrentExtent

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    swapchainImageCount,
		ImageFormat:      ctx.Format,
		ImageColorSpace:  vk.ColorspaceSrgbNonlinear,
		ImageExtent:      ctx.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     surfaceCapabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	err = vk.Error(vk.CreateSwapchain(ctx.Device, &swapchainCreateInfo, nil, &ctx.Swapchain))
	if err != nil {
		return fmt.Errorf("vk.CreateSwapchain failed with %s", err)
	}

	var imageCount uint32
	err = vk.Error(vk.GetSwapchainImages(ctx.Device, ctx.Swapchain, &imageCount, nil))
	if err != nil {
		return fmt.Errorf("vk.GetSwapchainImages failed with %s", err)
	}
	if err := checkImageCount(imageCount); err != nil {
		return err
	}
	ctx.Images = make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(ctx.Device, ctx.Swapchain, &imageCount, ctx.Images))
	if err != nil {
		return fmt.Errorf("vk.GetSwapchainImages failed with %s", err)
	}
	return nil
}

func (ctx *Context) createImageViews() error {
	ctx.ImageViews = make([]vk.ImageView, len(ctx.Images))
	for i, image := range ctx.Images {
		viewCreateInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   ctx.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		err := vk.Error(vk.CreateImageView(ctx.Device, &viewCreateInfo, nil, &ctx.ImageViews[i]))
		if err != nil {
			return fmt.Errorf("vk.CreateImageView failed with %s", err)
		}
	}
	return nil
}

// Destroy tears the context down in reverse construction order. It is bound
// to closer by the mains and runs once, on exit.
func (ctx *Context) Destroy() {
	for _, view := range ctx.ImageViews {
		vk.DestroyImageView(ctx.Device, view, nil)
	}
	ctx.ImageViews = nil
	ctx.Images = nil
	vk.DestroySwapchain(ctx.Device, ctx.Swapchain, nil)
	vk.DestroyDevice(ctx.Device, nil)
	vk.DestroySurface(ctx.Instance, ctx.Surface, nil)
	if ctx.dbg != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.dbg, nil)
	}
	vk.DestroyInstance(ctx.Instance, nil)
}

func hasLayer(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

// preferDiscrete returns the index of the first discrete GPU, or 0 when the
// host has none.
func preferDiscrete(types []vk.PhysicalDeviceType) int {
	for i, t := range types {
		if t == vk.PhysicalDeviceTypeDiscreteGpu {
			return i
		}
	}
	return 0
}

// pickQueueFamily selects the first family that can both run graphics
// commands and present to the surface. Submission and presentation share one
// queue, so a split graphics/present pair is not accepted.
func pickQueueFamily(caps []queueFamilyCaps) (uint32, error) {
	for i, c := range caps {
		if c.Graphics && c.Present {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("no queue family supports both graphics and present")
}

func checkImageCount(count uint32) error {
	if count != swapchainImageCount {
		return fmt.Errorf("swapchain returned %d images, want %d", count, swapchainImageCount)
	}
	return nil
}
