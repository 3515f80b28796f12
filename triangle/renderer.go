package triangle

import (
	"fmt"

	as "github.com/vulkan-go/asche"
	vk "github.com/vulkan-go/vulkan"
)

// clearColor fills the whole attachment before the triangle is drawn.
var clearColor = []float32{1, 1, 0, 1} // yellow

// Renderer holds the static render targets and the single-frame-in-flight
// synchronization set. One command buffer is reset and re-recorded every
// frame rather than reallocated.
type Renderer struct {
	ctx *Context

	RenderPass   vk.RenderPass
	Framebuffers []vk.Framebuffer

	PipelineLayout vk.PipelineLayout
	Pipeline       vk.Pipeline

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer

	imageAvailableSemaphore vk.Semaphore
	renderFinishedSemaphore vk.Semaphore
	frameFence              vk.Fence
}

func NewRenderer(ctx *Context, cfg Config) (*Renderer, error) {
	r := &Renderer{ctx: ctx}
	if err := r.createRenderPass(); err != nil {
		return nil, err
	}
	if err := r.createFramebuffers(); err != nil {
		return nil, err
	}
	if err := r.createPipeline(cfg); err != nil {
		return nil, err
	}
	if err := r.createCommandBuffer(); err != nil {
		return nil, err
	}
	if err := r.createSyncObjects(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) createRenderPass() error {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         r.ctx.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}
	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	subpassDescriptions := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}}
	// No explicit subpass dependencies: layout transitions rely on the
	// implicit external dependency.
	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      subpassDescriptions,
	}
	ret := vk.CreateRenderPass(r.ctx.Device, &renderPassCreateInfo, nil, &r.RenderPass)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateRenderPass failed with %s", err)
	}
	return nil
}

func (r *Renderer) createFramebuffers() error {
	r.Framebuffers = make([]vk.Framebuffer, len(r.ctx.ImageViews))
	for i := range r.Framebuffers {
		fbCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      r.RenderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{r.ctx.ImageViews[i]},
			Width:           r.ctx.Extent.Width,
			Height:          r.ctx.Extent.Height,
			Layers:          1,
		}
		ret := vk.CreateFramebuffer(r.ctx.Device, &fbCreateInfo, nil, &r.Framebuffers[i])
		if err := as.NewError(ret); err != nil {
			return fmt.Errorf("vk.CreateFramebuffer failed with %s", err)
		}
	}
	return nil
}

func (r *Renderer) createPipeline(cfg Config) error {
	device := r.ctx.Device

	vertexShader, err := loadShaderModule(device, cfg.VertShaderPath)
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(device, vertexShader, nil)

	fragmentShader, err := loadShaderModule(device, cfg.FragShaderPath)
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(device, fragmentShader, nil)

	shaderStages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: vertexShader,
		PName:  "main\x00",
	}, {
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFragmentBit,
		Module: fragmentShader,
		PName:  "main\x00",
	}}

	// Vertex positions come from the vertex index inside the shader, so
	// there are no bindings or attributes to declare.
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are baked in at pipeline creation; a resize would
	// need the whole pipeline rebuilt, consistent with resize being
	// unsupported.
	viewports := []vk.Viewport{{
		X:        0,
		Y:        0,
		Width:    float32(r.ctx.Extent.Width),
		Height:   float32(r.ctx.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}}
	scissors := []vk.Rect2D{{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: r.ctx.Extent,
	}}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    viewports,
		ScissorCount:  1,
		PScissors:     scissors,
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}
	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
	}
	attachmentStates := []vk.PipelineColorBlendAttachmentState{{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit,
		),
		BlendEnable: vk.False,
	}}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    attachmentStates,
	}

	// No descriptor sets, no push constants.
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	ret := vk.CreatePipelineLayout(device, &pipelineLayoutCreateInfo, nil, &r.PipelineLayout)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreatePipelineLayout failed with %s", err)
	}

	pipelineCreateInfos := []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          2,
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PColorBlendState:    &colorBlendState,
		Layout:              r.PipelineLayout,
		RenderPass:          r.RenderPass,
	}}
	pipelines := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(device,
		vk.PipelineCache(vk.NullHandle), 1, pipelineCreateInfos, nil, pipelines)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateGraphicsPipelines failed with %s", err)
	}
	r.Pipeline = pipelines[0]
	return nil
}

func (r *Renderer) createCommandBuffer() error {
	cmdPoolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: r.ctx.QueueFamilyIndex,
	}
	ret := vk.CreateCommandPool(r.ctx.Device, &cmdPoolCreateInfo, nil, &r.commandPool)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateCommandPool failed with %s", err)
	}

	cmdBuffers := make([]vk.CommandBuffer, 1)
	cmdBufferAllocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	ret = vk.AllocateCommandBuffers(r.ctx.Device, &cmdBufferAllocateInfo, cmdBuffers)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.AllocateCommandBuffers failed with %s", err)
	}
	r.commandBuffer = cmdBuffers[0]
	return nil
}

func (r *Renderer) createSyncObjects() error {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	ret := vk.CreateSemaphore(r.ctx.Device, &semaphoreCreateInfo, nil, &r.imageAvailableSemaphore)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateSemaphore failed with %s", err)
	}
	ret = vk.CreateSemaphore(r.ctx.Device, &semaphoreCreateInfo, nil, &r.renderFinishedSemaphore)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateSemaphore failed with %s", err)
	}

	// Created signaled so the wait at the top of the first frame returns
	// immediately instead of deadlocking on a fence nothing will signal.
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	ret = vk.CreateFence(r.ctx.Device, &fenceCreateInfo, nil, &r.frameFence)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.CreateFence failed with %s", err)
	}
	return nil
}

// DrawFrame runs one iteration of the steady state: wait for the GPU to
// finish the previous frame, acquire an image, re-record the one command
// buffer, submit, present. At most one submission is ever outstanding.
func (r *Renderer) DrawFrame() error {
	device := r.ctx.Device

	vk.WaitForFences(device, 1, []vk.Fence{r.frameFence}, vk.True, vk.MaxUint64)
	vk.ResetFences(device, 1, []vk.Fence{r.frameFence})

	var imageIndex uint32
	ret := vk.AcquireNextImage(device, r.ctx.Swapchain, vk.MaxUint64,
		r.imageAvailableSemaphore, vk.Fence(vk.NullHandle), &imageIndex)
	switch {
	case ret == vk.ErrorOutOfDate:
		// Swapchain recreation is not implemented; surface changed size.
		return fmt.Errorf("swapchain out of date on acquire, recreation unsupported")
	case ret != vk.Success && ret != vk.Suboptimal:
		return fmt.Errorf("vk.AcquireNextImage failed with %s", vk.Error(ret))
	}
	if int(imageIndex) >= len(r.Framebuffers) {
		return fmt.Errorf("acquired image index %d out of range", imageIndex)
	}

	if err := r.recordCommandBuffer(imageIndex); err != nil {
		return err
	}

	submitInfo := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.imageAvailableSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{r.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{r.renderFinishedSemaphore},
	}}
	ret = vk.QueueSubmit(r.ctx.Queue, 1, submitInfo, r.frameFence)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.QueueSubmit failed with %s", err)
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.renderFinishedSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{r.ctx.Swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	ret = vk.QueuePresent(r.ctx.Queue, &presentInfo)
	dropped, err := presentOutcome(ret)
	if err != nil {
		return err
	}
	if dropped {
		// Same gap as on acquire, but presentation failure of an already
		// rendered frame is not fatal. Log and carry on.
		debugOut.Println("[WARN] swapchain out of date on present, recreation unsupported")
	}
	return nil
}

// presentOutcome classifies a vk.QueuePresent result. Success and Suboptimal
// both mean the frame was handed to the presentation engine; ErrorOutOfDate
// means it was dropped but the loop may continue; anything else is fatal.
func presentOutcome(ret vk.Result) (dropped bool, err error) {
	switch ret {
	case vk.Success, vk.Suboptimal:
		return false, nil
	case vk.ErrorOutOfDate:
		return true, nil
	default:
		return false, fmt.Errorf("vk.QueuePresent failed with %s", vk.Error(ret))
	}
}

func (r *Renderer) recordCommandBuffer(imageIndex uint32) error {
	ret := vk.ResetCommandBuffer(r.commandBuffer, 0)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.ResetCommandBuffer failed with %s", err)
	}
	ret = vk.BeginCommandBuffer(r.commandBuffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	})
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer failed with %s", err)
	}

	clearValues := []vk.ClearValue{
		vk.NewClearValue(clearColor),
	}
	vk.CmdBeginRenderPass(r.commandBuffer, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.RenderPass,
		Framebuffer: r.Framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: r.ctx.Extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(r.commandBuffer, vk.PipelineBindPointGraphics, r.Pipeline)
	vk.CmdDraw(r.commandBuffer, 3, 1, 0, 0)
	vk.CmdEndRenderPass(r.commandBuffer)

	ret = vk.EndCommandBuffer(r.commandBuffer)
	if err := as.NewError(ret); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer failed with %s", err)
	}
	return nil
}

// WaitIdle blocks until the device finishes all outstanding work. Called
// before teardown so nothing is destroyed out from under the GPU.
func (r *Renderer) WaitIdle() {
	vk.DeviceWaitIdle(r.ctx.Device)
}

func (r *Renderer) Destroy() {
	device := r.ctx.Device
	vk.DestroyFence(device, r.frameFence, nil)
	vk.DestroySemaphore(device, r.renderFinishedSemaphore, nil)
	vk.DestroySemaphore(device, r.imageAvailableSemaphore, nil)
	vk.FreeCommandBuffers(device, r.commandPool, 1, []vk.CommandBuffer{r.commandBuffer})
	vk.DestroyCommandPool(device, r.commandPool, nil)
	vk.DestroyPipeline(device, r.Pipeline, nil)
	vk.DestroyPipelineLayout(device, r.PipelineLayout, nil)
	for _, fb := range r.Framebuffers {
		vk.DestroyFramebuffer(device, fb, nil)
	}
	r.Framebuffers = nil
	vk.DestroyRenderPass(device, r.RenderPass, nil)
}
