package main

import (
	"log"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/catcher"
	"github.com/xlab/closer"

	"vktriangle/triangle"
)

func init() {
	runtime.LockOSThread()
	log.SetFlags(log.Lshortfile)
}

type glfwWindow struct {
	*glfw.Window
}

func (w glfwWindow) InstanceExtensions() []string {
	return w.GetRequiredInstanceExtensions()
}

func (w glfwWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(surfPtr), nil
}

func main() {
	defer catcher.Catch(
		catcher.RecvLog(true),
		catcher.RecvDie(-1),
	)
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		panic("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	orPanic(glfw.Init())
	orPanic(vk.Init())
	defer closer.Close()

	cfg := triangle.DefaultConfig()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	orPanic(err)
	window.SetPos(cfg.X, cfg.Y)

	ctx, err := triangle.NewContext(cfg, glfwWindow{window})
	orPanic(err)
	renderer, err := triangle.NewRenderer(ctx, cfg)
	orPanic(err)
	log.Println("\n" + ctx.Report())

	closer.Bind(func() {
		renderer.WaitIdle()
		renderer.Destroy()
		ctx.Destroy()
		window.Destroy()
		glfw.Terminate()
		log.Println("Bye!")
	})

	// FIFO presentation plus the frame fence pace the loop; no ticker needed.
	// The close flag is checked at the top so the frame in flight still
	// presents before shutdown.
	for !window.ShouldClose() {
		glfw.PollEvents()
		orPanic(renderer.DrawFrame())
	}
}

func orPanic(err interface{}) {
	switch v := err.(type) {
	case error:
		if v != nil {
			panic(err)
		}
	case vk.Result:
		if err := vk.Error(v); err != nil {
			panic(err)
		}
	case bool:
		if !v {
			panic("condition failed: != true")
		}
	}
}
