package main

import (
	"log"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/catcher"
	"github.com/xlab/closer"

	"vktriangle/triangle"
)

func init() {
	runtime.LockOSThread()
	log.SetFlags(log.Lshortfile)
}

type sdlWindow struct {
	*sdl.Window
}

func (w sdlWindow) InstanceExtensions() []string {
	return w.VulkanGetInstanceExtensions()
}

func (w sdlWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := w.Window.VulkanCreateSurface(instance)
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
	orPanic(sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS))
	defer sdl.Quit()

	orPanic(sdl.VulkanLoadLibrary(""))
	defer sdl.VulkanUnloadLibrary()

	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	orPanic(vk.Init())
	defer closer.Close()

	cfg := triangle.DefaultConfig()

	window, err := sdl.CreateWindow(cfg.Title,
		int32(cfg.X), int32(cfg.Y),
		int32(cfg.Width), int32(cfg.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_SHOWN)
	orPanic(err)

	ctx, err := triangle.NewContext(cfg, sdlWindow{window})
	orPanic(err)
	renderer, err := triangle.NewRenderer(ctx, cfg)
	orPanic(err)
	log.Println("\n" + ctx.Report())

	closer.Bind(func() {
		renderer.WaitIdle()
		renderer.Destroy()
		ctx.Destroy()
		window.Destroy()
		log.Println("Bye!")
	})

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch t := event.(type) {
			case *sdl.KeyboardEvent:
				if t.Keysym.Sym == sdl.K_ESCAPE {
					running = false
				}
			case *sdl.QuitEvent:
				running = false
			}
		}
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
