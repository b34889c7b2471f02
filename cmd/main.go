package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/xlpreview/internal/app"
	"github.com/irfansharif/xlpreview/internal/config"
	"github.com/irfansharif/xlpreview/internal/location"
	"github.com/irfansharif/xlpreview/internal/memory"
	"github.com/irfansharif/xlpreview/internal/render"
)

const logFlags = log.Ltime | log.Lshortfile

var runtimeLogger *log.Logger = log.New(io.Discard, "", 0)

var (
	configPath = flag.String("config", "", "settings file (defaults to $"+config.EnvPath+")")
	layoutPath = flag.String("layout", "", "layout file, overriding the settings")
	start3D    = flag.Bool("3d", false, "start in the 3D preview")
	width      = flag.Int("width", 0, "window width, overriding the settings")
	height     = flag.Int("height", 0, "window height, overriding the settings")
)

func init() {
	// OpenGL contexts are tied to specific OS threads - let's pin to just one.
	runtime.LockOSThread()
	log.SetFlags(logFlags)

	if os.Getenv("XLPREVIEW_DEBUG_RUNTIME") == "1" {
		runtimeLogger = log.New(os.Stdout, "[runtime] ", log.Ltime|log.Lmsgprefix)
	}
	if os.Getenv("XLPREVIEW_DEBUG_LOCATION") == "1" {
		location.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

func makeTitle(title string, fps float64, avgFrameTime float64, models int, renderStats render.Stats, memStats memory.Stats) string {
	return fmt.Sprintf("%s (%.1f FPS, %.2fms/frame, %d models, %d vertices, %d draw calls/frame, %.2fµs/draw, %.2fms/prepare, %.1fMiB GPU)",
		title,
		fps,
		avgFrameTime,
		models,
		memStats.TotalVertices,
		memStats.DrawCallsPerFrame,
		renderStats.LastDrawTimeUs,
		renderStats.LastPrepareTimeMs,
		float64(memStats.TotalGPUBytes)/(1024.0*1024.0),
	)
}

// loadSettings reads the settings file and applies command line overrides.
func loadSettings() config.Settings {
	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *layoutPath != "" {
		settings.Layout = *layoutPath
	}
	if *start3D {
		settings.Start3D = true
	}
	if *width > 0 {
		settings.Window.Width = *width
	}
	if *height > 0 {
		settings.Window.Height = *height
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}
	return settings
}

func main() {
	flag.Parse()
	settings := loadSettings()

	if err := glfw.Init(); err != nil {
		log.Fatalf("Failed to initialize GLFW: %v", err)
	}
	defer glfw.Terminate()

	// Configure GLFW window hints - use OpenGL 4.1.
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(
		settings.Window.Width,
		settings.Window.Height,
		settings.Window.Title,
		nil, nil,
	)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	shader, err := render.NewShaderManager()
	if err != nil {
		log.Fatalf("Failed to create shaders: %v", err)
	}
	memController := memory.NewController(memory.NewGLDevice())
	defer memController.Cleanup()
	renderer := render.NewRenderer(memController, shader)

	cw, ch := window.GetFramebufferSize()
	application := app.NewApp(
		settings,
		app.NewCamera(cw, ch, settings.Camera, settings.Start3D),
		renderer,
		seed(),
	)
	if err := application.LoadLayout(settings.Layout); err != nil {
		log.Fatalf("Failed to load layout: %v", err)
	}

	// Initialize event handlers.
	eventHandlers := NewEventHandlers(application, window)
	defer eventHandlers.Destroy()

	bg := settings.BackgroundColor()
	frameCount, frameTimeSum := 0, 0.0
	lastFPSUpdate := time.Now()

	// Main loop.
	for !window.ShouldClose() {
		frameStart := time.Now()

		// Only models changed since the last frame are rebuilt.
		if err := application.PrepareRenderer(); err != nil {
			log.Printf("Failed to prepare renderer: %v", err)
		}

		w, h := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(float32(bg.R)/255, float32(bg.G)/255, float32(bg.B)/255, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		if err := application.Draw(); err != nil {
			log.Fatalf("Draw error: %v", err)
		}
		window.SwapBuffers()
		glfw.PollEvents()

		frameTime := time.Since(frameStart).Seconds() * 1000.0 // ms
		frameTimeSum += frameTime

		frameCount++
		now := time.Now()
		if now.Sub(lastFPSUpdate) >= time.Second {
			fps := float64(frameCount) / now.Sub(lastFPSUpdate).Seconds()
			avgFrameTime := frameTimeSum / float64(frameCount)
			frameCount, frameTimeSum = 0, 0.0
			lastFPSUpdate = now

			memStats := memController.Stats()
			renderStats := renderer.Stats()

			window.SetTitle(
				makeTitle(settings.Window.Title, fps, avgFrameTime, application.Models.Len(), renderStats, memStats),
			)

			runtimeLogger.Println("=== Performance statistics ===")
			runtimeLogger.Printf("Frame rate:     %.1f FPS (%.2f ms/frame, %d draw calls/frame)", fps, avgFrameTime, memStats.DrawCallsPerFrame)
			runtimeLogger.Printf("Geometry:       %d models, %d slots, %d vertices", application.Models.Len(), memStats.TotalKeys, memStats.TotalVertices)
			runtimeLogger.Printf("GPU memory:     %.2f MiB", float64(memStats.TotalGPUBytes)/(1024.0*1024.0))
			runtimeLogger.Printf("Render time:    %.2f µs (last draw), %.2f ms (last prepare, %d models uploaded)", renderStats.LastDrawTimeUs, renderStats.LastPrepareTimeMs, renderStats.ModelsUploaded)
			runtimeLogger.Printf("Batches:        %d live, %d released", memStats.TotalBatches, memStats.BatchesReleased)
			runtimeLogger.Println("==============================")

			memController.PrintStats()
		}
	}
}

func seed() int64 {
	seedStr := os.Getenv("XLPREVIEW_SEED")
	now := time.Now().Unix()
	if seedStr == "" {
		return now
	}
	seed, err := strconv.ParseInt(seedStr, 10, 64)
	if err != nil {
		log.Fatalf("Invalid XLPREVIEW_SEED value '%s': %v", seedStr, err)
	}
	return seed
}
