// Package app implements the grass viewer: window, main loop and hot reload.
package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/assets"
	"github.com/Faultbox/birdylook/internal/config"
	"github.com/Faultbox/birdylook/internal/engine/camera"
	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/gpu/glgpu"
	"github.com/Faultbox/birdylook/internal/engine/input"
	"github.com/Faultbox/birdylook/internal/engine/lighting"
	"github.com/Faultbox/birdylook/internal/engine/render"
	"github.com/Faultbox/birdylook/internal/engine/shader"
	"github.com/Faultbox/birdylook/internal/engine/window"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/math"
)

var clearColor = math.Vec4{0.53, 0.68, 0.85, 1}

// App is the viewer instance.
type App struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	input    *input.Input
	device   *glgpu.Device
	target   *glgpu.Target // nil unless HDR
	renderer *render.Renderer
	camera   *camera.OrbitCamera
	assets   *assets.Manager
	watcher  *assets.Watcher
	field    *Field
	shots    *Screenshots

	// shaderFiles maps watched shader asset names to true.
	shaderFiles map[string]bool
	// lastErr suppresses repeating the same frame error every frame.
	lastErr string
	log     *zap.Logger
}

// New opens the window, creates the GPU device and builds the field.
func New(cfg *config.Config) (*App, error) {
	log := logger.Named("app")
	log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("assets", cfg.Assets.Root),
	)

	a := &App{
		cfg:         cfg,
		input:       input.New(),
		camera:      camera.NewOrbitCamera(),
		assets:      assets.NewManager(cfg.Assets.Root),
		shots:       NewScreenshots(cfg.Graphics.ScreenshotDir, "birdylook"),
		shaderFiles: make(map[string]bool),
		log:         log,
	}

	// HDR views render offscreen; the target carries the multisampling then.
	windowMSAA := cfg.Graphics.MSAA
	if cfg.Graphics.HDR {
		windowMSAA = 1
	}

	// Create window (this also creates OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      "birdylook",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       windowMSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Device AFTER window, since the OpenGL context must exist
	a.device, err = glgpu.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create GPU device: %w", err)
	}

	if cfg.Graphics.HDR {
		w, h := a.window.GetSize()
		a.target, err = a.device.NewTarget(int32(w), int32(h), cfg.Graphics.MSAA, true)
		if err != nil {
			a.window.Close()
			return nil, err
		}
	}

	grassShader, groundShader, err := a.loadShaders()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.renderer = render.NewRenderer(a.device, grassShader, groundShader)
	a.renderer.LightDir = lighting.Sun{
		Azimuth:   cfg.Scene.SunAzimuth,
		Elevation: cfg.Scene.SunElevation,
	}.LightDir()

	a.field = NewField(cfg, a.assets)
	a.camera.FitToBounds(a.field.Bounds())
	if err := a.field.Load(); err != nil {
		// The viewer still shows the bare ground.
		log.Warn("starting without grass", zap.Error(err))
	}

	if cfg.Assets.Watch {
		if err := a.startWatcher(); err != nil {
			log.Warn("hot reload disabled", zap.Error(err))
		}
	}

	log.Info("viewer initialized", zap.Int("blades", a.field.InstanceCount()))
	return a, nil
}

func (a *App) shaderDir() string {
	if a.cfg.Assets.ShaderDir == "" {
		return ""
	}
	return a.assets.Path(a.cfg.Assets.ShaderDir)
}

// loadShaders reads the grass and ground programs, preferring files in the shader directory.
func (a *App) loadShaders() (grassShader, groundShader gpu.ShaderSource, err error) {
	dir := a.shaderDir()
	g, err := shader.Load(dir, shader.Grass)
	if err != nil {
		return gpu.ShaderSource{}, gpu.ShaderSource{}, err
	}
	gr, err := shader.Load(dir, shader.Ground)
	if err != nil {
		return gpu.ShaderSource{}, gpu.ShaderSource{}, err
	}
	a.log.Debug("shaders loaded", zap.String("grass", sourceOrigin(g)), zap.String("ground", sourceOrigin(gr)))
	return toGPU(g), toGPU(gr), nil
}

func sourceOrigin(s shader.Source) string {
	if s.Path == "" {
		return "built-in"
	}
	return s.Path
}

func toGPU(s shader.Source) gpu.ShaderSource {
	return gpu.ShaderSource{Label: s.Name, Vertex: s.Vertex, Fragment: s.Fragment}
}

func (a *App) startWatcher() error {
	w, err := assets.NewWatcher(a.assets)
	if err != nil {
		return err
	}
	if err := w.Watch(a.field.PlacementName()); err != nil {
		w.Close()
		return err
	}
	if dir := a.cfg.Assets.ShaderDir; dir != "" {
		for _, name := range []string{shader.Grass, shader.Ground} {
			for _, path := range shader.Files(dir, name) {
				path = filepath.ToSlash(path)
				// The directory may not exist when only built-in shaders are used.
				if err := w.Watch(path); err == nil {
					a.shaderFiles[path] = true
				}
			}
		}
	}
	a.watcher = w
	return nil
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting main loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		a.handleInput(float32(dt))

		// Reloads are applied between frames, before extraction.
		a.applyChanges()

		if err := a.render(); err != nil {
			if msg := err.Error(); msg != a.lastErr {
				a.log.Error("frame failed", zap.Error(err))
				a.lastErr = msg
			}
		} else {
			a.lastErr = ""
		}

		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			stats := a.renderer.Stats()
			a.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("draws", stats.DrawCalls),
				zap.Int("instances", stats.Instances))
			a.window.SetTitle(fmt.Sprintf("birdylook - %d fps - %d blades", frameCount, stats.Instances))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handleInput(dt float32) {
	for _, e := range a.input.Events() {
		switch e.Type {
		case input.EventKeyDown:
			switch e.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_R:
				if err := a.field.Reload(); err != nil {
					a.log.Warn("manual reload failed", zap.Error(err))
				}
			case sdl.SCANCODE_F:
				a.camera.FitToBounds(a.field.Bounds())
			}
		case input.EventMouseMove:
			if a.input.IsButtonHeld(sdl.BUTTON_LEFT) || a.input.IsButtonHeld(sdl.BUTTON_RIGHT) {
				a.camera.HandleDrag(float32(e.RelX), float32(e.RelY))
			}
		case input.EventMouseWheel:
			a.camera.HandleZoom(e.Wheel)
		}
	}

	forward := a.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)
	right := a.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)
	up := a.input.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q)
	if forward != 0 || right != 0 || up != 0 {
		// HandleMovement steps per call; scale to ~60 steps per second.
		step := dt * 60
		a.camera.HandleMovement(forward*step, right*step, up*step)
	}
}

// applyChanges handles files reported by the watcher since the last frame.
func (a *App) applyChanges() {
	if a.watcher == nil {
		return
	}
	shadersChanged := false
	for _, name := range a.watcher.Pending() {
		switch {
		case name == a.field.PlacementName():
			if err := a.field.Reload(); err != nil {
				a.log.Warn("hot reload failed", zap.Error(err))
			}
		case a.shaderFiles[name]:
			shadersChanged = true
		}
	}
	if shadersChanged {
		grassShader, groundShader, err := a.loadShaders()
		if err != nil {
			a.log.Warn("shader reload failed", zap.Error(err))
			return
		}
		a.renderer.SetShaders(grassShader, groundShader)
	}
}

func (a *App) render() error {
	w, h := a.window.GetSize()
	view := render.View{
		Name:       "main",
		View:       a.camera.ViewMatrix(),
		Projection: a.camera.ProjectionMatrix(a.window.Aspect()),
		Position:   a.camera.Position(),
		MSAA:       a.cfg.Graphics.MSAA,
		HDR:        a.cfg.Graphics.HDR,
	}

	if a.target == nil {
		pass := a.device.BeginPass(w, h, clearColor)
		defer pass.End()
		return a.renderer.Frame(a.field.Scene(), []render.View{view}, pass)
	}

	if err := a.target.Resize(int32(w), int32(h)); err != nil {
		return err
	}
	pass := a.device.BeginTargetPass(a.target, clearColor)
	err := a.renderer.Frame(a.field.Scene(), []render.View{view}, pass)
	pass.End()
	a.target.Present(int32(w), int32(h))
	return err
}

// screenshot saves the last rendered frame.
func (a *App) screenshot() {
	var pixels []byte
	w, h := a.window.GetSize()
	if a.target != nil {
		tw, th := a.target.Size()
		w, h = int(tw), int(th)
		pixels = a.target.ReadPixels()
	} else {
		pixels = a.device.ReadPixels(w, h)
	}

	path, err := a.shots.Save(pixels, w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases GPU resources, stops the watcher and closes the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.target != nil {
		a.target.Destroy()
	}
	a.assets.Close()
	if a.window != nil {
		a.window.Close()
	}
}
