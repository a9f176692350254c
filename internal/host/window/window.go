// Package window hosts the effect in a resizable raylib window.
package window

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/backdrop/internal/engine"
	"github.com/san-kum/backdrop/internal/host"
	"github.com/san-kum/backdrop/internal/record"
)

var (
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

type Options struct {
	Title      string
	FPS        int
	Background color.RGBA
	// Themes is the rotation the T key steps through.
	Themes  []string
	ShowHUD bool
	// ScreenshotDir receives the PNGs saved with the S key.
	ScreenshotDir string
}

// App drives one window: it forwards resizes and key presses to the
// engine and uploads the visible buffer as a texture every frame.
type App struct {
	opts  Options
	mgr   *engine.Manager
	loop  *host.Loop
	vp    *host.Viewport
	theme *host.ThemeSignal

	tex        rl.Texture2D
	texW, texH int
	buf        []color.RGBA
	uploaded   int
	hud        bool
}

func NewApp(mgr *engine.Manager, loop *host.Loop, vp *host.Viewport, theme *host.ThemeSignal, opts Options) *App {
	if opts.Title == "" {
		opts.Title = "backdrop"
	}
	if opts.FPS <= 0 {
		opts.FPS = host.DefaultFPS
	}
	return &App{
		opts:  opts,
		mgr:   mgr,
		loop:  loop,
		vp:    vp,
		theme: theme,
		hud:   opts.ShowHUD,
	}
}

func (a *App) initWindow() {
	w, h := a.vp.Size()
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(w), int32(h), a.opts.Title)
	rl.SetTargetFPS(int32(a.opts.FPS))
	rl.SetExitKey(0)
}

// Run opens the window, starts the engine and blocks until the window is
// closed, Q or Esc is pressed, or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.initWindow()
	defer rl.CloseWindow()

	a.vp.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	if err := a.mgr.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer a.mgr.Teardown()
	defer a.unloadTexture()

	for !rl.WindowShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if a.Update() {
			return nil
		}
		a.loop.Tick()
		a.Draw()
	}
	return nil
}

// Update handles input and window events. It reports whether the user
// asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) || rl.IsKeyPressed(rl.KeyEscape) {
		return true
	}
	if rl.IsWindowResized() {
		a.vp.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}
	if rl.IsKeyPressed(rl.KeyT) && a.theme != nil {
		a.theme.Cycle(a.opts.Themes)
	}
	if rl.IsKeyPressed(rl.KeyM) {
		a.mgr.SetReducedMotion(!a.mgr.ReducedMotion())
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.hud = !a.hud
	}
	if rl.IsKeyPressed(rl.KeyS) {
		a.screenshot()
	}
	return false
}

func (a *App) screenshot() {
	dir := a.opts.ScreenshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		engine.Logger().Warn("window: screenshot", "err", err)
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("backdrop_%d.png", time.Now().Unix()))
	if err := record.SaveSurface(a.mgr.Surface(), a.opts.Background, path); err != nil {
		engine.Logger().Warn("window: screenshot", "err", err)
		return
	}
	engine.Logger().Info("window: screenshot saved", "path", path)
}

func (a *App) Draw() {
	a.upload()

	rl.BeginDrawing()
	rl.ClearBackground(a.opts.Background)
	if a.tex.ID != 0 && !a.mgr.Palette().Hidden {
		rl.DrawTexture(a.tex, 0, 0, rl.White)
	}
	if a.hud {
		a.DrawHUD()
	}
	rl.EndDrawing()
}

// upload copies the visible buffer into the texture when a new frame was
// rendered since the last upload.
func (a *App) upload() {
	s := a.mgr.Surface()
	if !s.Ready() {
		a.unloadTexture()
		return
	}
	w, h := s.Size()
	if w != a.texW || h != a.texH || a.tex.ID == 0 {
		a.unloadTexture()
		img := rl.GenImageColor(w, h, rl.Blank)
		a.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		a.texW, a.texH = w, h
		a.uploaded = -1
	}
	if a.uploaded == a.mgr.Frames() && a.mgr.Frames() > 0 {
		return
	}
	a.buf = toColors(a.buf, s.Pixels())
	rl.UpdateTexture(a.tex, a.buf)
	a.uploaded = a.mgr.Frames()
}

func (a *App) unloadTexture() {
	if a.tex.ID != 0 {
		rl.UnloadTexture(a.tex)
	}
	a.tex = rl.Texture2D{}
	a.texW, a.texH = 0, 0
}

func (a *App) DrawHUD() {
	h := rl.GetScreenHeight()
	lines := hudLines(a.mgr, int(rl.GetFPS()))
	for i, line := range lines {
		col := ColText
		if i > 0 {
			col = ColTextDim
		}
		rl.DrawText(line, 20, int32(h-20-(len(lines)-i)*18), 14, col)
	}
}

func hudLines(mgr *engine.Manager, fps int) []string {
	p := mgr.Palette()
	name := p.Name
	if p.Hidden {
		name += " (hidden)"
	}
	return []string{
		fmt.Sprintf("%s  %s  %d FPS", name, mgr.State(), fps),
		fmt.Sprintf("blobs %d  frames %d", mgr.Blobs().Len(), mgr.Frames()),
		"[T] theme  [M] motion  [S] screenshot  [H] hud  [Q] quit",
	}
}

// toColors reinterprets packed RGBA bytes as colors, reusing dst when it
// is large enough.
func toColors(dst []color.RGBA, pix []uint8) []color.RGBA {
	n := len(pix) / 4
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = color.RGBA{R: pix[i*4], G: pix[i*4+1], B: pix[i*4+2], A: pix[i*4+3]}
	}
	return dst
}
