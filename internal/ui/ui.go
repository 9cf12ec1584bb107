// Package ui provides a minimal ebiten-based window host for
// internal/emu.Machine: it polls keys into joypad buttons, drives one
// emulated frame per display frame, and blits the framebuffer. It does
// not implement audio, menus, or save-state slots — the Non-goals
// scoping this emulator out to DMG core timing/graphics leave no room
// for the teacher's full front-end (see DESIGN.md).
package ui

import (
	"github.com/dmgcore/dmgcore/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
)

// Config holds window-level host settings.
type Config struct {
	Title string
	Scale int
}

func (c *Config) defaults() {
	if c.Title == "" {
		c.Title = "dmgcore"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
}

// App implements ebiten.Game, stepping one Game Boy frame per display
// frame and rendering it scaled into the window.
type App struct {
	cfg Config
	m   *emu.Machine
	tex *ebiten.Image
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m, tex: ebiten.NewImage(160, 144)}
}

func (a *App) Run() error { return ebiten.RunGame(a) }

// Update polls the keyboard into DMG joypad buttons and steps one frame.
func (a *App) Update() error {
	a.m.SetButtons(emu.Buttons{
		Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
		Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
		Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
		A:      ebiten.IsKeyPressed(ebiten.KeyZ),
		B:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
	})
	a.m.StepFrame()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, scaleOp(screen, a.tex))
}

func scaleOp(screen, tex *ebiten.Image) *ebiten.DrawImageOptions {
	op := &ebiten.DrawImageOptions{}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	tw, th := tex.Bounds().Dx(), tex.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/float64(tw), float64(sh)/float64(th))
	return op
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
