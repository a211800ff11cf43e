package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/engine"
	"github.com/feacur/customengine/internal/gfx/ebitenbackend"
)

// game adapts a Context to ebiten's loop. Systems run in Update; the
// recorded buffers are played in Draw, where the screen image is valid.
type game struct {
	ctx       *engine.Context
	screen    *ebitenbackend.Backend
	maxFrames int
	log       *zap.Logger
	err       error
}

func newGame(ctx *engine.Context, screen *ebitenbackend.Backend, maxFrames int, log *zap.Logger) *game {
	return &game{ctx: ctx, screen: screen, maxFrames: maxFrames, log: log}
}

func (g *game) Update() error {
	if g.err != nil {
		return g.err
	}
	dt := time.Second / time.Duration(ebiten.TPS())
	if err := check.Catch(func() { g.ctx.Frame(dt) }); err != nil {
		g.log.Error("check failed during frame", zap.Uint64("frame", g.ctx.Frames()), zap.Error(err))
		return err
	}
	if g.maxFrames > 0 && g.ctx.Frames() >= uint64(g.maxFrames) {
		return ebiten.Termination
	}
	return nil
}

// Draw cannot fail, so errors are held for the next Update to return.
func (g *game) Draw(screen *ebiten.Image) {
	g.screen.SetTarget(screen)
	var perr error
	if err := check.Catch(func() { perr = g.ctx.Present() }); err != nil {
		g.err = err
		return
	}
	if perr != nil {
		g.err = perr
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.ctx.SetTargetSize(int32(outsideWidth), int32(outsideHeight))
	return outsideWidth, outsideHeight
}
