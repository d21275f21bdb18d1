package terminal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/paradox/internal/game/entity"
	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/sim"
)

const (
	// turnStep is how far one arrow key press turns the player.
	turnStep = math.Pi / 12

	// lookDistance places the look target well beyond the player.
	lookDistance = 100

	frameInterval = 16 * time.Millisecond
)

var styles = map[Class]tcell.Style{
	ClassUnseen:   tcell.StyleDefault.Foreground(tcell.ColorGray).Dim(true),
	ClassLit:      tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy),
	ClassEntity:   tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy),
	ClassPlayer:   tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true),
	ClassPastSelf: tcell.StyleDefault.Foreground(tcell.ColorAqua).Background(tcell.ColorNavy),
	ClassDead:     tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
}

// canvas is the part of tcell.Screen the viewer draws through.
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

// Viewer plays one level interactively. WASD walks, the left and right
// arrows turn, r rewinds and q or Escape quits.
type Viewer struct {
	screen tcell.Screen
	sim    *sim.Simulation
	reg    *level.Registry
	logger *zap.Logger

	facing geom.Vec
	move   geom.Vec
}

// NewViewer returns a viewer drawing s on screen.
//
// Precondition: screen must be initialised; s, reg and logger must be non-nil.
func NewViewer(screen tcell.Screen, s *sim.Simulation, reg *level.Registry, logger *zap.Logger) *Viewer {
	return &Viewer{
		screen: screen,
		sim:    s,
		reg:    reg,
		logger: logger,
		facing: s.Player().Actor.Facing,
	}
}

// HandleEvent applies a terminal event. It returns false when the user quits.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		v.facing = v.facing.Rotate(-turnStep)
	case tcell.KeyRight:
		v.facing = v.facing.Rotate(turnStep)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case 'w':
			v.move = geom.V(0, -1)
		case 's':
			v.move = geom.V(0, 1)
		case 'a':
			v.move = geom.V(-1, 0)
		case 'd':
			v.move = geom.V(1, 0)
		case 'r':
			v.sim.Rewind()
		}
	}
	return true
}

// Tick runs n frames with the current controls. A key press walks for one
// tick only, since terminals report no key releases.
func (v *Viewer) Tick(n int) {
	for i := 0; i < n; i++ {
		p := v.sim.Player()
		v.sim.SetInput(entity.Input{
			Move: v.move,
			Look: p.Position.Add(v.facing.Scale(lookDistance)),
		})
		if res := v.sim.Step(); res.Rewound {
			v.logger.Debug("elevator rewind", zap.Int("frame", int(res.Frame)))
		}
	}
	if n > 0 {
		v.move = geom.Vec{}
	}
}

// Draw renders the live player's view and a status line, then shows it.
func (v *Viewer) Draw() {
	v.screen.Clear()
	v.draw(v.screen)
	v.screen.Show()
}

func (v *Viewer) draw(c canvas) {
	w, h := c.Size()
	if w <= 0 || h <= 1 {
		return
	}
	p := v.sim.Player()
	view, _ := v.sim.ViewArea(p.ID)
	f := Rasterize(v.sim.Grid(), v.reg, view, v.sim.Entities(), Viewport(p.Position, w, h-1))
	for y := 0; y < f.Bounds.Height; y++ {
		for x := 0; x < f.Bounds.Width; x++ {
			cell := f.cells[y*f.Bounds.Width+x]
			c.SetContent(x, y, cell.Glyph, nil, styles[cell.Class])
		}
	}
	for x, r := range []rune(v.Status()) {
		if x >= w {
			break
		}
		c.SetContent(x, h-1, r, nil, tcell.StyleDefault.Reverse(true))
	}
}

// Status summarises the run for the bottom line of the screen.
func (v *Viewer) Status() string {
	confusion := 0.0
	for _, o := range v.sim.PastSelves() {
		confusion = max(confusion, o.Confusion())
	}
	s := fmt.Sprintf("%s  frame %d  past selves %d  confusion %.2f",
		v.sim.Level().ID, v.sim.Frame(), len(v.sim.PastSelves()), confusion)
	if v.sim.Collapsed() {
		s += "  PARADOX: timeline collapsed"
	}
	return s
}

// Run polls input and steps the simulation in real time until the user
// quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	clock := v.sim.NewClock()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !v.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			v.Tick(clock.Advance(now.Sub(last)))
			last = now
			v.Draw()
		}
	}
}
