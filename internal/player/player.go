// Package player plays ball sort levels on a device: it reads the board off
// a screenshot, solves it and taps the moves in.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/ballsort"
	"github.com/vancomm/ballsort/internal/cluster"
	"github.com/vancomm/ballsort/internal/geometry"
	"github.com/vancomm/ballsort/internal/solver"
	"github.com/vancomm/ballsort/internal/vision"
)

var (
	ErrGameClosed  = errors.New("player: game is closed")
	ErrRecognition = errors.New("player: failed to recognize game")
	ErrUnsolvable  = errors.New("player: level has no solution")
)

var (
	DefaultAppActivity  = regexp.MustCompile(`^com\.spicags\.ballsort/.*$`)
	DefaultGameActivity = regexp.MustCompile(`^com\.spicags\.ballsort/com\.unity3d\.player\.UnityPlayerActivity$`)
)

type Device interface {
	CheckActivity(ctx context.Context, re *regexp.Regexp) (bool, error)
	// WaitForActivity polls until the resumed activity matches re.
	WaitForActivity(ctx context.Context, re *regexp.Regexp) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Tap(ctx context.Context, p geometry.Point) error
}

type Recognizer interface {
	Recognize(ctx context.Context, mask *image.Gray, rects []geometry.Rect) ([]string, error)
}

type Options struct {
	// Threshold is the channel brightness passed to [vision.Threshold].
	Threshold uint8
	// WaitDelay separates taps.
	WaitDelay time.Duration
	// RetryDelay gives a fresh level time to settle before it is read.
	RetryDelay time.Duration
	// AppActivity matches any screen of the game app.
	AppActivity *regexp.Regexp
	// GameActivity matches the playing field, as opposed to ads.
	GameActivity *regexp.Regexp
}

type Player struct {
	log        logrus.FieldLogger
	device     Device
	recognizer Recognizer
	clusterer  *cluster.Clusterer
	solver     *solver.Solver
	opts       Options
}

func New(
	log logrus.FieldLogger,
	device Device,
	recognizer Recognizer,
	clusterer *cluster.Clusterer,
	s *solver.Solver,
	opts Options,
) *Player {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if opts.Threshold == 0 {
		opts.Threshold = vision.DefaultThreshold
	}
	if opts.AppActivity == nil {
		opts.AppActivity = DefaultAppActivity
	}
	if opts.GameActivity == nil {
		opts.GameActivity = DefaultGameActivity
	}
	return &Player{
		log:        log,
		device:     device,
		recognizer: recognizer,
		clusterer:  clusterer,
		solver:     s,
		opts:       opts,
	}
}

// Board is a recognized level.
type Board struct {
	Game    ballsort.Game
	Centers []geometry.Point
}

// ReadGame takes a screenshot and reconstructs the level on it.
func (p *Player) ReadGame(ctx context.Context) (*Board, error) {
	png, err := p.device.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	img, err := vision.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, err
	}
	screen := vision.Analyze(img, p.opts.Threshold)

	glyphs, err := p.recognizer.Recognize(ctx, screen.Mask, screen.Rects)
	if err != nil {
		return nil, err
	}

	flasks, rectToFlask := p.clusterer.FindFlasks(screen.Rects, screen.Width())
	config := cluster.BuildConfiguration(screen.Rects, glyphs, rectToFlask, len(flasks))
	p.log.WithField("configuration", config.String()).Debug("discovered configuration")

	game := ballsort.NewGameInferred(config)
	if err := game.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognition, err)
	}
	return &Board{Game: game, Centers: cluster.Centers(flasks)}, nil
}

// Steps flattens moves into the sequence of flasks to tap.
func Steps(moves []ballsort.Move) []int {
	steps := make([]int, 0, 2*len(moves))
	for _, m := range moves {
		steps = append(steps, m.From, m.To)
	}
	return steps
}

// waitFor returns once the resumed activity matches re, showing prompt to
// the user when it does not match right away.
func (p *Player) waitFor(ctx context.Context, re *regexp.Regexp, prompt string) error {
	if ok, err := p.device.CheckActivity(ctx, re); err == nil && ok {
		return nil
	}
	p.log.Info(prompt)
	activity, err := p.device.WaitForActivity(ctx, re)
	if err != nil {
		return err
	}
	p.log.WithField("activity", activity).Debug("activity resumed")
	return nil
}

// PassLevel reads, solves and plays the level on screen.
func (p *Player) PassLevel(ctx context.Context) error {
	if err := p.waitFor(ctx, p.opts.GameActivity, "please close the advertisement"); err != nil {
		return err
	}

	p.log.Debug("trying to recognize screen")
	board, err := p.ReadGame(ctx)
	if err != nil {
		return err
	}
	p.log.WithField("configuration", board.Game.Configuration.String()).Info("screen recognized")

	result, err := p.solver.Solve(ctx, board.Game)
	if err != nil {
		return err
	}
	if !result.Solvable() {
		return ErrUnsolvable
	}
	moves, err := result.Moves()
	if err != nil {
		return err
	}
	p.log.WithField("moves", len(moves)).Info("solution found, starting play")

	for _, step := range Steps(moves) {
		ok, err := p.device.CheckActivity(ctx, p.opts.GameActivity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrGameClosed
		}
		if err := p.device.Tap(ctx, board.Centers[step]); err != nil {
			return err
		}
		if err := sleep(ctx, p.opts.WaitDelay); err != nil {
			return err
		}
	}
	p.log.Info("level passed")
	return nil
}

// Run waits for the game to open and then plays level after level until ctx
// is done. Failed levels are logged and retried once the game is back on
// screen.
func (p *Player) Run(ctx context.Context) error {
	p.log.Info("running player")
	if err := p.waitFor(ctx, p.opts.AppActivity, "please open the game"); err != nil {
		return err
	}
	p.log.Debug("waiting while game is launched")
	if err := sleep(ctx, p.opts.RetryDelay); err != nil {
		return err
	}

	for {
		if err := p.PassLevel(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.WithError(err).Warn("verify that game is in proper state")
		}
		if err := sleep(ctx, p.opts.WaitDelay); err != nil {
			return err
		}
		if err := p.waitFor(ctx, p.opts.GameActivity, "please close the advertisement"); err != nil {
			return err
		}
		p.log.Debug("waiting while game is ready")
		if err := sleep(ctx, p.opts.RetryDelay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
