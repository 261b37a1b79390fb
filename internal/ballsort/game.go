// Package ballsort models the ball sort puzzle.
//
// There are N colors, N+M flasks and K balls of each color. A flask holds at
// most K balls and behaves like a stack: only the top ball can be taken. A
// ball may be moved from one flask to another if the source is not empty,
// the destination has room and the destination is either empty or has a ball
// of the same color on top. The puzzle is won when every flask is either
// empty or full of a single color.
package ballsort

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGame = errors.New("invalid game")
	ErrIllegalMove = errors.New("illegal move")
)

type Parameters struct {
	N int `json:"n"` // colors
	M int `json:"m"` // extra flasks
	K int `json:"k"` // flask capacity
}

func (p Parameters) Flasks() int {
	return p.N + p.M
}

// InferParameters derives parameters from the configuration alone: the
// capacity is the longest flask, the color count is the number of balls per
// capacity and the remaining flasks are extra.
func InferParameters(c Configuration) Parameters {
	var balls, capacity int
	for _, flask := range c {
		balls += len(flask)
		capacity = max(capacity, len(flask))
	}
	if capacity == 0 {
		return Parameters{N: 0, M: len(c), K: 0}
	}
	colors := balls / capacity
	return Parameters{N: colors, M: len(c) - colors, K: capacity}
}

// Game is an immutable puzzle position. Moves return a new Game; flasks that
// a move does not touch are shared between the two values.
type Game struct {
	Parameters    Parameters    `json:"parameters"`
	Configuration Configuration `json:"configuration"`
}

func NewGame(params Parameters, config Configuration) Game {
	return Game{Parameters: params, Configuration: config}
}

// NewGameInferred builds a game with parameters taken from
// [InferParameters].
func NewGameInferred(config Configuration) Game {
	return NewGame(InferParameters(config), config)
}

// [Game] implements [fmt.Stringer]
func (g Game) String() string {
	return fmt.Sprintf("Game(N=%d, M=%d, K=%d, %s)",
		g.Parameters.N, g.Parameters.M, g.Parameters.K, g.Configuration)
}

// Validate reports why the game is not a well-formed puzzle. Every returned
// error wraps [ErrInvalidGame].
func (g Game) Validate() error {
	p := g.Parameters
	if p.N <= 0 {
		return fmt.Errorf("%w: N must be positive, got %d", ErrInvalidGame, p.N)
	}
	if p.M < 0 {
		return fmt.Errorf("%w: M must be non-negative, got %d", ErrInvalidGame, p.M)
	}
	if p.K <= 0 {
		return fmt.Errorf("%w: K must be positive, got %d", ErrInvalidGame, p.K)
	}
	if len(g.Configuration) != p.Flasks() {
		return fmt.Errorf("%w: expected %d flasks, got %d",
			ErrInvalidGame, p.Flasks(), len(g.Configuration))
	}

	counts := make(map[Ball]int)
	for i, flask := range g.Configuration {
		if len(flask) > p.K {
			return fmt.Errorf("%w: flask %d holds %d balls, capacity is %d",
				ErrInvalidGame, i, len(flask), p.K)
		}
		for _, ball := range flask {
			counts[ball]++
		}
	}

	if len(counts) != p.N {
		return fmt.Errorf("%w: expected %d colors, got %d", ErrInvalidGame, p.N, len(counts))
	}
	for ball, count := range counts {
		if count != p.K {
			return fmt.Errorf("%w: expected %d balls of %q, got %d",
				ErrInvalidGame, p.K, string(ball), count)
		}
	}
	return nil
}

func (g Game) IsValid() bool {
	return g.Validate() == nil
}

// locked reports whether flask i is full of one color. Such a flask is out of
// play: its top ball may not be moved.
func (g Game) locked(i int) bool {
	flask := g.Configuration[i]
	return len(flask) == g.Parameters.K && flask.Monochrome()
}

func (g Game) CanMove(i, j int) bool {
	n := len(g.Configuration)
	if i < 0 || i >= n || j < 0 || j >= n || i == j {
		return false
	}
	src, dst := g.Configuration[i], g.Configuration[j]
	if len(src) == 0 {
		return false
	}
	if len(dst) >= g.Parameters.K {
		return false
	}
	if len(dst) > 0 && dst.Top() != src.Top() {
		return false
	}
	return !g.locked(i)
}

// ApplyMoveUnsafe moves the top ball of flask i onto flask j. The caller
// must have checked [Game.CanMove].
func (g Game) ApplyMoveUnsafe(i, j int) Game {
	config := make(Configuration, len(g.Configuration))
	copy(config, g.Configuration)

	src, dst := g.Configuration[i], g.Configuration[j]
	ball := src.Top()

	config[i] = src[:len(src)-1 : len(src)-1]
	next := make(Flask, len(dst)+1)
	copy(next, dst)
	next[len(dst)] = ball
	config[j] = next

	return Game{Parameters: g.Parameters, Configuration: config}
}

func (g Game) ApplyMove(i, j int) (Game, error) {
	if !g.CanMove(i, j) {
		return Game{}, fmt.Errorf("%w: %d -> %d", ErrIllegalMove, i, j)
	}
	return g.ApplyMoveUnsafe(i, j), nil
}

func (g Game) IsWinning() bool {
	for _, flask := range g.Configuration {
		if len(flask) == 0 {
			continue
		}
		if len(flask) != g.Parameters.K || !flask.Monochrome() {
			return false
		}
	}
	return true
}

// Heuristic counts adjacent pairs of differently colored balls across all
// flasks. Lower means more sorted; a winning game scores zero.
func (g Game) Heuristic() int {
	result := 0
	for _, flask := range g.Configuration {
		for i := 1; i < len(flask); i++ {
			if flask[i] != flask[i-1] {
				result++
			}
		}
	}
	return result
}
