// Package solver searches for a sequence of moves that wins a ball sort game.
//
// The search is best-first: the frontier is a min-heap keyed by
// [ballsort.Game.Heuristic] of each candidate position alone. Path length
// plays no part in the ordering, so the returned solution is usually not
// the shortest one. Positions with equal heuristic leave the heap in an
// unspecified order.
package solver

import (
	"container/heap"
	"context"
	"errors"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/ballsort"
)

// ErrStateLimit is returned when the search discovers more positions than
// allowed by [WithMaxStates].
var ErrStateLimit = errors.New("solver: state limit exceeded")

type Solver struct {
	log       logrus.FieldLogger
	maxStates int
}

type Option func(*Solver)

// WithMaxStates stops the search with [ErrStateLimit] once more than n
// positions have been discovered. Zero means no limit.
func WithMaxStates(n int) Option {
	return func(s *Solver) { s.maxStates = n }
}

func New(log logrus.FieldLogger, opts ...Option) *Solver {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Solver{log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Result struct {
	// Path runs from the initial configuration to a winning one. It is nil
	// when no winning configuration is reachable.
	Path []ballsort.Configuration
	// Explored counts positions taken off the frontier.
	Explored int
	// Discovered counts distinct positions seen, the initial one included.
	Discovered int
}

func (r *Result) Solvable() bool {
	return r.Path != nil
}

// Moves returns the move taken at every step of the path.
func (r *Result) Moves() ([]ballsort.Move, error) {
	return ballsort.Moves(r.Path)
}

// Solve searches from g, which must satisfy [ballsort.Game.IsValid]. An
// unsolvable game yields a Result without a path and a nil error. The only
// errors are ctx cancellation and [ErrStateLimit].
func (s *Solver) Solve(ctx context.Context, g ballsort.Game) (*Result, error) {
	r := &runner{
		ctx:        ctx,
		maxStates:  s.maxStates,
		flasks:     len(g.Configuration),
		discovered: make(map[string]*ballsort.Game),
	}

	log := s.log.WithField("configuration", g.Configuration.String())
	log.Debug("solving")

	r.init(g)
	winner, err := r.process()
	if err != nil {
		log.WithError(err).WithField("discovered", len(r.discovered)).Warn("search aborted")
		return nil, err
	}

	result := &Result{
		Explored:   r.explored,
		Discovered: len(r.discovered),
	}
	fields := logrus.Fields{"explored": result.Explored, "discovered": result.Discovered}

	if winner == nil {
		log.WithFields(fields).Info("no solution")
		return result, nil
	}

	result.Path = r.path(winner)
	fields["moves"] = len(result.Path) - 1
	log.WithFields(fields).Info("found winning configuration")
	return result, nil
}

// runner holds the state of a single search.
type runner struct {
	ctx       context.Context
	maxStates int
	flasks    int
	// discovered maps a configuration key to the game it was reached from,
	// nil for the initial game.
	discovered map[string]*ballsort.Game
	pq         frontier
	explored   int
}

func (r *runner) init(g ballsort.Game) {
	r.discovered[g.Configuration.Key()] = nil
	heap.Init(&r.pq)
	heap.Push(&r.pq, &entry{priority: g.Heuristic(), game: g})
}

// process pops positions until a winning one comes up or the frontier runs
// dry. It returns nil, nil in the latter case.
func (r *runner) process() (*ballsort.Game, error) {
	for r.pq.Len() > 0 {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}

		e := heap.Pop(&r.pq).(*entry)
		r.explored++

		if e.game.IsWinning() {
			return &e.game, nil
		}

		parent := &e.game
		for i := 0; i < r.flasks; i++ {
			for j := 0; j < r.flasks; j++ {
				if !parent.CanMove(i, j) {
					continue
				}
				next := parent.ApplyMoveUnsafe(i, j)
				key := next.Configuration.Key()
				if _, ok := r.discovered[key]; ok {
					continue
				}
				r.discovered[key] = parent
				if r.maxStates > 0 && len(r.discovered) > r.maxStates {
					return nil, ErrStateLimit
				}
				heap.Push(&r.pq, &entry{priority: next.Heuristic(), game: next})
			}
		}
	}
	return nil, nil
}

// path walks predecessor links back from the winning game.
func (r *runner) path(winner *ballsort.Game) []ballsort.Configuration {
	var path []ballsort.Configuration
	for g := winner; g != nil; g = r.discovered[g.Configuration.Key()] {
		path = append(path, g.Configuration)
	}
	slices.Reverse(path)
	return path
}

// entry is a frontier element. Only priority takes part in ordering.
type entry struct {
	priority int
	game     ballsort.Game
}

// frontier is a min-heap of entries by priority.
type frontier []*entry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool { return f[i].priority < f[j].priority }

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(*entry)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return e
}
