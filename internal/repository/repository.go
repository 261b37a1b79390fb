// Package repository stores solved configurations so that repeated requests
// skip the search.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vancomm/ballsort/internal/ballsort"
)

var ErrNotFound = errors.New("repository: solution not found")

type Solution struct {
	SolutionID    int64           `db:"solution_id" json:"solution_id"`
	Configuration string          `db:"configuration" json:"configuration"`
	N             int             `db:"n" json:"n"`
	M             int             `db:"m" json:"m"`
	K             int             `db:"k" json:"k"`
	Solvable      bool            `db:"solvable" json:"solvable"`
	Moves         []ballsort.Move `db:"moves" json:"moves"`
	Explored      int             `db:"explored" json:"explored"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

func (s *Solution) Parameters() ballsort.Parameters {
	return ballsort.Parameters{N: s.N, M: s.M, K: s.K}
}

type SaveSolutionParams struct {
	Configuration string
	Parameters    ballsort.Parameters
	Solvable      bool
	Moves         []ballsort.Move
	Explored      int
}

type Store interface {
	// SaveSolution stores a solution. When one for the same configuration
	// already exists, the stored one is returned instead.
	SaveSolution(ctx context.Context, params SaveSolutionParams) (*Solution, error)
	FetchSolution(ctx context.Context, solutionID int64) (*Solution, error)
	FetchSolutionByConfiguration(ctx context.Context, configuration string) (*Solution, error)
}
