package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vancomm/ballsort/internal/ballsort"
)

type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (q *Queries) SaveSolution(ctx context.Context, params SaveSolutionParams) (*Solution, error) {
	moves := params.Moves
	if moves == nil {
		moves = []ballsort.Move{}
	}
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO solution (
			configuration, n, m, k, solvable, moves, explored
		)
		VALUES (
			@configuration, @n, @m, @k, @solvable, @moves, @explored
		)
		RETURNING *;`,
		pgx.NamedArgs{
			"configuration": params.Configuration,
			"n":             params.Parameters.N,
			"m":             params.Parameters.M,
			"k":             params.Parameters.K,
			"solvable":      params.Solvable,
			"moves":         moves,
			"explored":      params.Explored,
		},
	)
	solution, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Solution])
	if isUniqueViolation(err) {
		return q.FetchSolutionByConfiguration(ctx, params.Configuration)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to insert solution: %w", err)
	}
	return solution, nil
}

func (q *Queries) FetchSolution(ctx context.Context, solutionID int64) (*Solution, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM solution WHERE solution_id = $1", solutionID,
	)
	solution, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Solution])
	return solution, translate(err)
}

func (q *Queries) FetchSolutionByConfiguration(ctx context.Context, configuration string) (*Solution, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM solution WHERE configuration = $1", configuration,
	)
	solution, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Solution])
	return solution, translate(err)
}
