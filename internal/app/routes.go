package app

import (
	"github.com/vancomm/ballsort/internal/cluster"
	"github.com/vancomm/ballsort/internal/config"
	"github.com/vancomm/ballsort/internal/handlers"
	"github.com/vancomm/ballsort/internal/solver"
)

func (a *App) loadRoutes() {
	solve := handlers.NewSolveHandler(
		a.log,
		a.store,
		solver.New(a.log, solver.WithMaxStates(a.config.Solver.MaxStates)),
		cluster.New(a.log, a.config.Cluster.Options()...),
		config.NewUpgrader(a.config),
		a.config.Solver.Timeout.Duration,
	)

	a.router.HandleFunc("GET /v1/status", handlers.Status(a.log))
	a.router.HandleFunc("POST /v1/solve", solve.Solve)
	a.router.HandleFunc("POST /v1/recognize", solve.Recognize)
	a.router.HandleFunc("GET /v1/solutions/{id}", solve.Fetch)
	a.router.HandleFunc("/v1/solve/connect", solve.Connect)
}
