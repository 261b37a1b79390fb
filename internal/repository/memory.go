package repository

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is a [Store] for running without a database.
type Memory struct {
	mu              sync.RWMutex
	solutions       []*Solution
	byConfiguration map[string]*Solution
}

func NewMemory() *Memory {
	return &Memory{byConfiguration: make(map[string]*Solution)}
}

func (m *Memory) SaveSolution(_ context.Context, params SaveSolutionParams) (*Solution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byConfiguration[params.Configuration]; ok {
		return clone(s), nil
	}
	s := &Solution{
		SolutionID:    int64(len(m.solutions) + 1),
		Configuration: params.Configuration,
		N:             params.Parameters.N,
		M:             params.Parameters.M,
		K:             params.Parameters.K,
		Solvable:      params.Solvable,
		Moves:         slices.Clone(params.Moves),
		Explored:      params.Explored,
		CreatedAt:     time.Now().UTC(),
	}
	m.solutions = append(m.solutions, s)
	m.byConfiguration[s.Configuration] = s
	return clone(s), nil
}

func (m *Memory) FetchSolution(_ context.Context, solutionID int64) (*Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if solutionID < 1 || solutionID > int64(len(m.solutions)) {
		return nil, ErrNotFound
	}
	return clone(m.solutions[solutionID-1]), nil
}

func (m *Memory) FetchSolutionByConfiguration(_ context.Context, configuration string) (*Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byConfiguration[configuration]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func clone(s *Solution) *Solution {
	c := *s
	c.Moves = slices.Clone(s.Moves)
	return &c
}
