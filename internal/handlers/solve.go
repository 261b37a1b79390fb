package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/ballsort"
	"github.com/vancomm/ballsort/internal/cluster"
	"github.com/vancomm/ballsort/internal/geometry"
	"github.com/vancomm/ballsort/internal/repository"
	"github.com/vancomm/ballsort/internal/solver"
)

var ErrSearchLimit = errors.New("search limit reached before a solution was found")

type SolveHandler struct {
	log       logrus.FieldLogger
	store     repository.Store
	solver    *solver.Solver
	clusterer *cluster.Clusterer
	upgrader  *websocket.Upgrader
	timeout   time.Duration
}

// NewSolveHandler serves searches through store. A zero timeout leaves the
// search bounded only by the solver's state limit.
func NewSolveHandler(
	log logrus.FieldLogger,
	store repository.Store,
	s *solver.Solver,
	clusterer *cluster.Clusterer,
	upgrader *websocket.Upgrader,
	timeout time.Duration,
) *SolveHandler {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &SolveHandler{
		log:       log,
		store:     store,
		solver:    s,
		clusterer: clusterer,
		upgrader:  upgrader,
		timeout:   timeout,
	}
}

// solve returns the stored solution for g, running the search on a miss.
// The boolean reports a cache hit.
func (h *SolveHandler) solve(ctx context.Context, g ballsort.Game) (*repository.Solution, bool, error) {
	key := canonical(g.Configuration)
	stored, err := h.store.FetchSolutionByConfiguration(ctx, key)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	searchCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	result, err := h.solver.Solve(searchCtx, g)
	if errors.Is(err, solver.ErrStateLimit) ||
		(errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
		return nil, false, ErrSearchLimit
	}
	if err != nil {
		return nil, false, err
	}
	moves, err := result.Moves()
	if err != nil {
		return nil, false, err
	}

	saved, err := h.store.SaveSolution(ctx, repository.SaveSolutionParams{
		Configuration: key,
		Parameters:    g.Parameters,
		Solvable:      result.Solvable(),
		Moves:         moves,
		Explored:      result.Explored,
	})
	if err != nil {
		return nil, false, err
	}
	return saved, false, nil
}

func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseSolveDTO(r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	codec := dto.Codec()
	config, err := codec.Parse(dto.Configuration)
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	g := ballsort.NewGameInferred(config)
	if err := g.Validate(); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	solution, cached, err := h.solve(r.Context(), g)
	if errors.Is(err, ErrSearchLimit) {
		sendError(w, h.log, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to solve configuration")
		return
	}

	res, err := NewSolutionDTO(solution, codec, cached)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to render solution")
		return
	}
	sendJSONOrLog(w, h.log, res)
}

func (h *SolveHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	solutionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, errors.New("invalid solution id"))
		return
	}

	solution, err := h.store.FetchSolution(r.Context(), solutionID)
	if errors.Is(err, repository.ErrNotFound) {
		sendError(w, h.log, http.StatusNotFound, err)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to fetch solution from db")
		return
	}

	res, err := NewSolutionDTO(solution, ballsort.DefaultCodec, true)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("db returned invalid solution")
		return
	}
	sendJSONOrLog(w, h.log, res)
}

func (h *SolveHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var dto RecognizeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	if err := dto.Validate(); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	flasks, rectToFlask := h.clusterer.FindFlasks(dto.Rects, dto.ScreenWidth)
	config := cluster.BuildConfiguration(dto.Rects, dto.Glyphs, rectToFlask, len(flasks))
	g := ballsort.NewGameInferred(config)

	res := &RecognitionDTO{
		Flasks:        flasks,
		Centers:       cluster.Centers(flasks),
		Configuration: config.String(),
		Parameters:    g.Parameters,
		Valid:         true,
	}
	if res.Flasks == nil {
		res.Flasks, res.Centers = []geometry.Rect{}, []geometry.Point{}
	}
	if err := g.Validate(); err != nil {
		res.Valid = false
		res.Error = err.Error()
	}

	if dto.Solve && res.Valid {
		solution, cached, err := h.solve(r.Context(), g)
		if errors.Is(err, ErrSearchLimit) {
			sendError(w, h.log, http.StatusUnprocessableEntity, err)
			return
		}
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			h.log.WithError(err).Error("unable to solve recognized configuration")
			return
		}
		res.Solution, err = NewSolutionDTO(solution, ballsort.DefaultCodec, cached)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			h.log.WithError(err).Error("unable to render solution")
			return
		}
	}
	sendJSONOrLog(w, h.log, res)
}

// Connect streams solutions over a websocket. Every text message holds one
// configuration in the default format; the reply is a move message per move
// followed by a done message, or a single unsolvable or error message.
func (h *SolveHandler) Connect(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("unable to upgrade connection")
		return
	}
	defer c.Close()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).Warn("unable to read message")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		for _, m := range h.stream(r.Context(), strings.TrimSpace(string(message))) {
			if err := c.WriteJSON(m); err != nil {
				h.log.WithError(err).Error("unable to write message")
				return
			}
		}
	}
}

func (h *SolveHandler) stream(ctx context.Context, text string) []Message {
	fail := func(err error) []Message {
		return []Message{{Type: MessageError, Error: err.Error()}}
	}

	config, err := ballsort.DefaultCodec.Parse(text)
	if err != nil {
		return fail(err)
	}
	g := ballsort.NewGameInferred(config)
	if err := g.Validate(); err != nil {
		return fail(err)
	}
	solution, _, err := h.solve(ctx, g)
	if err != nil {
		h.log.WithError(err).Warn("unable to solve streamed configuration")
		return fail(err)
	}
	if !solution.Solvable {
		return []Message{{Type: MessageUnsolvable, SolutionID: solution.SolutionID}}
	}

	messages := make([]Message, 0, len(solution.Moves)+1)
	for i, m := range solution.Moves {
		messages = append(messages, Message{
			Type:       MessageMove,
			SolutionID: solution.SolutionID,
			Step:       i + 1,
			Move:       &m,
		})
	}
	return append(messages, Message{
		Type:       MessageDone,
		SolutionID: solution.SolutionID,
		Moves:      len(solution.Moves),
	})
}
