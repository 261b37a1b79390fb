package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/schema"

	"github.com/vancomm/ballsort/internal/ballsort"
	"github.com/vancomm/ballsort/internal/geometry"
	"github.com/vancomm/ballsort/internal/repository"
)

type SolveDTO struct {
	Configuration string `schema:"configuration,required"`
	BallSep       string `schema:"ball_sep"`
	FlaskSep      string `schema:"flask_sep"`
}

func (d SolveDTO) Codec() ballsort.Codec {
	return ballsort.Codec{BallSep: d.BallSep, FlaskSep: d.FlaskSep}
}

// ParseSolveDTO decodes query parameters. Separators left out of the query
// keep the [ballsort.DefaultCodec] values.
func ParseSolveDTO(src map[string][]string) (SolveDTO, error) {
	dto := SolveDTO{
		BallSep:  ballsort.DefaultCodec.BallSep,
		FlaskSep: ballsort.DefaultCodec.FlaskSep,
	}
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&dto, src)
	return dto, err
}

type SolutionDTO struct {
	SolutionID    int64               `json:"solution_id"`
	Configuration string              `json:"configuration"`
	Parameters    ballsort.Parameters `json:"parameters"`
	Solvable      bool                `json:"solvable"`
	Cached        bool                `json:"cached"`
	Path          []string            `json:"path"`
	Moves         []ballsort.Move     `json:"moves"`
	Explored      int                 `json:"explored"`
}

// canonical is the storage key of a configuration. Unlike the textual
// codecs it stays unambiguous for multi-character balls.
func canonical(c ballsort.Configuration) string {
	b, _ := json.Marshal(c.Clone())
	return string(b)
}

// NewSolutionDTO replays the stored moves to render the path with codec.
func NewSolutionDTO(s *repository.Solution, codec ballsort.Codec, cached bool) (*SolutionDTO, error) {
	var config ballsort.Configuration
	if err := json.Unmarshal([]byte(s.Configuration), &config); err != nil {
		return nil, fmt.Errorf("stored configuration is malformed: %w", err)
	}
	dto := &SolutionDTO{
		SolutionID:    s.SolutionID,
		Configuration: codec.Format(config),
		Parameters:    s.Parameters(),
		Solvable:      s.Solvable,
		Cached:        cached,
		Path:          []string{},
		Moves:         s.Moves,
		Explored:      s.Explored,
	}
	if dto.Moves == nil {
		dto.Moves = []ballsort.Move{}
	}
	if !s.Solvable {
		return dto, nil
	}

	g := ballsort.NewGame(s.Parameters(), config)
	dto.Path = append(dto.Path, codec.Format(g.Configuration))
	for _, m := range s.Moves {
		next, err := g.ApplyMove(m.From, m.To)
		if err != nil {
			return nil, fmt.Errorf("stored moves are malformed: %w", err)
		}
		g = next
		dto.Path = append(dto.Path, codec.Format(g.Configuration))
	}
	return dto, nil
}

type RecognizeDTO struct {
	ScreenWidth int             `json:"screen_width"`
	Rects       []geometry.Rect `json:"rects"`
	Glyphs      []string        `json:"glyphs"`
	Solve       bool            `json:"solve"`
}

func (d RecognizeDTO) Validate() error {
	if d.ScreenWidth <= 0 {
		return fmt.Errorf("screen_width must be positive")
	}
	if len(d.Glyphs) != len(d.Rects) {
		return fmt.Errorf("got %d glyphs for %d rects", len(d.Glyphs), len(d.Rects))
	}
	return nil
}

type RecognitionDTO struct {
	Flasks        []geometry.Rect     `json:"flasks"`
	Centers       []geometry.Point    `json:"centers"`
	Configuration string              `json:"configuration"`
	Parameters    ballsort.Parameters `json:"parameters"`
	Valid         bool                `json:"valid"`
	Error         string              `json:"error,omitempty"`
	Solution      *SolutionDTO        `json:"solution,omitempty"`
}

// Message is one frame of the websocket solution stream.
type Message struct {
	Type       string         `json:"type"`
	SolutionID int64          `json:"solution_id,omitempty"`
	Step       int            `json:"step,omitempty"`
	Move       *ballsort.Move `json:"move,omitempty"`
	Moves      int            `json:"moves,omitempty"`
	Error      string         `json:"error,omitempty"`
}

const (
	MessageMove       = "move"
	MessageDone       = "done"
	MessageUnsolvable = "unsolvable"
	MessageError      = "error"
)
