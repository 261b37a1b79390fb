package ballsort

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrSeparator     = errors.New("flask separator must not be empty")
	ErrMalformedPath = errors.New("malformed solution path")
)

// Ball is a colored token. Two balls have the same color iff they are equal.
type Ball string

// Flask lists its balls from bottom to top.
type Flask []Ball

func (f Flask) Top() Ball {
	return f[len(f)-1]
}

func (f Flask) Monochrome() bool {
	for _, b := range f {
		if b != f[0] {
			return false
		}
	}
	return true
}

// Configuration is an ordered list of flasks. The position of a flask
// identifies the container on screen.
type Configuration []Flask

// Key encodes the configuration into a string such that two configurations
// share a key iff they are equal flask by flask and ball by ball.
func (c Configuration) Key() string {
	buf := make([]byte, 0, 64)
	buf = binary.AppendUvarint(buf, uint64(len(c)))
	for _, flask := range c {
		buf = binary.AppendUvarint(buf, uint64(len(flask)))
		for _, ball := range flask {
			buf = binary.AppendUvarint(buf, uint64(len(ball)))
			buf = append(buf, ball...)
		}
	}
	return string(buf)
}

func (c Configuration) Equal(o Configuration) bool {
	return slices.EqualFunc(c, o, func(a, b Flask) bool {
		return slices.Equal(a, b)
	})
}

func (c Configuration) Clone() Configuration {
	clone := make(Configuration, len(c))
	for i, flask := range c {
		clone[i] = slices.Clone(flask)
		if clone[i] == nil {
			clone[i] = Flask{}
		}
	}
	return clone
}

// [Configuration] implements [fmt.Stringer]
func (c Configuration) String() string {
	return DefaultCodec.Format(c)
}

// Codec converts configurations to text and back. Balls within a flask are
// joined by BallSep, flasks by FlaskSep. An empty BallSep is only lossless
// when every ball is a single character.
type Codec struct {
	BallSep  string
	FlaskSep string
}

var DefaultCodec = Codec{BallSep: "", FlaskSep: ";"}

func (cd Codec) Format(c Configuration) string {
	var b strings.Builder
	for i, flask := range c {
		if i > 0 {
			b.WriteString(cd.FlaskSep)
		}
		for j, ball := range flask {
			if j > 0 {
				b.WriteString(cd.BallSep)
			}
			b.WriteString(string(ball))
		}
	}
	return b.String()
}

// Parse is the inverse of [Codec.Format]. An empty piece between flask
// separators is an empty flask.
func (cd Codec) Parse(s string) (Configuration, error) {
	if cd.FlaskSep == "" {
		return nil, ErrSeparator
	}
	pieces := strings.Split(s, cd.FlaskSep)
	config := make(Configuration, len(pieces))
	for i, piece := range pieces {
		config[i] = cd.parseFlask(piece)
	}
	return config, nil
}

func (cd Codec) parseFlask(s string) Flask {
	flask := Flask{}
	if s == "" {
		return flask
	}
	if cd.BallSep == "" {
		for _, r := range s {
			flask = append(flask, Ball(string(r)))
		}
		return flask
	}
	for _, token := range strings.Split(s, cd.BallSep) {
		flask = append(flask, Ball(token))
	}
	return flask
}

// Move transfers the top ball of flask From onto flask To.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// [Move] implements [fmt.Stringer]
func (m Move) String() string {
	return fmt.Sprintf("%d -> %d", m.From, m.To)
}

// Moves recovers the move between every pair of consecutive configurations
// of path: the flask that lost a ball is the source and the flask that gained
// one is the destination.
func Moves(path []Configuration) ([]Move, error) {
	if len(path) == 0 {
		return nil, nil
	}
	moves := make([]Move, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		prev, next := path[i-1], path[i]
		if len(prev) != len(next) {
			return nil, fmt.Errorf("%w: step %d changes flask count from %d to %d",
				ErrMalformedPath, i, len(prev), len(next))
		}
		m := Move{From: -1, To: -1}
		for j := range prev {
			switch {
			case len(next[j]) < len(prev[j]):
				m.From = j
			case len(next[j]) > len(prev[j]):
				m.To = j
			}
		}
		if m.From < 0 || m.To < 0 {
			return nil, fmt.Errorf("%w: step %d is not a single move", ErrMalformedPath, i)
		}
		moves = append(moves, m)
	}
	return moves, nil
}
