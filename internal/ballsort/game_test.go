package ballsort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Configuration {
	t.Helper()
	c, err := DefaultCodec.Parse(s)
	require.NoError(t, err)
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		params Parameters
		config string
		valid  bool
	}{
		{"solved", Parameters{N: 2, M: 1, K: 2}, "AA;BB;", true},
		{"mixed", Parameters{N: 2, M: 1, K: 2}, "AB;BA;", true},
		{"no extra flasks", Parameters{N: 2, M: 0, K: 2}, "AB;BA", true},
		{"zero colors", Parameters{N: 0, M: 1, K: 2}, "", false},
		{"negative extra", Parameters{N: 2, M: -1, K: 2}, "AB", false},
		{"zero capacity", Parameters{N: 1, M: 0, K: 0}, "", false},
		{"wrong flask count", Parameters{N: 2, M: 1, K: 2}, "AB;BA", false},
		{"overfull flask", Parameters{N: 2, M: 1, K: 2}, "ABA;B;", false},
		{"wrong color count", Parameters{N: 2, M: 1, K: 2}, "AA;CC;BB", false},
		{"wrong ball count", Parameters{N: 2, M: 1, K: 2}, "AA;AB;B", false},
		{"missing ball", Parameters{N: 1, M: 1, K: 2}, "A;", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := NewGame(test.params, mustParse(t, test.config))
			assert.Equal(t, test.valid, g.IsValid())
			if !test.valid {
				assert.ErrorIs(t, g.Validate(), ErrInvalidGame)
			}
		})
	}
}

func TestCanMove(t *testing.T) {
	g := NewGame(Parameters{N: 3, M: 2, K: 3}, mustParse(t, "AAA;BCB;CB;C;"))
	require.True(t, g.IsValid())

	tests := []struct {
		name string
		i, j int
		want bool
	}{
		{"same flask", 1, 1, false},
		{"negative source", -1, 4, false},
		{"source out of range", 5, 4, false},
		{"destination out of range", 1, 5, false},
		{"empty source", 4, 1, false},
		{"locked source", 0, 4, false},
		{"full destination", 3, 1, false},
		{"color mismatch", 2, 3, false},
		{"onto empty", 1, 4, true},
		{"onto same color", 1, 2, true},
		{"single ball onto empty", 3, 4, true},
		{"single ball onto other color", 3, 2, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, g.CanMove(test.i, test.j))
		})
	}
}

func TestApplyMove(t *testing.T) {
	g := NewGame(Parameters{N: 2, M: 1, K: 2}, mustParse(t, "AB;BA;"))

	next, err := g.ApplyMove(0, 2)
	require.NoError(t, err)
	assert.Equal(t, "A;BA;B", next.Configuration.String())
	assert.Equal(t, "AB;BA;", g.Configuration.String(), "original game must not change")

	_, err = g.ApplyMove(2, 0)
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestApplyMoveDoesNotAlias(t *testing.T) {
	g := NewGame(Parameters{N: 2, M: 1, K: 3}, mustParse(t, "AAB;BB;A"))
	a := g.ApplyMoveUnsafe(0, 1)
	b := a.ApplyMoveUnsafe(2, 0)
	c := a.ApplyMoveUnsafe(0, 2)
	assert.Equal(t, "AA;BBB;A", a.Configuration.String())
	assert.Equal(t, "AAA;BBB;", b.Configuration.String())
	assert.Equal(t, "A;BBB;AA", c.Configuration.String())
}

func TestMovesPreserveValidity(t *testing.T) {
	g := NewGame(Parameters{N: 3, M: 2, K: 3}, mustParse(t, "ABC;CAB;BCA;;"))
	require.True(t, g.IsValid())
	for step := 0; step < 50; step++ {
		moved := false
		for i := range g.Configuration {
			for j := range g.Configuration {
				if (i+j+step)%3 == 0 && g.CanMove(i, j) {
					g = g.ApplyMoveUnsafe(i, j)
					moved = true
				}
			}
		}
		require.True(t, g.IsValid(), "step %d: %s", step, g)
		if !moved {
			break
		}
	}
}

func TestIsWinning(t *testing.T) {
	params := Parameters{N: 2, M: 1, K: 2}
	assert.True(t, NewGame(params, mustParse(t, "AA;BB;")).IsWinning())
	assert.True(t, NewGame(params, mustParse(t, ";AA;BB")).IsWinning())
	assert.False(t, NewGame(params, mustParse(t, "AB;BA;")).IsWinning())
	assert.False(t, NewGame(params, mustParse(t, "A;BB;A")).IsWinning())
	assert.False(t, NewGame(Parameters{N: 1, M: 1, K: 2}, mustParse(t, "A;")).IsWinning())
}

func TestHeuristic(t *testing.T) {
	params := Parameters{N: 3, M: 1, K: 3}
	assert.Equal(t, 0, NewGame(params, mustParse(t, "AAA;BBB;CCC;")).Heuristic())
	assert.Equal(t, 2, NewGame(params, mustParse(t, "ABA;BBB;CC;C")).Heuristic())
	assert.Equal(t, 6, NewGame(params, mustParse(t, "ABC;CAB;BCA;")).Heuristic())
}

func TestInferParameters(t *testing.T) {
	tests := []struct {
		config string
		want   Parameters
	}{
		{"AB;BA;", Parameters{N: 2, M: 1, K: 2}},
		{"ABCD;DCBA;ABCD;DCBA;;", Parameters{N: 4, M: 2, K: 4}},
		{"AAA;B;BB;", Parameters{N: 2, M: 2, K: 3}},
		{";", Parameters{N: 0, M: 2, K: 0}},
	}
	for _, test := range tests {
		t.Run(test.config, func(t *testing.T) {
			assert.Equal(t, test.want, InferParameters(mustParse(t, test.config)))
		})
	}

	g := NewGameInferred(mustParse(t, "AB;BA;"))
	assert.True(t, g.IsValid())
}
