package ballsort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	configs := []Configuration{
		{{"A", "B"}, {"B", "A"}, {}},
		{{}, {}, {"R", "G", "B"}},
		{{"x"}},
	}
	codecs := []Codec{
		DefaultCodec,
		{BallSep: ",", FlaskSep: ";"},
		{BallSep: " ", FlaskSep: "|"},
		{BallSep: "", FlaskSep: "\n"},
	}
	for _, codec := range codecs {
		for _, config := range configs {
			parsed, err := codec.Parse(codec.Format(config))
			require.NoError(t, err)
			assert.True(t, config.Equal(parsed), "%q: %v != %v", codec, config, parsed)
		}
	}
}

func TestCodecMultiCharBalls(t *testing.T) {
	codec := Codec{BallSep: ",", FlaskSep: ";"}
	config := Configuration{{"red", "blue"}, {"blue", "red"}, {}}
	s := codec.Format(config)
	assert.Equal(t, "red,blue;blue,red;", s)

	parsed, err := codec.Parse(s)
	require.NoError(t, err)
	assert.True(t, config.Equal(parsed))
}

func TestCodecEmptyFlaskSeparator(t *testing.T) {
	_, err := Codec{}.Parse("AB")
	assert.ErrorIs(t, err, ErrSeparator)
}

func TestParseEmptyFlasks(t *testing.T) {
	config, err := DefaultCodec.Parse(";AB;")
	require.NoError(t, err)
	require.Len(t, config, 3)
	assert.Empty(t, config[0])
	assert.Equal(t, Flask{"A", "B"}, config[1])
	assert.Empty(t, config[2])
}

func TestKeyIsInjective(t *testing.T) {
	pairs := [][2]Configuration{
		{{{"AB"}}, {{"A", "B"}}},
		{{{"A"}, {}}, {{}, {"A"}}},
		{{{"A", "B"}}, {{"B", "A"}}},
		{{{"A"}}, {{"A"}, {}}},
	}
	for _, p := range pairs {
		assert.NotEqual(t, p[0].Key(), p[1].Key(), "%v vs %v", p[0], p[1])
	}

	a := Configuration{{"A", "B"}, {}}
	b := Configuration{{"A", "B"}, nil}
	assert.Equal(t, a.Key(), b.Key())
}

func TestClone(t *testing.T) {
	config := Configuration{{"A"}, nil}
	clone := config.Clone()
	clone[0][0] = "B"
	assert.Equal(t, Ball("A"), config[0][0])
	assert.NotNil(t, clone[1])
	assert.True(t, config.Equal(Configuration{{"A"}, {}}))
}

func TestMoves(t *testing.T) {
	g := NewGame(Parameters{N: 2, M: 1, K: 2}, mustParse(t, "AB;BA;"))
	want := []Move{{0, 2}, {1, 0}, {2, 1}}

	path := []Configuration{g.Configuration}
	for _, m := range want {
		var err error
		g, err = g.ApplyMove(m.From, m.To)
		require.NoError(t, err)
		path = append(path, g.Configuration)
	}

	moves, err := Moves(path)
	require.NoError(t, err)
	assert.Equal(t, want, moves)
	assert.True(t, g.IsWinning())
}

func TestMovesMalformed(t *testing.T) {
	_, err := Moves([]Configuration{mustParse(t, "AB;"), mustParse(t, "AB;;")})
	assert.ErrorIs(t, err, ErrMalformedPath)

	_, err = Moves([]Configuration{mustParse(t, "AB;"), mustParse(t, "AB;")})
	assert.ErrorIs(t, err, ErrMalformedPath)

	moves, err := Moves([]Configuration{mustParse(t, "AB;")})
	require.NoError(t, err)
	assert.Empty(t, moves)
}
