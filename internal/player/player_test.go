package player

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/ballsort/internal/ballsort"
	"github.com/vancomm/ballsort/internal/cluster"
	"github.com/vancomm/ballsort/internal/geometry"
	"github.com/vancomm/ballsort/internal/solver"
)

const (
	gameActivity  = "com.spicags.ballsort/com.unity3d.player.UnityPlayerActivity"
	adActivity    = "com.spicags.ballsort/com.google.android.gms.ads.AdActivity"
	otherActivity = "com.android.launcher/.Home"
)

// balls places two 20x20 balls in the left flask and two in the centre one of
// a 400x400 screen. The right flask, the mirror image of the left one, is
// empty.
var balls = map[geometry.Rect]string{
	geometry.NewRect(50, 100, 20, 20):  "R",
	geometry.NewRect(50, 130, 20, 20):  "G",
	geometry.NewRect(190, 100, 20, 20): "G",
	geometry.NewRect(190, 130, 20, 20): "R",
}

func screenshot(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for r := range balls {
		for y := r.Y; y < r.Bottom(); y++ {
			for x := r.X; x < r.Right(); x++ {
				img.Set(x, y, color.RGBA{R: 220, G: 220, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeDevice struct {
	mu         sync.Mutex
	png        []byte
	activities []string
	taps       []geometry.Point
	// closeAfter switches the activity away from the game after that many
	// taps when positive.
	closeAfter int
}

func (d *fakeDevice) currentActivity() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeAfter > 0 && len(d.taps) >= d.closeAfter {
		return otherActivity
	}
	if len(d.activities) == 0 {
		return gameActivity
	}
	a := d.activities[0]
	d.activities = d.activities[1:]
	return a
}

func (d *fakeDevice) CheckActivity(_ context.Context, re *regexp.Regexp) (bool, error) {
	return re.MatchString(d.currentActivity()), nil
}

func (d *fakeDevice) WaitForActivity(ctx context.Context, re *regexp.Regexp) (string, error) {
	for {
		if a := d.currentActivity(); re.MatchString(a) {
			return a, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (d *fakeDevice) Screenshot(context.Context) ([]byte, error) {
	return d.png, nil
}

func (d *fakeDevice) Tap(_ context.Context, p geometry.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.taps = append(d.taps, p)
	return nil
}

type lookupRecognizer map[geometry.Rect]string

func (l lookupRecognizer) Recognize(_ context.Context, _ *image.Gray, rects []geometry.Rect) ([]string, error) {
	glyphs := make([]string, len(rects))
	for i, r := range rects {
		glyphs[i] = l[r]
	}
	return glyphs, nil
}

func newPlayer(device Device, recognizer Recognizer) *Player {
	return New(nil, device, recognizer, cluster.New(nil), solver.New(nil), Options{})
}

func TestReadGame(t *testing.T) {
	p := newPlayer(&fakeDevice{png: screenshot(t)}, lookupRecognizer(balls))

	board, err := p.ReadGame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GR;RG;", board.Game.Configuration.String())
	assert.Equal(t, ballsort.Parameters{N: 2, M: 1, K: 2}, board.Game.Parameters)
	assert.Equal(t, []geometry.Point{{X: 60, Y: 125}, {X: 200, Y: 125}, {X: 340, Y: 125}}, board.Centers)
}

func TestReadGameRecognitionFailure(t *testing.T) {
	misread := lookupRecognizer{}
	for r, g := range balls {
		misread[r] = g
	}
	misread[geometry.NewRect(50, 100, 20, 20)] = "8"

	p := newPlayer(&fakeDevice{png: screenshot(t)}, misread)
	_, err := p.ReadGame(context.Background())
	assert.ErrorIs(t, err, ErrRecognition)
	assert.ErrorIs(t, err, ballsort.ErrInvalidGame)
}

func TestReadGameBadScreenshot(t *testing.T) {
	p := newPlayer(&fakeDevice{png: []byte("garbage")}, lookupRecognizer(balls))
	_, err := p.ReadGame(context.Background())
	assert.Error(t, err)
}

func TestSteps(t *testing.T) {
	assert.Equal(t, []int{0, 2, 1, 0}, Steps([]ballsort.Move{{From: 0, To: 2}, {From: 1, To: 0}}))
	assert.Empty(t, Steps(nil))
}

func TestPassLevel(t *testing.T) {
	device := &fakeDevice{
		png:        screenshot(t),
		activities: []string{adActivity, gameActivity},
	}
	p := newPlayer(device, lookupRecognizer(balls))
	require.NoError(t, p.PassLevel(context.Background()))

	game := ballsort.NewGameInferred(ballsort.Configuration{{"G", "R"}, {"R", "G"}, {}})
	result, err := solver.New(nil).Solve(context.Background(), game)
	require.NoError(t, err)
	moves, err := result.Moves()
	require.NoError(t, err)

	centers := []geometry.Point{{X: 60, Y: 125}, {X: 200, Y: 125}, {X: 340, Y: 125}}
	var want []geometry.Point
	for _, step := range Steps(moves) {
		want = append(want, centers[step])
	}
	assert.Equal(t, want, device.taps)
}

func TestPassLevelGameClosed(t *testing.T) {
	device := &fakeDevice{png: screenshot(t), closeAfter: 1}
	p := newPlayer(device, lookupRecognizer(balls))

	err := p.PassLevel(context.Background())
	assert.ErrorIs(t, err, ErrGameClosed)
	assert.Len(t, device.taps, 1)
}

func TestPassLevelUnsolvable(t *testing.T) {
	// Both flasks are full and mixed, and there is no spare flask.
	locked := map[geometry.Rect]string{
		geometry.NewRect(50, 100, 20, 20):  "R",
		geometry.NewRect(50, 130, 20, 20):  "G",
		geometry.NewRect(330, 100, 20, 20): "G",
		geometry.NewRect(330, 130, 20, 20): "R",
	}
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for r := range locked {
		for y := r.Y; y < r.Bottom(); y++ {
			for x := r.X; x < r.Right(); x++ {
				img.Set(x, y, color.White)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	p := newPlayer(&fakeDevice{png: buf.Bytes()}, lookupRecognizer(locked))
	err := p.PassLevel(context.Background())
	assert.ErrorIs(t, err, ErrUnsolvable)
}

func TestRunStopsOnCancel(t *testing.T) {
	device := &fakeDevice{png: screenshot(t), activities: []string{otherActivity}}
	p := New(nil, device, lookupRecognizer(balls), cluster.New(nil), solver.New(nil), Options{
		RetryDelay: time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	device.mu.Lock()
	defer device.mu.Unlock()
	assert.NotEmpty(t, device.taps)
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, sleep(ctx, 0))
	assert.NoError(t, sleep(ctx, time.Millisecond))
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleep(ctx, 0), context.Canceled)
}
