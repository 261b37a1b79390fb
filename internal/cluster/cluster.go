// Package cluster reconstructs logical flasks from the rectangles detected on
// a screenshot.
//
// Detected rectangles are a mix of glyph boxes and fragments of flask
// outlines. Rectangles that sit close to each other are merged through a
// [dsu.DSU] into one bounding rectangle per flask. The game renders the board
// mirrored left to right, so a second pass runs over the preliminary flasks
// together with their horizontal reflections: a flask that produced no
// detections at all (an empty one) is recovered from the reflection of its
// counterpart.
package cluster

import (
	"cmp"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/ballsort"
	"github.com/vancomm/ballsort/internal/dsu"
	"github.com/vancomm/ballsort/internal/geometry"
)

// Scale bounds the distance between neighbour centres as a fraction of the
// summed widths (X) and heights (Y) of the two rectangles.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var (
	DefaultVisibleScale  = Scale{X: 0.5, Y: 1}
	DefaultMirroredScale = Scale{X: 0.5, Y: 0.5}
)

type Clusterer struct {
	log      logrus.FieldLogger
	visible  Scale
	mirrored Scale
}

type Option func(*Clusterer)

// WithVisibleScale sets the proximity threshold of the first pass.
func WithVisibleScale(s Scale) Option {
	return func(c *Clusterer) { c.visible = s }
}

// WithMirroredScale sets the proximity threshold of the mirrored pass.
func WithMirroredScale(s Scale) Option {
	return func(c *Clusterer) { c.mirrored = s }
}

func New(log logrus.FieldLogger, opts ...Option) *Clusterer {
	if log == nil {
		log = discard()
	}
	c := &Clusterer{
		log:      log,
		visible:  DefaultVisibleScale,
		mirrored: DefaultMirroredScale,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// neighbourPairs lists every ordered pair of distinct rectangles that are
// neighbours under scale.
func neighbourPairs(rects []geometry.Rect, scale Scale) [][2]int {
	var pairs [][2]int
	for i, a := range rects {
		for j, b := range rects {
			if i == j {
				continue
			}
			if geometry.Neighbours(a, b, scale.X, scale.Y) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Clusterize groups rects into clusters. It returns one bounding rectangle per
// cluster and, for each input rectangle, the index of its cluster. Clusters
// are numbered in order of first appearance in rects.
func (c *Clusterer) Clusterize(rects []geometry.Rect, scale Scale) ([]geometry.Rect, []int) {
	points := make([]geometry.Point, 0, 4*len(rects))
	for _, r := range rects {
		corners := r.Corners()
		points = append(points, corners[:]...)
	}

	d := dsu.New(points)
	for i := range rects {
		for delta := 1; delta < 4; delta++ {
			d.Union(4*i, 4*i+delta)
		}
	}

	pairs := neighbourPairs(rects, scale)
	for _, p := range pairs {
		d.Union(4*p[0], 4*p[1])
	}

	var (
		clusters  []geometry.Rect
		labels    = make(map[int]int)
		rectToCls = make([]int, len(rects))
	)
	for i := range rects {
		root := d.Find(4 * i)
		label, ok := labels[root]
		if !ok {
			label = len(clusters)
			labels[root] = label
			clusters = append(clusters, d.Rect(root))
		}
		rectToCls[i] = label
	}

	c.log.WithFields(logrus.Fields{
		"rects":    len(rects),
		"pairs":    len(pairs),
		"clusters": len(clusters),
	}).Debug("clusterized rectangles")

	return clusters, rectToCls
}

// FindFlasks runs the visible pass over rects and the mirrored pass over the
// resulting flasks and their reflections across a screen screenWidth pixels
// wide. The returned mapping goes from each input rectangle straight to its
// final flask.
func (c *Clusterer) FindFlasks(rects []geometry.Rect, screenWidth int) ([]geometry.Rect, []int) {
	visible, rectToVisible := c.Clusterize(rects, c.visible)

	combined := make([]geometry.Rect, 0, 2*len(visible))
	combined = append(combined, visible...)
	for _, f := range visible {
		combined = append(combined, f.Mirror(screenWidth))
	}

	flasks, visibleToFlask := c.Clusterize(combined, c.mirrored)

	rectToFlask := make([]int, len(rects))
	for i := range rects {
		rectToFlask[i] = visibleToFlask[rectToVisible[i]]
	}

	c.log.WithFields(logrus.Fields{
		"visible": len(visible),
		"flasks":  len(flasks),
	}).Debug("found flasks")

	return flasks, rectToFlask
}

// BuildConfiguration assigns glyphs[i] (read from rects[i]) to flask
// rectToFlask[i]. Within a flask the glyph lowest on screen becomes the
// bottom ball and the highest becomes the top. Rectangles with an empty glyph
// (outline fragments) shape the flasks but hold no ball.
func BuildConfiguration(
	rects []geometry.Rect, glyphs []string, rectToFlask []int, flaskCount int,
) ballsort.Configuration {
	members := make([][]int, flaskCount)
	for rect, flask := range rectToFlask {
		if glyphs[rect] == "" {
			continue
		}
		members[flask] = append(members[flask], rect)
	}

	config := make(ballsort.Configuration, flaskCount)
	for i, m := range members {
		slices.SortStableFunc(m, func(a, b int) int {
			return cmp.Compare(rects[b].Y, rects[a].Y)
		})
		flask := make(ballsort.Flask, len(m))
		for j, rect := range m {
			flask[j] = ballsort.Ball(glyphs[rect])
		}
		config[i] = flask
	}
	return config
}

// Centers returns the tap target of every flask.
func Centers(flasks []geometry.Rect) []geometry.Point {
	centers := make([]geometry.Point, len(flasks))
	for i, f := range flasks {
		centers[i] = f.Center()
	}
	return centers
}
