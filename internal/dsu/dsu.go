// Package dsu implements a disjoint-set union over screen points that keeps,
// for every set, the bounding rectangle of all points merged into it.
package dsu

import "github.com/vancomm/ballsort/internal/geometry"

type DSU struct {
	rects   []geometry.Rect
	parents []int
	weights []int
}

// New creates one singleton set per point. The bounding rectangle of a
// singleton is the zero-sized rectangle at the point.
func New(points []geometry.Point) *DSU {
	d := &DSU{
		rects:   make([]geometry.Rect, len(points)),
		parents: make([]int, len(points)),
		weights: make([]int, len(points)),
	}
	for i, p := range points {
		d.rects[i] = geometry.NewRect(p.X, p.Y, 0, 0)
		d.parents[i] = i
		d.weights[i] = 1
	}
	return d
}

// Find returns the root of i. Every node on the walked path is re-pointed at
// the root.
func (d *DSU) Find(i int) int {
	root := i
	for d.parents[root] != root {
		root = d.parents[root]
	}
	for d.parents[i] != root {
		i, d.parents[i] = d.parents[i], root
	}
	return root
}

// Union merges the sets of i and j and returns the surviving root. The
// lighter tree is attached under the heavier one.
func (d *DSU) Union(i, j int) int {
	i, j = d.Find(i), d.Find(j)
	if i == j {
		return i
	}
	if d.weights[i] < d.weights[j] {
		i, j = j, i
	}
	d.parents[j] = i
	d.rects[i] = d.rects[i].Union(d.rects[j])
	d.weights[i] += d.weights[j]
	return i
}

// Rect returns the bounding rectangle of the set containing i.
func (d *DSU) Rect(i int) geometry.Rect {
	return d.rects[d.Find(i)]
}

// Weight returns the number of points in the set containing i.
func (d *DSU) Weight(i int) int {
	return d.weights[d.Find(i)]
}

func (d *DSU) Same(i, j int) bool {
	return d.Find(i) == d.Find(j)
}
