// Package spatial provides nearest-neighbor and radius queries over a
// fixed 3D point set. It wraps the gonum k-d tree; an Index is cheap to
// rebuild and is never updated incrementally.
package spatial

import (
	"context"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Neighbor is the result of a nearest-neighbor query.
type Neighbor struct {
	Index    int     // index into the indexed point set
	Distance float64 // Euclidean distance to the query point
}

// Index answers nearest and radius queries over a point set.
// It is safe for concurrent queries once built.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// New builds an index over pts. The slice is not retained.
func New(pts []v3.Vec) *Index {
	if len(pts) == 0 {
		return &Index{}
	}
	ps := make(points, len(pts))
	for i, p := range pts {
		ps[i] = newPoint(p, i)
	}
	return &Index{tree: kdtree.New(ps, false), n: len(pts)}
}

// Len returns the number of indexed points.
func (x *Index) Len() int {
	return x.n
}

// NearestOne returns the indexed point closest to q. ok is false when
// the index is empty.
func (x *Index) NearestOne(q v3.Vec) (nb Neighbor, ok bool) {
	if x.n == 0 {
		return Neighbor{Index: -1, Distance: math.Inf(1)}, false
	}
	c, d2 := x.tree.Nearest(newPoint(q, -1))
	return Neighbor{Index: c.(point).index, Distance: math.Sqrt(d2)}, true
}

// Nearest returns the closest indexed point for every query, in query
// order. With workers > 1 the queries are split into contiguous chunks
// searched concurrently; the result does not depend on workers.
// An empty index yields an empty result.
func (x *Index) Nearest(ctx context.Context, queries []v3.Vec, workers int) ([]Neighbor, error) {
	if x.n == 0 || len(queries) == 0 {
		return []Neighbor{}, nil
	}
	out := make([]Neighbor, len(queries))

	if workers <= 1 || len(queries) < 2*workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x.nearestRange(queries, out, 0, len(queries))
		return out, nil
	}

	chunk := (len(queries) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(queries); start += chunk {
		start := start
		end := start + chunk
		if end > len(queries) {
			end = len(queries)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x.nearestRange(queries, out, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (x *Index) nearestRange(queries []v3.Vec, out []Neighbor, start, end int) {
	for i := start; i < end; i++ {
		out[i], _ = x.NearestOne(queries[i])
	}
}

// Within returns the indices of all points whose distance to q is at
// most r, in ascending index order.
func (x *Index) Within(q v3.Vec, r float64) []int {
	if x.n == 0 || r < 0 || math.IsNaN(r) {
		return nil
	}
	center := newPoint(q, -1)
	bounds := &kdtree.Bounding{
		Min: point{pos: [3]float64{q.X - r, q.Y - r, q.Z - r}, index: -1},
		Max: point{pos: [3]float64{q.X + r, q.Y + r, q.Z + r}, index: -1},
	}
	r2 := r * r

	var found []int
	x.tree.DoBounded(bounds, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		if center.Distance(c) <= r2 {
			found = append(found, c.(point).index)
		}
		return false
	})
	sort.Ints(found)
	return found
}

// WithinBatch runs Within for every query.
func (x *Index) WithinBatch(queries []v3.Vec, r float64) [][]int {
	out := make([][]int, len(queries))
	for i, q := range queries {
		out[i] = x.Within(q, r)
	}
	return out
}
