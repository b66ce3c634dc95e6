package spatial

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Compile-time interface checks.
var (
	_ kdtree.Comparable = point{}
	_ kdtree.Interface  = points(nil)
	_ kdtree.SortSlicer = plane{}
)

// point is a kdtree.Comparable that remembers its position in the
// caller's point set.
type point struct {
	pos   [3]float64
	index int
}

func newPoint(v v3.Vec, index int) point {
	return point{pos: [3]float64{v.X, v.Y, v.Z}, index: index}
}

// Compare returns the signed distance of p from the plane through c
// perpendicular to dimension d.
func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	return p.pos[d] - q.pos[d]
}

// Dims returns 3.
func (p point) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between p and c.
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	dx := p.pos[0] - q.pos[0]
	dy := p.pos[1] - q.pos[1]
	dz := p.pos[2] - q.pos[2]
	return dx*dx + dy*dy + dz*dz
}

// points is the kdtree.Interface backing an Index.
type points []point

func (p points) Index(i int) kdtree.Comparable { return p[i] }

func (p points) Len() int { return len(p) }

func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot partitions p around the median along d.
func (p points) Pivot(d kdtree.Dim) int {
	pl := plane{points: p, dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane sorts points along a single dimension.
type plane struct {
	points
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.points[i].pos[p.dim] < p.points[j].pos[p.dim]
}

func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], dim: p.dim}
}
