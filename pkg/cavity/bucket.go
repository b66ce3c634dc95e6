package cavity

import (
	"math"
	"strconv"
)

// Palette is the fixed color cycle (RGBA) for buckets created on demand.
var Palette = [][4]float64{
	{0.0, 0.24, 1.0, 0.5},  // blue
	{1.0, 0.84, 0.0, 0.5},  // yellow
	{0.0, 0.8, 0.2, 0.5},   // green
	{1.0, 0.2, 0.2, 0.5},   // red
	{0.6, 0.2, 0.8, 0.5},   // purple
	{1.0, 0.55, 0.0, 0.5},  // orange
	{0.0, 0.8, 0.8, 0.5},   // cyan
	{0.9, 0.4, 0.7, 0.5},   // pink
	{0.55, 0.35, 0.2, 0.5}, // brown
	{0.5, 0.5, 0.5, 0.5},   // gray
}

// Bucket classifies cavity spheres by radius range [Min, Max).
type Bucket struct {
	ID    int        `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Min   float64    `json:"min" yaml:"min"`
	Max   float64    `json:"max" yaml:"max"`
	Color [4]float64 `json:"color" yaml:"color"`
}

// Contains reports whether r falls in [Min, Max).
func (b Bucket) Contains(r float64) bool {
	return r >= b.Min && r < b.Max
}

// Buckets is an ordered bucket collection. Lookups are first-match-wins
// in creation order; ranges may overlap. The zero value is empty and
// ready to use. Reusing one collection across calls makes
// classification reproducible.
type Buckets struct {
	items []Bucket
}

// NewBuckets returns a collection seeded with bs, in order. IDs are
// reassigned to the position in the collection.
func NewBuckets(bs ...Bucket) *Buckets {
	c := &Buckets{}
	for _, b := range bs {
		c.Add(b.Name, b.Min, b.Max, b.Color)
	}
	return c
}

// Add appends a bucket and returns its ID. An empty name defaults to the ID.
func (c *Buckets) Add(name string, min, max float64, color [4]float64) int {
	id := len(c.items)
	if name == "" {
		name = strconv.Itoa(id)
	}
	c.items = append(c.items, Bucket{ID: id, Name: name, Min: min, Max: max, Color: color})
	return id
}

// Find returns the first bucket containing r.
func (c *Buckets) Find(r float64) (Bucket, bool) {
	for _, b := range c.items {
		if b.Contains(r) {
			return b, true
		}
	}
	return Bucket{}, false
}

// Classify returns the bucket for r, creating [floor(r), ceil(r)) when
// none matches. Integral radii get [r, r+1). New buckets take the next
// palette color.
func (c *Buckets) Classify(r float64) (id int, created bool) {
	if b, ok := c.Find(r); ok {
		return b.ID, false
	}
	min, max := math.Floor(r), math.Ceil(r)
	if max == min {
		max = min + 1
	}
	color := Palette[len(c.items)%len(Palette)]
	return c.Add("", min, max, color), true
}

// All returns a copy of the buckets in creation order.
func (c *Buckets) All() []Bucket {
	out := make([]Bucket, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of buckets.
func (c *Buckets) Len() int {
	return len(c.items)
}
