package engine

import (
	"fmt"

	"github.com/chazu/batoms/pkg/bond"
	"github.com/chazu/batoms/pkg/cavity"
	"github.com/chazu/batoms/pkg/model"
	"github.com/chazu/batoms/pkg/neighbor"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builder accumulates a System while a script runs.
type builder struct {
	sys *model.System

	// modelStyle is applied to atoms that do not name their own.
	modelStyle int
}

func newBuilder(sys *model.System) *builder {
	return &builder{sys: sys}
}

type builtin func(b *builder, args []zygo.Sexp) (zygo.Sexp, error)

// builtins maps zygomys names to implementations. Hyphenated script names
// arrive here with underscores; see preprocessSource.
var builtins = map[string]builtin{
	"label":         builtinLabel,
	"vec3":          builtinVec3,
	"cell":          builtinCell,
	"atom":          builtinAtom,
	"model_style":   builtinModelStyle,
	"frame":         builtinFrame,
	"cutoff":        builtinCutoff,
	"bond_style":    builtinBondStyle,
	"cavity":        builtinCavity,
	"cavity_bucket": builtinCavityBucket,
}

// registerBuiltins installs the structure builtins into env. They write
// into b as the script runs.
//
// Source must go through preprocessSource first so that :keyword tokens
// are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	for name, fn := range builtins {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return fn(b, args)
		})
	}
}

// (label "water")
func builtinLabel(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("label requires exactly 1 argument, got %d", len(args))
	}
	s, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("label: %w", err)
	}
	if s == "" {
		return zygo.SexpNull, fmt.Errorf("label: empty label")
	}
	b.sys.Label = s
	return zygo.SexpNull, nil
}

// (vec3 1 2 3)
func builtinVec3(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (cell 10)                             cubic
// (cell 10 12 14)                       orthorhombic
// (cell (vec3 ..) (vec3 ..) (vec3 ..))  general
//
// :pbc takes true, false or a list of three flags and defaults to true.
func builtinCell(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	pbc := [3]bool{true, true, true}
	if v, ok := pa.kw["pbc"]; ok {
		p, err := toPBC(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cell: pbc: %w", err)
		}
		pbc = p
	}

	var vecs [3]v3.Vec
	switch len(pa.positional) {
	case 1:
		l, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cell: %w", err)
		}
		vecs = [3]v3.Vec{{X: l}, {Y: l}, {Z: l}}
	case 3:
		if _, ok := pa.positional[0].(*sexpVec3); ok {
			for i, s := range pa.positional {
				v, err := toVec3(s)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cell: vector %d: %w", i, err)
				}
				vecs[i] = v
			}
			break
		}
		var l [3]float64
		for i, s := range pa.positional {
			f, err := toFloat64(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cell: length %d: %w", i, err)
			}
			l[i] = f
		}
		vecs = [3]v3.Vec{{X: l[0]}, {Y: l[1]}, {Z: l[2]}}
	default:
		return zygo.SexpNull, fmt.Errorf("cell requires 1 or 3 arguments, got %d", len(pa.positional))
	}

	if err := b.sys.SetCell(vecs[0], vecs[1], vecs[2], pbc); err != nil {
		return zygo.SexpNull, fmt.Errorf("cell: %w", err)
	}
	return zygo.SexpNull, nil
}

// (atom "O" (vec3 0 0 0) :model-style 1)
//
// Returns the index of the new atom.
func builtinAtom(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("atom requires a species and a position")
	}
	if len(b.sys.Frames) > 1 {
		return zygo.SexpNull, fmt.Errorf("atom: atoms must be declared before extra frames")
	}
	species, err := toSpecies(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("atom: species: %w", err)
	}
	pos, err := toVec3(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("atom: position: %w", err)
	}
	style := b.modelStyle
	if err := pa.integer("model-style", &style); err != nil {
		return zygo.SexpNull, fmt.Errorf("atom: %w", err)
	}

	idx := b.sys.NumAtoms()
	b.sys.AddAtom(species, pos, style)
	return &zygo.SexpInt{Val: int64(idx)}, nil
}

// (model-style 1) sets the style of atoms declared after it.
func builtinModelStyle(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("model-style requires exactly 1 argument, got %d", len(args))
	}
	n, err := toInt(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("model-style: %w", err)
	}
	if n < 0 {
		return zygo.SexpNull, fmt.Errorf("model-style: negative style %d", n)
	}
	b.modelStyle = n
	return zygo.SexpNull, nil
}

// (frame (vec3 ..) (vec3 ..) ...) or (frame (list (vec3 ..) ...))
//
// Appends an animation frame with one position per declared atom.
func builtinFrame(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	items := args
	if len(args) == 1 {
		if l, err := sexpListToSlice(args[0]); err == nil {
			items = l
		}
	}
	pos := make([]v3.Vec, len(items))
	for i, item := range items {
		v, err := toVec3(item)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("frame: position %d: %w", i, err)
		}
		pos[i] = v
	}
	if len(b.sys.Frames) == 0 {
		return zygo.SexpNull, fmt.Errorf("frame: no atoms declared")
	}
	if err := b.sys.AddFrame(pos); err != nil {
		return zygo.SexpNull, fmt.Errorf("frame: %w", err)
	}
	return zygo.SexpNull, nil
}

// (cutoff "C" "H" 1.2 :min 0.5)
func builtinCutoff(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 3 {
		return zygo.SexpNull, fmt.Errorf("cutoff requires two species and a maximum distance")
	}
	var c neighbor.Cutoff
	var err error
	if c.Species1, err = toSpecies(pa.positional[0]); err != nil {
		return zygo.SexpNull, fmt.Errorf("cutoff: species1: %w", err)
	}
	if c.Species2, err = toSpecies(pa.positional[1]); err != nil {
		return zygo.SexpNull, fmt.Errorf("cutoff: species2: %w", err)
	}
	if c.Max, err = toFloat64(pa.positional[2]); err != nil {
		return zygo.SexpNull, fmt.Errorf("cutoff: max: %w", err)
	}
	if err := pa.number("min", &c.Min); err != nil {
		return zygo.SexpNull, fmt.Errorf("cutoff: %w", err)
	}
	if c.Max <= 0 || c.Min < 0 || c.Min > c.Max {
		return zygo.SexpNull, fmt.Errorf("cutoff: invalid range [%g, %g]", c.Min, c.Max)
	}
	b.sys.Cutoffs = append(b.sys.Cutoffs, c)
	return zygo.SexpNull, nil
}

// (bond-style "C" "C" :order 2 :style 1 :width 0.8)
//
// Rules are matched in declaration order.
func builtinBondStyle(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("bond-style requires two species")
	}
	r := bond.Rule{Order: bond.DefaultOrder, Style: bond.DefaultStyle, Width: bond.DefaultWidth}
	var err error
	if r.Species1, err = toSpecies(pa.positional[0]); err != nil {
		return zygo.SexpNull, fmt.Errorf("bond-style: species1: %w", err)
	}
	if r.Species2, err = toSpecies(pa.positional[1]); err != nil {
		return zygo.SexpNull, fmt.Errorf("bond-style: species2: %w", err)
	}
	if err := pa.integer("order", &r.Order); err != nil {
		return zygo.SexpNull, fmt.Errorf("bond-style: %w", err)
	}
	if err := pa.integer("style", &r.Style); err != nil {
		return zygo.SexpNull, fmt.Errorf("bond-style: %w", err)
	}
	if err := pa.number("width", &r.Width); err != nil {
		return zygo.SexpNull, fmt.Errorf("bond-style: %w", err)
	}
	if r.Order < 1 || r.Order > 3 {
		return zygo.SexpNull, fmt.Errorf("bond-style: order %d outside 1..3", r.Order)
	}
	if r.Style < bond.StyleUnicolor || r.Style > bond.StyleSpring {
		return zygo.SexpNull, fmt.Errorf("bond-style: unknown style %d", r.Style)
	}
	if r.Width <= 0 {
		return zygo.SexpNull, fmt.Errorf("bond-style: width must be positive")
	}
	b.sys.BondRules = append(b.sys.BondRules, r)
	return zygo.SexpNull, nil
}

// (cavity :resolution 1 :min-radius 4) turns cavity detection on.
func builtinCavity(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	p := b.sys.Cavity
	if err := pa.number("resolution", &p.Resolution); err != nil {
		return zygo.SexpNull, fmt.Errorf("cavity: %w", err)
	}
	if err := pa.number("min-radius", &p.MinRadius); err != nil {
		return zygo.SexpNull, fmt.Errorf("cavity: %w", err)
	}
	if p.Resolution <= 0 {
		return zygo.SexpNull, fmt.Errorf("cavity: resolution must be positive")
	}
	if p.MinRadius < 0 {
		return zygo.SexpNull, fmt.Errorf("cavity: min-radius must not be negative")
	}
	p.Enabled = true
	b.sys.Cavity = p
	return zygo.SexpNull, nil
}

// (cavity-bucket "small" :min 0 :max 5 :color (list 0 0 1 0.5))
//
// Declares a radius bucket ahead of detection. Spheres outside every
// declared bucket still get one created on demand.
func builtinCavityBucket(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("cavity-bucket requires a name")
	}
	name, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cavity-bucket: name: %w", err)
	}
	bk := cavity.Bucket{
		ID:    len(b.sys.Cavity.Buckets),
		Name:  name,
		Color: cavity.Palette[len(b.sys.Cavity.Buckets)%len(cavity.Palette)],
	}
	if _, ok := pa.kw["max"]; !ok {
		return zygo.SexpNull, fmt.Errorf("cavity-bucket: max is required")
	}
	if err := pa.number("min", &bk.Min); err != nil {
		return zygo.SexpNull, fmt.Errorf("cavity-bucket: %w", err)
	}
	if err := pa.number("max", &bk.Max); err != nil {
		return zygo.SexpNull, fmt.Errorf("cavity-bucket: %w", err)
	}
	if bk.Max <= bk.Min {
		return zygo.SexpNull, fmt.Errorf("cavity-bucket: empty range [%g, %g)", bk.Min, bk.Max)
	}
	if v, ok := pa.kw["color"]; ok {
		if bk.Color, err = toColor(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("cavity-bucket: color: %w", err)
		}
	}
	b.sys.Cavity.Buckets = append(b.sys.Cavity.Buckets, bk)
	return zygo.SexpNull, nil
}
