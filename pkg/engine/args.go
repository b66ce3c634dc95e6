package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// sexpVec3 carries a vector between builtins.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number looks up an optional numeric keyword, leaving *dst alone when absent.
func (a kwArgs) number(key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// integer looks up an optional integer keyword.
func (a kwArgs) integer(key string, dst *int) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toSpecies extracts a non-empty species name.
func toSpecies(s zygo.Sexp) (string, error) {
	name, err := toString(s)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("empty species name")
	}
	return name, nil
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toPBC reads periodic flags from a single boolean or a list of three.
func toPBC(s zygo.Sexp) ([3]bool, error) {
	if b, err := toBool(s); err == nil {
		return [3]bool{b, b, b}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return [3]bool{}, err
	}
	if len(items) != 3 {
		return [3]bool{}, fmt.Errorf("expected 3 flags, got %d", len(items))
	}
	var pbc [3]bool
	for i, item := range items {
		if pbc[i], err = toBool(item); err != nil {
			return [3]bool{}, err
		}
	}
	return pbc, nil
}

// toColor reads an RGB or RGBA list. Alpha defaults to 1.
func toColor(s zygo.Sexp) ([4]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return [4]float64{}, err
	}
	if len(items) != 3 && len(items) != 4 {
		return [4]float64{}, fmt.Errorf("expected 3 or 4 components, got %d", len(items))
	}
	c := [4]float64{0, 0, 0, 1}
	for i, item := range items {
		if c[i], err = toFloat64(item); err != nil {
			return [4]float64{}, err
		}
	}
	return c, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
