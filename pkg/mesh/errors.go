package mesh

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is matched by every ShapeMismatchError.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeMismatchError reports an array whose length does not match the
// length it must agree with.
type ShapeMismatchError struct {
	Name string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s has wrong shape %d != %d", e.Name, e.Got, e.Want)
}

// Is lets errors.Is(err, ErrShapeMismatch) succeed.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// CheckLen returns a *ShapeMismatchError when got != want.
func CheckLen(name string, want, got int) error {
	if want != got {
		return &ShapeMismatchError{Name: name, Want: want, Got: got}
	}
	return nil
}
