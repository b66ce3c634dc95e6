package lattice

import (
	"errors"
	"fmt"
)

// ErrInvalidCell is matched by every degenerate-cell error returned from this package.
var ErrInvalidCell = errors.New("lattice: invalid cell")

// InvalidCellError reports which lattice vector made the cell unusable.
// Axis is -1 when the cell as a whole is singular (coplanar vectors).
type InvalidCellError struct {
	Axis   int
	Length float64
	Det    float64
}

func (e *InvalidCellError) Error() string {
	if e.Axis >= 0 {
		return fmt.Sprintf("lattice: invalid cell: vector %d has length %g", e.Axis, e.Length)
	}
	return fmt.Sprintf("lattice: invalid cell: singular matrix (det %g)", e.Det)
}

// Is lets errors.Is(err, ErrInvalidCell) succeed.
func (e *InvalidCellError) Is(target error) bool {
	return target == ErrInvalidCell
}
