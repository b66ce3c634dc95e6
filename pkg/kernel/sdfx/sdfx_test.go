package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/batoms/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// testCells keeps marching cubes cheap.
const testCells = 24

func TestSphere(t *testing.T) {
	k := NewWithCells(testCells)
	s, err := k.Sphere(1)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	// Every vertex lies close to the unit sphere, and its normal points
	// radially outward.
	for i := 0; i < len(mesh.Vertices); i += 3 {
		p := vertex(mesh.Vertices, i)
		n := vertex(mesh.Normals, i)
		if r := p.Length(); math.Abs(r-1) > 0.15 {
			t.Fatalf("vertex %d at radius %f, want ~1", i/3, r)
		}
		if math.Abs(n.Length()-1) > 1e-3 {
			t.Fatalf("normal %d has length %f", i/3, n.Length())
		}
		if d := n.Dot(p.Normalize()); d < 0.95 {
			t.Fatalf("normal %d not radial: dot %f", i/3, d)
		}
	}
	// Welding shares vertices between triangles.
	if mesh.VertexCount() >= len(mesh.Indices) {
		t.Errorf("%d vertices for %d indices, expected shared vertices", mesh.VertexCount(), len(mesh.Indices))
	}
}

func vertex(buf []float32, i int) v3.Vec {
	return v3.Vec{X: float64(buf[i]), Y: float64(buf[i+1]), Z: float64(buf[i+2])}
}

func TestSphereInvalidRadius(t *testing.T) {
	k := New()
	if _, err := k.Sphere(-1); err == nil {
		t.Fatal("expected error for negative radius")
	}
}

func TestRod(t *testing.T) {
	k := NewWithCells(testCells)
	cyl, err := k.Rod(1, 0.1)
	if err != nil {
		t.Fatalf("Rod failed: %v", err)
	}
	min, max := cyl.Bounds()
	const tol = 0.01
	if math.Abs(min.Z+0.5) > tol || math.Abs(max.Z-0.5) > tol {
		t.Errorf("rod Z extent = [%f, %f], want [-0.5, 0.5]", min.Z, max.Z)
	}
	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
}

func TestUnion(t *testing.T) {
	k := NewWithCells(testCells)
	a, _ := k.Sphere(1)
	b, _ := k.Sphere(1)
	u := k.Union(a, k.Translate(b, v3.Vec{X: 3}))
	min, max := u.Bounds()
	const tol = 0.01
	if math.Abs(min.X+1) > tol || math.Abs(max.X-4) > tol {
		t.Errorf("union X extent = [%f, %f], want [-1, 4]", min.X, max.X)
	}
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	s, _ := k.Sphere(1)
	min, max := k.Translate(s, v3.Vec{X: 10, Y: 20, Z: 30}).Bounds()

	const tol = 0.01
	if min.Sub(v3.Vec{X: 9, Y: 19, Z: 29}).Length() > tol {
		t.Errorf("min = %v, want ~(9, 19, 29)", min)
	}
	if max.Sub(v3.Vec{X: 11, Y: 21, Z: 31}).Length() > tol {
		t.Errorf("max = %v, want ~(11, 21, 31)", max)
	}
}

func TestAlign(t *testing.T) {
	k := New()
	rod, _ := k.Rod(10, 0.5)

	tests := []struct {
		name string
		dir  v3.Vec
		want v3.Vec // bounding box extent
	}{
		{"along x", v3.Vec{X: 2}, v3.Vec{X: 10, Y: 1, Z: 1}},
		{"along -y", v3.Vec{Y: -1}, v3.Vec{X: 1, Y: 10, Z: 1}},
		{"along z", v3.Vec{Z: 3}, v3.Vec{X: 1, Y: 1, Z: 10}},
		{"zero", v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := k.Align(rod, tt.dir).Bounds()
			if ext := max.Sub(min); ext.Sub(tt.want).Length() > 0.1 {
				t.Errorf("extent = %v, want ~%v", ext, tt.want)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	k := NewWithCells(testCells)
	a, b := v3.Vec{X: 1, Y: 1, Z: 1}, v3.Vec{X: 3, Y: 1, Z: 1}
	s, err := kernel.Segment(k, a, b, 0.2)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	min, max := s.Bounds()
	const tol = 0.01
	if math.Abs(min.X-1) > tol || math.Abs(max.X-3) > tol {
		t.Errorf("segment X extent = [%f, %f], want [1, 3]", min.X, max.X)
	}
	if math.Abs(min.Y-0.8) > tol || math.Abs(max.Y-1.2) > tol {
		t.Errorf("segment Y extent = [%f, %f], want [0.8, 1.2]", min.Y, max.Y)
	}

	if _, err := kernel.Segment(k, a, a, 0.2); err == nil {
		t.Error("expected error for a zero-length segment")
	}
}

func TestRodInvalid(t *testing.T) {
	k := New()
	for _, dims := range [][2]float64{{0, 1}, {1, 0}, {-1, 1}} {
		if _, err := k.Rod(dims[0], dims[1]); err == nil {
			t.Errorf("Rod(%g, %g): expected error", dims[0], dims[1])
		}
	}
}

// void is a solid with no surface: its distance is positive everywhere
// inside its bounding box.
type void struct{}

func (void) Evaluate(v3.Vec) float64 { return 1 }
func (void) BoundingBox() sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: -1, Y: -1, Z: -1}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
}

func TestToMeshEmpty(t *testing.T) {
	k := NewWithCells(8)
	mesh, err := k.ToMesh(wrap(void{}))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if !mesh.IsEmpty() || mesh.TriangleCount() != 0 {
		t.Errorf("expected an empty mesh, got %d triangles", mesh.TriangleCount())
	}
	if mesh.Vertices == nil || mesh.Normals == nil {
		t.Error("empty mesh buffers should be non-nil")
	}
	if _, err := k.ToMesh(nil); err == nil {
		t.Error("expected error for a nil solid")
	}
}

func TestToMeshThinRod(t *testing.T) {
	// Sampling follows the solid's own bounding box, so even a rod far
	// thinner than the length/cells step is resolved.
	k := NewWithCells(8)
	rod, err := k.Rod(100, 0.001)
	if err != nil {
		t.Fatalf("Rod failed: %v", err)
	}
	mesh, err := k.ToMesh(rod)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("expected a thin rod to produce triangles")
	}
	lo, hi := mesh.Bounds()
	if hi[2]-lo[2] < 90 {
		t.Errorf("rod mesh spans %g along Z, want about 100", hi[2]-lo[2])
	}
}

func TestNewWithCellsFloor(t *testing.T) {
	if got := NewWithCells(1).Cells(); got != 8 {
		t.Errorf("Cells() = %d, want 8", got)
	}
}
