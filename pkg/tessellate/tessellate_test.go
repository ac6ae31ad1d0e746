package tessellate_test

import (
	"reflect"
	"testing"

	"github.com/chazu/parasurf/pkg/tessellate"
)

func TestGridSingleCell(t *testing.T) {
	tris := tessellate.Grid(1, 1)

	// 2x2 vertices: bl=0, br=1, tl=2, tr=3.
	want := []tessellate.Triangle{{2, 0, 3}, {3, 0, 1}}
	if !reflect.DeepEqual(tris, want) {
		t.Fatalf("Grid(1,1) = %v, want %v", tris, want)
	}
}

func TestGridCounts(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		wantTris   int
	}{
		{"1x1", 1, 1, 2},
		{"2x2", 2, 2, 8},
		{"3x5", 3, 5, 30},
		{"100x100", 100, 100, 20000},
		{"zero rows", 0, 4, 0},
		{"negative cols", 4, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := tessellate.Grid(tt.rows, tt.cols)
			if len(tris) != tt.wantTris {
				t.Fatalf("got %d triangles, want %d", len(tris), tt.wantTris)
			}
			if tt.wantTris == 0 {
				return
			}
			nVerts := int64((tt.rows + 1) * (tt.cols + 1))
			if got := tessellate.MaxIndex(tris); got >= nVerts {
				t.Errorf("max index %d out of range for %d vertices", got, nVerts)
			}
		})
	}
}

func TestGridNonSquareLayout(t *testing.T) {
	// rows=1, cols=2: vertex rows have 3 entries.
	tris := tessellate.Grid(1, 2)
	want := []tessellate.Triangle{
		{3, 0, 4}, {4, 0, 1},
		{4, 1, 5}, {5, 1, 2},
	}
	if !reflect.DeepEqual(tris, want) {
		t.Fatalf("Grid(1,2) = %v, want %v", tris, want)
	}
}

func TestGridDeterministic(t *testing.T) {
	a := tessellate.Flatten(tessellate.Grid(7, 9))
	b := tessellate.Flatten(tessellate.Grid(7, 9))
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two calls produced different index buffers")
	}
}

func TestWireframe(t *testing.T) {
	tris := []tessellate.Triangle{{2, 0, 3}}
	got := tessellate.Wireframe(tris)
	want := []uint32{2, 0, 0, 3, 3, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Wireframe = %v, want %v", got, want)
	}
}

func TestWireframeCountNotDeduplicated(t *testing.T) {
	for _, dims := range [][2]int{{1, 1}, {2, 3}, {10, 4}} {
		m, n := dims[0], dims[1]
		tris := tessellate.Grid(m, n)
		idx := tessellate.Wireframe(tris)
		// 3 edges x 2 endpoints for each of the 2*m*n triangles.
		if want := 6 * len(tris); len(idx) != want {
			t.Errorf("%dx%d: wireframe has %d indices, want %d", m, n, len(idx), want)
		}
	}
}

func TestPointCloudPassThrough(t *testing.T) {
	tris := tessellate.Grid(2, 2)
	got := tessellate.PointCloud(tris)
	if !reflect.DeepEqual(got, tessellate.Flatten(tris)) {
		t.Fatal("point cloud should pass through every triangle index in order")
	}
	if len(got) != 3*len(tris) {
		t.Errorf("got %d indices, want %d", len(got), 3*len(tris))
	}
}

func TestIndices(t *testing.T) {
	tris := tessellate.Grid(2, 1)
	tests := []struct {
		topo tessellate.Topology
		want int
	}{
		{tessellate.Triangles, 12},
		{tessellate.Lines, 24},
		{tessellate.Points, 12},
	}
	for _, tt := range tests {
		t.Run(tt.topo.String(), func(t *testing.T) {
			idx, err := tessellate.Indices(tris, tt.topo)
			if err != nil {
				t.Fatalf("Indices: %v", err)
			}
			if len(idx) != tt.want {
				t.Errorf("got %d indices, want %d", len(idx), tt.want)
			}
			if len(idx)%tt.topo.Stride() != 0 {
				t.Errorf("index count %d not a multiple of stride %d", len(idx), tt.topo.Stride())
			}
		})
	}

	if _, err := tessellate.Indices(tris, tessellate.Topology(42)); err == nil {
		t.Error("expected error for unknown topology")
	}
}

func TestParseTopology(t *testing.T) {
	tests := []struct {
		in      string
		want    tessellate.Topology
		wantErr bool
	}{
		{"triangles", tessellate.Triangles, false},
		{"solid", tessellate.Triangles, false},
		{"Lines", tessellate.Lines, false},
		{"wireframe", tessellate.Lines, false},
		{" points ", tessellate.Points, false},
		{"cloud", tessellate.Points, false},
		{"quads", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := tessellate.ParseTopology(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
