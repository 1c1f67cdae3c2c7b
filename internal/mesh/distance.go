package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

// DistanceType selects the metric used for inter-source distances.
type DistanceType string

const (
	// DistanceEuclidean is closed-form straight-line distance.
	DistanceEuclidean DistanceType = "euclidean"

	// DistanceGeodesic is shortest-path distance along mesh edges.
	DistanceGeodesic DistanceType = "geodesic"
)

// UnreachableDistance is the sentinel assigned to vertex pairs with no
// connecting path. Finite so empirical CDFs over distance stay finite; far
// larger than any real head geometry.
const UnreachableDistance = 1e6

// ParseDistanceType validates a distance-type name. Unknown names are a
// configuration error.
func ParseDistanceType(name string) (DistanceType, error) {
	switch DistanceType(name) {
	case DistanceEuclidean, DistanceGeodesic:
		return DistanceType(name), nil
	}
	return "", fmt.Errorf("unknown distance type %q (want %q or %q)", name, DistanceEuclidean, DistanceGeodesic)
}

// Distances computes the pairwise distance matrix between the given source
// vertices. Geodesic paths may traverse the entire surface. The result is
// symmetric with a zero diagonal; unreachable pairs carry
// UnreachableDistance.
func Distances(s *Surface, indices []int, dtype DistanceType) (*mat.SymDense, error) {
	switch dtype {
	case DistanceEuclidean:
		return euclideanMatrix(s.Vertices, indices)
	case DistanceGeodesic:
		g := edgeGraph(len(s.Vertices), s.Faces, s.Vertices)
		return geodesicMatrix(g, indices, identityLookup(indices))
	}
	return nil, fmt.Errorf("unknown distance type %q", dtype)
}

// RegionDistances computes pairwise distances within a region. Geodesic
// paths are restricted to the union-mode patch around the region, so a
// region spanning disconnected islands yields sentinel distances between
// islands.
func RegionDistances(s *Surface, indices []int, dtype DistanceType) (*mat.SymDense, error) {
	switch dtype {
	case DistanceEuclidean:
		return euclideanMatrix(s.Vertices, indices)
	case DistanceGeodesic:
	default:
		return nil, fmt.Errorf("unknown distance type %q", dtype)
	}

	patch, err := Subsample(s, indices, FaceUnion)
	if err != nil {
		return nil, err
	}
	// Region vertices absent from the patch (members of no face) are
	// unreachable from everything; geodesicMatrix fills sentinels for them.
	lookup := make(map[int]int64, len(indices))
	for local, pos := range patch.SubsetPosition {
		if pos >= 0 {
			lookup[pos] = int64(local)
		}
	}
	g := edgeGraph(len(patch.Vertices), patch.Faces, patch.Vertices)
	return geodesicMatrix(g, indices, func(pos int) (int64, bool) {
		id, ok := lookup[pos]
		return id, ok
	})
}

// identityLookup maps subset positions straight to full-surface vertex IDs.
func identityLookup(indices []int) func(int) (int64, bool) {
	return func(pos int) (int64, bool) { return int64(indices[pos]), true }
}

func euclideanMatrix(vertices [][3]float64, indices []int) (*mat.SymDense, error) {
	n := len(indices)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, euclidean(vertices[indices[i]], vertices[indices[j]]))
		}
	}
	return d, nil
}

// edgeGraph builds the weighted undirected triangle-edge graph. Every vertex
// gets a node even when isolated, so Dijkstra sources always exist.
func edgeGraph(nVertices int, faces [][3]int, vertices [][3]float64) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < nVertices; i++ {
		g.AddNode(simple.Node(int64(i)))
	}
	addEdge := func(a, b int) {
		if a == b {
			return
		}
		w := euclidean(vertices[a], vertices[b])
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(int64(a)), simple.Node(int64(b)), w))
	}
	for _, f := range faces {
		addEdge(f[0], f[1])
		addEdge(f[1], f[2])
		addEdge(f[2], f[0])
	}
	return g
}

// geodesicMatrix runs Dijkstra from each subset position. lookup resolves a
// subset position to a graph node ID; positions that resolve to no node are
// unreachable by definition.
func geodesicMatrix(g *simple.WeightedUndirectedGraph, indices []int, lookup func(int) (int64, bool)) (*mat.SymDense, error) {
	n := len(indices)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		src, okSrc := lookup(i)
		var sp path.Shortest
		if okSrc {
			sp = path.DijkstraFrom(simple.Node(src), g)
		}
		for j := i + 1; j < n; j++ {
			dst, okDst := lookup(j)
			w := math.Inf(1)
			if okSrc && okDst {
				w = sp.WeightTo(dst)
			}
			if math.IsInf(w, 1) {
				w = UnreachableDistance
			}
			d.SetSym(i, j, w)
		}
	}
	return d, nil
}
