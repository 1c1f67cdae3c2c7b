package mesh

import "fmt"

// FaceMode selects which faces survive a subsample operation.
type FaceMode string

const (
	// FaceUnion keeps a face if any of its three vertices is in the subset.
	FaceUnion FaceMode = "union"

	// FaceIntersect keeps a face only if all three vertices are in the subset.
	FaceIntersect FaceMode = "intersect"
)

// Patch is the result of subsampling a surface to a vertex subset. Face
// indices are local to Patch.Vertices and always valid against it. A Patch
// may be empty when no face satisfies the requested mode; callers must
// handle empty regions.
type Patch struct {
	// Vertices holds the coordinates of every vertex referenced by a kept
	// face, in ascending original-index order.
	Vertices [][3]float64

	// Faces holds the kept triangles, re-indexed into Patch.Vertices.
	Faces [][3]int

	// OriginalIndex maps each patch vertex to its index in the full surface.
	OriginalIndex []int

	// SubsetPosition maps each patch vertex to its position in the input
	// subset, or -1 when the vertex was pulled in by a union-mode face but
	// is not itself a subset member.
	SubsetPosition []int
}

// Empty reports whether the patch contains no geometry.
func (p Patch) Empty() bool { return len(p.Vertices) == 0 }

// Subsample restricts a surface to the given vertex subset. In FaceUnion
// mode the patch may contain vertices outside the subset (one-ring
// neighbours pulled in by shared faces); in FaceIntersect mode it contains
// only subset vertices. An empty result is not an error.
func Subsample(s *Surface, subset []int, mode FaceMode) (Patch, error) {
	if mode != FaceUnion && mode != FaceIntersect {
		return Patch{}, fmt.Errorf("unsupported face mode %q", mode)
	}

	inSubset := make(map[int]int, len(subset)) // original index -> subset position
	for pos, v := range subset {
		if v < 0 || v >= len(s.Vertices) {
			return Patch{}, fmt.Errorf("subset vertex %d out of range [0,%d)", v, len(s.Vertices))
		}
		inSubset[v] = pos
	}

	var kept [][3]int
	used := make(map[int]bool)
	for _, f := range s.Faces {
		_, ok0 := inSubset[f[0]]
		_, ok1 := inSubset[f[1]]
		_, ok2 := inSubset[f[2]]
		keep := false
		switch mode {
		case FaceUnion:
			keep = ok0 || ok1 || ok2
		case FaceIntersect:
			keep = ok0 && ok1 && ok2
		}
		if !keep {
			continue
		}
		kept = append(kept, f)
		used[f[0]] = true
		used[f[1]] = true
		used[f[2]] = true
	}
	if len(kept) == 0 {
		return Patch{}, nil
	}

	// Collect used vertices in ascending original order and re-index.
	local := make(map[int]int, len(used))
	var p Patch
	for orig := 0; orig < len(s.Vertices); orig++ {
		if !used[orig] {
			continue
		}
		local[orig] = len(p.Vertices)
		p.Vertices = append(p.Vertices, s.Vertices[orig])
		p.OriginalIndex = append(p.OriginalIndex, orig)
		if pos, ok := inSubset[orig]; ok {
			p.SubsetPosition = append(p.SubsetPosition, pos)
		} else {
			p.SubsetPosition = append(p.SubsetPosition, -1)
		}
	}
	for _, f := range kept {
		p.Faces = append(p.Faces, [3]int{local[f[0]], local[f[1]], local[f[2]]})
	}
	return p, nil
}
