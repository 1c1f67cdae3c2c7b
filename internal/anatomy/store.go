// Package anatomy implements the simulation's external collaborators over a
// plain per-subject directory layout:
//
//	<root>/decay.json                     global coherence decay model
//	<root>/<subject>/surface.gob          cortical surface
//	<root>/<subject>/forward.gob          forward matrix (sensors × sources)
//	<root>/<subject>/rois.gob             atlas name → regions
//
// The formats are defined by this module (gob/JSON); readers for proprietary
// head-model or FreeSurfer files are out of scope and live elsewhere.
package anatomy

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/mesh"
	"github.com/cortical-data/scalp.sim/internal/noise"
	"github.com/cortical-data/scalp.sim/internal/roi"
)

// surfaceFile is the on-disk surface layout.
type surfaceFile struct {
	Vertices        [][3]float64
	Faces           [][3]int
	HemisphereSplit int
}

// regionFile is the on-disk region layout.
type regionFile struct {
	Name     string
	Hemi     string
	Vertices []int
}

// decayFile is the on-disk decay model layout.
type decayFile struct {
	Bands []struct {
		CenterHz float64    `json:"center_hz"`
		Params   [3]float64 `json:"params"`
	} `json:"bands"`
}

// Store reads anatomy artifacts from a root directory. It implements the
// sim provider interfaces.
type Store struct {
	root string

	mu    sync.Mutex
	decay *noise.DecayModel // loaded once, shared across subjects
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) subjectPath(subject, file string) string {
	return filepath.Join(s.root, subject, file)
}

// Surface loads a subject's cortical surface.
func (s *Store) Surface(subject string) (*mesh.Surface, error) {
	var sf surfaceFile
	if err := readGob(s.subjectPath(subject, "surface.gob"), &sf); err != nil {
		return nil, fmt.Errorf("surface for %s: %w", subject, err)
	}
	return mesh.NewSurface(sf.Vertices, sf.Faces, sf.HemisphereSplit)
}

// Forward loads a subject's forward matrix.
func (s *Store) Forward(subject string) (*mat.Dense, error) {
	m := new(mat.Dense)
	if err := readGob(s.subjectPath(subject, "forward.gob"), m); err != nil {
		return nil, fmt.Errorf("forward matrix for %s: %w", subject, err)
	}
	return m, nil
}

// Regions loads one atlas's regions for a subject. A missing atlas yields
// an empty list, not an error; callers treat zero regions as a skip signal.
func (s *Store) Regions(subject, atlas string) ([]roi.Region, error) {
	atlases, err := s.atlases(subject)
	if err != nil {
		return nil, err
	}
	var out []roi.Region
	for _, rf := range atlases[atlas] {
		out = append(out, roi.Region{
			Name:     rf.Name,
			Atlas:    atlas,
			Subject:  subject,
			Hemi:     roi.Hemisphere(rf.Hemi),
			Vertices: rf.Vertices,
		})
	}
	return out, nil
}

// RegionCount reports how many regions an atlas has for a subject.
func (s *Store) RegionCount(subject, atlas string) (int, error) {
	atlases, err := s.atlases(subject)
	if err != nil {
		return 0, err
	}
	return len(atlases[atlas]), nil
}

func (s *Store) atlases(subject string) (map[string][]regionFile, error) {
	var atlases map[string][]regionFile
	if err := readGob(s.subjectPath(subject, "rois.gob"), &atlases); err != nil {
		return nil, fmt.Errorf("regions for %s: %w", subject, err)
	}
	return atlases, nil
}

// DecayModel loads the global decay model, once.
func (s *Store) DecayModel() (noise.DecayModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decay != nil {
		return *s.decay, nil
	}
	data, err := os.ReadFile(filepath.Join(s.root, "decay.json"))
	if err != nil {
		return noise.DecayModel{}, fmt.Errorf("decay model: %w", err)
	}
	var df decayFile
	if err := json.Unmarshal(data, &df); err != nil {
		return noise.DecayModel{}, fmt.Errorf("decay model: %w", err)
	}
	model := noise.DecayModel{}
	for _, b := range df.Bands {
		model.Bands = append(model.Bands, noise.Band{CenterHz: b.CenterHz, Params: b.Params})
	}
	if len(model.Bands) == 0 {
		return noise.DecayModel{}, fmt.Errorf("decay model has no bands")
	}
	s.decay = &model
	return model, nil
}

// WriteSurface stores a surface under the subject directory.
func WriteSurface(root, subject string, s *mesh.Surface) error {
	return writeGob(filepath.Join(root, subject, "surface.gob"), surfaceFile{
		Vertices:        s.Vertices,
		Faces:           s.Faces,
		HemisphereSplit: s.HemisphereSplit,
	})
}

// WriteForward stores a forward matrix under the subject directory.
func WriteForward(root, subject string, m *mat.Dense) error {
	return writeGob(filepath.Join(root, subject, "forward.gob"), m)
}

// WriteRegions stores all atlases for a subject.
func WriteRegions(root, subject string, atlases map[string][]roi.Region) error {
	out := map[string][]regionFile{}
	for atlas, regions := range atlases {
		for _, r := range regions {
			out[atlas] = append(out[atlas], regionFile{
				Name:     r.Name,
				Hemi:     string(r.Hemi),
				Vertices: r.Vertices,
			})
		}
	}
	return writeGob(filepath.Join(root, subject, "rois.gob"), out)
}

// WriteDecayModel stores the global decay model.
func WriteDecayModel(root string, model noise.DecayModel) error {
	var df decayFile
	for _, b := range model.Bands {
		df.Bands = append(df.Bands, struct {
			CenterHz float64    `json:"center_hz"`
			Params   [3]float64 `json:"params"`
		}{CenterHz: b.CenterHz, Params: b.Params})
	}
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, "decay.json"), data, 0o644)
}

func readGob(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(out)
}

func writeGob(path string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(in)
}
