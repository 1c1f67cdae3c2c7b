// Package roi defines cortical regions of interest and the operations that
// shape them for simulation: resizing a region to a target vertex count by
// growing a radius from a central vertex, and converting a resized region
// into a per-vertex spatial weight column used to inject a 1-D seed signal
// into the mesh.
//
// Degenerate inputs (empty regions, oversized targets, disconnected
// geometry) are absorbed with warnings rather than errors: a multi-subject
// batch must survive one bad region.
package roi
