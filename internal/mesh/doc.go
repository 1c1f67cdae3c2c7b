// Package mesh holds the triangulated cortical surface type and the
// geometry operations the simulation pipeline needs: subsampling a surface
// to a vertex subset, and computing pairwise Euclidean or geodesic distances
// between source points.
//
// Geodesic distance is shortest-path distance over the triangle edge graph,
// with edge weights equal to Euclidean edge length. Pairs that are
// unreachable (disconnected mesh components) are clamped to a large finite
// sentinel rather than infinity so that downstream empirical-CDF
// computations stay finite.
package mesh
