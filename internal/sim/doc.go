// Package sim orchestrates multi-subject simulation batches. One subject is
// fully processed before the next: surface load, distance matrix, mixing
// model (cached), then per-condition noise synthesis, signal composition
// and projection.
//
// Failures are per-subject: a subject with no usable regions, or whose
// providers fail, is skipped with a warning and the batch continues.
// Configuration mistakes (unknown option names) abort the whole run before
// any subject is touched.
package sim
