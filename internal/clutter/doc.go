// Package clutter detects persistent ground clutter in sequences of radar
// volumes.
//
// Detection runs in two passes over the same stream of volumes. The first
// pass counts, per gate, how many volumes exceed a reflectivity threshold
// and after every volume picks the optimal count cutoff K* from the
// histogram of those counts. Gates whose count reaches K* are flagged as
// clutter. Once the flagged set and the normalised cutoff have been stable
// for a configured number of volumes, the pass has converged.
//
// The second pass rewinds the stream, builds a value histogram at every gate
// flagged by the first pass and, when it reaches the volume at which the
// first pass converged, writes a clutter map whose values are a configured
// percentile of each clutter gate's histogram.
//
// Accumulators are keyed by AzElev, the ray's pointing snapped to a
// configured fixed elevation and the nearest azimuth seen in the first
// volume. The set of accumulators is frozen after the first volume; rays in
// later volumes that do not map to an existing accumulator are skipped.
//
// Rays within a volume are processed concurrently by a Pool. Volumes are
// processed strictly in order with a barrier between them.
package clutter
