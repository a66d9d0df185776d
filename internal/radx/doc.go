// Package radx holds the minimal radar volume model consumed by the
// persistent clutter pipeline: volumes of rays, each ray carrying named
// range-gated fields.
//
// Volumes are stored on disk as gob-encoded, gzip-compressed files
// (*.vol.gz) named by volume end time. This is an interchange format for the
// tool, not a CfRadial/NetCDF implementation.
package radx
