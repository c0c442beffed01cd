// Package pointcloud parses PCD-style point-cloud files and classifies
// their physical footprint.
//
// The on-disk format is a third-party interchange format: a textual
// header of key-value lines (with #-prefixed comments) followed by either
// newline-delimited ASCII coordinate rows or a fixed-width blob of
// little-endian 32-bit floats, selected by the header's DATA key. The
// parser tolerates header keys it does not recognize and files that
// deviate from the fields it requires, reads at most a caller-set point
// budget, and never buffers the body as text.
package pointcloud
