// Package scankit validates uploaded 3D-scan dataset archives before they
// are admitted into a processing pipeline.
//
// A validation run is a pure function of the archive bytes: detect the
// container format, extract it to a private scoped temporary directory,
// classify the dataset, and compose a single aggregate verdict. No state
// is kept between runs and the temporary directory is removed on every
// exit path.
//
// # Quick Start
//
//	v := scankit.DefaultValidator()
//	res, err := v.Validate(ctx, "/uploads/Indoor_001.zip", "")
//	if err != nil {
//	    // environmental failure (temp dir could not be created)
//	}
//	fmt.Println(res.Summary())
//
// # Supported containers
//
// ZIP (including passphrase-protected), RAR, 7z, TAR, TAR.GZ, TAR.BZ2 and
// standalone GZIP. Format detection prefers the longest file-name suffix,
// falls back to magic bytes, and finally to a trial open for plain TAR,
// which has no fixed magic number. An unrecognized format is a normal
// outcome surfaced to the caller, never a crash.
//
// # Classification
//
// Three classifiers contribute to the aggregate result:
//
//   - Naming: the archive's own file name declares its scene category
//     (indoor/outdoor/unknown) through a prefix grammar.
//   - Size: total extracted bytes against a five-tier policy with soft
//     warning bands inside hard error bands.
//   - Scale: the point-cloud bounding box footprint against
//     scene-type-dependent thresholds (see the pointcloud subpackage).
//
// Only the size tier and the optional external content check decide the
// overall pass/fail bit; naming and scale are advisory and are recorded
// in the issue summary without failing the archive.
//
// # Extraction safety
//
// Every entry name is checked before any bytes are written: absolute
// paths and parent-directory segments are skipped and logged, and
// extraction continues with the remaining safe entries.
//
// # Intake watching
//
// The Watcher observes a drop directory and validates each newly arrived
// archive, emitting results on a channel. Remote storage polling is the
// host application's concern.
package scankit
