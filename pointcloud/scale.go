package pointcloud

import "fmt"

// ScaleStatus is the ordinal outcome of the footprint check.
type ScaleStatus string

const (
	ScaleOptimal       ScaleStatus = "optimal"
	ScaleWarningSmall  ScaleStatus = "warning_small"
	ScaleWarningLarge  ScaleStatus = "warning_large"
	ScaleWarningNarrow ScaleStatus = "warning_narrow"
	ScaleErrorSmall    ScaleStatus = "error_too_small"
	ScaleErrorLarge    ScaleStatus = "error_too_large"

	// ScaleNotFound means no point-cloud file was present. Its absence
	// must never fail an otherwise-valid archive, so it is acceptable.
	ScaleNotFound ScaleStatus = "not_found"

	// ScaleUnreadable means the file was present but could not be parsed
	// (missing coordinate fields, unsupported compressed encoding, or no
	// parseable points). The classifier failed, the run did not.
	ScaleUnreadable ScaleStatus = "unreadable"
)

// ScaleVerdict is the scale classifier's result. Produced once,
// read-only afterwards.
type ScaleVerdict struct {
	Status      ScaleStatus
	Acceptable  bool
	Primary     float64 // larger of width/height, meters
	Secondary   float64 // smaller of width/height, meters
	PointCount  int
	Explanation string
}

// Thresholds are the footprint boundaries for one scene type, in meters.
// The warning band [WarnMin, WarnMax] nests inside the hard error band
// (ErrMin, ErrMax].
type Thresholds struct {
	ErrMin  float64
	WarnMin float64
	WarnMax float64
	ErrMax  float64
}

// OutdoorThresholds returns the footprint policy for outdoor scenes,
// which is also the default when the scene type is unknown.
func OutdoorThresholds() Thresholds {
	return Thresholds{ErrMin: 10, WarnMin: 50, WarnMax: 200, ErrMax: 500}
}

// IndoorThresholds returns the outdoor policy with every boundary halved
func IndoorThresholds() Thresholds {
	return Thresholds{ErrMin: 5, WarnMin: 25, WarnMax: 100, ErrMax: 250}
}

// ClassifyScale classifies a bounding box footprint against the given
// thresholds. The primary dimension is the larger of width and height.
// When the primary dimension is optimal but the secondary one is below
// half the warning minimum, the status is overridden to warning_narrow:
// a degenerate thin scan that a single-dimension check would miss.
func ClassifyScale(box *BoundingBox, t Thresholds) ScaleVerdict {
	if box == nil || !box.Valid() {
		return UnreadableVerdict("no parseable points")
	}

	w, h := box.Width(), box.Height()
	primary, secondary := w, h
	if secondary > primary {
		primary, secondary = secondary, primary
	}

	v := ScaleVerdict{
		Primary:    primary,
		Secondary:  secondary,
		PointCount: box.Points(),
	}
	switch {
	case primary < t.ErrMin:
		v.Status = ScaleErrorSmall
		v.Acceptable = false
		v.Explanation = fmt.Sprintf("footprint %.1fm is below the %.0fm minimum", primary, t.ErrMin)
	case primary < t.WarnMin:
		v.Status = ScaleWarningSmall
		v.Acceptable = true
		v.Explanation = fmt.Sprintf("footprint %.1fm is smaller than the %.0fm optimal band", primary, t.WarnMin)
	case primary <= t.WarnMax:
		if secondary < t.WarnMin/2 {
			v.Status = ScaleWarningNarrow
			v.Acceptable = true
			v.Explanation = fmt.Sprintf("elongated footprint: %.1fm by %.1fm", primary, secondary)
		} else {
			v.Status = ScaleOptimal
			v.Acceptable = true
			v.Explanation = fmt.Sprintf("footprint %.1fm by %.1fm is inside the optimal band", primary, secondary)
		}
	case primary <= t.ErrMax:
		v.Status = ScaleWarningLarge
		v.Acceptable = true
		v.Explanation = fmt.Sprintf("footprint %.1fm is larger than the %.0fm optimal band", primary, t.WarnMax)
	default:
		v.Status = ScaleErrorLarge
		v.Acceptable = false
		v.Explanation = fmt.Sprintf("footprint %.1fm is above the %.0fm maximum", primary, t.ErrMax)
	}
	return v
}

// NotFoundVerdict is the verdict for an archive without a point-cloud file
func NotFoundVerdict() ScaleVerdict {
	return ScaleVerdict{
		Status:      ScaleNotFound,
		Acceptable:  true,
		Explanation: "no point-cloud file found",
	}
}

// UnreadableVerdict is the verdict for a point-cloud file that could not
// be analyzed. It is acceptable: a broken classifier input is data about
// the file, not grounds to reject the archive.
func UnreadableVerdict(reason string) ScaleVerdict {
	return ScaleVerdict{
		Status:      ScaleUnreadable,
		Acceptable:  true,
		Explanation: "point-cloud file could not be analyzed: " + reason,
	}
}
