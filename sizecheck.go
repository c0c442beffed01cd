package scankit

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// GiB is one gibibyte in bytes
const GiB = int64(1) << 30

// SizeLimits holds the four tier boundaries of the size policy, in GiB.
// The warning band nests inside the error band on each side: sizes inside
// [WarnMin, WarnMax] are optimal, sizes outside (ErrMin, ErrMax] are hard
// errors, and the two gaps between are soft warnings that stay acceptable.
type SizeLimits struct {
	ErrMin  float64
	WarnMin float64
	WarnMax float64
	ErrMax  float64
}

// DefaultSizeLimits returns the production size policy for scan datasets
func DefaultSizeLimits() SizeLimits {
	return SizeLimits{
		ErrMin:  0.5,
		WarnMin: 1.0,
		WarnMax: 3.0,
		ErrMax:  6.0,
	}
}

// ClassifySize classifies a total extracted byte count against the default
// size policy. Every non-negative count maps to exactly one tier; only the
// two hard error tiers clear Acceptable.
func ClassifySize(totalBytes int64) SizeVerdict {
	return ClassifySizeWith(DefaultSizeLimits(), totalBytes)
}

// ClassifySizeWith classifies a byte count against an explicit policy
func ClassifySizeWith(limits SizeLimits, totalBytes int64) SizeVerdict {
	gib := float64(totalBytes) / float64(GiB)
	human := humanize.IBytes(uint64(totalBytes))

	v := SizeVerdict{TotalBytes: totalBytes}
	switch {
	case gib < limits.ErrMin:
		v.Status = SizeErrorSmall
		v.Acceptable = false
		v.Explanation = fmt.Sprintf("dataset is %s, below the %.1f GiB minimum", human, limits.ErrMin)
	case gib < limits.WarnMin:
		v.Status = SizeWarningSmall
		v.Acceptable = true
		v.Explanation = fmt.Sprintf("dataset is %s, smaller than the %.1f GiB optimal band", human, limits.WarnMin)
	case gib <= limits.WarnMax:
		v.Status = SizeOptimal
		v.Acceptable = true
		v.Explanation = fmt.Sprintf("dataset is %s, inside the optimal band", human)
	case gib <= limits.ErrMax:
		v.Status = SizeWarningLarge
		v.Acceptable = true
		v.Explanation = fmt.Sprintf("dataset is %s, larger than the %.1f GiB optimal band", human, limits.WarnMax)
	default:
		v.Status = SizeErrorLarge
		v.Acceptable = false
		v.Explanation = fmt.Sprintf("dataset is %s, above the %.1f GiB maximum", human, limits.ErrMax)
	}
	return v
}
