package scankit

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gobeaver/scankit/pointcloud"
)

// SceneType is the coarse scene category declared by an archive's file name.
// It selects the threshold set for point-cloud scale classification.
type SceneType string

const (
	SceneIndoor  SceneType = "indoor"
	SceneOutdoor SceneType = "outdoor"
	SceneUnknown SceneType = "unknown"
)

// SizeStatus is the ordinal outcome of the extracted-size check.
type SizeStatus string

const (
	SizeOptimal      SizeStatus = "optimal"
	SizeWarningSmall SizeStatus = "warning_small"
	SizeWarningLarge SizeStatus = "warning_large"
	SizeErrorSmall   SizeStatus = "error_too_small"
	SizeErrorLarge   SizeStatus = "error_too_large"
)

// NameVerdict is the naming classifier's result. Produced once, read-only
// afterwards. An unmatched name is a warning: it signals "unable to
// pre-classify, treat as outdoor downstream", never a failed archive.
type NameVerdict struct {
	SceneType   SceneType
	Prefix      string // accepted prefix that matched, "" when unmatched
	Matched     bool
	Explanation string
}

// SizeVerdict is the size classifier's result. Only the two hard error
// tiers clear Acceptable.
type SizeVerdict struct {
	Status      SizeStatus
	Acceptable  bool
	TotalBytes  int64
	Explanation string
}

// ContentReport is the opaque result of an external content-format
// validator run over the extracted tree. This package passes it through
// unmodified.
type ContentReport struct {
	Passed bool
	Detail string
}

// ContentChecker is the collaborator interface for downstream
// content-format validation (e.g. a reconstruction-tool preflight).
// Implementations receive the extraction root.
type ContentChecker interface {
	CheckTree(dir string) (*ContentReport, error)
}

// AggregateResult is the sole output of a validation run. It is created
// at the end of one run and never reused across runs.
type AggregateResult struct {
	// RunID correlates log entries with this result.
	RunID string

	// ArchivePath is the validated archive as given by the caller.
	ArchivePath string

	// Format is the detected container format.
	Format Format

	// Digest is the hex xxhash64 of the archive bytes ("" if unreadable).
	Digest string

	// FileCount is the number of files extracted.
	FileCount int

	// TotalBytes is the total extracted size.
	TotalBytes int64

	// The three classifier verdicts.
	Name  NameVerdict
	Size  SizeVerdict
	Scale pointcloud.ScaleVerdict

	// Content is the external content validation result, nil when no
	// checker was configured.
	Content *ContentReport

	// Passed is the overall admission decision: size tier acceptable AND
	// content validation passed (when run). Naming and scale are advisory.
	Passed bool

	// Issues is a semicolon-joined summary of what went wrong: every
	// verdict outside its acceptable bands plus the advisory naming
	// mismatch. Acceptable warning tiers and a missing point-cloud file
	// are not issues.
	Issues string
}

// Summary returns a human-readable one-line summary of the run
func (r *AggregateResult) Summary() string {
	if r.Passed {
		s := fmt.Sprintf("✓ %s (%s, %d files, %s) admitted",
			r.ArchivePath, r.Format, r.FileCount, humanize.IBytes(uint64(r.TotalBytes)))
		if r.Issues != "" {
			s += " with warnings: " + r.Issues
		}
		return s
	}
	return fmt.Sprintf("✗ %s rejected: %s", r.ArchivePath, r.Issues)
}

// composeIssues joins the problems of a finished run: the advisory
// naming mismatch plus every verdict that fell outside its acceptable
// bands.
func (r *AggregateResult) composeIssues() string {
	var issues []string
	if !r.Name.Matched {
		issues = append(issues, "naming: "+r.Name.Explanation)
	}
	if !r.Size.Acceptable {
		issues = append(issues, "size: "+r.Size.Explanation)
	}
	if !r.Scale.Acceptable {
		issues = append(issues, "scale: "+r.Scale.Explanation)
	}
	if r.Content != nil && !r.Content.Passed {
		issues = append(issues, "content: "+r.Content.Detail)
	}
	return strings.Join(issues, "; ")
}
