package scankit

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/gobeaver/scankit/pointcloud"
)

// Validator runs the full intake validation sequence: detect format, list
// entries, classify the name, extract into a scoped temporary directory,
// classify the extracted size, analyze the point cloud, consult the
// optional content checker, and compose one AggregateResult.
//
// A Validator holds no per-run state and is safe for concurrent use;
// every run owns its private temporary directory.
type Validator struct {
	// Extractor performs container extraction. Nil means a default one.
	Extractor *Extractor

	// Content is the optional external content-format checker.
	Content ContentChecker

	// PointBudget caps point records parsed per point-cloud file.
	// Zero means pointcloud.DefaultPointBudget.
	PointBudget int

	// PointCloudName is the file name looked up in the extraction root
	// before the recursive search. Empty means "scan.pcd".
	PointCloudName string

	// Passphrases are brute-force candidates tried in order when the
	// explicit passphrase is absent or rejected.
	Passphrases []string

	// SizeLimits is the size policy. The zero value means defaults.
	SizeLimits SizeLimits

	// TempRoot is where per-run extraction directories are created.
	// Empty means the OS temp directory.
	TempRoot string

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultValidator creates a validator with production defaults
func DefaultValidator() *Validator {
	return &Validator{
		Extractor:      &Extractor{},
		PointBudget:    pointcloud.DefaultPointBudget,
		PointCloudName: "scan.pcd",
		SizeLimits:     DefaultSizeLimits(),
	}
}

// NewValidatorFromConfig builds a validator from environment config
func NewValidatorFromConfig(cfg *Config) (*Validator, error) {
	candidates, err := cfg.PassphraseCandidates()
	if err != nil {
		return nil, err
	}
	v := DefaultValidator()
	v.PointBudget = cfg.PointBudget
	v.PointCloudName = cfg.PointCloudName
	v.Passphrases = candidates
	v.TempRoot = cfg.TempRoot
	return v, nil
}

func (v *Validator) extractor() *Extractor {
	if v.Extractor != nil {
		return v.Extractor
	}
	return &Extractor{Logger: v.Logger}
}

func (v *Validator) logger() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}

func (v *Validator) sizeLimits() SizeLimits {
	if v.SizeLimits == (SizeLimits{}) {
		return DefaultSizeLimits()
	}
	return v.SizeLimits
}

func (v *Validator) pointCloudName() string {
	if v.PointCloudName != "" {
		return v.PointCloudName
	}
	return "scan.pcd"
}

// Validate runs one validation. The passphrase may be empty; when the
// archive turns out to be encrypted the configured candidate list is
// brute forced through the listing operation before giving up.
//
// The returned error covers environmental failures only (the scoped
// temporary directory could not be created). Everything about the
// archive itself, including corrupt containers, rejected passphrases and
// codec panics on hostile input, is reported inside the AggregateResult,
// and Validate never leaves the temporary directory behind on any exit
// path.
func (v *Validator) Validate(ctx context.Context, path, passphrase string) (res *AggregateResult, err error) {
	res = &AggregateResult{
		RunID:       uuid.NewString(),
		ArchivePath: path,
		Scale:       pointcloud.NotFoundVerdict(),
	}
	log := v.logger().With("run_id", res.RunID, "archive", path)

	// A decoder blowing up on malformed input must surface as a rejected
	// result, never take the process down. The temporary directory's own
	// deferred cleanup runs before this does.
	defer func() {
		if r := recover(); r != nil {
			res = v.reject(res, log, fmt.Sprintf("archive: codec panic: %v", r))
			err = nil
		}
	}()

	if digest, err := DigestFile(path); err == nil {
		res.Digest = digest
	} else {
		log.Warn("could not digest archive", "error", err)
	}

	desc := NewArchiveDescriptor(path, passphrase)
	res.Format = desc.Format
	res.Name = ClassifyName(filepath.Base(path))

	if desc.Format == FormatUnknown {
		return v.reject(res, log, fmt.Sprintf("format: %v", ErrUnknownFormat)), nil
	}

	// Fail fast on unreadable or locked archives before touching disk.
	if _, err := v.extractor().ListEntries(desc); err != nil {
		if !IsPassphraseError(err) || len(v.Passphrases) == 0 {
			return v.reject(res, log, "archive: "+err.Error()), nil
		}
		found, ferr := v.extractor().FindPassphrase(desc, v.Passphrases)
		if ferr != nil {
			return v.reject(res, log, "archive: "+err.Error()), nil
		}
		log.Info("passphrase recovered from candidate list")
		desc.Passphrase = found
	}

	tempDir, err := os.MkdirTemp(v.TempRoot, "scankit-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	outcome, err := v.extractor().Extract(ctx, desc, tempDir)
	if err != nil {
		return v.reject(res, log, "extraction: "+err.Error()), nil
	}
	res.FileCount = outcome.FileCount

	res.TotalBytes = treeSize(tempDir)
	res.Size = ClassifySizeWith(v.sizeLimits(), res.TotalBytes)

	if pcPath, found := findPointCloud(tempDir, v.pointCloudName()); found {
		res.Scale = v.analyzePointCloud(pcPath, res.Name.SceneType)
	}

	if v.Content != nil {
		res.Content = v.checkContent(tempDir, log)
	}

	res.Passed = res.Size.Acceptable && (res.Content == nil || res.Content.Passed)
	res.Issues = res.composeIssues()

	log.Info("validation finished",
		"format", res.Format.String(),
		"files", res.FileCount,
		"bytes", res.TotalBytes,
		"scene", string(res.Name.SceneType),
		"size_status", string(res.Size.Status),
		"scale_status", string(res.Scale.Status),
		"passed", res.Passed,
	)
	return res, nil
}

// reject finalizes a result for a run that never reached classification.
// Only the fatal issue and the already-computed naming verdict can be
// reported; the other classifiers never ran.
func (v *Validator) reject(res *AggregateResult, log *slog.Logger, issue string) *AggregateResult {
	res.Passed = false
	res.Issues = issue
	if !res.Name.Matched && res.Name.Explanation != "" {
		res.Issues = issue + "; naming: " + res.Name.Explanation
	}
	log.Info("validation rejected", "issue", issue)
	return res
}

// analyzePointCloud parses and classifies one point-cloud file. Any
// failure, including a panic out of the parser on pathological input, is
// converted into an unreadable verdict so the run itself never aborts.
// Unknown scenes use outdoor thresholds.
func (v *Validator) analyzePointCloud(path string, scene SceneType) (verdict pointcloud.ScaleVerdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = pointcloud.UnreadableVerdict(fmt.Sprintf("parser panic: %v", r))
		}
	}()

	box, _, err := pointcloud.ParsePoints(path, v.PointBudget)
	if err != nil {
		return pointcloud.UnreadableVerdict(err.Error())
	}

	thresholds := pointcloud.OutdoorThresholds()
	if scene == SceneIndoor {
		thresholds = pointcloud.IndoorThresholds()
	}
	return pointcloud.ClassifyScale(box, thresholds)
}

// checkContent runs the external collaborator, converting its errors into
// a failed report rather than letting them escape the run.
func (v *Validator) checkContent(dir string, log *slog.Logger) *ContentReport {
	report, err := v.Content.CheckTree(dir)
	if err != nil {
		log.Warn("content checker failed", "error", err)
		return &ContentReport{Passed: false, Detail: err.Error()}
	}
	return report
}

// treeSize sums the sizes of all regular files below root
func treeSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// pcdPattern matches point-cloud files case-insensitively by lowering
// candidate names before matching.
var pcdPattern = glob.MustCompile("*.pcd")

// findPointCloud locates the point-cloud file: an exact name match in the
// extraction root wins, otherwise the first hit of a recursive
// case-insensitive search.
func findPointCloud(root, preferred string) (string, bool) {
	exact := filepath.Join(root, preferred)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return exact, true
	}

	var hit string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if pcdPattern.Match(strings.ToLower(d.Name())) {
			hit = path
			return filepath.SkipAll
		}
		return nil
	})
	return hit, hit != ""
}
