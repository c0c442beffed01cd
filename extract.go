package scankit

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
)

// ArchiveDescriptor identifies one archive for a validation run. It is
// created once per run and never mutated.
type ArchiveDescriptor struct {
	Path       string
	Format     Format
	Passphrase string
}

// NewArchiveDescriptor detects the format of the file at path and builds
// a descriptor for it.
func NewArchiveDescriptor(path, passphrase string) ArchiveDescriptor {
	return ArchiveDescriptor{
		Path:       path,
		Format:     DetectFormat(path),
		Passphrase: passphrase,
	}
}

// ExtractionOutcome reports how an extraction ended. Dest is only
// meaningful while the coordinator's scoped temporary directory exists.
type ExtractionOutcome struct {
	Dest      string
	FileCount int
	Skipped   int // entries rejected by the safety gate
	Extracted bool
	Err       error
}

// Extractor extracts detected containers. The zero value is usable;
// Logger defaults to slog.Default.
type Extractor struct {
	Logger *slog.Logger
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Extract extracts the archive into dest, which must already exist.
//
// Every entry name passes the safety gate before any bytes are written:
// absolute paths and parent-directory segments are skipped, logged and
// counted, and extraction continues with the remaining safe entries. The
// returned error is one of the sentinel taxonomy (ErrUnknownFormat,
// ErrCorruptArchive, ErrPassphraseRequired, ErrPassphraseRejected) or a
// wrapped codec I/O failure; none are fatal to the process.
func (e *Extractor) Extract(ctx context.Context, desc ArchiveDescriptor, dest string) (*ExtractionOutcome, error) {
	out := &ExtractionOutcome{Dest: dest}

	var err error
	switch desc.Format {
	case FormatZip:
		err = e.extractZip(ctx, desc, dest, out)
	case FormatRar:
		err = e.extractRar(ctx, desc, dest, out)
	case Format7z:
		err = e.extract7z(ctx, desc, dest, out)
	case FormatTar, FormatTarGz, FormatTarBz2:
		err = e.extractTar(ctx, desc, dest, out)
	case FormatGzip:
		err = e.extractGzip(desc, dest, out)
	default:
		err = extractionErr("extract", desc.Path, ErrUnknownFormat)
	}

	out.Extracted = err == nil
	out.Err = err
	return out, err
}

// ListEntries returns the entry names of the archive without extracting
// it. For encrypted formats the listing decrypts just enough of the first
// protected entry to prove the passphrase works, so FindPassphrase can
// use it as a cheap probe.
func (e *Extractor) ListEntries(desc ArchiveDescriptor) ([]string, error) {
	switch desc.Format {
	case FormatZip:
		return listZip(desc)
	case FormatRar:
		return listRar(desc)
	case Format7z:
		return list7z(desc)
	case FormatTar, FormatTarGz, FormatTarBz2:
		return listTar(desc)
	case FormatGzip:
		return listGzip(desc)
	default:
		return nil, extractionErr("list", desc.Path, ErrUnknownFormat)
	}
}

// FindPassphrase tries each candidate in order against the archive's
// listing operation and returns the first that succeeds, or
// ErrPassphraseNotFound after exhausting the list. No files are written
// for failed candidates.
func (e *Extractor) FindPassphrase(desc ArchiveDescriptor, candidates []string) (string, error) {
	for _, candidate := range candidates {
		probe := desc
		probe.Passphrase = candidate
		if _, err := e.ListEntries(probe); err == nil {
			return candidate, nil
		}
	}
	return "", extractionErr("bruteforce", desc.Path, ErrPassphraseNotFound)
}

// safeEntryPath validates an archive entry name against path traversal.
// It returns the destination-relative cleaned path and false for any name
// that is absolute or escapes dest through a parent-directory segment.
func safeEntryPath(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	// Windows-style separators and drive letters are treated as hostile
	// regardless of the host platform.
	normalized := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(normalized, "/") || strings.Contains(normalized, ":") {
		return "", false
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", false
		}
	}
	cleaned := filepath.Clean(filepath.FromSlash(normalized))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return cleaned, true
}

// rejectEntry logs and counts a skipped unsafe entry
func (e *Extractor) rejectEntry(out *ExtractionOutcome, archive, entry string) {
	out.Skipped++
	e.logger().Warn("skipping unsafe archive entry",
		"archive", archive,
		"entry", entry,
	)
}
