package scankit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

func open7z(desc ArchiveDescriptor) (*sevenzip.ReadCloser, error) {
	rc, err := sevenzip.OpenReaderWithPassword(desc.Path, desc.Passphrase)
	if err != nil {
		return nil, classify7zOpenError(desc.Passphrase, err)
	}
	return rc, nil
}

// classify7zOpenError separates an unreadable container from a passphrase
// condition. The library keeps its error values unexported, so the one
// failure class a passphrase can fix is matched by message: with AES
// header encryption a missing or wrong passphrase decrypts the header
// block to garbage that fails its checksum. Structural failures, bad
// magic and truncated headers included, are corrupt containers that no
// passphrase will open.
func classify7zOpenError(passphrase string, err error) error {
	if strings.Contains(err.Error(), "checksum") {
		if passphrase == "" {
			return ErrPassphraseRequired
		}
		return ErrPassphraseRejected
	}
	return ErrCorruptArchive
}

// list7z returns entry names, decrypting a few bytes of the first file
// to verify the passphrase when content encryption is in use.
func list7z(desc ArchiveDescriptor) ([]string, error) {
	rc, err := open7z(desc)
	if err != nil {
		return nil, extractionErr("list", desc.Path, err)
	}
	defer rc.Close()

	names := make([]string, 0, len(rc.File))
	for _, f := range rc.File {
		names = append(names, f.Name)
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := probe7zEntry(f, desc.Passphrase); err != nil {
			return nil, extractionErr("list", desc.Path, err)
		}
		break
	}
	return names, nil
}

func probe7zEntry(f *sevenzip.File, passphrase string) error {
	r, err := f.Open()
	if err != nil {
		return probe7zError(passphrase)
	}
	defer r.Close()
	if _, err := io.CopyN(io.Discard, r, 512); err != nil && err != io.EOF {
		return probe7zError(passphrase)
	}
	return nil
}

func probe7zError(passphrase string) error {
	if passphrase == "" {
		return ErrPassphraseRequired
	}
	return ErrPassphraseRejected
}

func (e *Extractor) extract7z(ctx context.Context, desc ArchiveDescriptor, dest string, out *ExtractionOutcome) error {
	rc, err := open7z(desc)
	if err != nil {
		return extractionErr("extract", desc.Path, err)
	}
	defer rc.Close()

	for _, f := range rc.File {
		if err := ctx.Err(); err != nil {
			return extractionErr("extract", desc.Path, err)
		}

		rel, ok := safeEntryPath(f.Name)
		if !ok {
			e.rejectEntry(out, desc.Path, f.Name)
			continue
		}
		target := filepath.Join(dest, rel)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extractionErr("extract", desc.Path, err)
			}
			continue
		}

		src, err := f.Open()
		if err != nil {
			return extractionErr("extract", desc.Path, probe7zError(desc.Passphrase))
		}
		err = writeStreamEntry(src, target)
		src.Close()
		if err != nil {
			return extractionErr("extract", desc.Path, err)
		}
		out.FileCount++
	}
	return nil
}
