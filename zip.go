package scankit

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/yeka/zip"
)

// listZip returns the entry names of a zip archive. When the archive is
// encrypted the first protected entry is partially decrypted to verify
// the passphrase, so this doubles as the brute-force probe.
func listZip(desc ArchiveDescriptor) ([]string, error) {
	rc, err := zip.OpenReader(desc.Path)
	if err != nil {
		return nil, extractionErr("list", desc.Path, ErrCorruptArchive)
	}
	defer rc.Close()

	names := make([]string, 0, len(rc.File))
	verified := false
	for _, f := range rc.File {
		names = append(names, f.Name)
		if f.IsEncrypted() && !verified {
			if err := probeZipEntry(f, desc.Passphrase); err != nil {
				return nil, extractionErr("list", desc.Path, err)
			}
			verified = true
		}
	}
	return names, nil
}

// probeZipEntry decrypts a few bytes of one encrypted entry
func probeZipEntry(f *zip.File, passphrase string) error {
	if passphrase == "" {
		return ErrPassphraseRequired
	}
	f.SetPassword(passphrase)
	r, err := f.Open()
	if err != nil {
		return ErrPassphraseRejected
	}
	defer r.Close()
	if _, err := io.CopyN(io.Discard, r, 512); err != nil && err != io.EOF {
		return ErrPassphraseRejected
	}
	return nil
}

func (e *Extractor) extractZip(ctx context.Context, desc ArchiveDescriptor, dest string, out *ExtractionOutcome) error {
	rc, err := zip.OpenReader(desc.Path)
	if err != nil {
		return extractionErr("extract", desc.Path, ErrCorruptArchive)
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

		if f.IsEncrypted() {
			if desc.Passphrase == "" {
				return extractionErr("extract", desc.Path, ErrPassphraseRequired)
			}
			f.SetPassword(desc.Passphrase)
		}

		if err := writeZipEntry(f, target); err != nil {
			if f.IsEncrypted() {
				return extractionErr("extract", desc.Path, ErrPassphraseRejected)
			}
			return extractionErr("extract", desc.Path, err)
		}
		out.FileCount++
	}
	return nil
}

func writeZipEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
