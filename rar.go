package scankit

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

func openRar(desc ArchiveDescriptor) (*rardecode.ReadCloser, error) {
	var opts []rardecode.Option
	if desc.Passphrase != "" {
		opts = append(opts, rardecode.Password(desc.Passphrase))
	}
	rc, err := rardecode.OpenReader(desc.Path, opts...)
	if err != nil {
		return nil, classifyRarError(desc, err)
	}
	return rc, nil
}

func classifyRarError(desc ArchiveDescriptor, err error) error {
	if errors.Is(err, rardecode.ErrBadPassword) {
		if desc.Passphrase == "" {
			return ErrPassphraseRequired
		}
		return ErrPassphraseRejected
	}
	return ErrCorruptArchive
}

// listRar walks the rar headers without extracting file bodies
func listRar(desc ArchiveDescriptor) ([]string, error) {
	rc, err := openRar(desc)
	if err != nil {
		return nil, extractionErr("list", desc.Path, err)
	}
	defer rc.Close()

	var names []string
	for {
		hdr, err := rc.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, extractionErr("list", desc.Path, classifyRarError(desc, err))
		}
		names = append(names, hdr.Name)
	}
}

func (e *Extractor) extractRar(ctx context.Context, desc ArchiveDescriptor, dest string, out *ExtractionOutcome) error {
	rc, err := openRar(desc)
	if err != nil {
		return extractionErr("extract", desc.Path, err)
	}
	defer rc.Close()

	for {
		if err := ctx.Err(); err != nil {
			return extractionErr("extract", desc.Path, err)
		}

		hdr, err := rc.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return extractionErr("extract", desc.Path, classifyRarError(desc, err))
		}

		rel, ok := safeEntryPath(hdr.Name)
		if !ok {
			e.rejectEntry(out, desc.Path, hdr.Name)
			continue
		}
		target := filepath.Join(dest, rel)

		if hdr.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extractionErr("extract", desc.Path, err)
			}
			continue
		}

		if err := writeStreamEntry(rc, target); err != nil {
			return extractionErr("extract", desc.Path, err)
		}
		out.FileCount++
	}
}

// writeStreamEntry writes the current entry of a sequential archive
// reader to target, creating parent directories as needed.
func writeStreamEntry(r io.Reader, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, r)
	return err
}
