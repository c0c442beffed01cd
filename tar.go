package scankit

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
)

// openTarStream opens the archive and wraps it in the decompressor the
// format calls for. The caller closes the returned closer, which owns
// the underlying file.
func openTarStream(desc ArchiveDescriptor) (io.Reader, io.Closer, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		return nil, nil, err
	}

	switch desc.Format {
	case FormatTar:
		return f, f, nil
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, ErrCorruptArchive
		}
		return gz, closerChain{gz, f}, nil
	case FormatTarBz2:
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			f.Close()
			return nil, nil, ErrCorruptArchive
		}
		return bz, closerChain{bz, f}, nil
	default:
		f.Close()
		return nil, nil, ErrUnknownFormat
	}
}

type closerChain []io.Closer

func (c closerChain) Close() error {
	var first error
	for _, closer := range c {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// listTar walks the tar headers without writing any entry bodies
func listTar(desc ArchiveDescriptor) ([]string, error) {
	stream, closer, err := openTarStream(desc)
	if err != nil {
		return nil, extractionErr("list", desc.Path, err)
	}
	defer closer.Close()

	var names []string
	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, extractionErr("list", desc.Path, ErrCorruptArchive)
		}
		names = append(names, hdr.Name)
	}
}

func (e *Extractor) extractTar(ctx context.Context, desc ArchiveDescriptor, dest string, out *ExtractionOutcome) error {
	stream, closer, err := openTarStream(desc)
	if err != nil {
		return extractionErr("extract", desc.Path, err)
	}
	defer closer.Close()

	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return extractionErr("extract", desc.Path, err)
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return extractionErr("extract", desc.Path, ErrCorruptArchive)
		}

		rel, ok := safeEntryPath(hdr.Name)
		if !ok {
			e.rejectEntry(out, desc.Path, hdr.Name)
			continue
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extractionErr("extract", desc.Path, err)
			}
		case tar.TypeReg:
			if err := writeStreamEntry(tr, target); err != nil {
				return extractionErr("extract", desc.Path, err)
			}
			out.FileCount++
		default:
			// Symlinks and hardlinks can escape the extraction directory.
			e.rejectEntry(out, desc.Path, hdr.Name)
		}
	}
}

// listGzip reports the single member name of a standalone gzip file
func listGzip(desc ArchiveDescriptor) ([]string, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		return nil, extractionErr("list", desc.Path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, extractionErr("list", desc.Path, ErrCorruptArchive)
	}
	defer gz.Close()

	return []string{gzipMemberName(desc.Path, gz.Name)}, nil
}

// extractGzip decompresses a standalone gzip file to its single member
func (e *Extractor) extractGzip(desc ArchiveDescriptor, dest string, out *ExtractionOutcome) error {
	f, err := os.Open(desc.Path)
	if err != nil {
		return extractionErr("extract", desc.Path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return extractionErr("extract", desc.Path, ErrCorruptArchive)
	}
	defer gz.Close()

	name := gzipMemberName(desc.Path, gz.Name)
	rel, ok := safeEntryPath(name)
	if !ok {
		e.rejectEntry(out, desc.Path, name)
		return nil
	}
	if err := writeStreamEntry(gz, filepath.Join(dest, rel)); err != nil {
		return extractionErr("extract", desc.Path, err)
	}
	out.FileCount++
	return nil
}

// gzipMemberName prefers the name stored in the gzip header, falling back
// to the archive base name with its .gz suffix stripped.
func gzipMemberName(path, headerName string) string {
	if headerName != "" {
		return filepath.Base(headerName)
	}
	base := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(base), ".gz") {
		return base[:len(base)-3]
	}
	return base + ".out"
}
