package scankit

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Format identifies a supported container format. The set is closed:
// dispatch switches over it exhaustively, so adding a format is a
// compile-visible change.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatRar
	Format7z
	FormatTar
	FormatTarGz
	FormatTarBz2
	FormatGzip
)

// String returns the canonical suffix-style name of the format
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	case Format7z:
		return "7z"
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	case FormatTarBz2:
		return "tar.bz2"
	case FormatGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// suffixFormats maps file-name suffixes to formats. Ordered so that a
// compound suffix wins over its shorter tail (.tar.gz before .gz).
var suffixFormats = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tgz", FormatTarGz},
	{".tbz2", FormatTarBz2},
	{".zip", FormatZip},
	{".rar", FormatRar},
	{".7z", Format7z},
	{".tar", FormatTar},
	{".gz", FormatGzip},
}

// formatSignature defines a container format signature
type formatSignature struct {
	Format Format
	Offset int    // Offset from start of file
	Magic  []byte // Magic bytes to match
}

// magicSignatures contains container signatures for format detection.
// Ordered by specificity (most specific first).
var magicSignatures = []formatSignature{
	{Format: FormatZip, Offset: 0, Magic: []byte{0x50, 0x4B, 0x03, 0x04}},
	{Format: FormatZip, Offset: 0, Magic: []byte{0x50, 0x4B, 0x05, 0x06}}, // Empty ZIP
	{Format: FormatZip, Offset: 0, Magic: []byte{0x50, 0x4B, 0x07, 0x08}}, // Spanned ZIP
	{Format: FormatRar, Offset: 0, Magic: []byte("Rar!\x1a\x07\x00")},
	{Format: FormatRar, Offset: 0, Magic: []byte("Rar!\x1a\x07\x01\x00")}, // RAR5
	{Format: Format7z, Offset: 0, Magic: []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}},
	{Format: FormatGzip, Offset: 0, Magic: []byte{0x1F, 0x8B}},
	{Format: FormatTarBz2, Offset: 0, Magic: []byte("BZh")},
	{Format: FormatTar, Offset: 257, Magic: []byte("ustar")}, // POSIX tar
}

// DetectFormat identifies the container format of the file at path.
//
// Detection order: longest file-name suffix match, then magic bytes from
// the file header, then a trial tar open for the magic-less plain-tar
// case. FormatUnknown is a normal outcome requiring user feedback, not an
// error.
func DetectFormat(path string) Format {
	name := strings.ToLower(path)
	for _, sf := range suffixFormats {
		if strings.HasSuffix(name, sf.suffix) {
			return sf.format
		}
	}

	header := make([]byte, 512)
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer f.Close()
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return FormatUnknown
	}
	header = header[:n]

	if format := detectByMagic(header); format != FormatUnknown {
		return refineDetection(f, format)
	}

	// Plain tar has no fixed magic number in old (pre-POSIX) archives.
	// A successful trial open of the first header is taken as confirmation.
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if _, err := tar.NewReader(f).Next(); err == nil {
			return FormatTar
		}
	}

	return FormatUnknown
}

// detectByMagic checks header bytes against known magic signatures
func detectByMagic(header []byte) Format {
	for _, sig := range magicSignatures {
		if sig.Offset+len(sig.Magic) > len(header) {
			continue
		}
		if bytes.Equal(header[sig.Offset:sig.Offset+len(sig.Magic)], sig.Magic) {
			return sig.Format
		}
	}
	return FormatUnknown
}

// refineDetection distinguishes formats that share magic bytes: a gzip
// stream may wrap a tar archive, and a bzip2 stream may not.
func refineDetection(f *os.File, initial Format) Format {
	switch initial {
	case FormatGzip:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return initial
		}
		gz, err := gzip.NewReader(f)
		if err != nil {
			return initial
		}
		defer gz.Close()
		inner := make([]byte, 512)
		n, err := io.ReadFull(gz, inner)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return initial
		}
		if n >= 262 && bytes.Equal(inner[257:262], []byte("ustar")) {
			return FormatTarGz
		}
		return FormatGzip

	default:
		return initial
	}
}
