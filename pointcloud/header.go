package pointcloud

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Encoding is the point-record encoding declared by the header's DATA key.
type Encoding string

const (
	EncodingASCII            Encoding = "ascii"
	EncodingBinary           Encoding = "binary"
	EncodingBinaryCompressed Encoding = "binary_compressed"
)

// Header parsing errors
var (
	// ErrMalformedHeader means the header block is structurally broken:
	// no DATA line, or an encoding value outside the known set.
	ErrMalformedHeader = errors.New("malformed point-cloud header")

	// ErrMissingCoordinates means the FIELDS list lacks x or y.
	ErrMissingCoordinates = errors.New("header is missing x/y coordinate fields")

	// ErrCompressedUnsupported is returned for binary_compressed data. The
	// encoding is recognized so it surfaces as an explicit error, never a
	// silent skip.
	ErrCompressedUnsupported = errors.New("binary_compressed point data is not supported")
)

// Header holds the parsed fields of a point-cloud file header.
type Header struct {
	Version  string
	Fields   []string
	Width    int
	Height   int
	Points   int
	Encoding Encoding
}

// FieldIndex returns the position of a named field, or -1
func (h *Header) FieldIndex(name string) int {
	for i, f := range h.Fields {
		if strings.EqualFold(f, name) {
			return i
		}
	}
	return -1
}

// HasZ reports whether the field list declares a z coordinate
func (h *Header) HasZ() bool {
	return h.FieldIndex("z") >= 0
}

// ParseHeader reads key-value header lines from r up to and including the
// DATA line and stops there, leaving r positioned at the first byte of
// the body. Comment lines start with '#'. Unrecognized keys are ignored
// for forward compatibility.
func ParseHeader(r *bufio.Reader) (*Header, error) {
	h := &Header{}
	sawData := false

	for {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if err != nil {
				break
			}
			continue
		}

		tokens := strings.Fields(trimmed)
		key := strings.ToUpper(tokens[0])
		args := tokens[1:]

		switch key {
		case "VERSION":
			if len(args) > 0 {
				h.Version = args[0]
			}
		case "FIELDS":
			h.Fields = args
		case "WIDTH":
			h.Width = parseIntField(args)
		case "HEIGHT":
			h.Height = parseIntField(args)
		case "POINTS":
			h.Points = parseIntField(args)
		case "VIEWPOINT":
			// Recognized but unused: scale analysis is viewpoint-independent.
		case "DATA":
			if len(args) == 0 {
				return nil, fmt.Errorf("%w: DATA line has no encoding", ErrMalformedHeader)
			}
			enc := Encoding(strings.ToLower(args[0]))
			switch enc {
			case EncodingASCII, EncodingBinary, EncodingBinaryCompressed:
				h.Encoding = enc
			default:
				return nil, fmt.Errorf("%w: unknown encoding %q", ErrMalformedHeader, args[0])
			}
			sawData = true
		}
		// SIZE, TYPE, COUNT and anything newer are intentionally ignored.

		if sawData || err != nil {
			break
		}
	}

	if !sawData {
		return nil, fmt.Errorf("%w: no DATA line", ErrMalformedHeader)
	}
	if h.FieldIndex("x") < 0 || h.FieldIndex("y") < 0 {
		return nil, ErrMissingCoordinates
	}
	return h, nil
}

// ReadHeader parses just the header of the file at path
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseHeader(bufio.NewReader(f))
}

func parseIntField(args []string) int {
	if len(args) == 0 {
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0
	}
	return n
}
