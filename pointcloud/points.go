package pointcloud

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultPointBudget bounds how many point records are read per file.
// The budget is a parsing limit, not a validity judgment: records beyond
// it are simply not considered for the bounding box.
const DefaultPointBudget = 100000

// ParsePoints parses the point-cloud file at path and returns the
// bounding box over at most budget points (DefaultPointBudget when
// budget <= 0). The header is parsed first and point decoding dispatches
// on its encoding; binary_compressed returns ErrCompressedUnsupported.
func ParsePoints(path string, budget int) (*BoundingBox, *Header, error) {
	if budget <= 0 {
		budget = DefaultPointBudget
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := ParseHeader(r)
	if err != nil {
		return nil, nil, err
	}

	box := NewBoundingBox()
	switch h.Encoding {
	case EncodingASCII:
		err = parseASCII(r, h, box, budget)
	case EncodingBinary:
		err = parseBinary(r, h, box, budget)
	case EncodingBinaryCompressed:
		return nil, h, ErrCompressedUnsupported
	}
	if err != nil {
		return nil, h, err
	}
	return box, h, nil
}

// parseASCII reads newline-delimited coordinate rows. Lines with too few
// tokens or non-numeric coordinates are skipped, not fatal.
func parseASCII(r *bufio.Reader, h *Header, box *BoundingBox, budget int) error {
	xi, yi, zi := h.FieldIndex("x"), h.FieldIndex("y"), h.FieldIndex("z")

	for box.Points() < budget {
		line, err := r.ReadString('\n')
		if line != "" {
			if x, y, z, ok := parseRow(line, xi, yi, zi); ok {
				box.Add(x, y, z)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseRow(line string, xi, yi, zi int) (x, y, z float64, ok bool) {
	tokens := strings.Fields(line)
	if xi >= len(tokens) || yi >= len(tokens) {
		return 0, 0, 0, false
	}
	var err error
	if x, err = strconv.ParseFloat(tokens[xi], 64); err != nil {
		return 0, 0, 0, false
	}
	if y, err = strconv.ParseFloat(tokens[yi], 64); err != nil {
		return 0, 0, 0, false
	}
	if zi >= 0 && zi < len(tokens) {
		if z, err = strconv.ParseFloat(tokens[zi], 64); err != nil {
			return 0, 0, 0, false
		}
	}
	return x, y, z, true
}

// parseBinary reads fixed-width records of len(Fields) little-endian
// 32-bit floats each, starting immediately after the DATA line. A
// truncated tail stops parsing early without error: partial results are
// valid.
func parseBinary(r *bufio.Reader, h *Header, box *BoundingBox, budget int) error {
	xi, yi, zi := h.FieldIndex("x"), h.FieldIndex("y"), h.FieldIndex("z")
	stride := len(h.Fields) * 4
	if stride == 0 {
		return nil
	}
	record := make([]byte, stride)

	for box.Points() < budget {
		if _, err := io.ReadFull(r, record); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}
		x := float64(fieldFloat(record, xi))
		y := float64(fieldFloat(record, yi))
		z := 0.0
		if zi >= 0 {
			z = float64(fieldFloat(record, zi))
		}
		box.Add(x, y, z)
	}
	return nil
}

func fieldFloat(record []byte, idx int) float32 {
	bits := binary.LittleEndian.Uint32(record[idx*4:])
	return math.Float32frombits(bits)
}
