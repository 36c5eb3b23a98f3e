package qwi

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Scope selects the chunk layout of an optional block.
type Scope uint8

const (
	ScopeFile    Scope = 0
	ScopeElement Scope = 1
)

func (s Scope) String() string {
	if s == ScopeElement {
		return "element"
	}
	return "file"
}

const (
	fileChunkMarker    byte = 0xF1
	elementChunkMarker byte = 0xE1

	fileChunkHeaderSize    = 8 // marker, tag, u32 length
	elementChunkHeaderSize = 6 // marker, tag, u16 length
)

func (s Scope) marker() byte {
	if s == ScopeElement {
		return elementChunkMarker
	}
	return fileChunkMarker
}

func (s Scope) headerSize() int {
	if s == ScopeElement {
		return elementChunkHeaderSize
	}
	return fileChunkHeaderSize
}

func (s Scope) maxPayload() uint64 {
	if s == ScopeElement {
		return math.MaxUint16
	}
	return math.MaxUint32
}

// Tag identifies an optional section. It is exactly three printable ASCII bytes.
type Tag [3]byte

var (
	TagPage = Tag{'P', 'A', 'G'}
	TagFont = Tag{'F', 'N', 'T'}
	TagCode = Tag{'C', 'O', 'D'}
	TagName = Tag{'N', 'A', 'M'}
)

func (t Tag) String() string { return string(t[:]) }

func (t Tag) valid() bool {
	for _, c := range t {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// ParseTag converts a three character string into a Tag.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, fmt.Errorf("%w: tag %q must be 3 bytes", ErrValidation, s)
	}
	copy(t[:], s)
	if !t.valid() {
		return t, fmt.Errorf("%w: tag %q is not printable ASCII", ErrValidation, s)
	}
	return t, nil
}

// Section is one decoded optional chunk.
type Section struct {
	Scope   Scope
	Tag     Tag
	Payload []byte
}

// SectionRef locates a chunk inside an optional block.
type SectionRef struct {
	Offset int // start of the chunk header
	Size   int // header plus payload
	Length int // payload only
}

// Next returns the offset of the chunk that follows.
func (r SectionRef) Next() int { return r.Offset + r.Size }

type chunkHeader struct {
	tag    Tag
	length int
}

// readChunkHeader decodes the chunk header at off and checks that the whole
// chunk fits inside block.
func readChunkHeader(scope Scope, block []byte, off int) (chunkHeader, error) {
	hs := scope.headerSize()
	if off < 0 || off > len(block) || len(block)-off < hs {
		return chunkHeader{}, fmt.Errorf("%w: %s chunk header at %d exceeds block of %d bytes", ErrInvalidSection, scope, off, len(block))
	}
	b := block[off:]
	if b[0] != scope.marker() {
		return chunkHeader{}, fmt.Errorf("%w: bad %s chunk marker 0x%02x at %d", ErrInvalidSection, scope, b[0], off)
	}
	var h chunkHeader
	copy(h.tag[:], b[1:4])
	if scope == ScopeElement {
		h.length = int(binary.LittleEndian.Uint16(b[4:6]))
	} else {
		h.length = int(binary.LittleEndian.Uint32(b[4:8]))
	}
	if h.length < 0 || h.length > len(b)-hs {
		return chunkHeader{}, fmt.Errorf("%w: %s chunk %q at %d declares %d bytes, %d remain", ErrInvalidSection, scope, h.tag, off, h.length, len(b)-hs)
	}
	return h, nil
}

// FindSection scans block from start for the next chunk tagged tag. The
// boolean result is false when no further chunk matches; the returned ref then
// carries start as its offset. Scanning never reads past len(block), and a
// malformed chunk anywhere on the way is an error because later offsets
// cannot be recovered.
func FindSection(tag Tag, scope Scope, start int, block []byte) (SectionRef, bool, error) {
	if start < 0 || start > len(block) {
		return SectionRef{Offset: start}, false, fmt.Errorf("%w: scan offset %d outside block of %d bytes", ErrInvalidSection, start, len(block))
	}
	hs := scope.headerSize()
	for off := start; off < len(block); {
		h, err := readChunkHeader(scope, block, off)
		if err != nil {
			return SectionRef{Offset: start}, false, err
		}
		size := hs + h.length
		if h.tag == tag {
			return SectionRef{Offset: off, Size: size, Length: h.length}, true, nil
		}
		off += size
	}
	return SectionRef{Offset: start}, false, nil
}

// GetSection extracts the payload of the chunk starting at offset. It returns
// a copy of the payload, its length, and the number of block bytes the chunk
// occupies so callers can advance past it.
func GetSection(scope Scope, block []byte, offset int) (payload []byte, length int, consumed int, err error) {
	h, err := readChunkHeader(scope, block, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	start := offset + scope.headerSize()
	payload = make([]byte, h.length)
	copy(payload, block[start:start+h.length])
	return payload, h.length, scope.headerSize() + h.length, nil
}

// Sections decodes every chunk of block in stored order.
func Sections(scope Scope, block []byte) ([]Section, error) {
	var out []Section
	for off := 0; off < len(block); {
		payload, _, n, err := GetSection(scope, block, off)
		if err != nil {
			return nil, err
		}
		var tag Tag
		copy(tag[:], block[off+1:off+4])
		out = append(out, Section{Scope: scope, Tag: tag, Payload: payload})
		off += n
	}
	return out, nil
}

// OptionalWriter accumulates the chunks of one optional block.
type OptionalWriter struct {
	scope Scope
	buf   []byte
}

// NewOptionalWriter returns an empty writer for scope.
func NewOptionalWriter(scope Scope) *OptionalWriter {
	return &OptionalWriter{scope: scope}
}

// SetSection appends one chunk and returns its encoded size.
func (w *OptionalWriter) SetSection(tag Tag, payload []byte) (int, error) {
	if !tag.valid() {
		return 0, fmt.Errorf("%w: tag %q is not printable ASCII", ErrValidation, tag[:])
	}
	if uint64(len(payload)) > w.scope.maxPayload() {
		return 0, fmt.Errorf("%w: %s section %q payload of %d bytes is too large", ErrLimitExceeded, w.scope, tag, len(payload))
	}
	hs := w.scope.headerSize()
	var hdr [fileChunkHeaderSize]byte
	hdr[0] = w.scope.marker()
	copy(hdr[1:4], tag[:])
	if w.scope == ScopeElement {
		binary.LittleEndian.PutUint16(hdr[4:6], uint16(len(payload)))
	} else {
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	}
	w.buf = append(w.buf, hdr[:hs]...)
	w.buf = append(w.buf, payload...)
	return hs + len(payload), nil
}

// Bytes returns the block written so far. It aliases the writer's buffer.
func (w *OptionalWriter) Bytes() []byte { return w.buf }

// Len is len(w.Bytes()).
func (w *OptionalWriter) Len() int { return len(w.buf) }
