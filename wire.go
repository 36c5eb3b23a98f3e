package qwi

import (
	"encoding/binary"
	"fmt"
	"io"
)

func readFileHeader(r io.Reader) (FileHeader, error) {
	var buf [fileHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileHeader{}, readErr("file header", err)
	}
	return decodeFileHeader(buf[:])
}

func decodeFileHeader(buf []byte) (FileHeader, error) {
	if [4]byte(buf[0:4]) != Magic {
		return FileHeader{}, ErrInvalidMagic
	}
	var h FileHeader
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.Type = ContainerType(buf[8])
	h.Flags = buf[9]
	h.Elements = binary.LittleEndian.Uint16(buf[10:12])
	h.OptionalsLen = binary.LittleEndian.Uint32(buf[12:16])
	h.Width = binary.LittleEndian.Uint16(buf[16:18])
	h.Height = binary.LittleEndian.Uint16(buf[18:20])
	h.TopLevels = buf[20]
	return h, nil
}

func writeFileHeader(w io.Writer, h FileHeader) error {
	var buf [fileHeaderSize]byte
	copy(buf[0:4], Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = uint8(h.Type)
	buf[9] = h.Flags
	binary.LittleEndian.PutUint16(buf[10:12], h.Elements)
	binary.LittleEndian.PutUint32(buf[12:16], h.OptionalsLen)
	binary.LittleEndian.PutUint16(buf[16:18], h.Width)
	binary.LittleEndian.PutUint16(buf[18:20], h.Height)
	buf[20] = h.TopLevels
	_, err := w.Write(buf[:])
	return err
}

func validateFileHeader(h FileHeader, limits Limits) error {
	if h.Elements == 0 {
		return fmt.Errorf("%w: element count is zero", ErrInvalidHeader)
	}
	if int(h.Elements) > limits.MaxElements {
		return fmt.Errorf("%w: %d elements", ErrLimitExceeded, h.Elements)
	}
	if h.Type > TypeSlideshow {
		return fmt.Errorf("%w: unknown container type %d", ErrInvalidHeader, h.Type)
	}
	if h.OptionalsLen > limits.MaxOptionalsLen {
		return fmt.Errorf("%w: optional block of %d bytes", ErrLimitExceeded, h.OptionalsLen)
	}
	return nil
}

// readElementHeader reads the full or short header form as selected by short.
func readElementHeader(r io.Reader, short bool) (Element, error) {
	var buf [elementHeaderSize]byte
	n := elementHeaderSize
	if short {
		n = elementShortHeaderSize
	}
	if _, err := io.ReadFull(r, buf[:n]); err != nil {
		return Element{}, readErr("element header", err)
	}
	if short {
		return decodeShortElementHeader(buf[:n]), nil
	}
	return decodeElementHeader(buf[:n]), nil
}

func decodeElementHeader(b []byte) Element {
	var e Element
	e.Width = binary.LittleEndian.Uint16(b[0:2])
	e.Height = binary.LittleEndian.Uint16(b[2:4])
	e.OffsetX = int32(binary.LittleEndian.Uint32(b[4:8]))
	e.OffsetY = int32(binary.LittleEndian.Uint32(b[8:12]))
	e.Planes = b[12]
	e.Subsampling = Subsampling(b[13])
	e.Colorspace = Colorspace(b[14])
	e.BitDepth = b[15]
	e.Quality = int8(b[16])
	e.AlphaQuality = int8(b[17])
	e.Levels = b[18]
	e.Resiliency = Resiliency(b[19])
	e.Duration = binary.LittleEndian.Uint16(b[20:22])
	e.OptionalsLen = binary.LittleEndian.Uint32(b[24:28])
	e.BodyLen = binary.LittleEndian.Uint32(b[28:32])
	return e
}

// decodeShortElementHeader fills the fields the short form omits with the
// values a base element is written with.
func decodeShortElementHeader(b []byte) Element {
	var e Element
	e.Width = binary.LittleEndian.Uint16(b[0:2])
	e.Height = binary.LittleEndian.Uint16(b[2:4])
	e.Planes = b[4]
	e.Levels = b[5]
	e.Quality = int8(b[6])
	e.AlphaQuality = e.Quality
	e.Resiliency = Resiliency(b[7])
	e.Duration = binary.LittleEndian.Uint16(b[8:10])
	e.OptionalsLen = binary.LittleEndian.Uint32(b[12:16])
	e.BodyLen = binary.LittleEndian.Uint32(b[16:20])
	e.Subsampling = Subsampling444
	e.Colorspace = colorspaceFor(e.Planes)
	e.BitDepth = 8
	return e
}

func writeElementHeader(w io.Writer, e Element, short bool) error {
	var buf [elementHeaderSize]byte
	n := elementHeaderSize
	if short {
		n = elementShortHeaderSize
		binary.LittleEndian.PutUint16(buf[0:2], e.Width)
		binary.LittleEndian.PutUint16(buf[2:4], e.Height)
		buf[4] = e.Planes
		buf[5] = e.Levels
		buf[6] = uint8(e.Quality)
		buf[7] = uint8(e.Resiliency)
		binary.LittleEndian.PutUint16(buf[8:10], e.Duration)
		binary.LittleEndian.PutUint32(buf[12:16], e.OptionalsLen)
		binary.LittleEndian.PutUint32(buf[16:20], e.BodyLen)
	} else {
		binary.LittleEndian.PutUint16(buf[0:2], e.Width)
		binary.LittleEndian.PutUint16(buf[2:4], e.Height)
		binary.LittleEndian.PutUint32(buf[4:8], uint32(e.OffsetX))
		binary.LittleEndian.PutUint32(buf[8:12], uint32(e.OffsetY))
		buf[12] = e.Planes
		buf[13] = uint8(e.Subsampling)
		buf[14] = uint8(e.Colorspace)
		buf[15] = e.BitDepth
		buf[16] = uint8(e.Quality)
		buf[17] = uint8(e.AlphaQuality)
		buf[18] = e.Levels
		buf[19] = uint8(e.Resiliency)
		binary.LittleEndian.PutUint16(buf[20:22], e.Duration)
		binary.LittleEndian.PutUint32(buf[24:28], e.OptionalsLen)
		binary.LittleEndian.PutUint32(buf[28:32], e.BodyLen)
	}
	_, err := w.Write(buf[:n])
	return err
}

func validateElementHeader(e Element, index int, limits Limits) error {
	if e.Planes < 1 || e.Planes > 4 {
		return fmt.Errorf("%w: element %d has %d planes", ErrUnsupportedPlanes, index, e.Planes)
	}
	if e.OptionalsLen > e.BodyLen {
		return fmt.Errorf("%w: element %d optionals (%d bytes) exceed body (%d bytes)", ErrInvalidHeader, index, e.OptionalsLen, e.BodyLen)
	}
	if e.BodyLen > limits.MaxElementBodyLen {
		return fmt.Errorf("%w: element %d body of %d bytes", ErrLimitExceeded, index, e.BodyLen)
	}
	if int(e.Levels) >= MaxResolutionLevels {
		return fmt.Errorf("%w: element %d declares %d resolution levels", ErrInvalidHeader, index, e.Levels)
	}
	return nil
}
