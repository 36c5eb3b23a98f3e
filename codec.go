package qwi

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// PixelCodec turns pixel planes into an element bitstream and back. The
// container treats each call as atomic; implementations may parallelize
// internally but must not retain planes or bitstream after returning.
type PixelCodec interface {
	// Encode compresses e.Planes planes of e.Width*e.Height samples each.
	// e.Levels and the quality fields are already resolved.
	Encode(e *Element, planes [][]int16) ([]byte, error)
	// Decode fills planes with the element reduced by level (0 is full
	// resolution). Each plane holds LevelSize(e.Width, e.Height, level)
	// samples. It returns the number of bitstream bytes consumed.
	Decode(e *Element, bitstream []byte, level int, planes [][]int16) (int, error)
}

// PlanarCodec is the built-in PixelCodec. Every level is stored as quantized
// int16 planes run through one of the general purpose compressors, coarsest
// level first, so a reader can stop early for thumbnails. Subsampling is
// recorded in the element header but not applied.
type PlanarCodec struct {
	Compression Compression
}

const planarHeaderSize = 4 // compression, level count, color step, alpha step

const levelHeaderSize = 6 // u16 flags, u32 payload length

func (c PlanarCodec) Encode(e *Element, planes [][]int16) ([]byte, error) {
	w, h := int(e.Width), int(e.Height)
	if len(planes) != int(e.Planes) {
		return nil, fmt.Errorf("%w: %d planes given for a %d plane element", ErrValidation, len(planes), e.Planes)
	}
	for i, p := range planes {
		if len(p) != w*h {
			return nil, fmt.Errorf("%w: plane %d holds %d samples, want %d", ErrValidation, i, len(p), w*h)
		}
	}
	colorStep := quantStep(e.Quality)
	alphaStep := quantStep(e.AlphaQuality)
	levels := int(e.Levels) + 1

	out := []byte{byte(c.Compression), byte(levels), byte(colorStep), byte(alphaStep)}

	pyramid := make([][][]int16, levels)
	pyramid[0] = planes
	for l := 1; l < levels; l++ {
		pw, ph := LevelSize(w, h, l-1)
		pyramid[l] = make([][]int16, len(planes))
		for i := range planes {
			pyramid[l][i] = downsample(pyramid[l-1][i], pw, ph)
		}
	}

	for l := levels - 1; l >= 0; l-- {
		lw, lh := LevelSize(w, h, l)
		raw := make([]byte, 0, len(planes)*lw*lh*2)
		for i, p := range pyramid[l] {
			step := colorStep
			if e.hasAlpha() && i == len(planes)-1 {
				step = alphaStep
			}
			for _, v := range p {
				raw = binary.LittleEndian.AppendUint16(raw, uint16(quantize(v, step)))
			}
		}
		flags, payload, err := compressPayload(c.Compression, raw)
		if err != nil {
			return nil, err
		}
		var hdr [levelHeaderSize]byte
		binary.LittleEndian.PutUint16(hdr[0:2], flags)
		binary.LittleEndian.PutUint32(hdr[2:6], uint32(len(payload)))
		out = append(out, hdr[:]...)
		out = append(out, payload...)
	}
	return out, nil
}

func (c PlanarCodec) Decode(e *Element, bitstream []byte, level int, planes [][]int16) (int, error) {
	if len(bitstream) < planarHeaderSize {
		return 0, fmt.Errorf("%w: %d byte bitstream", ErrInvalidBitstream, len(bitstream))
	}
	levels := int(bitstream[1])
	if levels != int(e.Levels)+1 {
		return 0, fmt.Errorf("%w: bitstream holds %d levels, header declares %d", ErrInvalidBitstream, levels, int(e.Levels)+1)
	}
	if level < 0 || level >= levels {
		return 0, fmt.Errorf("%w: level %d outside 0..%d", ErrValidation, level, levels-1)
	}
	colorStep := int(bitstream[2])
	alphaStep := int(bitstream[3])
	if colorStep == 0 || alphaStep == 0 {
		return 0, fmt.Errorf("%w: zero quantization step", ErrInvalidBitstream)
	}
	lw, lh := LevelSize(int(e.Width), int(e.Height), level)
	if len(planes) != int(e.Planes) {
		return 0, fmt.Errorf("%w: %d output planes for a %d plane element", ErrValidation, len(planes), e.Planes)
	}
	for i, p := range planes {
		if len(p) != lw*lh {
			return 0, fmt.Errorf("%w: output plane %d holds %d samples, want %d", ErrValidation, i, len(p), lw*lh)
		}
	}

	off := planarHeaderSize
	for l := levels - 1; l >= level; l-- {
		if len(bitstream)-off < levelHeaderSize {
			return 0, fmt.Errorf("%w: level %d header", ErrInvalidBitstream, l)
		}
		flags := binary.LittleEndian.Uint16(bitstream[off : off+2])
		n := int(binary.LittleEndian.Uint32(bitstream[off+2 : off+6]))
		off += levelHeaderSize
		if n < 0 || n > len(bitstream)-off {
			return 0, fmt.Errorf("%w: level %d declares %d bytes, %d remain", ErrInvalidBitstream, l, n, len(bitstream)-off)
		}
		payload := bitstream[off : off+n]
		off += n
		if l != level {
			continue
		}
		want := len(planes) * lw * lh * 2
		raw, err := decompressPayload(flags, payload, uint64(want))
		if err != nil {
			return 0, err
		}
		if len(raw) != want {
			return 0, fmt.Errorf("%w: level %d holds %d bytes, want %d", ErrInvalidBitstream, l, len(raw), want)
		}
		for i, p := range planes {
			step := colorStep
			if e.hasAlpha() && i == len(planes)-1 {
				step = alphaStep
			}
			src := raw[i*lw*lh*2:]
			for j := range p {
				p[j] = int16(binary.LittleEndian.Uint16(src[j*2:])) * int16(step)
			}
		}
	}
	return off, nil
}

// quantStep maps a 0..100 quality to a quantization step; 100 and the
// unspecified marker are lossless.
func quantStep(q int8) int {
	if q < 0 || q >= 100 {
		return 1
	}
	return 1 + int(100-q)/5
}

func quantize(v int16, step int) int16 {
	if step <= 1 {
		return v
	}
	s := int(v)
	if s >= 0 {
		return int16((s + step/2) / step)
	}
	return int16(-((-s + step/2) / step))
}

// downsample halves a w x h plane with a 2x2 box filter. Odd edges average
// the samples that exist.
func downsample(src []int16, w, h int) []int16 {
	dw, dh := ceilShift(w, 1), ceilShift(h, 1)
	dst := make([]int16, dw*dh)
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			sum, n := 0, 0
			for dy := 0; dy < 2; dy++ {
				sy := 2*y + dy
				if sy >= h {
					break
				}
				for dx := 0; dx < 2; dx++ {
					sx := 2*x + dx
					if sx >= w {
						break
					}
					sum += int(src[sy*w+sx])
					n++
				}
			}
			dst[y*dw+x] = int16((sum + n/2) / n)
		}
	}
	return dst
}

var planePool = sync.Pool{
	New: func() any {
		b := make([]int16, 0)
		return &b
	},
}

// acquirePlanes hands out n planes of w*h samples carved from one pooled
// buffer. release must be called exactly once; the planes are invalid after.
func acquirePlanes(n, w, h int, limits Limits) ([][]int16, func(), error) {
	total := uint64(n) * uint64(w) * uint64(h)
	if total > limits.MaxPlaneSamples {
		return nil, nil, fmt.Errorf("%w: %d planes of %dx%d samples", ErrResource, n, w, h)
	}
	bp := planePool.Get().(*[]int16)
	buf := *bp
	if uint64(cap(buf)) < total {
		buf = make([]int16, total)
	}
	buf = buf[:total]
	clear(buf)
	planes := make([][]int16, n)
	size := w * h
	for i := range planes {
		planes[i] = buf[i*size : (i+1)*size : (i+1)*size]
	}
	release := func() {
		*bp = buf[:0]
		planePool.Put(bp)
	}
	return planes, release, nil
}
