package qwi

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the entropy stage PlanarCodec applies to each level.
type Compression uint8

const (
	CompNone Compression = 0x0
	CompZIP  Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4
)

const (
	levelFlagCompressionMask    uint16 = 0x000F
	levelFlagHasUncompressedLen uint16 = 0x0010
)

const zipEntryName = "planes.bin"

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZIP:
		return "zip"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "brotli"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression accepts the names produced by Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return CompNone, nil
	case "zip":
		return CompZIP, nil
	case "zstd":
		return CompZSTD, nil
	case "lz4":
		return CompLZ4, nil
	case "brotli", "br":
		return CompBR, nil
	}
	return CompNone, fmt.Errorf("%w: unknown compression %q", ErrValidation, s)
}

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithLowerEncoderMem(true),
		)
	}
	newZstdReader = func(maxMemory uint64) (*zstd.Decoder, error) {
		return zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxMemory(maxMemory),
		)
	}
	zipCreate   = func(zw *zip.Writer, name string) (io.Writer, error) { return zw.Create(name) }
	zipClose    = func(zw *zip.Writer) error { return zw.Close() }
	zipOpen     = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll     = io.ReadAll
	lz4Close    = func(w *lz4.Writer) error { return w.Close() }
	brotliClose = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
)

// compressPayload compresses raw with comp. It returns the level flags and the
// stored bytes; anything but CompNone is prefixed with the 8-byte uncompressed length.
func compressPayload(comp Compression, raw []byte) (flags uint16, payload []byte, err error) {
	if comp == CompNone {
		return uint16(CompNone), raw, nil
	}
	var compressed []byte
	switch comp {
	case CompZIP:
		compressed, err = zipCompress(raw)
	case CompZSTD:
		compressed, err = zstdCompress(raw)
	case CompLZ4:
		compressed, err = lz4Compress(raw)
	case CompBR:
		compressed, err = brotliCompress(raw)
	default:
		return 0, nil, fmt.Errorf("%w: unknown compression %d", ErrValidation, comp)
	}
	if err != nil {
		return 0, nil, err
	}
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(raw)))
	payload = append(prefix[:], compressed...)
	return uint16(comp) | levelFlagHasUncompressedLen, payload, nil
}

// decompressPayload reverses compressPayload. A declared length above
// maxUncompressed is refused before any decompression happens, and every
// decompressor stops once it has produced more than the declared length.
func decompressPayload(flags uint16, payload []byte, maxUncompressed uint64) ([]byte, error) {
	comp := Compression(flags & levelFlagCompressionMask)
	hasLen := flags&levelFlagHasUncompressedLen != 0
	if comp == CompNone {
		if hasLen {
			return nil, fmt.Errorf("%w: uncompressed level carries a length prefix", ErrInvalidBitstream)
		}
		if uint64(len(payload)) > maxUncompressed {
			return nil, fmt.Errorf("%w: level of %d bytes", ErrLimitExceeded, len(payload))
		}
		return payload, nil
	}
	if !hasLen {
		return nil, fmt.Errorf("%w: compressed level without length prefix", ErrInvalidBitstream)
	}
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: level too short for uncompressed length", ErrInvalidBitstream)
	}
	want := binary.LittleEndian.Uint64(payload[:8])
	if want > maxUncompressed {
		return nil, fmt.Errorf("%w: uncompressed level of %d bytes", ErrLimitExceeded, want)
	}
	body := payload[8:]

	var out []byte
	var err error
	switch comp {
	case CompZIP:
		out, err = zipDecompress(body, want)
	case CompZSTD:
		out, err = zstdDecompress(body, want)
	case CompLZ4:
		out, err = lz4Decompress(body, want)
	case CompBR:
		out, err = brotliDecompress(body, want)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidBitstream, comp)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBitstream, comp, err)
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrInvalidBitstream, len(out), want)
	}
	return out, nil
}

func zipCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zipCreate(zw, zipEntryName)
	if err != nil {
		_ = zipClose(zw)
		return nil, err
	}
	if _, err := entry.Write(in); err != nil {
		_ = zipClose(zw)
		return nil, err
	}
	if err := zipClose(zw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// zipDecompress extracts the single planes.bin entry and checks its declared size.
func zipDecompress(zipBytes []byte, expected uint64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, err
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("zip holds %d entries, want 1", len(zr.File))
	}
	zf := zr.File[0]
	if zf.Name != zipEntryName || zf.FileInfo().IsDir() {
		return nil, fmt.Errorf("unexpected zip entry %q", zf.Name)
	}
	if zf.UncompressedSize64 != expected {
		return nil, fmt.Errorf("zip entry size %d != expected %d", zf.UncompressedSize64, expected)
	}
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readAll(io.LimitReader(rc, int64(expected)))
}

func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// zstdMinDecoderMemory keeps the decoder able to open frames whose window is
// rounded up past a tiny declared length.
const zstdMinDecoderMemory = 1 << 20

func zstdDecompress(in []byte, expected uint64) ([]byte, error) {
	dec, err := newZstdReader(max(expected, zstdMinDecoderMemory))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, make([]byte, 0, expected))
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > expected {
		return nil, fmt.Errorf("zstd expanded beyond %d bytes", expected)
	}
	return out, nil
}

func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return nil, err
	}
	if err := lz4Close(zw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(in []byte, expected uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > expected {
		return nil, fmt.Errorf("lz4 expanded beyond %d bytes", expected)
	}
	return b, nil
}

func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return nil, err
	}
	if err := brotliClose(bw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecompress(in []byte, expected uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > expected {
		return nil, fmt.Errorf("brotli expanded beyond %d bytes", expected)
	}
	return b, nil
}
