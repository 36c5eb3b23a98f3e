// Package qwi implements the container layer of the QWI (Qwoo Web Images)
// image format.
//
// A QWI file holds one or more elements: the single picture of a still image,
// the layers of a multilayer image, the frames of an animation or the pages of
// a slideshow. Each element may be stored at several resolution levels so a
// reader can decode a thumbnail without touching the full resolution data.
//
// # File Format Overview
//
// A QWI file consists of:
//   - A 24-byte file header with magic bytes, version, container type and canvas size
//   - A file-scope optional block of tagged chunks (PAG, FNT and COD script sections)
//   - For every element, a 32-byte header (20 bytes for a split base element 0),
//     an element-scope optional block (the NAM layer name) and the pixel bitstream
//
// All integers are little-endian. Optional chunks are a one byte marker, a
// three byte tag, a length and the payload; see [FindSection] and
// [OptionalWriter].
//
// Pixel data goes through a [PixelCodec]. The built-in [PlanarCodec] stores
// every level as quantized planes compressed with ZIP, Zstandard, LZ4 or Brotli.
//
// # Basic Usage
//
// To write a file:
//
//	img := &qwi.Image{Layers: []qwi.Layer{qwi.LayerFromImage("Background", src)}}
//	err := qwi.Save(ctx, "out.qwi", img, qwi.WithPreset("web-good"))
//
// To read one, or only its thumbnail:
//
//	img, err := qwi.Load(ctx, "in.qwi")
//	thumb, err := qwi.Load(ctx, "in.qwi", qwi.WithThumbnail(128))
//
// Load and Save report failures as [*Error], whose Kind separates I/O,
// format, resource and cancellation problems. A file written by another
// minor format version still decodes; the mismatch is logged and recorded in
// [Image.Warnings].
//
// # Logging
//
// Decode and Encode log through the *slog.Logger given with WithReadLogger or
// WithWriteLogger. Without one, warnings go to stderr as text; pass
// slog.New(slog.DiscardHandler) to silence them.
package qwi
