package qwi

import (
	"image"
	"image/color"
)

// Image is the decoded content of a QWI file.
type Image struct {
	// Width and Height are the canvas size, reduced when a thumbnail was requested.
	Width  int
	Height int
	// FullWidth and FullHeight are the stored canvas size of element 0.
	FullWidth  int
	FullHeight int
	Type       ContainerType
	Filename   string
	// Layers are in stored order; Layers[0] is element 0, the bottom of the stack.
	Layers []Layer
	// Script is the reassembled page/font/code blob, nil when the file has none.
	Script []byte
	// Warnings collects non-fatal problems such as ErrVersionMismatch.
	Warnings []error
}

// Layer is one element rendered as 8-bit interleaved samples.
type Layer struct {
	Name     string
	OffsetX  int
	OffsetY  int
	Width    int
	Height   int
	Planes   int // 1 gray, 2 gray+alpha, 3 RGB, 4 RGBA
	// Duration is the packed frame duration of animation frames. On encode a
	// non-zero value replaces the default duration; a "(Nms)" name still wins.
	Duration uint16
	Pix      []uint8
}

// LayerFromImage converts m into a layer. Opaque images keep no alpha plane
// and gray images stay single channel.
func LayerFromImage(name string, m image.Image) Layer {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	gray, opaque := classifyImage(m)
	planes := 3
	if gray {
		planes = 1
	}
	if !opaque {
		planes++
	}
	l := Layer{Name: name, OffsetX: b.Min.X, OffsetY: b.Min.Y, Width: w, Height: h, Planes: planes}
	l.Pix = make([]uint8, w*h*planes)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			switch planes {
			case 1:
				l.Pix[i] = c.R
			case 2:
				l.Pix[i], l.Pix[i+1] = c.R, c.A
			case 3:
				l.Pix[i], l.Pix[i+1], l.Pix[i+2] = c.R, c.G, c.B
			case 4:
				l.Pix[i], l.Pix[i+1], l.Pix[i+2], l.Pix[i+3] = c.R, c.G, c.B, c.A
			}
			i += planes
		}
	}
	return l
}

func classifyImage(m image.Image) (gray, opaque bool) {
	switch m.(type) {
	case *image.Gray, *image.Gray16:
		return true, true
	}
	gray, opaque = true, true
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y && (gray || opaque); y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if c.A != 0xff {
				opaque = false
			}
			if c.R != c.G || c.G != c.B {
				gray = false
			}
		}
	}
	return gray, opaque
}

// Image returns the layer as an image positioned at its offset.
func (l Layer) Image() image.Image {
	r := image.Rect(l.OffsetX, l.OffsetY, l.OffsetX+l.Width, l.OffsetY+l.Height)
	if l.Planes == 1 {
		g := image.NewGray(r)
		copy(g.Pix, l.Pix)
		return g
	}
	m := image.NewNRGBA(r)
	for i, j := 0, 0; i < l.Width*l.Height; i, j = i+1, j+l.Planes {
		p := l.Pix[j : j+l.Planes]
		o := m.Pix[i*4 : i*4+4]
		switch l.Planes {
		case 2:
			o[0], o[1], o[2], o[3] = p[0], p[0], p[0], p[1]
		case 3:
			o[0], o[1], o[2], o[3] = p[0], p[1], p[2], 0xff
		case 4:
			copy(o, p)
		}
	}
	return m
}

// splitPlanes de-interleaves l.Pix into planes.
func (l Layer) splitPlanes(planes [][]int16) {
	for p := range planes {
		dst := planes[p]
		for i := range dst {
			dst[i] = int16(l.Pix[i*l.Planes+p])
		}
	}
}

// joinPlanes interleaves decoded planes into 8-bit samples, clamping the
// codec output to 0..255.
func joinPlanes(planes [][]int16, n int) []uint8 {
	pix := make([]uint8, n*len(planes))
	for p, src := range planes {
		for i := 0; i < n; i++ {
			v := src[i]
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			pix[i*len(planes)+p] = uint8(v)
		}
	}
	return pix
}
