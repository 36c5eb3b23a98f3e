package qwi

import (
	"fmt"
	"math"
)

// validateImage checks img before anything is encoded.
func validateImage(img *Image, limits Limits) error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrValidation)
	}
	if len(img.Layers) == 0 {
		return fmt.Errorf("%w: image has no layers", ErrValidation)
	}
	if len(img.Layers) > limits.MaxElements || len(img.Layers) > math.MaxUint16 {
		return fmt.Errorf("%w: %d layers", ErrLimitExceeded, len(img.Layers))
	}
	for i := range img.Layers {
		if err := img.Layers[i].validate(i); err != nil {
			return err
		}
	}
	if base := img.Layers[0]; base.Width == 0 || base.Height == 0 {
		return fmt.Errorf("%w: layer 0 is %dx%d", ErrValidation, base.Width, base.Height)
	}
	if img.Width < 0 || img.Height < 0 || img.Width > MaxDimension || img.Height > MaxDimension {
		return fmt.Errorf("%w: canvas is %dx%d", ErrValidation, img.Width, img.Height)
	}
	if len(img.Script) > limits.MaxScriptLen {
		return fmt.Errorf("%w: script of %d bytes", ErrLimitExceeded, len(img.Script))
	}
	return nil
}

func (l Layer) validate(index int) error {
	if l.Planes < 1 || l.Planes > 4 {
		return fmt.Errorf("%w: layer %d has %d planes", ErrValidation, index, l.Planes)
	}
	if l.Width < 0 || l.Height < 0 || l.Width > MaxDimension || l.Height > MaxDimension {
		return fmt.Errorf("%w: layer %d is %dx%d", ErrValidation, index, l.Width, l.Height)
	}
	if len(l.Pix) != l.Width*l.Height*l.Planes {
		return fmt.Errorf("%w: layer %d holds %d samples, want %d", ErrValidation, index, len(l.Pix), l.Width*l.Height*l.Planes)
	}
	return nil
}

