// Package maxtree builds a max-tree — a hierarchical decomposition of a
// single-channel floating-point image into nested level-set components —
// and provides the per-node attributes (area, volume, power) needed to
// later test those components for statistical significance.
//
// The tree is built once by Build and is immutable afterwards; callers in
// other packages (notably objects.Selector) read it many times but must
// never mutate it.
package maxtree

import "fmt"

// Image is a dense, row-major, single-channel float32 grid. Pixel (x, y)
// lives at Data[y*Width+x]. Width and Height fit in int16 by construction;
// Width*Height fits comfortably in int32 for any realistic frame.
type Image struct {
	Data   []float32
	Width  int16
	Height int16
}

// NewImage wraps data as an H x W image. data is not copied; the caller
// must not mutate it afterwards.
func NewImage(data []float32, width, height int16) Image {
	return Image{Data: data, Width: width, Height: height}
}

// Size returns Width*Height, the number of pixels (and nodes) in the image.
func (img Image) Size() int32 {
	return int32(img.Width) * int32(img.Height)
}

// At returns the pixel value at (x, y).
func (img Image) At(x, y int16) float32 {
	return img.Data[int32(y)*int32(img.Width)+int32(x)]
}

// validate checks the image is non-empty and internally consistent.
func (img Image) validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("maxtree: invalid image dimensions %dx%d", img.Width, img.Height)
	}
	if int32(len(img.Data)) != img.Size() {
		return fmt.Errorf("maxtree: image data length %d does not match %dx%d", len(img.Data), img.Width, img.Height)
	}
	return nil
}
