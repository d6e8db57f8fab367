package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mtolib/mtolib-go/maxtree"
)

// loadRawImage reads a width*height grid of little-endian float32 pixels
// from path. This deliberately is not a FITS reader: real astronomical
// frames ship in FITS, but decoding that format is out of scope here, the
// same way the teacher's server only ever speaks its own RDB dump format
// and never tries to read a real Redis RDB file's full opcode set.
func loadRawImage(path string, width, height int16) (maxtree.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return maxtree.Image{}, fmt.Errorf("mtolib: opening image %s: %w", path, err)
	}
	defer f.Close()

	size := int32(width) * int32(height)
	raw := make([]byte, size*4)
	if _, err := io.ReadFull(f, raw); err != nil {
		return maxtree.Image{}, fmt.Errorf("mtolib: image %s is shorter than %dx%d float32 pixels: %w", path, width, height, err)
	}

	data := make([]float32, size)
	for i := range data {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		data[i] = math.Float32frombits(bits)
	}

	return maxtree.NewImage(data, width, height), nil
}
