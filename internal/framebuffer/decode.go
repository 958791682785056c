package framebuffer

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// DecodeLegacy reads a legacy stream (header plus payload) from r, the way
// the debugging client consumes it.
func DecodeLegacy(r io.Reader) (LegacyHeader, []byte, error) {
	var raw [LegacyHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return LegacyHeader{}, nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	var h LegacyHeader
	if err := h.UnmarshalBinary(raw[:]); err != nil {
		return LegacyHeader{}, nil, err
	}
	if h.Version != LegacyVersion {
		return h, nil, fmt.Errorf("%w: version %d", ErrInvalidHeader, h.Version)
	}

	pixels := make([]byte, h.Size)
	if n, err := io.ReadFull(r, pixels); err != nil {
		return h, pixels[:n], fmt.Errorf("%w: %d of %d bytes", ErrPayloadTruncated, n, h.Size)
	}
	return h, pixels, nil
}

// Image converts pixels described by h into an NRGBA image. Channels are
// read from little-endian pixel words using the header's bit layout, and a
// zero-length alpha channel means opaque.
func (h LegacyHeader) Image(pixels []byte) (*image.NRGBA, error) {
	if h.BPP == 0 || h.BPP%8 != 0 || h.BPP > 32 {
		return nil, fmt.Errorf("%w: bpp %d", ErrInvalidHeader, h.BPP)
	}
	bytesPP := uint64(h.BPP / 8)
	// width*height of two u32 fits in a u64; size bounds the product after
	area := uint64(h.Width) * uint64(h.Height)
	if area > uint64(h.Size)/bytesPP {
		return nil, fmt.Errorf("%w: %dx%d at %d bpp exceeds size %d", ErrInvalidHeader, h.Width, h.Height, h.BPP, h.Size)
	}
	if uint64(len(pixels)) < area*bytesPP {
		return nil, fmt.Errorf("%w: have %d bytes for %dx%d", ErrPayloadTruncated, len(pixels), h.Width, h.Height)
	}
	w, ht := int(h.Width), int(h.Height)

	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * int(bytesPP)
			var word uint32
			for i := 0; i < int(bytesPP); i++ {
				word |= uint32(pixels[off+i]) << (8 * i)
			}
			a := uint8(0xff)
			if h.Alpha.Length > 0 {
				a = channel(word, h.Alpha)
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: channel(word, h.Red),
				G: channel(word, h.Green),
				B: channel(word, h.Blue),
				A: a,
			})
		}
	}
	return img, nil
}

// channel extracts c from word and scales it to 8 bits.
func channel(word uint32, c Channel) uint8 {
	if c.Length == 0 {
		return 0
	}
	max := uint32(1)<<c.Length - 1
	v := (word >> c.Offset) & max
	return uint8(v * 255 / max)
}
