package framebuffer

import (
	"encoding/binary"
	"fmt"
)

const (
	// LegacyVersion is the raw image format version. It must match the value
	// hard-coded into the consuming debugging client.
	LegacyVersion uint32 = 2

	// UpstreamHeaderSize is the producer header length in bytes.
	UpstreamHeaderSize = 16

	// LegacyHeaderSize is the translated header length: 14 packed u32 words.
	LegacyHeaderSize = 14 * 4
)

// byteOrder is the host order; both headers travel as raw memory images.
var byteOrder = binary.NativeEndian

// UpstreamHeader is the capture header written by the producer.
type UpstreamHeader struct {
	Width       uint32
	Height      uint32
	PixelFormat PixelFormat
	ColorSpace  uint32
}

// ParseUpstreamHeader decodes a 16-byte producer header.
func ParseUpstreamHeader(b []byte) (UpstreamHeader, error) {
	if len(b) < UpstreamHeaderSize {
		return UpstreamHeader{}, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, len(b), UpstreamHeaderSize)
	}
	return UpstreamHeader{
		Width:       byteOrder.Uint32(b[0:4]),
		Height:      byteOrder.Uint32(b[4:8]),
		PixelFormat: PixelFormat(byteOrder.Uint32(b[8:12])),
		ColorSpace:  byteOrder.Uint32(b[12:16]),
	}, nil
}

// MarshalBinary encodes the header in producer layout.
func (h UpstreamHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, UpstreamHeaderSize)
	b = byteOrder.AppendUint32(b, h.Width)
	b = byteOrder.AppendUint32(b, h.Height)
	b = byteOrder.AppendUint32(b, uint32(h.PixelFormat))
	b = byteOrder.AppendUint32(b, h.ColorSpace)
	return b, nil
}

// LegacyHeader is the fixed header understood by the debugging client.
// Channel pairs go on the wire in red, blue, green, alpha order.
type LegacyHeader struct {
	Version    uint32  `json:"version"`
	BPP        uint32  `json:"bpp"`
	ColorSpace uint32  `json:"color_space"`
	Size       uint32  `json:"size"`
	Width      uint32  `json:"width"`
	Height     uint32  `json:"height"`
	Red        Channel `json:"red"`
	Blue       Channel `json:"blue"`
	Green      Channel `json:"green"`
	Alpha      Channel `json:"alpha"`
}

// NewLegacyHeader builds the legacy header for an upstream header.
func NewLegacyHeader(up UpstreamHeader) (LegacyHeader, error) {
	layout, err := LookupFormat(up.PixelFormat)
	if err != nil {
		return LegacyHeader{}, err
	}
	if up.Width == 0 || up.Height == 0 {
		return LegacyHeader{}, fmt.Errorf("%w: %dx%d", ErrInvalidHeader, up.Width, up.Height)
	}

	size := uint64(up.Width) * uint64(up.Height) * uint64(layout.BytesPerPixel)
	if size > uint64(^uint32(0)) {
		return LegacyHeader{}, fmt.Errorf("%w: payload of %d bytes overflows size field", ErrInvalidHeader, size)
	}

	return LegacyHeader{
		Version:    LegacyVersion,
		BPP:        layout.BPP,
		ColorSpace: up.ColorSpace,
		Size:       uint32(size),
		Width:      up.Width,
		Height:     up.Height,
		Red:        layout.Red,
		Blue:       layout.Blue,
		Green:      layout.Green,
		Alpha:      layout.Alpha,
	}, nil
}

// MarshalBinary encodes the header as 56 packed host-order bytes.
func (h LegacyHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, LegacyHeaderSize)
	for _, v := range [...]uint32{
		h.Version, h.BPP, h.ColorSpace, h.Size, h.Width, h.Height,
		h.Red.Offset, h.Red.Length,
		h.Blue.Offset, h.Blue.Length,
		h.Green.Offset, h.Green.Length,
		h.Alpha.Offset, h.Alpha.Length,
	} {
		b = byteOrder.AppendUint32(b, v)
	}
	return b, nil
}

// UnmarshalBinary decodes a 56-byte legacy header.
func (h *LegacyHeader) UnmarshalBinary(b []byte) error {
	if len(b) < LegacyHeaderSize {
		return fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, len(b), LegacyHeaderSize)
	}
	var w [14]uint32
	for i := range w {
		w[i] = byteOrder.Uint32(b[i*4:])
	}
	*h = LegacyHeader{
		Version:    w[0],
		BPP:        w[1],
		ColorSpace: w[2],
		Size:       w[3],
		Width:      w[4],
		Height:     w[5],
		Red:        Channel{w[6], w[7]},
		Blue:       Channel{w[8], w[9]},
		Green:      Channel{w[10], w[11]},
		Alpha:      Channel{w[12], w[13]},
	}
	return nil
}
