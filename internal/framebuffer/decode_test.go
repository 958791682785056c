package framebuffer

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyStream(t *testing.T, w, h uint32, format PixelFormat, pixels []byte) []byte {
	t.Helper()
	src := bytes.NewReader(append(upstream(t, w, h, format, 0), pixels...))
	var out bytes.Buffer
	size, err := Translate(src, &out)
	require.NoError(t, err)
	_, err = Stream(src, &out, size, nil)
	require.NoError(t, err)
	return out.Bytes()
}

func TestDecodeLegacyImage(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		pixel  []byte
		want   color.NRGBA
	}{
		{"RGBA_8888", FormatRGBA8888, []byte{0x10, 0x20, 0x30, 0x40}, color.NRGBA{0x10, 0x20, 0x30, 0x40}},
		{"RGBX_8888", FormatRGBX8888, []byte{0x10, 0x20, 0x30, 0x00}, color.NRGBA{0x10, 0x20, 0x30, 0xff}},
		{"RGB_888", FormatRGB888, []byte{0x10, 0x20, 0x30}, color.NRGBA{0x10, 0x20, 0x30, 0xff}},
		{"BGRA_8888", FormatBGRA8888, []byte{0x30, 0x20, 0x10, 0x80}, color.NRGBA{0x10, 0x20, 0x30, 0x80}},
		// pure red in 565: 11111 000000 00000, little endian
		{"RGB_565 red", FormatRGB565, []byte{0x00, 0xf8}, color.NRGBA{0xff, 0, 0, 0xff}},
		// pure green in 565: 00000 111111 00000
		{"RGB_565 green", FormatRGB565, []byte{0xe0, 0x07}, color.NRGBA{0, 0xff, 0, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pixels := bytes.Repeat(tt.pixel, 2*2)
			stream := legacyStream(t, 2, 2, tt.format, pixels)

			h, payload, err := DecodeLegacy(bytes.NewReader(stream))
			require.NoError(t, err)
			assert.Equal(t, pixels, payload)

			img, err := h.Image(payload)
			require.NoError(t, err)
			assert.Equal(t, 2, img.Bounds().Dx())
			assert.Equal(t, tt.want, img.NRGBAAt(1, 1))
		})
	}
}

func TestDecodeLegacyErrors(t *testing.T) {
	stream := legacyStream(t, 4, 2, FormatRGB565, pattern(16))

	_, _, err := DecodeLegacy(bytes.NewReader(stream[:20]))
	assert.ErrorIs(t, err, ErrTruncatedHeader)

	_, partial, err := DecodeLegacy(bytes.NewReader(stream[:LegacyHeaderSize+10]))
	assert.ErrorIs(t, err, ErrPayloadTruncated)
	assert.Len(t, partial, 10)

	bad := append([]byte(nil), stream...)
	byteOrder.PutUint32(bad[0:4], 1)
	_, _, err = DecodeLegacy(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestImageRejectsShortPayload(t *testing.T) {
	h := LegacyHeader{Version: 2, BPP: 32, Width: 2, Height: 2, Size: 16}
	_, err := h.Image(make([]byte, 8))
	assert.ErrorIs(t, err, ErrPayloadTruncated)

	h.BPP = 12
	_, err = h.Image(make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestImageRejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name string
		h    LegacyHeader
	}{
		// 65536*65536*4 wraps to 0 in 32-bit arithmetic
		{"wraps u32", LegacyHeader{Version: 2, BPP: 32, Width: 1 << 16, Height: 1 << 16, Size: 16}},
		{"max dimensions", LegacyHeader{Version: 2, BPP: 32, Width: math.MaxUint32, Height: math.MaxUint32, Size: math.MaxUint32}},
		{"size too small", LegacyHeader{Version: 2, BPP: 16, Width: 4, Height: 2, Size: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var img *image.NRGBA
			var err error
			assert.NotPanics(t, func() { img, err = tt.h.Image(make([]byte, 16)) })
			assert.Nil(t, img)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}
