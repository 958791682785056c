package framebuffer

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateFormats(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		want   LegacyHeader
	}{
		{
			name:   "RGBA_8888",
			format: FormatRGBA8888,
			want: LegacyHeader{
				Version: 2, BPP: 32, ColorSpace: 1, Size: 640 * 480 * 4, Width: 640, Height: 480,
				Red: Channel{0, 8}, Blue: Channel{16, 8}, Green: Channel{8, 8}, Alpha: Channel{24, 8},
			},
		},
		{
			name:   "RGBX_8888",
			format: FormatRGBX8888,
			want: LegacyHeader{
				Version: 2, BPP: 32, ColorSpace: 1, Size: 640 * 480 * 4, Width: 640, Height: 480,
				Red: Channel{0, 8}, Blue: Channel{16, 8}, Green: Channel{8, 8}, Alpha: Channel{24, 0},
			},
		},
		{
			name:   "RGB_888",
			format: FormatRGB888,
			want: LegacyHeader{
				Version: 2, BPP: 24, ColorSpace: 1, Size: 640 * 480 * 3, Width: 640, Height: 480,
				Red: Channel{0, 8}, Blue: Channel{16, 8}, Green: Channel{8, 8}, Alpha: Channel{24, 0},
			},
		},
		{
			name:   "RGB_565",
			format: FormatRGB565,
			want: LegacyHeader{
				Version: 2, BPP: 16, ColorSpace: 1, Size: 640 * 480 * 2, Width: 640, Height: 480,
				Red: Channel{11, 5}, Blue: Channel{0, 5}, Green: Channel{5, 6}, Alpha: Channel{0, 0},
			},
		},
		{
			name:   "BGRA_8888",
			format: FormatBGRA8888,
			want: LegacyHeader{
				Version: 2, BPP: 32, ColorSpace: 1, Size: 640 * 480 * 4, Width: 640, Height: 480,
				Red: Channel{16, 8}, Blue: Channel{0, 8}, Green: Channel{8, 8}, Alpha: Channel{24, 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			size, err := Translate(bytes.NewReader(upstream(t, 640, 480, tt.format, 1)), sink)
			require.NoError(t, err)

			assert.Equal(t, tt.want.Size, size)
			assert.Equal(t, 1, sink.writes, "header must go out in one write")
			require.Equal(t, LegacyHeaderSize, sink.Len())

			var got LegacyHeader
			require.NoError(t, got.UnmarshalBinary(sink.Bytes()))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLegacyHeaderWireLayout(t *testing.T) {
	h := LegacyHeader{
		Version: 2, BPP: 16, ColorSpace: 7, Size: 16, Width: 4, Height: 2,
		Red: Channel{11, 5}, Blue: Channel{0, 5}, Green: Channel{5, 6}, Alpha: Channel{0, 0},
	}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 56)

	words := make([]uint32, 14)
	for i := range words {
		words[i] = binary.NativeEndian.Uint32(b[i*4:])
	}
	// version, bpp, colorSpace, size, width, height, then red, blue, green, alpha
	assert.Equal(t, []uint32{2, 16, 7, 16, 4, 2, 11, 5, 0, 5, 5, 6, 0, 0}, words)
}

func TestTranslateColorSpacePassThrough(t *testing.T) {
	var sink bytes.Buffer
	_, header, err := TranslateHeader(bytes.NewReader(upstream(t, 1, 1, FormatRGBA8888, 0xdeadbeef)), &sink)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), header.ColorSpace)
}

func TestTranslateUnsupportedFormat(t *testing.T) {
	sink := &recordingSink{}
	_, err := Translate(bytes.NewReader(upstream(t, 4, 2, 99, 0)), sink)

	require.ErrorIs(t, err, ErrUnsupportedFormat)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, uint32(99), formatErr.Code)
	assert.Zero(t, sink.writes)
	assert.Zero(t, sink.Len())
}

func TestTranslateTruncatedHeader(t *testing.T) {
	for _, n := range []int{0, 1, 10, 15} {
		sink := &recordingSink{}
		src := bytes.NewReader(upstream(t, 4, 2, FormatRGB565, 0)[:n])

		_, err := Translate(src, sink)
		assert.ErrorIs(t, err, ErrTruncatedHeader, "n=%d", n)
		assert.Zero(t, sink.writes, "n=%d", n)
	}
}

func TestTranslateInvalidDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
	}{
		{"zero width", 0, 2},
		{"zero height", 4, 0},
		{"size overflows u32", 0xffff, 0xffff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			_, err := Translate(bytes.NewReader(upstream(t, tt.w, tt.h, FormatRGBA8888, 0)), sink)
			assert.ErrorIs(t, err, ErrInvalidHeader)
			assert.Zero(t, sink.writes)
		})
	}
}

func TestTranslateShortWrite(t *testing.T) {
	_, err := Translate(bytes.NewReader(upstream(t, 4, 2, FormatRGB565, 0)), &shortSink{})
	assert.ErrorIs(t, err, ErrSinkWrite)

	_, err = Translate(bytes.NewReader(upstream(t, 4, 2, FormatRGB565, 0)), &failingSink{limit: 0})
	assert.ErrorIs(t, err, ErrSinkWrite)
	assert.ErrorContains(t, err, errSinkClosed.Error())
}

func TestTranslateDoesNotReadPastHeader(t *testing.T) {
	payload := pattern(16)
	src := bytes.NewReader(append(upstream(t, 4, 2, FormatRGB565, 0), payload...))

	_, err := Translate(src, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 16, src.Len())
}

func TestUpstreamHeaderRoundTrip(t *testing.T) {
	in := UpstreamHeader{Width: 1080, Height: 2400, PixelFormat: FormatRGBA8888, ColorSpace: 2}
	b, err := in.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, UpstreamHeaderSize)

	out, err := ParseUpstreamHeader(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = ParseUpstreamHeader(b[:12])
	assert.ErrorIs(t, err, ErrTruncatedHeader)
}
