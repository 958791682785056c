package framebuffer

// PixelFormat is the producer's pixel layout code.
type PixelFormat uint32

// Producer format codes understood by the translator.
const (
	FormatRGBA8888 PixelFormat = 1
	FormatRGBX8888 PixelFormat = 2
	FormatRGB888   PixelFormat = 3
	FormatRGB565   PixelFormat = 4
	FormatBGRA8888 PixelFormat = 5
)

// Channel locates one color channel inside a pixel, in bits.
type Channel struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

// Layout describes how a format packs its pixels.
type Layout struct {
	Name          string
	BPP           uint32
	BytesPerPixel uint32
	Red           Channel
	Green         Channel
	Blue          Channel
	Alpha         Channel
}

// The bit positions are consumed verbatim by the legacy client and must not
// change.
var formatTable = map[PixelFormat]Layout{
	FormatRGBA8888: {
		Name: "RGBA_8888", BPP: 32, BytesPerPixel: 4,
		Red: Channel{0, 8}, Green: Channel{8, 8}, Blue: Channel{16, 8}, Alpha: Channel{24, 8},
	},
	FormatRGBX8888: {
		Name: "RGBX_8888", BPP: 32, BytesPerPixel: 4,
		Red: Channel{0, 8}, Green: Channel{8, 8}, Blue: Channel{16, 8}, Alpha: Channel{24, 0},
	},
	FormatRGB888: {
		Name: "RGB_888", BPP: 24, BytesPerPixel: 3,
		Red: Channel{0, 8}, Green: Channel{8, 8}, Blue: Channel{16, 8}, Alpha: Channel{24, 0},
	},
	FormatRGB565: {
		Name: "RGB_565", BPP: 16, BytesPerPixel: 2,
		Red: Channel{11, 5}, Green: Channel{5, 6}, Blue: Channel{0, 5}, Alpha: Channel{0, 0},
	},
	FormatBGRA8888: {
		Name: "BGRA_8888", BPP: 32, BytesPerPixel: 4,
		Red: Channel{16, 8}, Green: Channel{8, 8}, Blue: Channel{0, 8}, Alpha: Channel{24, 8},
	},
}

// LookupFormat returns the layout for code. Codes outside the table are
// rejected, there is no fallback layout.
func LookupFormat(code PixelFormat) (Layout, error) {
	layout, ok := formatTable[code]
	if !ok {
		return Layout{}, &FormatError{Code: uint32(code)}
	}
	return layout, nil
}

// String returns the format name, or "unknown" for codes outside the table.
func (f PixelFormat) String() string {
	if layout, ok := formatTable[f]; ok {
		return layout.Name
	}
	return "unknown"
}
