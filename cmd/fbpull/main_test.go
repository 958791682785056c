package main

import (
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/fbbridge/internal/api/http"
	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/framebuffer/fbtest"
)

func bridgeURL(t *testing.T, capturer apihttp.Capturer) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := apihttp.NewHandlers(capturer, nil, nil, zap.NewNop())
	r := gin.New()
	r.GET("/framebuffer", h.Framebuffer)
	r.GET("/framebuffer/info", h.Info)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestPullWritesPNG(t *testing.T) {
	url := bridgeURL(t, fbtest.New(4, 2, framebuffer.FormatRGB565, fbtest.Pattern(16)))
	dir := t.TempDir()
	out := filepath.Join(dir, "screen.png")
	raw := filepath.Join(dir, "screen.raw")

	for _, encoding := range []string{"identity", "gzip", "zstd"} {
		t.Run(encoding, func(t *testing.T) {
			require.Equal(t, 0, pull(url, out, encoding, raw, 5*time.Second, false))

			f, err := os.Open(out)
			require.NoError(t, err)
			defer f.Close()
			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, 4, img.Bounds().Dx())
			assert.Equal(t, 2, img.Bounds().Dy())

			pixels, err := os.ReadFile(raw)
			require.NoError(t, err)
			assert.Equal(t, fbtest.Pattern(16), pixels)
		})
	}
}

func TestPullInfo(t *testing.T) {
	url := bridgeURL(t, fbtest.New(4, 2, framebuffer.FormatRGB565, fbtest.Pattern(16)))
	out := filepath.Join(t.TempDir(), "screen.png")

	assert.Equal(t, 0, pull(url, out, "zstd", "", 5*time.Second, true))
	assert.NoFileExists(t, out)
}

func TestPullFailureExitCode(t *testing.T) {
	tests := []struct {
		name     string
		capturer *fbtest.Capturer
	}{
		{"unsupported format", fbtest.New(4, 2, 99, fbtest.Pattern(16))},
		{"truncated payload", fbtest.New(4, 2, framebuffer.FormatRGB565, fbtest.Pattern(10))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "screen.png")

			assert.Equal(t, 1, pull(bridgeURL(t, tt.capturer), out, "identity", "", 5*time.Second, false))
			assert.NoFileExists(t, out)
			assert.Equal(t, 1, tt.capturer.Calls(), "capture errors are not retried")
		})
	}
}
