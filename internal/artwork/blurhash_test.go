package artwork

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode(t *testing.T) {
	hash, err := Encode(bytes.NewReader(gradientPNG(t, 200, 100)))
	require.NoError(t, err)
	// 4x3 components encode to 28 characters.
	assert.Len(t, hash, 28)
}

func TestEncode_NotAnImage(t *testing.T) {
	_, err := Encode(bytes.NewReader([]byte("definitely not a png")))
	assert.Error(t, err)
}

func TestThumbnail_KeepsAspect(t *testing.T) {
	thumb := thumbnail(image.NewRGBA(image.Rect(0, 0, 640, 320)))
	assert.Equal(t, 64, thumb.Bounds().Dx())
	assert.Equal(t, 32, thumb.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, thumbnail(small))
}

func TestHasher_BlurHash(t *testing.T) {
	data := gradientPNG(t, 128, 128)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	h := NewHasher(slog.New(slog.NewTextHandler(io.Discard, nil)))

	hash, err := h.BlurHash(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	_, err = h.BlurHash(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)

	assert.Empty(t, h.TryBlurHash(context.Background(), srv.URL+"/missing.png"))
	assert.Empty(t, h.TryBlurHash(context.Background(), ""))
}
