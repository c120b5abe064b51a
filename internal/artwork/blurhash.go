// Package artwork computes BlurHash placeholders for remote cover art.
package artwork

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// blurHashSize is the target size for BlurHash computation.
	// A 64px thumbnail hashes in milliseconds and looks the same as the full image.
	blurHashSize = 64

	// maxImageBytes bounds how much cover art is downloaded.
	maxImageBytes = 10 << 20

	defaultTimeout = 15 * time.Second
)

// Hasher downloads artwork and encodes it as a BlurHash.
type Hasher struct {
	http   *http.Client
	logger *slog.Logger
}

// NewHasher creates a Hasher with its own HTTP client.
func NewHasher(logger *slog.Logger) *Hasher {
	return &Hasher{
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// BlurHash fetches imageURL and returns its BlurHash using 4x3 components.
func (h *Hasher) BlurHash(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("artwork url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch artwork: unexpected status %d", resp.StatusCode)
	}

	return Encode(io.LimitReader(resp.Body, maxImageBytes))
}

// TryBlurHash is BlurHash that logs failures and returns "" instead.
// Imports treat the hash as optional decoration.
func (h *Hasher) TryBlurHash(ctx context.Context, imageURL string) string {
	if imageURL == "" {
		return ""
	}
	hash, err := h.BlurHash(ctx, imageURL)
	if err != nil {
		h.logger.Debug("blurhash skipped", "url", imageURL, "error", err)
		return ""
	}
	return hash
}

// Encode decodes an image stream and returns its BlurHash.
func Encode(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img to fit blurHashSize, keeping the aspect ratio.
func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	dw, dh := blurHashSize, blurHashSize
	if w > h {
		dh = max(1, h*blurHashSize/w)
	} else {
		dw = max(1, w*blurHashSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
