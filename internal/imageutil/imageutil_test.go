package imageutil

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestCompress_TransparentPNGBecomesWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	// fully transparent everywhere
	data := encodePNG(t, img)

	out, err := Compress(data, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	r, g, b, _ := decoded.At(4, 4).RGBA()
	if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Errorf("expected white pixel, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestCompress_LowersQualityToFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	data := encodePNG(t, img)

	full, err := Compress(data, len(data)*10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ceiling := len(full) / 2
	small, err := Compress(data, ceiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(small) > ceiling {
		t.Errorf("expected at most %d bytes, got %d", ceiling, len(small))
	}
}

func TestCompress_StopsAtMinimumQuality(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	out, err := Compress(encodePNG(t, img), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected a best-effort encoding even when the ceiling is unreachable")
	}
}

func TestCompress_RejectsGarbage(t *testing.T) {
	_, err := Compress([]byte("not an image"), 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
