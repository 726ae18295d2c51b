package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, fill(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, fill(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func decodeBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNGBecomesJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestPNG(100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
}

func TestProcessDownscalePreservesAspect(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(1600, 400)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	b := decodeBounds(t, result.Data)
	if b.Dx() != MaxDimension || b.Dy() != MaxDimension/4 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/4, b.Dx(), b.Dy())
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}

	b := decodeBounds(t, result.Data)
	if b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessRejectsUnsupported(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := Process(bytes.NewReader(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestProcessTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadBytes+1)
	copy(data, createTestJPEG(10, 10))

	_, err := Process(bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(bytes.NewReader(createTestPNG(20, 10)))
	if err != nil {
		t.Fatalf("DataURI: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected prefix: %.40s", uri)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if b := decodeBounds(t, raw); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("unexpected bounds %v", b)
	}
}

func TestNormalize(t *testing.T) {
	link := "https://example.com/cork.jpg"
	if got, err := Normalize(link); err != nil || got != link {
		t.Errorf("links should pass through, got %q, %v", got, err)
	}
	if got, err := Normalize(""); err != nil || got != "" {
		t.Errorf("empty should pass through, got %q, %v", got, err)
	}

	inline := "data:image/png;base64," + base64.StdEncoding.EncodeToString(createTestPNG(1200, 1200))
	got, err := Normalize(inline)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "data:image/jpeg;base64,"))
	if b := decodeBounds(t, raw); b.Dx() != MaxDimension {
		t.Errorf("expected inline image to be downscaled, got %v", b)
	}

	if _, err := Normalize("data:text/plain,hello"); err == nil {
		t.Error("expected error for non-base64 data URI")
	}
}

func TestDecode(t *testing.T) {
	data, err := Decode("data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi")))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("expected %q, got %q", "hi", data)
	}

	for _, bad := range []string{"https://example.com/a.png", "data:image/png,raw", "data:image/png;base64,!!!"} {
		if _, err := Decode(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
