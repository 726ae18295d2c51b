package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// Images are stored inline in the records, so they are kept small.
const (
	// MaxDimension is the maximum width or height for stored images.
	MaxDimension = 800

	// JPEGQuality is the compression quality for JPEG output.
	JPEGQuality = 80

	// MaxUploadBytes caps the raw upload size.
	MaxUploadBytes = 10 << 20
)

// ErrTooLarge is returned when an upload exceeds MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Result contains the processed image data.
type Result struct {
	Data []byte
	MIME string
}

// DataURI renders the result as a base64 data URI.
func (r *Result) DataURI() string {
	return "data:" + r.MIME + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Process reads image data, validates the format by sniffing bytes,
// downscales if larger than MaxDimension, and re-encodes as JPEG.
func Process(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return process(data)
}

// DataURI processes an upload and returns it as a data URI ready to be
// stored on an item, loan or log entry.
func DataURI(r io.Reader) (string, error) {
	res, err := Process(r)
	if err != nil {
		return "", err
	}
	return res.DataURI(), nil
}

// IsDataURI reports whether s is an inline data URI rather than a link.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// Decode returns the bytes embedded in a base64 data URI.
func Decode(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !IsDataURI(s) || !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("malformed data URI")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return data, nil
}

// Normalize passes links through untouched and re-processes inline
// base64 images so they obey the same limits as uploads.
func Normalize(s string) (string, error) {
	if !IsDataURI(s) {
		return s, nil
	}
	data, err := Decode(s)
	if err != nil {
		return "", err
	}
	res, err := process(data)
	if err != nil {
		return "", err
	}
	return res.DataURI(), nil
}

func process(data []byte) (*Result, error) {
	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Result{
		Data: buf.Bytes(),
		MIME: "image/jpeg",
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving the aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = h * maxDim / w
	} else {
		newH = maxDim
		newW = w * maxDim / h
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
