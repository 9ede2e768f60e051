// Package imageutil decodes uploaded images and re-encodes generated ones.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
)

var ErrUndecodable = errors.New("imageutil: undecodable image")

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
)

// DecodeBase64 decodes a base64 payload, with or without a data URI prefix.
// Standard, unpadded and URL-safe alphabets are accepted.
func DecodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if _, rest, ok := strings.Cut(payload, ","); ok {
			payload = rest
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrUndecodable)
}

// DataURI wraps data as "data:<mime>;base64,...".
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode decodes any registered format (JPEG, PNG, GIF, BMP, TIFF, WebP) and
// applies the EXIF orientation tag.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

// IsLandscape reports whether the displayed image is at least as wide as it
// is tall. Square images count as landscape.
func IsLandscape(data []byte) (bool, error) {
	img, err := Decode(data)
	if err != nil {
		return false, err
	}
	b := img.Bounds()
	return b.Dy() <= b.Dx(), nil
}

// AllLandscape reports whether every non-empty payload is landscape. It is
// false when there are no images. Any undecodable payload is an error.
func AllLandscape(payloads []string) (bool, error) {
	seen := 0
	all := true
	for i, p := range payloads {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data, err := DecodeBase64(p)
		if err != nil {
			return false, fmt.Errorf("images[%d]: %w", i, err)
		}
		landscape, err := IsLandscape(data)
		if err != nil {
			return false, fmt.Errorf("images[%d]: %w", i, err)
		}
		seen++
		if !landscape {
			all = false
		}
	}
	return seen > 0 && all, nil
}

// SniffMIME detects the media type of image bytes, falling back to PNG.
func SniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	return MIMEPNG
}

// Encode writes img as "png" or "webp".
func Encode(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "webp":
		if quality <= 0 {
			quality = 85
		}
		if err := webp.Encode(&buf, img, webp.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("imageutil: encode webp: %w", err)
		}
		return buf.Bytes(), MIMEWebP, nil
	case "png", "":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("imageutil: encode png: %w", err)
		}
		return buf.Bytes(), MIMEPNG, nil
	default:
		return nil, "", fmt.Errorf("imageutil: unsupported format %q", format)
	}
}

// FormatMIME maps an Encode format name to its media type.
func FormatMIME(format string) string {
	if format == "webp" {
		return MIMEWebP
	}
	return MIMEPNG
}

// Transcode re-encodes data into format unless it already is that format.
func Transcode(data []byte, format string) ([]byte, string, error) {
	mime := SniffMIME(data)
	if mime == FormatMIME(format) {
		return data, mime, nil
	}
	img, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	return Encode(img, format, 0)
}
