// Package imagedecoder decodes still images (PNG, JPEG, GIF, WebP, BMP)
// for the file based admission path.
package imagedecoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Formats registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/user/gifstream/pkg/ports"
)

// ErrUnsupported is returned for data in an unknown image format.
var ErrUnsupported = errors.New("imagedecoder: unsupported image format")

// Decoder implements ports.ImageDecoder with the registered image formats.
type Decoder struct{}

// New creates a new Decoder.
func New() *Decoder {
	return &Decoder{}
}

// Decode implements ports.ImageDecoder.
func (d *Decoder) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return img, format, nil
}

var _ ports.ImageDecoder = (*Decoder)(nil)
