package ports

import (
	"image"
)

// ImageDecoder decodes an encoded still image.
type ImageDecoder interface {
	// Decode returns the image and the name of its format.
	Decode(data []byte) (image.Image, string, error)
}
