package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts the raster operations used while normalizing frames.
type Renderer interface {
	// ResizeImage resamples an image to exactly width×height.
	// fast trades quality for speed.
	ResizeImage(img image.Image, width, height int, fast bool) image.Image

	// Flatten composites img over a solid background color.
	Flatten(img image.Image, bg color.Color) image.Image
}
