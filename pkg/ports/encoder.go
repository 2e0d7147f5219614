package ports

import (
	"image"
	"image/color"
	"io"
)

// GIFEncoder abstracts the GIF89a block writer.
type GIFEncoder interface {
	// Begin writes the header and logical screen descriptor with the global
	// color table. loopCount < 0 writes no loop extension.
	Begin(w io.Writer, width, height int, global color.Palette, loopCount int) error

	// WriteFrame writes one image block. img.Rect is the frame's position on
	// the logical screen; the transparent index is the first palette entry
	// whose alpha is zero.
	WriteFrame(img *image.Paletted, delayCentis int, disposal byte) error

	// End writes the trailer and flushes buffered output.
	End() error
}

// CompressionPass rewrites an indexed frame in place to make it compress better.
type CompressionPass interface {
	Apply(img *image.Paletted, transparentIndex int) error
}
