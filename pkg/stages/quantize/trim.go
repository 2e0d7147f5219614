package quantize

import "image"

// usedBounds returns the smallest rectangle that holds every pixel not set
// to the transparent index.
func usedBounds(img *image.Paletted, transparent int) image.Rectangle {
	if transparent < 0 {
		return img.Rect
	}
	t := uint8(transparent)

	minX, minY := img.Rect.Max.X, img.Rect.Max.Y
	maxX, maxY := img.Rect.Min.X-1, img.Rect.Min.Y-1
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		row := img.Pix[(y-img.Rect.Min.Y)*img.Stride : (y-img.Rect.Min.Y)*img.Stride+img.Rect.Dx()]
		for i, idx := range row {
			if idx == t {
				continue
			}
			x := img.Rect.Min.X + i
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// crop copies r out of img. The result keeps r as its bounds, so it is
// placed at r's offset on the screen.
func crop(img *image.Paletted, r image.Rectangle) *image.Paletted {
	dst := image.NewPaletted(r, img.Palette)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(dst.Pix[(y-r.Min.Y)*dst.Stride:(y-r.Min.Y)*dst.Stride+r.Dx()], img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)])
	}
	return dst
}
