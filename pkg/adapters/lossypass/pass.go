// Package lossypass trades exact colors for longer runs of repeated
// palette indices, which LZW compresses much better.
package lossypass

import (
	"image"
	"image/color"

	"github.com/user/gifstream/pkg/ports"
)

// Pass implements ports.CompressionPass.
type Pass struct {
	tolerance uint32
}

// New creates a pass for the given loss (see pipeline.Settings.LossyLoss).
// It returns nil when loss is 0.
func New(loss int) *Pass {
	if loss <= 0 {
		return nil
	}
	return &Pass{tolerance: uint32(loss * loss * 2)}
}

// Apply extends runs along each row: a pixel whose color is within the
// tolerance of the run's color takes the run's index. Transparent pixels
// are never changed and never start a run.
func (p *Pass) Apply(img *image.Paletted, transparentIndex int) error {
	entries := make([]color.NRGBA, len(img.Palette))
	for i, c := range img.Palette {
		entries[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		run := -1
		for x, idx := range row {
			if int(idx) == transparentIndex {
				run = -1
				continue
			}
			if run >= 0 && int(idx) != run && p.close(entries[run], entries[idx]) {
				row[x] = uint8(run)
				continue
			}
			run = int(idx)
		}
	}
	return nil
}

func (p *Pass) close(a, b color.NRGBA) bool {
	dr := int32(a.R) - int32(b.R)
	dg := int32(a.G) - int32(b.G)
	db := int32(a.B) - int32(b.B)
	return uint32(dr*dr*2+dg*dg*3+db*db) <= p.tolerance
}

var _ ports.CompressionPass = (*Pass)(nil)
