package image

import (
	"image"

	"github.com/nfnt/resize"
)

// Processor 將過大的圖片縮小到視覺模型可接受的尺寸
type Processor struct {
	maxSize uint
}

// NewProcessor 創建圖片處理器，maxSize 為最長邊像素，0 表示不縮放
func NewProcessor(maxSize uint) *Processor {
	return &Processor{maxSize: maxSize}
}

// Fit 等比縮放使最長邊不超過 maxSize
func (p *Processor) Fit(img image.Image) (image.Image, bool) {
	if p.maxSize == 0 {
		return img, false
	}
	b := img.Bounds()
	if uint(b.Dx()) <= p.maxSize && uint(b.Dy()) <= p.maxSize {
		return img, false
	}
	return resize.Thumbnail(p.maxSize, p.maxSize, img, resize.Lanczos3), true
}
