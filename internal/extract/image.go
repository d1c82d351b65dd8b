package extract

import "context"

// ImageExtractor sends raster images to OCR.
type ImageExtractor struct {
	ocr OCR
}

func NewImageExtractor(ocr OCR) *ImageExtractor { return &ImageExtractor{ocr: ocr} }

func (*ImageExtractor) Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".gif", ".webp"}
}

func (e *ImageExtractor) Extract(ctx context.Context, path string) ([]Page, error) {
	return e.ocr.Recognize(ctx, path)
}
