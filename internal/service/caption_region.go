package service

import (
	"image"

	"github.com/anime-shed/frame-scanner-go/pkg/models"
)

// captionRegion picks the band where a symbol's printed caption usually
// sits: directly below the symbol, or above it when the symbol touches the
// bottom edge. Without corner points the whole frame is used.
func captionRegion(gray *image.Gray, points []models.Point) image.Image {
	bounds := gray.Bounds()
	if len(points) == 0 {
		return gray
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	w, h := maxX-minX, maxY-minY
	if w < 1 || h < 1 {
		// Linear barcodes report only a scan line
		h = max(h, w/2)
	}

	left := int(minX - w/2)
	right := int(maxX + w/2)
	gap := int(h / 4)
	band := int(h * 0.6)

	below := image.Rect(left, int(maxY)+gap, right, int(maxY)+gap+band).Intersect(bounds)
	if below.Dy() >= band/2 && !below.Empty() {
		return gray.SubImage(below)
	}
	above := image.Rect(left, int(minY)-gap-band, right, int(minY)-gap).Intersect(bounds)
	if !above.Empty() {
		return gray.SubImage(above)
	}
	return gray
}
