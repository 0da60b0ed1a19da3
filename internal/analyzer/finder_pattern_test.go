package analyzer

import (
	"image"
	"testing"
)

// drawRings paints alternating concentric square rings one pixel wide,
// dark at the center
func drawRings(gray *image.Gray, cx, cy int) {
	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			d := max(abs(dx), abs(dy))
			if d%2 == 0 {
				gray.Pix[gray.PixOffset(cx+dx, cy+dy)] = 0
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestNewFinderPatternDetector(t *testing.T) {
	if NewFinderPatternDetector() == nil {
		t.Fatal("Expected non-nil finder pattern detector")
	}
}

func TestHasFinderPatterns_UniformImage(t *testing.T) {
	detector := NewFinderPatternDetector()

	if detector.HasFinderPatterns(blankCanvas(200, 200)) {
		t.Error("Expected no finder patterns in uniform white image")
	}
}

func TestHasFinderPatterns_TooSmall(t *testing.T) {
	detector := NewFinderPatternDetector()
	gray := image.NewGray(image.Rect(0, 0, 12, 12))

	if detector.HasFinderPatterns(gray) {
		t.Error("Expected images smaller than a finder pattern to be rejected")
	}
}

func TestHasFinderPatterns_TwoPatterns(t *testing.T) {
	detector := NewFinderPatternDetector()
	gray := blankCanvas(100, 100)
	drawRings(gray, 25, 25)
	drawRings(gray, 75, 25)

	if !detector.HasFinderPatterns(gray) {
		t.Error("Expected finder patterns to be detected")
	}
}

func TestHasFinderPatterns_SinglePattern(t *testing.T) {
	detector := NewFinderPatternDetector()
	gray := blankCanvas(100, 100)
	drawRings(gray, 25, 25)

	if detector.HasFinderPatterns(gray) {
		t.Error("Expected a single pattern to be insufficient")
	}
}

func TestHasFinderPatterns_OffsetBounds(t *testing.T) {
	detector := NewFinderPatternDetector()
	full := blankCanvas(200, 200)
	drawRings(full, 75, 75)
	drawRings(full, 125, 75)

	sub := full.SubImage(image.Rect(50, 50, 150, 150)).(*image.Gray)
	if !detector.HasFinderPatterns(sub) {
		t.Error("Expected patterns to be found in a sub-image with non-zero origin")
	}
}
