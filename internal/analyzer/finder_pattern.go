package analyzer

import (
	"image"
)

// finderPatternDetector implements FinderPatternDetector. It is a cheap
// look for the concentric squares of QR finder patterns, used to tell a
// frame with an undecodable code apart from a frame with no code at all.
type finderPatternDetector struct {
	threshold uint8
}

// NewFinderPatternDetector creates a new finder pattern detector
func NewFinderPatternDetector() FinderPatternDetector {
	return &finderPatternDetector{threshold: 128}
}

// HasFinderPatterns reports whether at least two finder-like patterns are
// visible near the expected symbol corners
func (d *finderPatternDetector) HasFinderPatterns(gray *image.Gray) bool {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	minSize := 7
	maxSize := min(width, height) / 3
	if maxSize < minSize {
		return false
	}

	positions := [][2]int{
		{width / 4, height / 4},
		{3 * width / 4, height / 4},
		{width / 4, 3 * height / 4},
		{width / 2, height / 2},
	}

	patternCount := 0
	for _, pos := range positions {
		if d.scanAround(gray, bounds.Min.X+pos[0], bounds.Min.Y+pos[1], minSize, maxSize) {
			patternCount++
		}
	}
	return patternCount >= 2
}

func (d *finderPatternDetector) scanAround(gray *image.Gray, cx, cy, minSize, maxSize int) bool {
	for size := minSize; size <= maxSize; size += 2 {
		if d.matchesAt(gray, cx, cy, size/2) {
			return true
		}
	}
	return false
}

// matchesAt samples outward from the center along four directions and
// expects dark, light, dark, light bands
func (d *finderPatternDetector) matchesAt(gray *image.Gray, cx, cy, radius int) bool {
	b := gray.Bounds()
	if cx-radius < b.Min.X || cx+radius >= b.Max.X || cy-radius < b.Min.Y || cy+radius >= b.Max.Y {
		return false
	}

	samples := []int{radius / 4, radius / 2, 3 * radius / 4, radius}
	expectDark := []bool{true, false, true, false}
	directions := [][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}

	matchingDirections := 0
	for _, dir := range directions {
		matches := 0
		for i, sample := range samples {
			x := cx + sample*dir[0]
			y := cy + sample*dir[1]
			isDark := gray.GrayAt(x, y).Y < d.threshold
			if isDark == expectDark[i] {
				matches++
			}
		}
		if matches >= len(samples)-1 {
			matchingDirections++
		}
	}
	return matchingDirections >= 2
}
