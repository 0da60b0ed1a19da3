package service

import (
	"image"
	"math"
	"testing"

	"github.com/anime-shed/frame-scanner-go/pkg/models"
)

func TestVerifyPayload(t *testing.T) {
	tests := []struct {
		name       string
		expected   string
		actual     string
		match      bool
		distance   int
		similarity float64
	}{
		{"exact", "HELLO", "HELLO", true, 0, 1},
		{"one substitution", "HELLO", "HELLA", false, 1, 0.8},
		{"missing suffix", "SCAN-0042", "SCAN-00", false, 2, 1 - 2.0/9},
		{"unicode", "héllo", "hello", false, 1, 0.8},
		{"both empty", "", "", true, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := verifyPayload(tt.expected, tt.actual)
			if v.Match != tt.match {
				t.Errorf("Expected match %v, got %v", tt.match, v.Match)
			}
			if v.EditDistance != tt.distance {
				t.Errorf("Expected distance %d, got %d", tt.distance, v.EditDistance)
			}
			if math.Abs(v.Similarity-tt.similarity) > 1e-9 {
				t.Errorf("Expected similarity %f, got %f", tt.similarity, v.Similarity)
			}
		})
	}
}

func TestWordErrorRate_EmptyReference(t *testing.T) {
	if got := wordErrorRate("", ""); got != 0 {
		t.Errorf("Expected 0 for two empty strings, got %f", got)
	}
	if got := wordErrorRate("", "extra words"); got != 1 {
		t.Errorf("Expected 1 for an empty reference, got %f", got)
	}
}

func TestCaptionRegion(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 400, 400))

	if got := captionRegion(gray, nil).Bounds(); got != gray.Bounds() {
		t.Errorf("Expected whole frame without points, got %v", got)
	}

	// Symbol in the upper half: caption band below it
	middle := []models.Point{{X: 150, Y: 50}, {X: 250, Y: 50}, {X: 150, Y: 150}}
	below := captionRegion(gray, middle).Bounds()
	if below.Min.Y <= 150 || below.Empty() {
		t.Errorf("Expected region below the symbol, got %v", below)
	}

	// Symbol at the bottom edge: caption band above it
	bottom := []models.Point{{X: 150, Y: 290}, {X: 250, Y: 290}, {X: 150, Y: 390}}
	above := captionRegion(gray, bottom).Bounds()
	if above.Max.Y > 290 || above.Empty() {
		t.Errorf("Expected region above the symbol, got %v", above)
	}
}
