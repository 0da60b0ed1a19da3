package service

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"github.com/anime-shed/frame-scanner-go/pkg/models"
)

// verifyPayload compares the decoded text with the payload the caller
// expected. Similarity is one minus the edit distance over the longer
// length; the word error rate is over whitespace separated words.
func verifyPayload(expected, actual string) *models.Verification {
	distance := levenshtein.Distance(expected, actual)

	similarity := 1.0
	if longest := max(utf8.RuneCountInString(expected), utf8.RuneCountInString(actual)); longest > 0 {
		similarity = 1 - float64(distance)/float64(longest)
	}

	return &models.Verification{
		Expected:     expected,
		Match:        distance == 0,
		Similarity:   similarity,
		EditDistance: distance,
		WER:          wordErrorRate(expected, actual),
	}
}

func wordErrorRate(expected, actual string) float64 {
	reference := strings.Fields(expected)
	candidate := strings.Fields(actual)
	switch {
	case len(reference) == 0 && len(candidate) == 0:
		return 0
	case len(reference) == 0:
		return 1
	}
	rate, _ := wer.WER(reference, candidate)
	return float64(rate)
}
