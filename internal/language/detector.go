// Package language wraps lingua for description/review language detection.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector implements broker.LanguageDetector using lingua's statistical
// models over the full language set.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a Detector. Model data loads lazily on first call.
func New() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Detect returns the lower-cased ISO 639-1 code of the most likely language,
// or ok=false when the text is empty or no confident prediction exists.
func (d *Detector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
