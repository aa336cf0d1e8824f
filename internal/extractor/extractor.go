// Package extractor turns noisy OCR text into a normalized person name. The
// engine output is unreliable, so extraction is a deterministic cascade:
// classify the issuing format from fingerprints, apply the format's
// structured rule, then fall back through progressively looser rules.
// Absence of a match is a value, never an error.
package extractor

import (
	"strings"

	"go-id-capture/pkg/models"
)

// nameRule bounds a structured "LAST, FIRST MIDDLE" match. Formats differ in
// how many given-name words they print.
type nameRule struct {
	maxGivenWords int
	maxLastWords  int
	minPartLen    int
}

var (
	philHealthRule = nameRule{maxGivenWords: 3, maxLastWords: 2, minPartLen: 2}
	licenseRule    = nameRule{maxGivenWords: 4, maxLastWords: 2, minPartLen: 2}

	// relaxedRule is the looser fallback tried when the format rule misses.
	relaxedRule = nameRule{maxGivenWords: 5, maxLastWords: 3, minPartLen: 2}
)

// Extract parses raw OCR text and returns the name in "FIRST MIDDLE LAST"
// presentation, the classified format, and whether a name was found.
func Extract(raw string) (string, models.IDFormat, bool) {
	lines := NormalizeLines(raw)
	if len(lines) == 0 {
		return "", models.FormatGeneric, false
	}

	format := Classify(lines)

	var rules []nameRule
	switch format {
	case models.FormatPhilHealth:
		rules = []nameRule{philHealthRule, relaxedRule}
	case models.FormatDrivingLicense:
		rules = []nameRule{licenseRule, relaxedRule}
	default:
		rules = []nameRule{relaxedRule}
	}

	for _, rule := range rules {
		for _, line := range lines {
			if isNoiseLine(line) {
				continue
			}
			if name, ok := matchCommaName(line, rule); ok {
				return name.String(), format, true
			}
		}
	}

	// Last resort: a plausible free-form name line with no comma structure.
	for _, line := range lines {
		if genericNameLine(line) {
			return strings.Join(strings.Fields(line), " "), format, true
		}
	}

	return "", format, false
}

// matchCommaName matches "<LASTNAME>, <FIRST MIDDLE>" where both groups are
// letters and spaces only, within the rule's word-count and length bounds.
// The groups are swapped so given names come first.
func matchCommaName(line string, rule nameRule) (models.ExtractedName, bool) {
	idx := strings.Index(line, ",")
	if idx <= 0 || idx == len(line)-1 {
		return models.ExtractedName{}, false
	}
	if strings.Contains(line[idx+1:], ",") {
		return models.ExtractedName{}, false
	}

	last := strings.TrimSpace(line[:idx])
	given := strings.TrimSpace(line[idx+1:])
	if !lettersSpacesOnly(last) || !lettersSpacesOnly(given) {
		return models.ExtractedName{}, false
	}

	lastWords := strings.Fields(last)
	givenWords := strings.Fields(given)
	if len(lastWords) < 1 || len(lastWords) > rule.maxLastWords {
		return models.ExtractedName{}, false
	}
	if len(givenWords) < 1 || len(givenWords) > rule.maxGivenWords {
		return models.ExtractedName{}, false
	}

	last = strings.Join(lastWords, " ")
	given = strings.Join(givenWords, " ")
	if len(last) < rule.minPartLen || len(given) < rule.minPartLen {
		return models.ExtractedName{}, false
	}

	return models.ExtractedName{FirstMiddle: given, LastName: last}, true
}

// genericNameLine accepts a line of length 8-60 containing only letters,
// spaces and periods, not carrying any excluded term, with 2-5 words.
func genericNameLine(line string) bool {
	if len(line) < 8 || len(line) > 60 {
		return false
	}
	if !lettersSpacesPeriodsOnly(line) {
		return false
	}
	if containsAny(line, agencyTerms) || containsAny(line, genericExcludedTerms) {
		return false
	}
	words := len(strings.Fields(line))
	return words >= 2 && words <= 5
}
