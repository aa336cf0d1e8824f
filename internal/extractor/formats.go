package extractor

import (
	"strings"
	"unicode"

	"go-id-capture/pkg/models"
)

// Fingerprints are small sets of literal tokens that identify which issuing
// format a document belongs to. First match wins; anything else is generic.
var philHealthMarks = []string{
	"PHILHEALTH",
	"PHILIPPINE HEALTH INSURANCE",
	"PHIC",
}

var licenseMarks = []string{
	"DRIVER'S LICENSE",
	"DRIVERS LICENSE",
	"LAND TRANSPORTATION OFFICE",
	"PROFESSIONAL DRIVER",
	"NON-PROFESSIONAL",
}

// licenseTokens are short fingerprints matched as whole words only, so that
// e.g. "LTO" does not fire inside an unrelated word.
var licenseTokens = []string{"LTO"}

// agencyTerms mark institutional/header lines that can never be a person
// name. Matched as substrings of the uppercased line.
var agencyTerms = []string{
	"REPUBLIC",
	"PHILIPPINES",
	"PHILHEALTH",
	"INSURANCE",
	"CORPORATION",
	"HEALTH",
	"LICENSE",
	"TRANSPORTATION",
	"DEPARTMENT",
	"GOVERNMENT",
	"OFFICE",
}

// genericExcludedTerms extend the agency terms with field labels that appear
// on cards but are never names.
var genericExcludedTerms = []string{
	"SIGNATURE",
	"ADDRESS",
	"NATIONALITY",
	"BIRTH",
	"DATE",
	"WEIGHT",
	"HEIGHT",
	"BLOOD",
	"EXPIR",
	"RESTRICTION",
	"AGENCY",
}

var monthNames = []string{
	"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
	"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
}

// NormalizeLines splits raw OCR output into trimmed, uppercased, non-empty
// lines.
func NormalizeLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.ToUpper(strings.TrimSpace(line))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Classify decides the issuing format from textual fingerprints. The
// cascade is ordered: PhilHealth marks first, then driving-license marks,
// then generic.
func Classify(lines []string) models.IDFormat {
	for _, line := range lines {
		if containsAny(line, philHealthMarks) {
			return models.FormatPhilHealth
		}
	}
	for _, line := range lines {
		if containsAny(line, licenseMarks) || hasAnyToken(line, licenseTokens) {
			return models.FormatDrivingLicense
		}
	}
	return models.FormatGeneric
}

func containsAny(line string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(line, term) {
			return true
		}
	}
	return false
}

// hasAnyToken reports whether the line contains one of the terms as a whole
// letter-word.
func hasAnyToken(line string, terms []string) bool {
	words := strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		for _, term := range terms {
			if word == term {
				return true
			}
		}
	}
	return false
}

// isNoiseLine recognizes lines that structured name matching must skip:
// headers and agency names, ID-number shapes, dates, and sex markers.
func isNoiseLine(line string) bool {
	if containsAny(line, agencyTerms) {
		return true
	}
	if looksLikeIDNumber(line) {
		return true
	}
	if looksLikeDate(line) {
		return true
	}
	if isSexMarker(line) {
		return true
	}
	return false
}

// looksLikeIDNumber flags lines dominated by digits, or carrying a long
// digit run the way PINs and license numbers do.
func looksLikeIDNumber(line string) bool {
	digits, letters := 0, 0
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if digits >= 6 {
		return true
	}
	return digits > 0 && digits >= letters
}

// looksLikeDate flags lines pairing digits with date separators or month
// names.
func looksLikeDate(line string) bool {
	hasDigit := strings.ContainsFunc(line, unicode.IsDigit)
	if !hasDigit {
		return false
	}
	if strings.ContainsAny(line, "/") {
		return true
	}
	return containsAny(line, monthNames)
}

func isSexMarker(line string) bool {
	if line == "M" || line == "F" {
		return true
	}
	return hasAnyToken(line, []string{"SEX", "MALE", "FEMALE"})
}

// lettersSpacesOnly reports whether the string contains only letters and
// spaces (and at least one letter).
func lettersSpacesOnly(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

// lettersSpacesPeriodsOnly additionally permits periods, for initials in
// free-form name lines.
func lettersSpacesPeriodsOnly(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ' || r == '.':
		default:
			return false
		}
	}
	return hasLetter
}
