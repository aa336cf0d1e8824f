package models

import "strings"

// IDFormat identifies the issuing format of a scanned document, decided from
// textual fingerprints in the OCR output. The set is closed: unknown
// documents always classify as FormatGeneric.
type IDFormat string

const (
	FormatPhilHealth     IDFormat = "philhealth"
	FormatDrivingLicense IDFormat = "driving_license"
	FormatGeneric        IDFormat = "generic"
)

// ExtractedName is a person name parsed from OCR text, split into the
// given-name part and the family name. Regional ID formats print
// "LASTNAME, GIVEN NAMES"; the extractor reorders once, centrally, so
// consumers always see given names first.
type ExtractedName struct {
	FirstMiddle string `json:"first_middle"`
	LastName    string `json:"last_name"`
}

// String renders the name in "FIRST MIDDLE LAST" presentation.
func (n ExtractedName) String() string {
	return strings.TrimSpace(n.FirstMiddle + " " + n.LastName)
}

// OCRResult is the raw outcome of one OCR engine invocation.
type OCRResult struct {
	Text string `json:"text"`

	// Confidence is the engine's mean word confidence on a 0-100 scale.
	// Informational only: extraction proceeds regardless of confidence.
	Confidence float64 `json:"confidence"`
}

// ExtractionResult is the outcome of running OCR plus name extraction over a
// captured document crop. A miss (Found=false) is a successful call with an
// empty result, distinct from an engine failure.
type ExtractionResult struct {
	Name   string   `json:"name,omitempty"`
	Found  bool     `json:"found"`
	Format IDFormat `json:"format"`

	OCRText       string  `json:"ocr_text"`
	OCRConfidence float64 `json:"ocr_confidence"`

	// Retried reports whether the alternate-preprocessing retry ran.
	Retried bool `json:"retried"`

	// WER and CER are set only when the caller supplied expected text.
	WER *float64 `json:"wer,omitempty"`
	CER *float64 `json:"cer,omitempty"`

	ProcessingTimeSec float64 `json:"processing_time_sec"`
}
