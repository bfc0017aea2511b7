package service

import (
	"log"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/width"

	"academymsg/internal/models"
)

// Tier thresholds in EUC-KR bytes, inclusive upper bounds.
// These mirror the delivery network's billing convention.
const (
	ShortTextMaxBytes = 90
	LongTextMaxBytes  = 2000
)

// Measurement is the sizing result for a rendered message body
type Measurement struct {
	CharacterCount int
	ByteCount      int
	// UTF8ByteCount is informational only; the provider bills on the
	// EUC-KR count above.
	UTF8ByteCount int
	Tier          models.SizeTier
	SizeExceeded  bool
}

// SizerService measures rendered text against the provider's
// double-byte billing convention. It never mutates text.
type SizerService struct{}

// NewSizerService creates a new sizer service
func NewSizerService() *SizerService {
	return &SizerService{}
}

// Classify computes character count and encoding-specific byte count and
// maps the message into a size tier. Messages over the long-text bound
// still classify as LONG_TEXT with SizeExceeded set; truncation is a
// delivery concern, not a sizing concern.
func (s *SizerService) Classify(text string) Measurement {
	byteCount := eucKRByteLength(text)

	m := Measurement{
		CharacterCount: utf8.RuneCountInString(text),
		ByteCount:      byteCount,
		UTF8ByteCount:  len(text),
	}

	switch {
	case byteCount <= ShortTextMaxBytes:
		m.Tier = models.SizeTierShortText
	case byteCount <= LongTextMaxBytes:
		m.Tier = models.SizeTierLongText
	default:
		m.Tier = models.SizeTierLongText
		m.SizeExceeded = true
	}

	return m
}

// eucKRByteLength computes the EUC-KR byte length of text, falling back
// to a character-class estimate when the text contains runes the native
// encoder cannot represent
func eucKRByteLength(text string) int {
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(text))
	if err != nil {
		log.Printf("WARN: EUC-KR encoding failed, using width estimate: %v", err)
		return estimateWideByteLength(text)
	}
	return len(encoded)
}

// estimateWideByteLength applies the provider's 2-byte/1-byte rule per
// rune: East Asian wide and fullwidth characters cost 2 bytes, all
// other characters cost 1 byte. Kept in parity with the native encoder
// by the sizer tests.
func estimateWideByteLength(text string) int {
	bytes := 0
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			bytes += 2
		default:
			bytes++
		}
	}
	return bytes
}
