package service

import (
	"strings"
	"testing"

	"academymsg/internal/models"
)

// TestSizerClassify_TierBoundaries tests the inclusive byte bounds of each tier.
// ASCII characters cost 1 byte, hangul syllables cost 2.
func TestSizerClassify_TierBoundaries(t *testing.T) {
	sizer := NewSizerService()

	testCases := []struct {
		name         string
		text         string
		wantBytes    int
		wantTier     models.SizeTier
		wantExceeded bool
	}{
		{
			name:      "empty message",
			text:      "",
			wantBytes: 0,
			wantTier:  models.SizeTierShortText,
		},
		{
			name:      "exactly 90 ascii bytes stays short",
			text:      strings.Repeat("a", 90),
			wantBytes: 90,
			wantTier:  models.SizeTierShortText,
		},
		{
			name:      "91 ascii bytes promotes to long",
			text:      strings.Repeat("a", 91),
			wantBytes: 91,
			wantTier:  models.SizeTierLongText,
		},
		{
			name:      "45 hangul syllables stay short",
			text:      strings.Repeat("가", 45),
			wantBytes: 90,
			wantTier:  models.SizeTierShortText,
		},
		{
			name:      "46 hangul syllables promote to long",
			text:      strings.Repeat("가", 46),
			wantBytes: 92,
			wantTier:  models.SizeTierLongText,
		},
		{
			name:      "exactly 2000 bytes stays within long",
			text:      strings.Repeat("나", 1000),
			wantBytes: 2000,
			wantTier:  models.SizeTierLongText,
		},
		{
			name:         "2001 bytes exceeds the long bound",
			text:         strings.Repeat("나", 1000) + "x",
			wantBytes:    2001,
			wantTier:     models.SizeTierLongText,
			wantExceeded: true,
		},
		{
			name:      "mixed hangul and ascii",
			text:      "안녕하세요 Kim",
			wantBytes: 14, // 5 hangul * 2 + space + 3 ascii
			wantTier:  models.SizeTierShortText,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := sizer.Classify(tc.text)

			if m.ByteCount != tc.wantBytes {
				t.Errorf("Expected %d bytes but got %d", tc.wantBytes, m.ByteCount)
			}
			if m.Tier != tc.wantTier {
				t.Errorf("Expected tier %s but got %s", tc.wantTier, m.Tier)
			}
			if m.SizeExceeded != tc.wantExceeded {
				t.Errorf("Expected SizeExceeded=%v but got %v", tc.wantExceeded, m.SizeExceeded)
			}
		})
	}
}

// TestSizerClassify_Counts tests that character and UTF-8 counts are
// reported alongside the billing byte count
func TestSizerClassify_Counts(t *testing.T) {
	sizer := NewSizerService()

	m := sizer.Classify("수학 18:00")

	if m.CharacterCount != 8 {
		t.Errorf("Expected 8 characters but got %d", m.CharacterCount)
	}
	if m.ByteCount != 10 { // 2 hangul * 2 + space + 5 ascii
		t.Errorf("Expected 10 billing bytes but got %d", m.ByteCount)
	}
	if m.UTF8ByteCount != 12 { // 2 hangul * 3 + space + 5 ascii
		t.Errorf("Expected 12 UTF-8 bytes but got %d", m.UTF8ByteCount)
	}
}

// TestEstimateWideByteLength_ParityWithEncoder checks that the fallback
// estimate agrees with the native EUC-KR encoder for representable text
func TestEstimateWideByteLength_ParityWithEncoder(t *testing.T) {
	samples := []string{
		"",
		"hello world",
		"안녕하세요",
		"수강료 안내: 350,000원 (4월분)",
		"김철수 학생의 수학 수업이 18:00에 시작합니다.",
	}

	for _, sample := range samples {
		native := eucKRByteLength(sample)
		estimate := estimateWideByteLength(sample)
		if native != estimate {
			t.Errorf("Estimate diverged for %q: native=%d estimate=%d", sample, native, estimate)
		}
	}
}
