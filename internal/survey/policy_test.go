package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityPolicy_Classify(t *testing.T) {
	report := NewReport(fixtureDataset(t))

	tests := []struct {
		name     string
		policy   PriorityPolicy
		bucket   SizeBucket
		expected Priority
	}{
		{"105 oversized", DefaultPriorityPolicy(), "105", PriorityHigh},
		{"110 borderline", DefaultPriorityPolicy(), "110", PriorityMedium},
		{"120 fits", DefaultPriorityPolicy(), "120", PriorityLow},
		{"threshold is inclusive", PriorityPolicy{Category: TooBig, HighAt: 76.7, MediumAt: 50}, "105", PriorityHigh},
		{"just right policy", PriorityPolicy{Category: JustRight, HighAt: 70, MediumAt: 50}, "120", PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Classify(report, tt.bucket)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPriorityPolicy_ZeroRespondents(t *testing.T) {
	ds, err := New([]Entry{{Bucket: "100"}})
	require.NoError(t, err)

	_, err = DefaultPriorityPolicy().Classify(NewReport(ds), "100")
	assert.ErrorIs(t, err, ErrDivisionUndefined)
}

func TestPriorityPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  PriorityPolicy
		wantErr bool
	}{
		{"default", DefaultPriorityPolicy(), false},
		{"equal thresholds", PriorityPolicy{Category: TooSmall, HighAt: 30, MediumAt: 30}, false},
		{"inverted", PriorityPolicy{Category: TooBig, HighAt: 20, MediumAt: 40}, true},
		{"above hundred", PriorityPolicy{Category: TooBig, HighAt: 120, MediumAt: 40}, true},
		{"negative", PriorityPolicy{Category: TooBig, HighAt: 60, MediumAt: -1}, true},
		{"bad category", PriorityPolicy{Category: ResponseCategory(9), HighAt: 60, MediumAt: 40}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPriority_Tone(t *testing.T) {
	assert.Equal(t, "error", PriorityHigh.Tone())
	assert.Equal(t, "warning", PriorityMedium.Tone())
	assert.Equal(t, "success", PriorityLow.Tone())
}
