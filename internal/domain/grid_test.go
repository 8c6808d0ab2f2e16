package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDates_GaplessPartition(t *testing.T) {
	start := int64(1_700_000_000_000)
	end := int64(1_700_864_000_000) // +10 days
	s := SplitDates(start, end, 0.7)

	assert.Equal(t, start, s.TrainStart)
	assert.Equal(t, end, s.TestEnd)
	assert.Equal(t, s.TrainEnd, s.TestStart)
	assert.Equal(t, start+int64(float64(end-start)*0.7), s.TrainEnd)
}

func TestSplitDates_ChronologicalOrder(t *testing.T) {
	s := SplitDates(0, 1000, 0.5)
	assert.Less(t, s.TrainStart, s.TrainEnd)
	assert.Less(t, s.TestStart, s.TestEnd)
	assert.LessOrEqual(t, s.TrainEnd, s.TestStart)
}

// --- sim config validation ---

func TestSimConfigValidate_Defaults(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.From = 0
	cfg.To = 1000
	assert.NoError(t, cfg.Validate())
}

func TestSimConfigValidate_RejectsInvertedRange(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.From = 1000
	cfg.To = 1000
	assert.Error(t, cfg.Validate())
}

func TestSimConfigValidate_RejectsBankrollWithoutCapital(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.From, cfg.To = 0, 1000
	cfg.Sizing = BankrollFraction{Fraction: 0.25}
	assert.Error(t, cfg.Validate())

	cfg.InitialCapital = 1000
	assert.NoError(t, cfg.Validate())
}

func TestSimConfigValidate_RejectsBadVariantParams(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.From, cfg.To = 0, 1000

	cfg.SpotAdjust = RollingMeanAdjust{Window: 0}
	assert.Error(t, cfg.Validate())

	cfg.SpotAdjust = EMAAdjust{HalfLifeMS: 60000}
	assert.NoError(t, cfg.Validate())
}
