package livestate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBalance(t *testing.T) {
	tests := []struct {
		name                     string
		front, rear, steer, latG float64
		want                     Balance
		wantConfidence           float64
	}{
		{"understeer", 0.10, 0.02, 0.3, 1.4, Understeer, (0.08 / 0.7) * (0.3 / 0.9) * 0.5},
		{"low steer", 0.10, 0.02, 0.02, 1.4, Neutral, (0.08 / 0.7) * (0.02 / 0.9) * 0.5},
		{"oversteer", 0.01, 0.30, -0.5, 3.5, Oversteer, (0.29 / 0.7) * (0.5 / 0.9) * 1},
		{"within threshold", 0.06, 0.02, 0.5, 1.4, Neutral, (0.04 / 0.7) * (0.5 / 0.9) * 0.5},
		{"lateral g floor", 0.10, 0.02, 0.3, 0.1, Understeer, (0.08 / 0.7) * (0.3 / 0.9) * 0.2},
		{"all factors capped", 1.5, 0, 2, 5, Understeer, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyBalance(tt.front, tt.rear, tt.steer, tt.latG)
			assert.Equal(t, tt.want, got.Balance)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestRing(t *testing.T) {
	r := newRing(160)
	start := time.Unix(0, 0)
	for i := range 200 {
		r.push(start.Add(time.Duration(i)*time.Millisecond), float64(i))
		assert.LessOrEqual(t, r.len(), 160)
	}
	v := r.values()
	assert.Len(t, v, 160)
	assert.InDelta(t, 40.0, v[0].Value, 1e-9)
	assert.InDelta(t, 199.0, v[159].Value, 1e-9)

	// values are cached until the next push
	assert.Same(t, &v[0], &r.values()[0])
	r.push(start, 1)
	assert.InDelta(t, 41.0, r.values()[0].Value, 1e-9)

	r.reset()
	assert.Empty(t, r.values())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "--:--.---", FormatLapTime(0))
	assert.Equal(t, "1:18.500", FormatLapTime(78500))
	assert.Equal(t, "0:09.005", FormatLapTime(9005))
	assert.Equal(t, "2:00.000", FormatLapTime(120000))

	assert.Equal(t, "+0.000", FormatGap(0))
	assert.Equal(t, "+0.000", FormatGap(-5))
	assert.Equal(t, "+1.200", FormatGap(1200))
	assert.Equal(t, "+65.432", FormatGap(65432))

	assert.Equal(t, "Soft", CompoundName(16))
	assert.Equal(t, "Wet", CompoundName(8))
	assert.Equal(t, "Unknown", CompoundName(19))
	assert.Equal(t, "Hotlap", ERSModeName(2))
	assert.Equal(t, "Unknown", ERSModeName(9))
}
