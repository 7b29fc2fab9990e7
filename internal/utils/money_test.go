package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no rounding needed", "100.25", "100.25"},
		{"rounds half up", "100.255", "100.26"},
		{"rounds down", "100.254", "100.25"},
		{"negative rounds away from zero", "-100.255", "-100.26"},
		{"whole number", "2800", "2800.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Round2(d).StringFixed(2))
		})
	}
}

func TestRecognitionDate(t *testing.T) {
	pickup := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("delivery date wins", func(t *testing.T) {
		load := &models.Load{PickupDate: &pickup, DeliveryDate: &delivery}
		assert.Equal(t, delivery, RecognitionDate(load))
	})

	t.Run("falls back to pickup", func(t *testing.T) {
		load := &models.Load{PickupDate: &pickup}
		assert.Equal(t, pickup, RecognitionDate(load))
	})
}

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, "2026-03", PeriodOf(time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12", PeriodOf(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodRange(t *testing.T) {
	start, end, err := PeriodRange("2026-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = PeriodRange("february")
	assert.Error(t, err)
}
