package Models

import (
	"testing"
	"time"

	"Chronos/AppErrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowResolveDefaults(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)

	from, to, err := Window{}.Resolve(nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, EndOfDay(now), to)

	from, to, err = Window{Days: 7}.Resolve(nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -7), from)
	assert.Equal(t, EndOfDay(now), to)
}

func TestWindowResolveKeepsGivenBounds(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	from, to, err := Window{Days: 30}.Resolve(&start, nil, now)
	require.NoError(t, err)
	assert.Equal(t, start, from)
	assert.Equal(t, EndOfDay(now), to)
}

func TestWindowResolveRejectsInvertedRange(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	_, _, err := Window{}.Resolve(&start, &end, now)
	require.Error(t, err)
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))
}
