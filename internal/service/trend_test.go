package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeloop/gradeloop-api/internal/models"
)

func hwAt(grade string, day int) models.Homework {
	return models.Homework{
		Grade:     grade,
		Completed: true,
		StartAt:   time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestTrendPerfectlyIncreasing(t *testing.T) {
	// 0%, 200%, 400% on consecutive days: perfectly monotonic, so the
	// correlation is exactly +1 even though the percentages are unbounded.
	items := []models.Homework{
		hwAt("0/10", 8),
		hwAt("20/10", 9),
		hwAt("40/10", 10),
	}

	trend, err := Trend(items)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.InDelta(t, 1.0, *trend, 1e-9)
}

func TestTrendPerfectlyDecreasing(t *testing.T) {
	items := []models.Homework{
		hwAt("40/10", 8),
		hwAt("20/10", 9),
		hwAt("0/10", 10),
	}

	trend, err := Trend(items)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.InDelta(t, -1.0, *trend, 1e-9)
}

func TestTrendOrdersByStartTime(t *testing.T) {
	// Same series delivered out of order must produce the same result.
	items := []models.Homework{
		hwAt("20/10", 9),
		hwAt("40/10", 10),
		hwAt("0/10", 8),
	}

	trend, err := Trend(items)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.InDelta(t, 1.0, *trend, 1e-9)
}

func TestTrendTooFewPoints(t *testing.T) {
	trend, err := Trend([]models.Homework{hwAt("9/10", 8)})
	require.NoError(t, err)
	assert.Nil(t, trend)

	trend, err = Trend(nil)
	require.NoError(t, err)
	assert.Nil(t, trend)
}

func TestTrendZeroGradeVariance(t *testing.T) {
	items := []models.Homework{
		hwAt("7/10", 8),
		hwAt("7/10", 9),
		hwAt("14/20", 10),
	}

	trend, err := Trend(items)
	require.NoError(t, err)
	assert.Nil(t, trend)
}

func TestTrendZeroTimeVariance(t *testing.T) {
	items := []models.Homework{
		hwAt("5/10", 8),
		hwAt("9/10", 8),
	}

	trend, err := Trend(items)
	require.NoError(t, err)
	assert.Nil(t, trend)
}

func TestTrendMalformedGrade(t *testing.T) {
	items := []models.Homework{hwAt("5/10", 8), hwAt("oops", 9)}

	_, err := Trend(items)
	require.Error(t, err)
}

func TestBuildGradePointsRunningMean(t *testing.T) {
	items := []models.Homework{
		hwAt("10/10", 8),  // 100%
		hwAt("5/10", 9),   // 50%, mean 75%
		hwAt("15/20", 10), // 75%, mean 75%
	}

	points, err := BuildGradePoints(items)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 100, points[0].Value, 1e-9)
	assert.InDelta(t, 75, points[1].Value, 1e-9)
	assert.InDelta(t, 75, points[2].Value, 1e-9)
	assert.True(t, points[0].Time.Before(points[1].Time))
}

func TestBuildGradePointsOrdersByStartTime(t *testing.T) {
	items := []models.Homework{
		hwAt("5/10", 9),
		hwAt("10/10", 8),
	}

	points, err := BuildGradePoints(items)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.InDelta(t, 100, points[0].Value, 1e-9)
	assert.InDelta(t, 75, points[1].Value, 1e-9)
}

func TestBuildGradePointsEmpty(t *testing.T) {
	points, err := BuildGradePoints(nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}
