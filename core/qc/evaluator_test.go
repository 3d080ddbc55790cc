package qc

import (
	"testing"

	"motion-curator/core/models"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestScore(t *testing.T) {
	cases := []struct {
		name    string
		episode models.Episode
		want    int
	}{
		{"fast success", models.Episode{Success: true, DurationSec: 8}, 80},
		{"slow success", models.Episode{Success: true, DurationSec: 16}, 60},
		{"plain failure", models.Episode{Success: false, DurationSec: 5}, 50},
		{"failure with reason", models.Episode{Success: false, DurationSec: 9, FailureReason: strPtr("missed_grasp")}, 40},
		{"slow failure with reason", models.Episode{Success: false, DurationSec: 30, FailureReason: strPtr("dropped_object")}, 20},
		{"empty reason not counted", models.Episode{Success: true, DurationSec: 5, FailureReason: strPtr("")}, 80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(&tc.episode))
		})
	}
}

func TestScoreBounds(t *testing.T) {
	// Every combination of the three adjustments stays within [0,100].
	reasons := []*string{nil, strPtr("collision")}
	durations := []float64{1, 15, 15.01, 16, 25}
	for _, success := range []bool{true, false} {
		for _, reason := range reasons {
			for _, d := range durations {
				e := models.Episode{Success: success, DurationSec: d, FailureReason: reason}
				s := Score(&e)
				assert.GreaterOrEqual(t, s, 0)
				assert.LessOrEqual(t, s, 100)
			}
		}
	}
}

func TestScoreMonotonic(t *testing.T) {
	// Success never decreases the score, long duration never increases it.
	reason := strPtr("collision")
	for _, r := range []*string{nil, reason} {
		for _, d := range []float64{5, 16, 30} {
			failed := models.Episode{Success: false, DurationSec: d, FailureReason: r}
			succeeded := models.Episode{Success: true, DurationSec: d, FailureReason: r}
			assert.GreaterOrEqual(t, Score(&succeeded), Score(&failed))
		}
		fast := models.Episode{Success: true, DurationSec: 10, FailureReason: r}
		slow := models.Episode{Success: true, DurationSec: 16, FailureReason: r}
		assert.LessOrEqual(t, Score(&slow), Score(&fast))
	}
}

func TestIsEdgeCase(t *testing.T) {
	// Any failure is an edge case, regardless of duration.
	assert.True(t, IsEdgeCase(&models.Episode{Success: false, DurationSec: 1}))

	// A long successful run with no failure reason is still an edge case.
	assert.True(t, IsEdgeCase(&models.Episode{Success: true, DurationSec: 20.5}))

	// A recorded failure reason alone flags the episode.
	assert.True(t, IsEdgeCase(&models.Episode{Success: true, DurationSec: 5, FailureReason: strPtr("near_miss")}))

	assert.False(t, IsEdgeCase(&models.Episode{Success: true, DurationSec: 20}))
}

func TestIsAccepted(t *testing.T) {
	assert.True(t, IsAccepted(&models.Episode{Success: true, DurationSec: 20}))
	assert.False(t, IsAccepted(&models.Episode{Success: true, DurationSec: 20.01}))
	assert.False(t, IsAccepted(&models.Episode{Success: false, DurationSec: 3}))
}

func TestIsFixAcceptedStricterThanIsAccepted(t *testing.T) {
	e := models.Episode{Success: true, DurationSec: 15}
	assert.True(t, IsAccepted(&e))
	assert.False(t, IsFixAccepted(&e))

	fast := models.Episode{Success: true, DurationSec: 10}
	assert.True(t, IsFixAccepted(&fast))

	failed := models.Episode{Success: false, DurationSec: 4}
	assert.False(t, IsFixAccepted(&failed))
}
