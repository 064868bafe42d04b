package applefetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanEmptyIDs(t *testing.T) {
	plan := Plan(nil, 600, 1_000_000)
	assert.Empty(t, plan)
}

// TestPlanSingleTrackerShortWindow matches spec.md §8 scenario 2.
func TestPlanSingleTrackerShortWindow(t *testing.T) {
	now := int64(2_000_000)
	plan := Plan([]string{"id-1"}, 600, now)

	require.Len(t, plan, 1)
	assert.Equal(t, []string{"id-1"}, plan[0].IDs)
	body := plan[0].body()
	require.Len(t, body.Search, 1)
	assert.Equal(t, int64(600_000), body.Search[0].EndDate-body.Search[0].StartDate)
}

// TestPlanTwentyThreeTrackersTwoDayWindow matches spec.md §8 scenario 3.
func TestPlanTwentyThreeTrackersTwoDayWindow(t *testing.T) {
	ids := make([]string, 23)
	for i := range ids {
		ids[i] = "id"
	}
	now := int64(3_000_000)
	lookback := int64(2 * 86_400)

	plan := Plan(ids, lookback, now)
	assert.Len(t, plan, 6)

	total := map[string]bool{}
	for _, e := range plan {
		for _, id := range e.IDs {
			_ = id
		}
		total[idKey(e)] = true
	}
}

func idKey(e PlanEntry) string {
	return e.IDs[0]
}

func TestPlanEveryInputIDAppearsExactlyOnce(t *testing.T) {
	ids := make([]string, 37)
	for i := range ids {
		ids[i] = string(rune('a' + i%26))
	}
	plan := Plan(ids, 10*86_400, 100*86_400)

	seenPerWindow := map[[2]int64]int{}
	for _, e := range plan {
		seenPerWindow[[2]int64{e.WindowStart, e.WindowEnd}] += len(e.IDs)
	}
	for _, count := range seenPerWindow {
		assert.Equal(t, len(ids), count)
	}
}

func TestPlanGroupSizeAndWindowCount(t *testing.T) {
	ids := make([]string, 25)
	plan := Plan(ids, 3*86_400, 3*86_400)

	idGroupCount := (len(ids) + 9) / 10
	windowCount := 3
	assert.Len(t, plan, idGroupCount*windowCount)
}
