package appointment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCacheKey(t *testing.T) {
	assert.Equal(t, "stats:appointments:7", StatsCacheKey(7))
}

func TestStatsHashRoundTrip(t *testing.T) {
	st := Stats{Total: 10, Pending: 4, Confirmed: 3, Completed: 2, Cancelled: 1}

	asStrings := make(map[string]string)
	for k, v := range statsToHash(&st) {
		asStrings[k] = fmt.Sprintf("%d", v)
	}

	got, hit := statsFromHash(asStrings)
	require.True(t, hit)
	assert.Equal(t, st, got)
}

func TestStatsFromHash(t *testing.T) {
	t.Run("empty hash is a miss", func(t *testing.T) {
		_, hit := statsFromHash(nil)
		assert.False(t, hit)
		_, hit = statsFromHash(map[string]string{})
		assert.False(t, hit)
	})

	t.Run("populated hash rebuilds counters", func(t *testing.T) {
		st, hit := statsFromHash(map[string]string{
			"total":     "10",
			"pending":   "4",
			"confirmed": "3",
			"completed": "2",
			"cancelled": "1",
		})
		require.True(t, hit)
		assert.EqualValues(t, 10, st.Total)
		assert.EqualValues(t, 4, st.Pending)
		assert.EqualValues(t, 3, st.Confirmed)
		assert.EqualValues(t, 2, st.Completed)
		assert.EqualValues(t, 1, st.Cancelled)
	})

	t.Run("missing fields count as zero", func(t *testing.T) {
		st, hit := statsFromHash(map[string]string{"total": "2", "pending": "2"})
		require.True(t, hit)
		assert.EqualValues(t, 2, st.Total)
		assert.EqualValues(t, 0, st.Completed)
	})
}

// Without a cache client the reader must fall back to the database,
// for receptionists included.
func TestStatsWithoutCacheClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, f.receptionist)
	a := f.book(t, f.receptionist)
	_, err := f.svc.ChangeStatus(ctx, f.receptionist, a.ID, "confirmed")
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx, f.receptionist)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Total)
	assert.EqualValues(t, 1, st.Pending)
	assert.EqualValues(t, 1, st.Confirmed)
}
