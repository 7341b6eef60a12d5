package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwerkskammer/agoraauth/activities"
)

func TestFSActivityStore(t *testing.T) {
	ctx := context.Background()
	store := NewFSActivityStore(t.TempDir())

	berlin := time.FixedZone("CET", 3600)
	a := &activities.Activity{
		ID:        "socrates",
		URL:       "socrates-2024",
		Title:     "SoCraTes",
		StartDate: time.Date(2024, 8, 22, 18, 0, 0, 500, berlin),
		EndDate:   time.Date(2024, 8, 21, 12, 0, 0, 0, berlin),
	}
	require.NoError(t, store.SaveActivity(ctx, a))

	loaded, err := store.GetActivity(ctx, "socrates")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loaded.StartDate.Location())
	assert.Equal(t, time.Date(2024, 8, 22, 17, 0, 0, 0, time.UTC), loaded.StartDate)
	assert.Equal(t, time.Date(2024, 8, 21, 11, 0, 0, 0, time.UTC), loaded.EndDate)
	assert.Equal(t, loaded.StartDate.Unix(), loaded.StartUnix)

	require.NoError(t, store.SaveActivity(ctx, &activities.Activity{URL: "other"}))
	all, err := store.AllActivities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.GetActivity(ctx, "missing")
	assert.ErrorIs(t, err, activities.ErrActivityNotFound)
}
