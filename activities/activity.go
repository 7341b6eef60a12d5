// Package activities holds the activity records whose stored dates get normalized
// by the normalize-activities maintenance command.
package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrActivityNotFound = errors.New("activity not found")

// Activity is a community event.
type Activity struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	// Derived from StartDate / EndDate on save, used for range queries
	StartUnix int64 `json:"startUnix"`
	EndUnix   int64 `json:"endUnix"`
}

// NormalizeDates brings the dates into the persisted form:
// UTC, whole seconds, unix fields in sync. The instants themselves are kept.
func (a *Activity) NormalizeDates() {
	a.StartDate = a.StartDate.UTC().Truncate(time.Second)
	a.EndDate = a.EndDate.UTC().Truncate(time.Second)
	a.StartUnix = a.StartDate.Unix()
	a.EndUnix = a.EndDate.Unix()
}

// Store persists activities. SaveActivity must normalize dates before writing.
type Store interface {
	AllActivities(ctx context.Context) ([]*Activity, error)
	SaveActivity(ctx context.Context, activity *Activity) error
}

// ResaveAll loads every activity and saves it again, one after another.
// It stops at the first failing save and returns how many were saved.
func ResaveAll(ctx context.Context, store Store, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	all, err := store.AllActivities(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading activities: %w", err)
	}
	saved := 0
	for _, activity := range all {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := store.SaveActivity(ctx, activity); err != nil {
			return saved, fmt.Errorf("saving activity %s: %w", activity.ID, err)
		}
		saved++
		logger.Info("activity saved", "id", activity.ID, "url", activity.URL,
			"start", activity.StartDate.Format(time.RFC3339), "end", activity.EndDate.Format(time.RFC3339))
	}
	return saved, nil
}
