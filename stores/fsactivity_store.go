package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/softwerkskammer/agoraauth/activities"
)

// FSActivityStore stores activities as JSON files under <StoragePath>/activities
type FSActivityStore struct {
	StoragePath string

	mu sync.RWMutex
}

func NewFSActivityStore(storagePath string) *FSActivityStore {
	return &FSActivityStore{StoragePath: storagePath}
}

func (s *FSActivityStore) activitiesDir() string {
	return filepath.Join(s.StoragePath, "activities")
}

func (s *FSActivityStore) getActivityPath(id string) string {
	return filepath.Join(s.activitiesDir(), safeFileName(id)+".json")
}

func (s *FSActivityStore) GetActivity(ctx context.Context, id string) (*activities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.getActivityPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, activities.ErrActivityNotFound
		}
		return nil, err
	}
	var activity activities.Activity
	if err := json.Unmarshal(data, &activity); err != nil {
		return nil, fmt.Errorf("decoding activity %s: %w", id, err)
	}
	return &activity, nil
}

func (s *FSActivityStore) AllActivities(ctx context.Context) ([]*activities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*activities.Activity
	err := readJSONFiles(s.activitiesDir(), func(a *activities.Activity) bool {
		out = append(out, a)
		return ctx.Err() == nil
	})
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// SaveActivity normalizes the dates and writes the activity.
func (s *FSActivityStore) SaveActivity(ctx context.Context, activity *activities.Activity) error {
	if activity == nil {
		return fmt.Errorf("nil activity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.NormalizeDates()
	return writeJSONFile(s.getActivityPath(activity.ID), activity)
}
