//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/activities"
)

// Kind constants for Datastore entities
const (
	KindMember   = "Member"
	KindActivity = "Activity"
)

type namespaced struct {
	client    *datastore.Client
	namespace string
}

func (s namespaced) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s namespaced) query(kind string) *datastore.Query {
	query := datastore.NewQuery(kind)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}
	return query
}

// ============================================================================
// MemberStore
// ============================================================================

// MemberStore implements agoraauth.MemberStore using Google Cloud Datastore
type MemberStore struct {
	namespaced
}

// NewMemberStore creates a new Datastore-backed MemberStore
func NewMemberStore(client *datastore.Client, namespace string) *MemberStore {
	return &MemberStore{namespaced{client: client, namespace: namespace}}
}

func (s *MemberStore) GetMemberByID(ctx context.Context, memberID string) (*aa.Member, error) {
	var entity MemberEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindMember, memberID), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, aa.ErrMemberNotFound
		}
		return nil, err
	}
	return entity.ToMember()
}

func (s *MemberStore) FindMemberByEmail(ctx context.Context, email string) (*aa.Member, error) {
	email = aa.NormalizeEmail(email)
	if email == "" {
		return nil, aa.ErrMemberNotFound
	}
	return s.first(ctx, s.query(KindMember).FilterField("lowered_email", "=", email))
}

// FindMemberByAuthenticationID matches any element of the authentications list property.
func (s *MemberStore) FindMemberByAuthenticationID(ctx context.Context, authenticationID string) (*aa.Member, error) {
	if authenticationID == "" {
		return nil, aa.ErrMemberNotFound
	}
	return s.first(ctx, s.query(KindMember).FilterField("authentications", "=", authenticationID))
}

func (s *MemberStore) first(ctx context.Context, query *datastore.Query) (*aa.Member, error) {
	it := s.client.Run(ctx, query.Limit(1))
	var entity MemberEntity
	_, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, aa.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity.ToMember()
}

func (s *MemberStore) SaveMember(ctx context.Context, member *aa.Member) error {
	if member == nil {
		return fmt.Errorf("nil member")
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	key := s.namespacedKey(KindMember, member.ID)
	entity, err := MemberToEntity(member, key)
	if err != nil {
		return err
	}
	_, err = s.client.Put(ctx, key, entity)
	return err
}

// ============================================================================
// ActivityStore
// ============================================================================

// ActivityStore implements activities.Store using Google Cloud Datastore
type ActivityStore struct {
	namespaced
}

func NewActivityStore(client *datastore.Client, namespace string) *ActivityStore {
	return &ActivityStore{namespaced{client: client, namespace: namespace}}
}

func (s *ActivityStore) GetActivity(ctx context.Context, id string) (*activities.Activity, error) {
	var entity ActivityEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindActivity, id), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, activities.ErrActivityNotFound
		}
		return nil, err
	}
	return entity.ToActivity(), nil
}

func (s *ActivityStore) AllActivities(ctx context.Context) ([]*activities.Activity, error) {
	var out []*activities.Activity
	it := s.client.Run(ctx, s.query(KindActivity))
	for {
		var entity ActivityEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entity.ToActivity())
	}
	return out, nil
}

// SaveActivity normalizes the dates and puts the activity.
func (s *ActivityStore) SaveActivity(ctx context.Context, activity *activities.Activity) error {
	if activity == nil {
		return fmt.Errorf("nil activity")
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.NormalizeDates()
	key := s.namespacedKey(KindActivity, activity.ID)
	_, err := s.client.Put(ctx, key, ActivityToEntity(activity, key))
	return err
}
