//go:build !wasm
// +build !wasm

package gae

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/datastore"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/activities"
)

// MemberEntity is the Datastore entity for members. Key name is the member id
type MemberEntity struct {
	Key             *datastore.Key `datastore:"__key__"`
	Email           string         `datastore:"email,noindex"`
	LoweredEmail    string         `datastore:"lowered_email"`
	Authentications []string       `datastore:"authentications"`
	PasswordHash    string         `datastore:"password_hash,noindex"`
	Profile         []byte         `datastore:"profile,noindex"` // JSON encoded
	CreatedAt       time.Time      `datastore:"created_at"`
	UpdatedAt       time.Time      `datastore:"updated_at"`
}

func (e *MemberEntity) ToMember() (*aa.Member, error) {
	member := &aa.Member{
		ID:              e.Key.Name,
		Email:           e.Email,
		Authentications: e.Authentications,
		PasswordHash:    e.PasswordHash,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if len(e.Profile) > 0 {
		if err := json.Unmarshal(e.Profile, &member.Profile); err != nil {
			return nil, err
		}
	}
	return member, nil
}

func MemberToEntity(m *aa.Member, key *datastore.Key) (*MemberEntity, error) {
	var profile []byte
	if m.Profile != nil {
		var err error
		if profile, err = json.Marshal(m.Profile); err != nil {
			return nil, err
		}
	}
	return &MemberEntity{
		Key:             key,
		Email:           m.Email,
		LoweredEmail:    aa.NormalizeEmail(m.Email),
		Authentications: m.Authentications,
		PasswordHash:    m.PasswordHash,
		Profile:         profile,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

// ActivityEntity is the Datastore entity for activities. Key name is the activity id
type ActivityEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	URL       string         `datastore:"url"`
	Title     string         `datastore:"title,noindex"`
	Location  string         `datastore:"location,noindex"`
	StartDate time.Time      `datastore:"start_date"`
	EndDate   time.Time      `datastore:"end_date"`
	StartUnix int64          `datastore:"start_unix"`
	EndUnix   int64          `datastore:"end_unix"`
}

func (e *ActivityEntity) ToActivity() *activities.Activity {
	return &activities.Activity{
		ID:        e.Key.Name,
		URL:       e.URL,
		Title:     e.Title,
		Location:  e.Location,
		StartDate: e.StartDate.UTC(),
		EndDate:   e.EndDate.UTC(),
		StartUnix: e.StartUnix,
		EndUnix:   e.EndUnix,
	}
}

func ActivityToEntity(a *activities.Activity, key *datastore.Key) *ActivityEntity {
	return &ActivityEntity{
		Key:       key,
		URL:       a.URL,
		Title:     a.Title,
		Location:  a.Location,
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		StartUnix: a.StartUnix,
		EndUnix:   a.EndUnix,
	}
}
