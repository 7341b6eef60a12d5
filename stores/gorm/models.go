//go:build !wasm
// +build !wasm

package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/activities"
)

// JSONMap is a helper type for storing JSON maps in GORM
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into JSONMap", value)
}

// MemberModel is the GORM model for members
type MemberModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"size:320"`
	LoweredEmail string    `gorm:"size:320;index"`
	PasswordHash string    `gorm:"size:128"`
	Profile      JSONMap   `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (MemberModel) TableName() string {
	return "members"
}

// MemberAuthenticationModel links one authentication id to a member.
// Position keeps the link order so the first authentication stays first.
type MemberAuthenticationModel struct {
	AuthenticationID string    `gorm:"primaryKey;size:512"`
	MemberID         string    `gorm:"size:64;index"`
	Position         int       `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (MemberAuthenticationModel) TableName() string {
	return "member_authentications"
}

func (m *MemberModel) ToMember(auths []MemberAuthenticationModel) *aa.Member {
	member := &aa.Member{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Profile:      m.Profile,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, a := range auths {
		member.Authentications = append(member.Authentications, a.AuthenticationID)
	}
	return member
}

func MemberToModel(m *aa.Member) (*MemberModel, []MemberAuthenticationModel) {
	model := &MemberModel{
		ID:           m.ID,
		Email:        m.Email,
		LoweredEmail: aa.NormalizeEmail(m.Email),
		PasswordHash: m.PasswordHash,
		Profile:      JSONMap(m.Profile),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	auths := make([]MemberAuthenticationModel, 0, len(m.Authentications))
	for i, id := range m.Authentications {
		auths = append(auths, MemberAuthenticationModel{
			AuthenticationID: id,
			MemberID:         m.ID,
			Position:         i,
		})
	}
	return model, auths
}

// ActivityModel is the GORM model for activities
type ActivityModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	URL       string    `gorm:"size:255;uniqueIndex"`
	Title     string    `gorm:"size:255"`
	Location  string    `gorm:"size:255"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	StartUnix int64     `gorm:"index"`
	EndUnix   int64     `gorm:"index"`
}

func (ActivityModel) TableName() string {
	return "activities"
}

func (m *ActivityModel) ToActivity() *activities.Activity {
	return &activities.Activity{
		ID:        m.ID,
		URL:       m.URL,
		Title:     m.Title,
		Location:  m.Location,
		StartDate: m.StartDate.UTC(),
		EndDate:   m.EndDate.UTC(),
		StartUnix: m.StartUnix,
		EndUnix:   m.EndUnix,
	}
}

func ActivityToModel(a *activities.Activity) *ActivityModel {
	return &ActivityModel{
		ID:        a.ID,
		URL:       a.URL,
		Title:     a.Title,
		Location:  a.Location,
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		StartUnix: a.StartUnix,
		EndUnix:   a.EndUnix,
	}
}
