//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/activities"
)

// AutoMigrate runs database migrations for all member and activity tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&MemberModel{},
		&MemberAuthenticationModel{},
		&ActivityModel{},
	)
}

// =============================================================================
// MemberStore
// =============================================================================

// MemberStore implements agoraauth.MemberStore using GORM
type MemberStore struct {
	db *gorm.DB
}

func NewMemberStore(db *gorm.DB) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) FindMemberByEmail(ctx context.Context, email string) (*aa.Member, error) {
	email = aa.NormalizeEmail(email)
	if email == "" {
		return nil, aa.ErrMemberNotFound
	}
	var model MemberModel
	if err := s.db.WithContext(ctx).First(&model, "lowered_email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return s.withAuthentications(ctx, &model)
}

func (s *MemberStore) FindMemberByAuthenticationID(ctx context.Context, authenticationID string) (*aa.Member, error) {
	if authenticationID == "" {
		return nil, aa.ErrMemberNotFound
	}
	db := s.db.WithContext(ctx)
	var link MemberAuthenticationModel
	if err := db.First(&link, "authentication_id = ?", authenticationID).Error; err != nil {
		return nil, notFound(err)
	}
	var model MemberModel
	if err := db.First(&model, "id = ?", link.MemberID).Error; err != nil {
		return nil, notFound(err)
	}
	return s.withAuthentications(ctx, &model)
}

func (s *MemberStore) GetMemberByID(ctx context.Context, memberID string) (*aa.Member, error) {
	var model MemberModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", memberID).Error; err != nil {
		return nil, notFound(err)
	}
	return s.withAuthentications(ctx, &model)
}

func (s *MemberStore) withAuthentications(ctx context.Context, model *MemberModel) (*aa.Member, error) {
	var auths []MemberAuthenticationModel
	if err := s.db.WithContext(ctx).Where("member_id = ?", model.ID).Order("position").Find(&auths).Error; err != nil {
		return nil, err
	}
	return model.ToMember(auths), nil
}

// SaveMember upserts the member and replaces its authentication links in one transaction.
func (s *MemberStore) SaveMember(ctx context.Context, member *aa.Member) error {
	if member == nil {
		return fmt.Errorf("nil member")
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	model, auths := MemberToModel(member)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", model.ID).Delete(&MemberAuthenticationModel{}).Error; err != nil {
			return err
		}
		if len(auths) > 0 {
			if err := tx.Create(&auths).Error; err != nil {
				return err
			}
		}
		member.CreatedAt = model.CreatedAt
		member.UpdatedAt = model.UpdatedAt
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return aa.ErrMemberNotFound
	}
	return err
}

// =============================================================================
// ActivityStore
// =============================================================================

// ActivityStore implements activities.Store using GORM
type ActivityStore struct {
	db *gorm.DB
}

func NewActivityStore(db *gorm.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) GetActivity(ctx context.Context, id string) (*activities.Activity, error) {
	var model ActivityModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, activities.ErrActivityNotFound
		}
		return nil, err
	}
	return model.ToActivity(), nil
}

func (s *ActivityStore) AllActivities(ctx context.Context) ([]*activities.Activity, error) {
	var models []ActivityModel
	if err := s.db.WithContext(ctx).Order("start_unix").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*activities.Activity, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToActivity())
	}
	return out, nil
}

// SaveActivity normalizes the dates and upserts the activity.
func (s *ActivityStore) SaveActivity(ctx context.Context, activity *activities.Activity) error {
	if activity == nil {
		return fmt.Errorf("nil activity")
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.NormalizeDates()
	return s.db.WithContext(ctx).Save(ActivityToModel(activity)).Error
}
