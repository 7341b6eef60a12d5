package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	aa "github.com/softwerkskammer/agoraauth"
)

// FSMemberStore stores members as JSON files under <StoragePath>/members.
// Lookups by email or authentication id scan the directory.
type FSMemberStore struct {
	StoragePath string

	mu sync.RWMutex
}

func NewFSMemberStore(storagePath string) *FSMemberStore {
	return &FSMemberStore{StoragePath: storagePath}
}

func (s *FSMemberStore) membersDir() string {
	return filepath.Join(s.StoragePath, "members")
}

func (s *FSMemberStore) getMemberPath(memberID string) string {
	return filepath.Join(s.membersDir(), safeFileName(memberID)+".json")
}

// GetMemberByID loads a member by its id.
func (s *FSMemberStore) GetMemberByID(ctx context.Context, memberID string) (*aa.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.getMemberPath(memberID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, aa.ErrMemberNotFound
		}
		return nil, err
	}
	var member aa.Member
	if err := json.Unmarshal(data, &member); err != nil {
		return nil, fmt.Errorf("decoding member %s: %w", memberID, err)
	}
	return &member, nil
}

func (s *FSMemberStore) FindMemberByEmail(ctx context.Context, email string) (*aa.Member, error) {
	email = aa.NormalizeEmail(email)
	if email == "" {
		return nil, aa.ErrMemberNotFound
	}
	return s.findMember(ctx, func(m *aa.Member) bool {
		return aa.NormalizeEmail(m.Email) == email
	})
}

func (s *FSMemberStore) FindMemberByAuthenticationID(ctx context.Context, authenticationID string) (*aa.Member, error) {
	if authenticationID == "" {
		return nil, aa.ErrMemberNotFound
	}
	return s.findMember(ctx, func(m *aa.Member) bool {
		return m.HasAuthentication(authenticationID)
	})
}

func (s *FSMemberStore) findMember(ctx context.Context, match func(*aa.Member) bool) (*aa.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *aa.Member
	err := readJSONFiles(s.membersDir(), func(m *aa.Member) bool {
		if ctx.Err() != nil {
			return false
		}
		if match(m) {
			found = m
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, aa.ErrMemberNotFound
	}
	return found, nil
}

// SaveMember writes the member, assigning an id and timestamps when missing.
func (s *FSMemberStore) SaveMember(ctx context.Context, member *aa.Member) error {
	if member == nil {
		return fmt.Errorf("nil member")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	return writeJSONFile(s.getMemberPath(member.ID), member)
}

// DeleteMember removes a member. Deleting an unknown member is not an error.
func (s *FSMemberStore) DeleteMember(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.getMemberPath(memberID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
