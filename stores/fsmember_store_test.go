package stores

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aa "github.com/softwerkskammer/agoraauth"
)

func TestFSMemberStore(t *testing.T) {
	ctx := context.Background()
	store := NewFSMemberStore(t.TempDir())

	alice := &aa.Member{Email: "Alice@Example.org", Authentications: []string{"github:1", "Google:2"}}
	require.NoError(t, store.SaveMember(ctx, alice))
	require.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	bob := &aa.Member{ID: "bob", Email: "bob@example.org", Authentications: []string{"UserPassbob@example.org"}}
	require.NoError(t, store.SaveMember(ctx, bob))

	found, err := store.FindMemberByEmail(ctx, " alice@EXAMPLE.org ")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)
	assert.Equal(t, []string{"github:1", "Google:2"}, found.Authentications)

	found, err = store.FindMemberByAuthenticationID(ctx, "Google:2")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	found, err = store.GetMemberByID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.org", found.Email)

	_, err = store.FindMemberByEmail(ctx, "carol@example.org")
	assert.ErrorIs(t, err, aa.ErrMemberNotFound)
	_, err = store.FindMemberByAuthenticationID(ctx, "github:999")
	assert.ErrorIs(t, err, aa.ErrMemberNotFound)
	_, err = store.FindMemberByEmail(ctx, "")
	assert.ErrorIs(t, err, aa.ErrMemberNotFound)
	_, err = store.GetMemberByID(ctx, "nobody")
	assert.ErrorIs(t, err, aa.ErrMemberNotFound)

	require.NoError(t, store.DeleteMember(ctx, "bob"))
	require.NoError(t, store.DeleteMember(ctx, "bob"))
	_, err = store.GetMemberByID(ctx, "bob")
	assert.ErrorIs(t, err, aa.ErrMemberNotFound)
}

func TestFSMemberStoreUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewFSMemberStore(t.TempDir())

	m := &aa.Member{ID: "m1", Email: "m1@example.org"}
	require.NoError(t, store.SaveMember(ctx, m))
	created := m.CreatedAt

	m.Authentications = append(m.Authentications, "github:7")
	require.NoError(t, store.SaveMember(ctx, m))

	found, err := store.FindMemberByAuthenticationID(ctx, "github:7")
	require.NoError(t, err)
	assert.True(t, found.CreatedAt.Equal(created))
}

func TestFSMemberStoreEmptyDirectory(t *testing.T) {
	store := NewFSMemberStore(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := store.FindMemberByEmail(context.Background(), "a@b.de")
	assert.ErrorIs(t, err, aa.ErrMemberNotFound)
}

func TestFSMemberStoreIDCannotEscape(t *testing.T) {
	dir := t.TempDir()
	store := NewFSMemberStore(dir)
	require.NoError(t, store.SaveMember(context.Background(), &aa.Member{ID: "../../evil", Email: "e@x.de"}))

	entries, err := os.ReadDir(filepath.Join(dir, "members"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "%2E.%2F..%2Fevil.json", entries[0].Name())

	got, err := store.GetMemberByID(context.Background(), "../../evil")
	require.NoError(t, err)
	assert.Equal(t, "e@x.de", got.Email)
}

func TestFSMemberStoreIDsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewFSMemberStore(t.TempDir())
	require.NoError(t, store.SaveMember(ctx, &aa.Member{ID: "a", Email: "a@x.de"}))
	require.NoError(t, store.SaveMember(ctx, &aa.Member{ID: "x/a", Email: "xa@x.de"}))

	a, err := store.GetMemberByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a@x.de", a.Email)

	xa, err := store.GetMemberByID(ctx, "x/a")
	require.NoError(t, err)
	assert.Equal(t, "xa@x.de", xa.Email)
}

func TestFSMemberStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := NewFSMemberStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.SaveMember(ctx, &aa.Member{Email: "same@example.org"}))
			_, _ = store.FindMemberByEmail(ctx, "same@example.org")
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(filepath.Join(store.StoragePath, "members"))
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
