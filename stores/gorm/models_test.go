//go:build !wasm
// +build !wasm

package gorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/activities"
)

func TestMemberModelRoundTrip(t *testing.T) {
	member := &aa.Member{
		ID:              "m1",
		Email:           "Alice@Example.org",
		Authentications: []string{"github:1", "Google:2"},
		Profile:         map[string]any{"nickname": "alice"},
	}
	model, auths := MemberToModel(member)
	assert.Equal(t, "alice@example.org", model.LoweredEmail)
	require.Len(t, auths, 2)
	assert.Equal(t, 0, auths[0].Position)
	assert.Equal(t, "Google:2", auths[1].AuthenticationID)
	assert.Equal(t, "m1", auths[1].MemberID)

	back := model.ToMember(auths)
	assert.Equal(t, member.Authentications, back.Authentications)
	assert.Equal(t, member.Email, back.Email)
	assert.Equal(t, "alice", back.Profile["nickname"])
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"a":1}`)))
	assert.Equal(t, float64(1), m["a"])
	require.NoError(t, m.Scan(`{"b":true}`))
	assert.Equal(t, true, m["b"])
	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
	assert.Error(t, m.Scan(42))

	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestActivityModel(t *testing.T) {
	a := &activities.Activity{ID: "x", URL: "x", StartDate: time.Unix(100, 0), EndDate: time.Unix(200, 0)}
	a.NormalizeDates()
	back := ActivityToModel(a).ToActivity()
	assert.Equal(t, a.StartUnix, back.StartUnix)
	assert.True(t, a.EndDate.Equal(back.EndDate))
}
