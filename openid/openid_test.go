package openid

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openidgo "github.com/yohcop/openid-go"
)

type handled struct {
	claimedID string
	profile   map[string]any
}

func newTestOpenID(calls *[]handled) *OpenID {
	o := NewOpenID("http://localhost/auth/openid/callback", "http://localhost", func(claimedID string, profile map[string]any, w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, handled{claimedID, profile})
		w.WriteHeader(http.StatusNoContent)
	})
	o.RedirectURL = func(id, callbackURL, realm string) (string, error) {
		if id == "https://unknown.example" {
			return "", errors.New("discovery failed")
		}
		return "https://provider.example/auth?openid.claimed_id=" + url.QueryEscape(id) + "&openid.return_to=" + url.QueryEscape(callbackURL), nil
	}
	o.Verify = func(uri string, cache openidgo.DiscoveryCache, nonceStore openidgo.NonceStore) (string, error) {
		u, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		if u.Query().Get("openid.sig") != "valid" {
			return "", errors.New("bad signature")
		}
		return u.Query().Get("openid.claimed_id"), nil
	}
	return o
}

func TestBeginAuth(t *testing.T) {
	var calls []handled
	o := newTestOpenID(&calls)

	w := httptest.NewRecorder()
	o.BeginAuth(w, httptest.NewRequest(http.MethodGet, "/openid?openid_identifier=https://me.yahoo.com", nil))
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "provider.example", location.Host)
	assert.Equal(t, "https://me.yahoo.com", location.Query().Get("openid.claimed_id"))
	assert.Equal(t, sregNS, location.Query().Get("openid.ns.sreg"))
	assert.Equal(t, "email,fullname,nickname", location.Query().Get("openid.sreg.optional"))
}

func TestBeginAuthFailures(t *testing.T) {
	var calls []handled
	o := newTestOpenID(&calls)
	for _, target := range []string{"/openid", "/openid?openid_identifier=https://unknown.example"} {
		w := httptest.NewRecorder()
		o.BeginAuth(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusFound, w.Code, target)
		assert.Equal(t, "/login", w.Header().Get("Location"), target)
	}
}

func TestCompleteAuth(t *testing.T) {
	var calls []handled
	o := newTestOpenID(&calls)

	q := url.Values{
		"openid.mode":          {"id_res"},
		"openid.sig":           {"valid"},
		"openid.claimed_id":    {"https://me.yahoo.com/a/alice"},
		"openid.signed":        {"mode,claimed_id,sreg.email,sreg.fullname"},
		"openid.sreg.email":    {"alice@example.org"},
		"openid.sreg.fullname": {"Alice Example"},
	}
	w := httptest.NewRecorder()
	o.CompleteAuth(w, httptest.NewRequest(http.MethodGet, "/openid/callback?"+q.Encode(), nil))

	require.Len(t, calls, 1)
	assert.Equal(t, "https://me.yahoo.com/a/alice", calls[0].claimedID)
	assert.Equal(t, "Alice Example", calls[0].profile["displayName"])
	assert.Equal(t, []map[string]any{{"value": "alice@example.org"}}, calls[0].profile["emails"])
	assert.NotContains(t, calls[0].profile, "nickname")
}

func TestCompleteAuthIgnoresUnsignedSreg(t *testing.T) {
	var calls []handled
	o := newTestOpenID(&calls)

	q := url.Values{
		"openid.mode":          {"id_res"},
		"openid.sig":           {"valid"},
		"openid.claimed_id":    {"https://me.yahoo.com/a/alice"},
		"openid.signed":        {"mode,claimed_id,sreg.fullname"},
		"openid.sreg.email":    {"mallory@example.org"},
		"openid.sreg.fullname": {"Alice Example"},
	}
	w := httptest.NewRecorder()
	o.CompleteAuth(w, httptest.NewRequest(http.MethodGet, "/openid/callback?"+q.Encode(), nil))

	require.Len(t, calls, 1)
	assert.Equal(t, "Alice Example", calls[0].profile["displayName"])
	assert.NotContains(t, calls[0].profile, "emails")
}

func TestCompleteAuthFailures(t *testing.T) {
	tests := map[string]url.Values{
		"cancelled":     {"openid.mode": {"cancel"}},
		"bad signature": {"openid.mode": {"id_res"}, "openid.sig": {"forged"}, "openid.claimed_id": {"https://x"}},
		"no claimed id": {"openid.mode": {"id_res"}, "openid.sig": {"valid"}},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			var calls []handled
			o := newTestOpenID(&calls)
			w := httptest.NewRecorder()
			o.CompleteAuth(w, httptest.NewRequest(http.MethodGet, "/openid/callback?"+q.Encode(), nil))
			assert.Empty(t, calls)
			assert.Equal(t, "/login", w.Header().Get("Location"))
		})
	}
}
