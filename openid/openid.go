// Package openid is the OpenID 2.0 login strategy.
//
// The protocol work (discovery, association, signature checks) is done by
// github.com/yohcop/openid-go; this package only adds routing glue and
// simple registration (sreg) profile fields.
package openid

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	openidgo "github.com/yohcop/openid-go"
)

// IdentifierParam is the query parameter carrying the user supplied OpenID identifier.
const IdentifierParam = "openid_identifier"

const sregNS = "http://openid.net/extensions/sreg/1.1"

// HandleUserFunc receives the verified claimed identifier and the sreg profile.
type HandleUserFunc func(claimedID string, profile map[string]any, w http.ResponseWriter, r *http.Request)

// The functions doing the actual protocol work, swappable for tests.
type (
	RedirectURLFunc func(id, callbackURL, realm string) (string, error)
	VerifyFunc      func(uri string, cache openidgo.DiscoveryCache, nonceStore openidgo.NonceStore) (string, error)
)

type OpenID struct {
	// Absolute URL of the callback route
	ReturnURL string

	// Usually the public URL prefix of the site
	Realm string

	HandleUser HandleUserFunc

	// Where failures are redirected. Defaults to "/login"
	AuthFailureUrl string

	RedirectURL RedirectURLFunc
	Verify      VerifyFunc

	discoveryCache openidgo.DiscoveryCache
	nonceStore     openidgo.NonceStore
}

func NewOpenID(returnURL, realm string, handleUser HandleUserFunc) *OpenID {
	return &OpenID{
		ReturnURL:      returnURL,
		Realm:          realm,
		HandleUser:     handleUser,
		AuthFailureUrl: "/login",
		RedirectURL:    openidgo.RedirectURL,
		Verify:         openidgo.Verify,
		discoveryCache: openidgo.NewSimpleDiscoveryCache(),
		nonceStore:     openidgo.NewSimpleNonceStore(),
	}
}

func (o *OpenID) Name() string { return "openid" }

// BeginAuth discovers the provider for the given identifier and redirects there.
func (o *OpenID) BeginAuth(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.FormValue(IdentifierParam))
	if identifier == "" {
		http.Redirect(w, r, o.AuthFailureUrl, http.StatusFound)
		return
	}
	target, err := o.RedirectURL(identifier, o.ReturnURL, o.Realm)
	if err != nil {
		slog.Info("openid discovery failed", "identifier", identifier, "err", err)
		http.Redirect(w, r, o.AuthFailureUrl, http.StatusFound)
		return
	}
	http.Redirect(w, r, withSregRequest(target), http.StatusFound)
}

// CompleteAuth verifies the provider's positive assertion.
func (o *OpenID) CompleteAuth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("openid.mode") != "id_res" {
		http.Redirect(w, r, o.AuthFailureUrl, http.StatusFound)
		return
	}
	fullURL := o.ReturnURL + "?" + r.URL.RawQuery
	claimedID, err := o.Verify(fullURL, o.discoveryCache, o.nonceStore)
	if err != nil || claimedID == "" {
		slog.Info("openid verification failed", "err", err)
		http.Redirect(w, r, o.AuthFailureUrl, http.StatusFound)
		return
	}
	o.HandleUser(claimedID, sregProfile(r.URL.Query()), w, r)
}

func withSregRequest(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("openid.ns.sreg", sregNS)
	q.Set("openid.sreg.optional", "email,fullname,nickname")
	u.RawQuery = q.Encode()
	return u.String()
}

// sregProfile extracts the simple registration fields of an assertion.
// Fields missing from openid.signed are ignored.
func sregProfile(q url.Values) map[string]any {
	signed := map[string]bool{}
	for _, f := range strings.Split(q.Get("openid.signed"), ",") {
		signed[f] = true
	}
	field := func(name string) string {
		if !signed["sreg."+name] {
			return ""
		}
		return q.Get("openid.sreg." + name)
	}

	profile := map[string]any{}
	if v := field("email"); v != "" {
		profile["emails"] = []map[string]any{{"value": v}}
	}
	if v := field("fullname"); v != "" {
		profile["displayName"] = v
	}
	if v := field("nickname"); v != "" {
		profile["nickname"] = v
	}
	return profile
}
