package agoraauth_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/stores"
)

const testSecret = "magic-secret"

type sentMail struct {
	Email string
	Token string
}

// recordingMailer remembers every magic link instead of sending it
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendMagicLink(ctx context.Context, member *aa.Member, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{Email: member.Email, Token: token})
	return nil
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// brokenDirectory fails every lookup like an unreachable database
type brokenDirectory struct{}

var errDirectoryDown = errors.New("connection refused")

func (brokenDirectory) FindMemberByEmail(ctx context.Context, email string) (*aa.Member, error) {
	return nil, errDirectoryDown
}

func (brokenDirectory) FindMemberByAuthenticationID(ctx context.Context, id string) (*aa.Member, error) {
	return nil, errDirectoryDown
}

// newMemberStore creates a file store with one member: alice@example.org, password "secret"
func newMemberStore(t *testing.T) *stores.FSMemberStore {
	t.Helper()
	store := stores.NewFSMemberStore(t.TempDir())
	alice := &aa.Member{
		ID:              "alice",
		Email:           "Alice@Example.org",
		Authentications: []string{"github:4711", "Google:0815"},
	}
	if err := alice.SetPassword("secret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := store.SaveMember(context.Background(), alice); err != nil {
		t.Fatalf("SaveMember: %v", err)
	}
	return store
}

// testApp runs the auth router plus two probe pages behind a session middleware
type testApp struct {
	Server   *httptest.Server
	Client   *http.Client
	Auth     *aa.Auth
	Sessions *scs.SessionManager
	Mailer   *recordingMailer
	Members  *stores.FSMemberStore
}

func newTestApp(t *testing.T, cfg aa.Config) *testApp {
	t.Helper()
	app := &testApp{
		Sessions: scs.New(),
		Mailer:   &recordingMailer{},
		Members:  newMemberStore(t),
	}
	auth, err := aa.NewRouter(cfg, aa.Dependencies{
		Directory: app.Members,
		Sessions:  app.Sessions,
		Mailer:    app.Mailer,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	app.Auth = auth

	mux := http.NewServeMux()
	auth.MountOn(mux)
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, app.Sessions.GetString(r.Context(), aa.SessionKeyAuthenticationID))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if msg, ok := aa.PopStatusMessage(r.Context(), app.Sessions); ok {
			io.WriteString(w, string(msg.Kind)+"|"+msg.Title)
		}
	})
	app.Server = httptest.NewServer(app.Sessions.LoadAndSave(mux))
	t.Cleanup(app.Server.Close)

	jar, _ := cookiejar.New(nil)
	app.Client = &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app
}

func (a *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.Client.Get(a.Server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) body(t *testing.T, path string) string {
	t.Helper()
	data, err := io.ReadAll(a.get(t, path).Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.TrimSpace(string(data))
}

func magicLinkConfig() aa.Config {
	return aa.Config{MagicLinkSecret: testSecret}
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected status 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Errorf("expected redirect to %q, got %q", location, got)
	}
}
