// Package agoraauth wires the login methods of the community platform into HTTP routes.
//
// The supported strategies are OpenID 2.0, GitHub OAuth2, Google OpenID-Connect,
// emailed magic links and email/password. The protocol work is delegated to
// libraries; this package supplies configuration, callback glue, session and
// cookie bookkeeping and redirects.
//
// # Basic Usage
//
// Load the configuration, pick a member store and a session manager:
//
//	cfg, err := agoraauth.LoadConfig()
//	members := stores.NewFSMemberStore("/path/to/storage")
//	sessions := scs.New()
//
// Build the router. Only strategies with credentials in cfg are registered:
//
//	auth, err := agoraauth.NewRouter(cfg, agoraauth.Dependencies{
//	    Directory: members,
//	    Sessions:  sessions,
//	    Mailer:    &agoraauth.ConsoleEmailSender{CallbackURL: cfg.CallbackURL("magiclink")},
//	})
//	mux := http.NewServeMux()
//	auth.MountOn(mux) // routes live under /auth
//	http.ListenAndServe(":17124", sessions.LoadAndSave(mux))
//
// # Routes
//
// Each strategy gets GET /<name> to start and GET /<name>/callback to finish,
// for <name> in openid, github, openidconnect and magiclink. The start route
// stores the returnTo parameter in the session and the loginChoice cookie.
// Additionally GET /magiclinkmail requests a magic link, POST /login checks
// email and password and GET /logout ends the session.
//
// # Magic Links
//
// A magic link carries an HS256 JWT with the member's first authentication id
// and a 30 minute expiry. Tokens are verified by signature and expiry only and
// are not consumed on use. Every rejected token ends in the same redirect.
package agoraauth
