// Command agora-auth serves the authentication routes on top of a minimal host page.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/caarlos0/env/v11"

	aa "github.com/softwerkskammer/agoraauth"
	"github.com/softwerkskammer/agoraauth/internal/backend"
	"github.com/softwerkskammer/agoraauth/mailer"
)

type serverConfig struct {
	Addr           string        `env:"LISTEN_ADDR" envDefault:":17124"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"24h"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("agora-auth failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := aa.LoadConfig()
	if err != nil {
		return err
	}
	backendCfg, err := backend.LoadConfig()
	if err != nil {
		return err
	}
	var srvCfg serverConfig
	if err := env.Parse(&srvCfg); err != nil {
		return fmt.Errorf("parsing server config: %w", err)
	}

	logger := backend.NewLogger(backendCfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}

	sessions := scs.New()
	sessions.Lifetime = srvCfg.SessionTimeout
	sessions.Cookie.Secure = srvCfg.SecureCookies

	auth, err := aa.NewRouter(cfg, aa.Dependencies{
		Directory: stores.Members,
		Sessions:  sessions,
		Mailer:    sender,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	auth.MountOn(mux)
	mw := auth.Middleware()
	mux.Handle("/", mw.ExtractPrincipal(homePage(sessions)))
	mux.Handle("/goodbye.html", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Bis bald!")
	}))

	httpServer := &http.Server{
		Addr:         srvCfg.Addr,
		Handler:      sessions.LoadAndSave(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("agora-auth listening", "addr", srvCfg.Addr, "strategies", auth.Strategies())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newSender(cfg aa.Config) (aa.MagicLinkSender, error) {
	var mailCfg mailer.Config
	if err := env.Parse(&mailCfg); err != nil {
		return nil, fmt.Errorf("parsing mail config: %w", err)
	}
	if mailCfg.PostmarkServerToken == "" {
		return &aa.ConsoleEmailSender{CallbackURL: cfg.CallbackURL("magiclink")}, nil
	}
	mailCfg.CallbackURL = cfg.CallbackURL("magiclink")
	return mailer.NewPostmarkSender(mailCfg)
}

func homePage(sessions *scs.SessionManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if msg, ok := aa.PopStatusMessage(r.Context(), sessions); ok {
			fmt.Fprintf(w, "[%s] %s: %s\n", msg.Kind, msg.Title, msg.Text)
		}
		if id := aa.AuthenticationIDFromContext(r.Context()); id != "" {
			fmt.Fprintf(w, "Logged in as %s\n", id)
			return
		}
		fmt.Fprintln(w, "Not logged in")
	})
}
