package agoraauth

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config enumerates which strategies are enabled and how they are set up.
// A strategy whose credentials are empty is not registered.
type Config struct {
	// Public URL prefix of the application, used for callback URLs and magic links
	PublicURLPrefix string `env:"PUBLIC_URL_PREFIX" envDefault:"http://localhost:17124"`

	// Path the auth router is mounted at in the host application
	MountPath string `env:"AUTH_MOUNT_PATH" envDefault:"/auth"`

	OpenIDEnabled bool `env:"OPENID_ENABLED" envDefault:"true"`

	GithubClientID     string `env:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `env:"GITHUB_CLIENT_SECRET"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	MagicLinkSecret     string `env:"MAGIC_LINK_SECRET"`
	MagicLinkSigningAlg string `env:"MAGIC_LINK_SIGNING_ALG" envDefault:"HS256"`

	// Where a rejected magic link token is sent
	TokenProblemRedirect string `env:"MAGIC_LINK_PROBLEM_REDIRECT" envDefault:"/"`

	LoginURL       string `env:"LOGIN_URL" envDefault:"/login"`
	LogoutRedirect string `env:"LOGOUT_REDIRECT" envDefault:"/goodbye.html"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing auth config: %w", err)
	}
	return cfg.EnsureDefaults(), nil
}

// EnsureDefaults fills zero valued fields, for configs built in code.
func (c Config) EnsureDefaults() Config {
	if c.PublicURLPrefix == "" {
		c.PublicURLPrefix = "http://localhost:17124"
	}
	c.PublicURLPrefix = strings.TrimSuffix(c.PublicURLPrefix, "/")
	if c.MountPath == "" {
		c.MountPath = "/auth"
	}
	c.MountPath = "/" + strings.Trim(c.MountPath, "/")
	if c.MagicLinkSigningAlg == "" {
		c.MagicLinkSigningAlg = DefaultMagicLinkSigningAlg
	}
	if c.TokenProblemRedirect == "" {
		c.TokenProblemRedirect = "/"
	}
	if c.LoginURL == "" {
		c.LoginURL = "/login"
	}
	if c.LogoutRedirect == "" {
		c.LogoutRedirect = "/goodbye.html"
	}
	return c
}

// CallbackURL is the absolute URL of a strategy's callback route.
func (c Config) CallbackURL(strategy string) string {
	return c.PublicURLPrefix + c.MountPath + "/" + strategy + "/callback"
}

func (c Config) GithubEnabled() bool    { return c.GithubClientID != "" }
func (c Config) GoogleEnabled() bool    { return c.GoogleClientID != "" }
func (c Config) MagicLinkEnabled() bool { return c.MagicLinkSecret != "" }
