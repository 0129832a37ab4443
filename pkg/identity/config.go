package identity

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-signdesk/pkg/config"
	"golang.org/x/oauth2"
)

// Connections accepted by LoginURL besides the default username/password flow.
const (
	ConnectionGoogle    = "google-oauth2"
	ConnectionMicrosoft = "windowslive"
)

// Config describes the identity provider tenant.
type Config struct {
	Domain      string
	ClientID    string
	Audience    string
	RedirectURI string
}

// FromConfig maps the module configuration section.
func FromConfig(cfg config.IdentityConfig) Config {
	return Config{
		Domain:      strings.TrimSpace(cfg.Domain),
		ClientID:    strings.TrimSpace(cfg.ClientID),
		Audience:    strings.TrimSpace(cfg.Audience),
		RedirectURI: strings.TrimSpace(cfg.RedirectURI),
	}
}

// DemoMode reports whether the provider is unconfigured. Only the local dev
// session is available then.
func (c Config) DemoMode() bool {
	return c.Domain == "" || c.ClientID == ""
}

// RedirectURIFor returns the configured redirect URI or origin, always with a
// trailing slash since the provider matches it exactly.
func (c Config) RedirectURIFor(origin string) string {
	uri := c.RedirectURI
	if uri == "" {
		uri = origin
	}
	if strings.HasSuffix(uri, "/") {
		return uri
	}
	return uri + "/"
}

// LoginURL builds the authorization request. connection may be empty or one
// of the Connection constants.
func (c Config) LoginURL(origin, state, connection string) string {
	oc := c.oauthConfig(origin)
	opts := []oauth2.AuthCodeOption{}
	if c.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", c.Audience))
	}
	if connection != "" {
		opts = append(opts, oauth2.SetAuthURLParam("connection", connection))
	}
	return oc.AuthCodeURL(state, opts...)
}

// LogoutURL ends the provider session and returns to the redirect URI.
func (c Config) LogoutURL(origin string) string {
	q := url.Values{}
	q.Set("client_id", c.ClientID)
	q.Set("returnTo", c.RedirectURIFor(origin))
	return c.baseURL() + "/v2/logout?" + q.Encode()
}

func (c Config) oauthConfig(origin string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURIFor(origin),
		Scopes:      []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.baseURL() + "/authorize",
			TokenURL: c.baseURL() + "/oauth/token",
		},
	}
}

func (c Config) baseURL() string {
	domain := strings.TrimRight(c.Domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}
