package filestorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-signdesk/pkg/clients/apierror"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"golang.org/x/oauth2"
)

const (
	serviceName = "filestorage"

	TokenKey  = "google_drive_token"
	ExpiryKey = "google_drive_token_expiry"
	UserKey   = "google_drive_user"

	// DefaultState tags the redirect that completes the authorization.
	DefaultState = "google_drive_auth"

	DefaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultUploadURL   = "https://www.googleapis.com/upload/drive/v3/files"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	DefaultScope       = "https://www.googleapis.com/auth/drive.file"
	DefaultDescription = "Documento assinado via SignPlus"

	uploadFailed = "upload to file storage failed"
)

// ErrNotConnected is returned when no unexpired access token is stored.
var ErrNotConnected = apierror.Unauthorized(serviceName, "file storage is not connected")

// Client backs signed files up to the user's cloud drive. The access token
// obtained through the implicit grant lives in the key/value substrate.
type Client struct {
	storage     kv.Storage
	oauth       oauth2.Config
	uploadURL   string
	userInfoURL string
	description string
	client      *http.Client
	timeout     time.Duration
	now         func() time.Time
	logger      logger.Logger
}

type Option func(*Client)

// WithConfig applies the configured OAuth client and endpoints.
func WithConfig(cfg config.FileStorageConfig) Option {
	return func(c *Client) {
		c.oauth.ClientID = firstNonEmpty(cfg.ClientID, c.oauth.ClientID)
		c.oauth.RedirectURL = firstNonEmpty(cfg.RedirectURI, c.oauth.RedirectURL)
		c.oauth.Endpoint.AuthURL = firstNonEmpty(cfg.AuthURL, c.oauth.Endpoint.AuthURL)
		if strings.TrimSpace(cfg.Scope) != "" {
			c.oauth.Scopes = []string{cfg.Scope}
		}
		c.uploadURL = firstNonEmpty(cfg.UploadURL, c.uploadURL)
		c.userInfoURL = firstNonEmpty(cfg.UserInfoURL, c.userInfoURL)
		c.description = firstNonEmpty(cfg.Description, c.description)
		if cfg.Timeout > 0 {
			c.timeout = cfg.Timeout
		}
	}
}

func WithClientID(id string) Option {
	return func(c *Client) {
		c.oauth.ClientID = firstNonEmpty(id, c.oauth.ClientID)
	}
}

func WithRedirectURI(uri string) Option {
	return func(c *Client) {
		c.oauth.RedirectURL = firstNonEmpty(uri, c.oauth.RedirectURL)
	}
}

// WithEndpoints overrides the upload and user info URLs.
func WithEndpoints(uploadURL, userInfoURL string) Option {
	return func(c *Client) {
		c.uploadURL = firstNonEmpty(uploadURL, c.uploadURL)
		c.userInfoURL = firstNonEmpty(userInfoURL, c.userInfoURL)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a client over storage. A nil storage keeps nothing between calls.
func New(storage kv.Storage, l logger.Logger, opts ...Option) *Client {
	if storage == nil {
		storage = &kv.Nop{}
	}
	if l == nil {
		l = &logger.Nop{}
	}
	c := &Client{
		storage: storage,
		oauth: oauth2.Config{
			Endpoint: oauth2.Endpoint{AuthURL: DefaultAuthURL},
			Scopes:   []string{DefaultScope},
		},
		uploadURL:   DefaultUploadURL,
		userInfoURL: DefaultUserInfoURL,
		description: DefaultDescription,
		timeout:     60 * time.Second,
		now:         time.Now,
		logger:      l,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// AuthURL returns the implicit grant authorization URL. An empty state uses
// DefaultState.
func (c *Client) AuthURL(state string) (string, error) {
	if strings.TrimSpace(c.oauth.ClientID) == "" {
		return "", apierror.BadRequest(serviceName, "oauth client id is not configured")
	}
	if strings.TrimSpace(c.oauth.RedirectURL) == "" {
		return "", apierror.BadRequest(serviceName, "redirect uri is not configured")
	}
	return c.oauth.AuthCodeURL(firstNonEmpty(state, DefaultState),
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// CompleteAuthorization stores the token carried by the redirect fragment.
// The fragment state must match state (DefaultState when empty).
func (c *Client) CompleteAuthorization(ctx context.Context, fragment, state string) error {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return apierror.BadRequest(serviceName, "malformed redirect fragment")
	}
	if got := values.Get("state"); got != firstNonEmpty(state, DefaultState) {
		return apierror.BadRequest(serviceName, "authorization state mismatch")
	}
	if msg := values.Get("error"); msg != "" {
		return apierror.Unauthorized(serviceName, "authorization denied: "+msg)
	}
	token := values.Get("access_token")
	if token == "" {
		return apierror.BadRequest(serviceName, "redirect fragment has no access token")
	}
	seconds, err := strconv.ParseInt(values.Get("expires_in"), 10, 64)
	if err != nil || seconds <= 0 {
		return apierror.BadRequest(serviceName, "redirect fragment has no valid expires_in")
	}
	expiry := c.now().Add(time.Duration(seconds) * time.Second).UnixMilli()

	if err := c.storage.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("filestorage: store token: %w", err)
	}
	if err := c.storage.Set(ctx, ExpiryKey, strconv.FormatInt(expiry, 10)); err != nil {
		return fmt.Errorf("filestorage: store expiry: %w", err)
	}
	// A new grant may belong to another account.
	if err := c.storage.Remove(ctx, UserKey); err != nil {
		return fmt.Errorf("filestorage: reset user: %w", err)
	}
	c.logger.Info("file storage connected", logger.F("expires_at", time.UnixMilli(expiry).UTC()))
	return nil
}

// AccessToken returns the stored token while it is unexpired. An expired
// token disconnects the client.
func (c *Client) AccessToken(ctx context.Context) (string, bool, error) {
	token, ok, err := c.storage.Get(ctx, TokenKey)
	if err != nil {
		return "", false, fmt.Errorf("filestorage: read token: %w", err)
	}
	raw, hasExpiry, err := c.storage.Get(ctx, ExpiryKey)
	if err != nil {
		return "", false, fmt.Errorf("filestorage: read expiry: %w", err)
	}
	if !ok || !hasExpiry || token == "" {
		return "", false, nil
	}
	expiry, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || c.now().UnixMilli() > expiry {
		return "", false, c.Disconnect(ctx)
	}
	return token, true, nil
}

func (c *Client) Connected(ctx context.Context) bool {
	_, ok, err := c.AccessToken(ctx)
	return err == nil && ok
}

// Disconnect forgets the token, its expiry and the cached user.
func (c *Client) Disconnect(ctx context.Context) error {
	for _, key := range []string{TokenKey, ExpiryKey, UserKey} {
		if err := c.storage.Remove(ctx, key); err != nil {
			return fmt.Errorf("filestorage: remove %s: %w", key, err)
		}
	}
	return nil
}

// UploadedFile is the drive entry created by an upload.
type UploadedFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// UploadFile stores content as a new drive file.
func (c *Client) UploadFile(ctx context.Context, content []byte, name, mimeType string) (UploadedFile, error) {
	token, ok, err := c.AccessToken(ctx)
	if err != nil {
		return UploadedFile{}, err
	}
	if !ok {
		return UploadedFile{}, ErrNotConnected
	}
	mimeType = firstNonEmpty(mimeType, "application/octet-stream")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	meta, _ := json.Marshal(map[string]string{
		"name":        name,
		"mimeType":    mimeType,
		"description": c.description,
	})
	if err := writePart(writer, `form-data; name="metadata"`, "application/json; charset=UTF-8", meta); err != nil {
		return UploadedFile{}, err
	}
	if err := writePart(writer, fmt.Sprintf(`form-data; name="file"; filename=%q`, name), mimeType, content); err != nil {
		return UploadedFile{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadedFile{}, fmt.Errorf("filestorage: build multipart: %w", err)
	}

	endpoint := c.uploadURL + "?" + url.Values{"uploadType": {"multipart"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("filestorage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out UploadedFile
	if err := c.do(req, &out); err != nil {
		c.logger.Error("file storage upload failed", logger.F("name", name), logger.F("error", err))
		return UploadedFile{}, err
	}
	return out, nil
}

// UserInfo describes the connected account.
type UserInfo struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// UserInfo returns the connected account, fetched once and cached in storage.
func (c *Client) UserInfo(ctx context.Context) (UserInfo, error) {
	token, ok, err := c.AccessToken(ctx)
	if err != nil {
		return UserInfo{}, err
	}
	if !ok {
		return UserInfo{}, ErrNotConnected
	}
	if raw, cached, err := c.storage.Get(ctx, UserKey); err == nil && cached {
		var info UserInfo
		if json.Unmarshal([]byte(raw), &info) == nil {
			return info, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("filestorage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var info UserInfo
	if err := c.do(req, &info); err != nil {
		return UserInfo{}, err
	}
	if raw, err := json.Marshal(info); err == nil {
		if err := c.storage.Set(ctx, UserKey, string(raw)); err != nil {
			c.logger.Warn("file storage user not cached", logger.F("error", err))
		}
	}
	return info, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return apierror.Network(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.Network(serviceName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &failure)
		message := failure.Error.Message
		if message == "" && req.Method == http.MethodPost {
			message = uploadFailed
		}
		return apierror.FromStatus(serviceName, resp.StatusCode, message, "")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierror.Decode(serviceName, resp.StatusCode, err)
	}
	return nil
}

func writePart(w *multipart.Writer, disposition, contentType string, data []byte) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", disposition)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("filestorage: build multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("filestorage: build multipart: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
