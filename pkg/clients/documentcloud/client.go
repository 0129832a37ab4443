package documentcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-signdesk/pkg/clients/apierror"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/jaytaylor/html2text"
)

const (
	serviceName = "documentcloud"

	DefaultBaseURL = "https://api.assinafy.com.br/v1"
	DefaultMessage = "Assinatura solicitada via SignPlus Cloud."

	maxExcerpt = 200
)

// Client talks to the remote document-signing workflow API.
type Client struct {
	baseURL        string
	defaultMessage string
	credentials    CredentialSource
	client         *http.Client
	timeout        time.Duration
	logger         logger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if strings.TrimSpace(u) != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCredentials sets the source consulted before every request.
func WithCredentials(src CredentialSource) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

// WithAPIKey is shorthand for static API key credentials.
func WithAPIKey(key string) Option {
	return WithCredentials(StaticCredentials{APIKey: key})
}

func WithDefaultMessage(msg string) Option {
	return func(c *Client) {
		if strings.TrimSpace(msg) != "" {
			c.defaultMessage = msg
		}
	}
}

// New builds the client. Without credentials every call fails with an
// Unauthorized error before any request is sent.
func New(l logger.Logger, opts ...Option) *Client {
	if l == nil {
		l = &logger.Nop{}
	}
	c := &Client{
		baseURL:        DefaultBaseURL,
		defaultMessage: DefaultMessage,
		timeout:        30 * time.Second,
		logger:         l,
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

// File is an upload payload.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Document is a document registered in the remote workflow.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SignerInput describes a signer to register.
type SignerInput struct {
	FullName string
	Email    string
	WhatsApp string
}

// Signer is a registered signer.
type Signer struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Assignment links a document to its signers.
type Assignment struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id,omitempty"`
	Method     string `json:"method,omitempty"`
	Status     string `json:"status,omitempty"`
}

// UploadDocument sends a file as the multipart "file" field.
func (c *Client) UploadDocument(ctx context.Context, accountID string, file File) (Document, error) {
	if strings.TrimSpace(accountID) == "" {
		return Document{}, apierror.BadRequest(serviceName, "account id is required")
	}
	if len(file.Content) == 0 || strings.TrimSpace(file.Name) == "" {
		return Document{}, apierror.BadRequest(serviceName, "file is required")
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": file.Name}))
	header.Set("Content-Type", firstNonEmpty(file.ContentType, "application/octet-stream"))
	part, err := writer.CreatePart(header)
	if err != nil {
		return Document{}, fmt.Errorf("documentcloud: build multipart: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return Document{}, fmt.Errorf("documentcloud: build multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Document{}, fmt.Errorf("documentcloud: build multipart: %w", err)
	}

	var doc Document
	err = c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountID)+"/documents", payload{
		body:        body,
		contentType: writer.FormDataContentType(),
	}, &doc)
	return doc, err
}

// CreateSigner registers a signer on the account.
func (c *Client) CreateSigner(ctx context.Context, accountID string, input SignerInput) (Signer, error) {
	if strings.TrimSpace(accountID) == "" {
		return Signer{}, apierror.BadRequest(serviceName, "account id is required")
	}
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.Email) == "" {
		return Signer{}, apierror.BadRequest(serviceName, "signer name and email are required")
	}
	req := map[string]any{
		"full_name": input.FullName,
		"email":     input.Email,
	}
	if strings.TrimSpace(input.WhatsApp) != "" {
		req["whatsapp_phone_number"] = input.WhatsApp
	}
	var signer Signer
	err := c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountID)+"/signers", jsonPayload(req), &signer)
	return signer, err
}

// CreateAssignment requests virtual signatures from signerIDs on a document.
// An empty message uses the default one.
func (c *Client) CreateAssignment(ctx context.Context, documentID string, signerIDs []string, message string) (Assignment, error) {
	if strings.TrimSpace(documentID) == "" {
		return Assignment{}, apierror.BadRequest(serviceName, "document id is required")
	}
	if len(signerIDs) == 0 {
		return Assignment{}, apierror.BadRequest(serviceName, "at least one signer is required")
	}
	req := map[string]any{
		"method":    "virtual",
		"signerIds": signerIDs,
		"message":   firstNonEmpty(message, c.defaultMessage),
	}
	var assignment Assignment
	err := c.do(ctx, http.MethodPost, "/documents/"+url.PathEscape(documentID)+"/assignments", jsonPayload(req), &assignment)
	return assignment, err
}

// Invite registers the signer on the account and asks them to sign
// documentID. A signer created without an id is reported as a decode error.
func (c *Client) Invite(ctx context.Context, accountID, documentID string, input SignerInput, message string) (Signer, Assignment, error) {
	if strings.TrimSpace(documentID) == "" {
		return Signer{}, Assignment{}, apierror.BadRequest(serviceName, "document id is required")
	}
	signer, err := c.CreateSigner(ctx, accountID, input)
	if err != nil {
		return Signer{}, Assignment{}, err
	}
	if signer.ID == "" {
		return signer, Assignment{}, apierror.Decode(serviceName, http.StatusOK, fmt.Errorf("signer response has no id"))
	}
	assignment, err := c.CreateAssignment(ctx, documentID, []string{signer.ID}, message)
	if err != nil {
		return signer, Assignment{}, err
	}
	return signer, assignment, nil
}

// ListDocuments lists the account documents, optionally filtered by status.
func (c *Client) ListDocuments(ctx context.Context, accountID, status string) ([]Document, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apierror.BadRequest(serviceName, "account id is required")
	}
	path := "/accounts/" + url.PathEscape(accountID) + "/documents"
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}
	docs := []Document{}
	err := c.do(ctx, http.MethodGet, path, payload{}, &docs)
	return docs, err
}

type payload struct {
	body        io.Reader
	contentType string
}

func jsonPayload(v any) payload {
	raw, _ := json.Marshal(v)
	return payload{body: bytes.NewReader(raw), contentType: "application/json"}
}

// envelope covers both bare and {data: ...} wrapped responses.
type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, p payload, out any) error {
	if c.credentials == nil {
		return apierror.Unauthorized(serviceName, "no credentials configured")
	}
	creds, err := c.credentials.Credentials(ctx)
	if err != nil {
		return &apierror.Error{Service: serviceName, Kind: apierror.KindUnauthorized, Message: "credentials unavailable", Err: err}
	}
	if creds.empty() {
		return apierror.Unauthorized(serviceName, "no credentials configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, p.body)
	if err != nil {
		return fmt.Errorf("documentcloud: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}
	if strings.TrimSpace(creds.APIKey) != "" {
		req.Header.Set("X-Api-Key", creds.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("documentcloud request failed",
			logger.F("method", method),
			logger.F("path", path),
			logger.F("credential", secrets.Mask(creds.APIKey)),
			logger.F("error", err),
		)
		return apierror.Network(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.Network(serviceName, err)
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return apierror.FromStatus(serviceName, status,
			fmt.Sprintf("non-JSON response received (HTTP %d)", resp.StatusCode),
			excerpt(raw))
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 400 {
			// Top-level arrays are valid successful payloads.
			if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
				return apierror.Decode(serviceName, resp.StatusCode, err)
			}
		}
	}

	status := resp.StatusCode
	if embedded := embeddedStatus(env.Status); embedded != 0 {
		status = embedded
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || status >= 400 {
		msg := firstNonEmpty(env.Message, errorText(env.Error))
		c.logger.Warn("documentcloud request rejected",
			logger.F("method", method),
			logger.F("path", path),
			logger.F("status", status),
		)
		if apierror.KindForStatus(status) == apierror.KindUnauthorized {
			return apierror.FromStatus(serviceName, status, "authentication failed, check that the API key is valid for this environment", msg)
		}
		return apierror.FromStatus(serviceName, status, msg, "")
	}

	if out == nil {
		return nil
	}
	body := raw
	if len(env.Data) > 0 && string(env.Data) != "null" {
		body = env.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apierror.Decode(serviceName, resp.StatusCode, err)
	}
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func embeddedStatus(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

func excerpt(raw []byte) string {
	text, err := html2text.FromString(string(raw))
	if err != nil {
		text = string(raw)
	}
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > maxExcerpt {
		text = string(runes[:maxExcerpt]) + "..."
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
