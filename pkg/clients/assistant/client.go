package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-i18n"
	"github.com/goliatone/go-signdesk/pkg/clients/apierror"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/locales"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	gotemplate "github.com/goliatone/go-template"
)

const (
	serviceName = "assistant"

	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultExplainModel   = "gemini-3-pro-preview"
	DefaultAssistantModel = "gemini-3-flash-preview"
	DefaultThinkingBudget = 2000
)

// Client asks the generative model to explain validation results and answer
// user questions. Its operations never fail: every error becomes a localized
// fallback text.
type Client struct {
	baseURL        string
	explainModel   string
	assistantModel string
	thinkingBudget int
	resolver       secrets.Resolver
	userID         string
	renderer       *gotemplate.Engine
	translator     i18n.Translator
	locale         string
	client         *http.Client
	timeout        time.Duration
	logger         logger.Logger
}

type Option func(*Client)

func WithConfig(cfg config.AssistantConfig) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(firstNonEmpty(cfg.BaseURL, c.baseURL), "/")
		c.explainModel = firstNonEmpty(cfg.ExplainModel, c.explainModel)
		c.assistantModel = firstNonEmpty(cfg.AssistantModel, c.assistantModel)
		if cfg.ThinkingBudget > 0 {
			c.thinkingBudget = cfg.ThinkingBudget
		}
		if cfg.Timeout > 0 {
			c.timeout = cfg.Timeout
		}
	}
}

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(firstNonEmpty(u, c.baseURL), "/")
	}
}

// WithResolver resolves the API key per call, userID's own key first.
func WithResolver(resolver secrets.Resolver, userID string) Option {
	return func(c *Client) {
		c.resolver = resolver
		c.userID = userID
	}
}

// WithAPIKey uses a fixed system key.
func WithAPIKey(key string) Option {
	provider := secrets.NewStaticProvider(map[secrets.Reference]secrets.SecretValue{
		secrets.SystemRef(secrets.ServiceAssistant, secrets.KeyAPIKey): {Data: []byte(key)},
	})
	return WithResolver(secrets.NewVault(provider, nil, 0), "")
}

// WithTranslator localizes the fallback texts.
func WithTranslator(t i18n.Translator, locale string) Option {
	return func(c *Client) {
		if t != nil {
			c.translator = t
		}
		c.locale = firstNonEmpty(locale, c.locale)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func New(l logger.Logger, opts ...Option) (*Client, error) {
	if l == nil {
		l = &logger.Nop{}
	}
	c := &Client{
		baseURL:        DefaultBaseURL,
		explainModel:   DefaultExplainModel,
		assistantModel: DefaultAssistantModel,
		thinkingBudget: DefaultThinkingBudget,
		locale:         locales.PortugueseBR,
		timeout:        60 * time.Second,
		logger:         l,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.translator == nil {
		translator, err := locales.NewTranslator(c.locale)
		if err != nil {
			return nil, fmt.Errorf("assistant: translator: %w", err)
		}
		c.translator = translator
	}
	renderer, err := gotemplate.NewRenderer(gotemplate.WithBaseDir("."))
	if err != nil {
		return nil, fmt.Errorf("assistant: renderer: %w", err)
	}
	c.renderer = renderer
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// ExplainValidation describes the legal standing of a validation result.
func (c *Client) ExplainValidation(ctx context.Context, document string, result any) string {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("assistant explain failed", logger.F("error", err))
		return c.text(locales.KeyExplainFailed)
	}
	prompt, err := c.renderer.RenderString(explainPrompt, map[string]any{
		"document": document,
		"result":   string(raw),
	})
	if err != nil {
		c.logger.Error("assistant explain failed", logger.F("error", err))
		return c.text(locales.KeyExplainFailed)
	}
	answer, err := c.generate(ctx, c.explainModel, prompt, c.thinkingBudget)
	switch {
	case err != nil:
		c.logger.Error("assistant explain failed", logger.F("model", c.explainModel), logger.F("error", err))
		return c.text(locales.KeyExplainFailed)
	case answer == "":
		return c.text(locales.KeyExplainUnavailable)
	}
	return answer
}

// AskAssistant answers a technical question about signatures and the
// document-cloud integration. extra is appended to the prompt context.
func (c *Client) AskAssistant(ctx context.Context, question string, extra ...string) string {
	prompt, err := c.renderer.RenderString(askPrompt, map[string]any{
		"question": question,
		"context":  strings.Join(extra, " "),
	})
	if err != nil {
		c.logger.Error("assistant ask failed", logger.F("error", err))
		return c.text(locales.KeyAskFailed)
	}
	answer, err := c.generate(ctx, c.assistantModel, prompt, 0)
	switch {
	case err != nil:
		c.logger.Error("assistant ask failed", logger.F("model", c.assistantModel), logger.F("error", err))
		return c.text(locales.KeyAskFailed)
	case answer == "":
		return c.text(locales.KeyAskUnavailable)
	}
	return answer
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	ThinkingConfig *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generate(ctx context.Context, model, prompt string, budget int) (string, error) {
	key, _, err := secrets.Lookup(ctx, c.resolver, secrets.Candidates(c.userID, secrets.ServiceAssistant, secrets.KeyAPIKey)...)
	if errors.Is(err, secrets.ErrNotFound) {
		return "", apierror.Unauthorized(serviceName, "no api key configured")
	}
	if err != nil {
		return "", err
	}

	body := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}
	if budget > 0 {
		body.GenerationConfig = &generationConfig{ThinkingConfig: &thinkingConfig{ThinkingBudget: budget}}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	endpoint := c.baseURL + "/models/" + url.PathEscape(model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("assistant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", string(key.Data))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apierror.Network(serviceName, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierror.Network(serviceName, err)
	}

	var out generateResponse
	decodeErr := json.Unmarshal(payload, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", apierror.FromStatus(serviceName, resp.StatusCode, msg, "")
	}
	if decodeErr != nil {
		return "", apierror.Decode(serviceName, resp.StatusCode, decodeErr)
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}
	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

func (c *Client) text(key string) string {
	msg, err := c.translator.Translate(c.locale, key)
	if err != nil || msg == "" {
		return key
	}
	return msg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
