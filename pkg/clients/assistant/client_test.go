package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/locales"
)

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithBaseURL(server.URL), WithHTTPClient(server.Client())}
	client, err := New(&logger.Nop{}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestExplainValidationRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/"+DefaultExplainModel+":generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "gem-key" {
			t.Errorf("missing api key header")
		}
		var body generateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		prompt := body.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "contrato.pdf") || !strings.Contains(prompt, `"status":"VALID"`) {
			t.Errorf("prompt missing inputs: %s", prompt)
		}
		if body.GenerationConfig == nil || body.GenerationConfig.ThinkingConfig.ThinkingBudget != DefaultThinkingBudget {
			t.Errorf("expected thinking budget")
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Documento "},{"text":"válido."}]}}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, WithAPIKey("gem-key"))
	got := client.ExplainValidation(context.Background(), "contrato.pdf", map[string]string{"status": "VALID"})
	if got != "Documento válido." {
		t.Fatalf("unexpected explanation %q", got)
	}
}

func TestAskAssistantUsesFlashModelWithoutThinking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, DefaultAssistantModel) {
			t.Errorf("unexpected model path %s", r.URL.Path)
		}
		var body generateRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.GenerationConfig != nil {
			t.Errorf("ask must not send a thinking budget")
		}
		if !strings.Contains(body.Contents[0].Parts[0].Text, "Pergunta do usuário: Por que recebo 401?") {
			t.Errorf("question missing from prompt")
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Verifique a chave."}]}}]}`)
	}))
	defer server.Close()

	got := newTestClient(t, server, WithAPIKey("k")).AskAssistant(context.Background(), "Por que recebo 401?")
	if got != "Verifique a chave." {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestFallbacks(t *testing.T) {
	status := http.StatusOK
	body := `{"candidates":[]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()
	ctx := context.Background()

	client := newTestClient(t, server, WithAPIKey("k"))
	if got := client.ExplainValidation(ctx, "a.pdf", nil); got != "Não foi possível gerar a explicação técnica." {
		t.Fatalf("unexpected empty explain fallback %q", got)
	}
	if got := client.AskAssistant(ctx, "oi"); got != "Peço desculpas, mas não consegui processar sua dúvida agora." {
		t.Fatalf("unexpected empty ask fallback %q", got)
	}

	status, body = http.StatusInternalServerError, `{"error":{"message":"boom"}}`
	if got := client.ExplainValidation(ctx, "a.pdf", nil); got != "Ocorreu um erro na análise de IA. Verifique a conexão." {
		t.Fatalf("unexpected failed explain fallback %q", got)
	}

	english := newTestClient(t, server, WithAPIKey("k"), WithTranslator(nil, locales.English))
	if got := english.AskAssistant(ctx, "hi"); got != "Assistant temporarily unavailable." {
		t.Fatalf("unexpected english fallback %q", got)
	}
}

func TestMissingKeyFallsBackWithoutRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	got := newTestClient(t, server).AskAssistant(context.Background(), "oi")
	if got != "Assistente temporariamente indisponível." {
		t.Fatalf("unexpected fallback %q", got)
	}
	if called {
		t.Fatalf("request sent without api key")
	}
}
