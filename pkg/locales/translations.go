package locales

import (
	i18n "github.com/goliatone/go-i18n"
)

const (
	PortugueseBR = "pt-BR"
	English      = "en"
)

// Message keys shared by the audit trail and the assistant client.
const (
	KeyAuditDetails       = "audit.details"
	KeyExplainUnavailable = "assistant.explain.unavailable"
	KeyExplainFailed      = "assistant.explain.failed"
	KeyAskUnavailable     = "assistant.ask.unavailable"
	KeyAskFailed          = "assistant.ask.failed"
)

// Translations returns the default catalogs. pt-BR mirrors the dashboard copy.
func Translations() i18n.Translations {
	return i18n.Translations{
		PortugueseBR: newCatalog(PortugueseBR, map[string]string{
			KeyAuditDetails:       "Ação %s em %s (%s)",
			KeyExplainUnavailable: "Não foi possível gerar a explicação técnica.",
			KeyExplainFailed:      "Ocorreu um erro na análise de IA. Verifique a conexão.",
			KeyAskUnavailable:     "Peço desculpas, mas não consegui processar sua dúvida agora.",
			KeyAskFailed:          "Assistente temporariamente indisponível.",
		}),
		English: newCatalog(English, map[string]string{
			KeyAuditDetails:       "Action %s on %s (%s)",
			KeyExplainUnavailable: "Could not generate the technical explanation.",
			KeyExplainFailed:      "The AI analysis failed. Check your connection.",
			KeyAskUnavailable:     "Sorry, I could not process your question right now.",
			KeyAskFailed:          "Assistant temporarily unavailable.",
		}),
	}
}

// NewTranslator builds a translator over Translations. Regional variants fall
// back to their base catalog ("en-US" to "en", "pt" to "pt-BR").
func NewTranslator(defaultLocale string) (i18n.Translator, error) {
	if defaultLocale == "" {
		defaultLocale = PortugueseBR
	}
	fallbacks := i18n.NewStaticFallbackResolver()
	fallbacks.Set("pt", PortugueseBR)
	fallbacks.Set("pt-PT", PortugueseBR)
	fallbacks.Set("en-US", English)
	fallbacks.Set("en-GB", English)

	return i18n.NewSimpleTranslator(
		i18n.NewStaticStore(Translations()),
		i18n.WithTranslatorDefaultLocale(defaultLocale),
		i18n.WithTranslatorFallbackResolver(fallbacks),
	)
}

func newCatalog(locale string, entries map[string]string) *i18n.TranslationCatalog {
	catalog := &i18n.TranslationCatalog{
		Locale:   i18n.Locale{Code: locale},
		Messages: make(map[string]i18n.Message),
	}
	for key, template := range entries {
		msg := i18n.Message{}
		msg.SetContent(template)
		catalog.Messages[key] = msg
	}
	return catalog
}
