package biz

import (
	"fmt"
	"strings"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/textutil"
)

// systemInstruction fixes the assistant persona. It forbids invented facts
// and requires citations drawn only from the supplied context.
const systemInstruction = "Assistant FAQ karatékas : n'utiliser que les contextes ; " +
	"citer Sources : [#] ; préciser les variations par organisateur ; " +
	"répondre en FR sauf si la question est en anglais ; " +
	"si une info est absente, le dire et proposer un lien ou un contact ; " +
	"jamais d'affirmation sans source."

// noContextNotice is embedded when retrieval produced nothing, so the model
// says so instead of fabricating.
const noContextNotice = "Aucun extrait pertinent n'a été trouvé dans la base. " +
	"Dis-le explicitement et propose où chercher (calendrier des compétitions, " +
	"page de l'organisateur, contact du club)."

// PromptConfig configures prompt assembly.
type PromptConfig struct {
	// DefaultLang is used when the request carries no language hint.
	DefaultLang string
	// MaxBodyChars caps each chunk body embedded in the prompt.
	MaxBodyChars int
	// MaxSources caps the citation list.
	MaxSources int
}

// DefaultPromptConfig returns the default configuration.
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		DefaultLang:  "fr-CA",
		MaxBodyChars: 3800,
		MaxSources:   3,
	}
}

// PromptBuilder renders the system/user message pair for the completion
// backend and derives the citable source list from the ranked chunks.
type PromptBuilder struct {
	config *PromptConfig
}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder(config *PromptConfig) *PromptBuilder {
	if config == nil {
		config = DefaultPromptConfig()
	}
	return &PromptBuilder{config: config}
}

// Build assembles the model input from the question, language hint, and
// ranked chunks. The returned sources are the deduplicated citation targets
// actually offered to the model, at most MaxSources of them.
func (b *PromptBuilder) Build(question, lang string, ranked []model.ScoredChunk) (systemMsg, userMsg string, sources []model.Source) {
	if lang == "" {
		lang = b.config.DefaultLang
	}

	sources = b.collectSources(ranked)

	var sb strings.Builder
	sb.WriteString("Tu es l'assistant FAQ pour karatékas.\n")
	sb.WriteString("- Réponds UNIQUEMENT à partir des contextes ci-dessous ; si une info manque, dis-le et propose où chercher.\n")
	sb.WriteString("- Si une règle varie selon l'organisateur (WKC/WAKO/organisateur local), dis-le explicitement.\n")
	fmt.Fprintf(&sb, "- Langue de réponse : %s (suis la langue de la question si elle diffère).\n", lang)
	sb.WriteString("- Termine par \"Sources : [#,#]\".\n\n")

	fmt.Fprintf(&sb, "Question: %s\n\n", question)

	sb.WriteString("Contextes:\n")
	if len(ranked) == 0 {
		sb.WriteString(noContextNotice)
		sb.WriteString("\n")
	} else {
		for i, sc := range ranked {
			header := sc.Chunk.Title
			if header == "" {
				header = sc.Chunk.Source
			}
			fmt.Fprintf(&sb, "[#%d] %s — %s\n%s\n\n",
				i+1, header, sc.Chunk.URL,
				textutil.TruncateString(sc.Chunk.Text, b.config.MaxBodyChars))
		}
	}

	if len(sources) > 0 {
		sb.WriteString("\nSources autorisées (les seules citables) :\n")
		for i, src := range sources {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, src.URL)
		}
	}

	return systemInstruction, sb.String(), sources
}

// collectSources keeps the first occurrence of each URL, in rank order.
func (b *PromptBuilder) collectSources(ranked []model.ScoredChunk) []model.Source {
	seen := make(map[string]struct{}, len(ranked))
	sources := make([]model.Source, 0, b.config.MaxSources)

	for _, sc := range ranked {
		if sc.Chunk.URL == "" {
			continue
		}
		if _, dup := seen[sc.Chunk.URL]; dup {
			continue
		}
		seen[sc.Chunk.URL] = struct{}{}

		label := sc.Chunk.Source
		if label == "" {
			label = sc.Chunk.URL
		}
		sources = append(sources, model.Source{
			ID:    len(sources) + 1,
			URL:   sc.Chunk.URL,
			Label: label,
			Score: sc.Score,
		})
		if len(sources) == b.config.MaxSources {
			break
		}
	}
	return sources
}
