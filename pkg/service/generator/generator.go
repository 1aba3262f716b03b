// Package generator implements interfaces.AnswerGenerator with a single
// prompt that carries every retrieved context passage.
package generator

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

//go:embed prompt/answer.md
var defaultPromptTmpl string

var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

type generator struct {
	llmClient    gollem.LLMClient
	prompt       *template.Template
	systemPrompt string
}

var _ interfaces.AnswerGenerator = (*generator)(nil)

// Option configures the generator
type Option func(*generator) error

// WithPromptTemplate replaces the built-in prompt. The template receives
// .Question and .Contexts.
func WithPromptTemplate(tmpl string) Option {
	return func(g *generator) error {
		if tmpl == "" {
			return nil
		}
		t, err := template.New("answer").Funcs(funcMap).Parse(tmpl)
		if err != nil {
			return goerr.Wrap(err, "failed to parse answer prompt template")
		}
		g.prompt = t
		return nil
	}
}

// WithSystemPrompt sets a system prompt for each generation session
func WithSystemPrompt(prompt string) Option {
	return func(g *generator) error {
		g.systemPrompt = prompt
		return nil
	}
}

// New creates an AnswerGenerator backed by llmClient
func New(llmClient gollem.LLMClient, opts ...Option) (interfaces.AnswerGenerator, error) {
	g := &generator{
		llmClient: llmClient,
		prompt:    template.Must(template.New("answer").Funcs(funcMap).Parse(defaultPromptTmpl)),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

type promptData struct {
	Question string
	Contexts []string
}

// BuildPrompt renders the prompt sent to the model
func (g *generator) BuildPrompt(question string, contexts []string) (string, error) {
	var buf bytes.Buffer
	if err := g.prompt.Execute(&buf, promptData{Question: question, Contexts: contexts}); err != nil {
		return "", goerr.Wrap(err, "failed to execute answer prompt template")
	}
	return buf.String(), nil
}

// Generate produces one answer grounded in contexts
func (g *generator) Generate(ctx context.Context, question string, contexts []string) (string, error) {
	prompt, err := g.BuildPrompt(question, contexts)
	if err != nil {
		return "", err
	}

	var sessionOpts []gollem.SessionOption
	if g.systemPrompt != "" {
		sessionOpts = append(sessionOpts, gollem.WithSessionSystemPrompt(g.systemPrompt))
	}

	session, err := g.llmClient.NewSession(ctx, sessionOpts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt)})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate answer",
			goerr.V("contexts", len(contexts)))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("empty response from LLM")
	}

	answer := strings.TrimSpace(strings.Join(resp.Texts, ""))
	if answer == "" {
		return "", goerr.New("empty answer from LLM")
	}

	logging.From(ctx).Debug("answer generated",
		"contexts", len(contexts),
		"prompt_len", len(prompt),
		"answer_len", len(answer))

	return answer, nil
}
