package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/adapter"
	"content-engine/internal/domain/ports/repository"
	"content-engine/internal/infra/metrics"
)

// Section is one generation unit inside a job's content plan.
type Section struct {
	Title       string
	TargetWords int
}

// Draft is the assembled result of one job before persistence.
type Draft struct {
	Title      string
	Body       string
	WordCount  int
	CostMicros int64
	Sections   int
}

// ContentGenerator drives the provider once (or several times, for the
// multi-agent variant) per section and assembles the final text.
type ContentGenerator interface {
	Generate(ctx context.Context, job *model.GenerationJob) (*Draft, error)
}

// GeneratorDeps is everything a generator variant needs; the factory hands it
// to whichever variant the job requests.
type GeneratorDeps struct {
	AI          adapter.AIServiceAdapter
	Pricing     PricingUseCase
	Progress    repository.ProgressSink
	Model       string
	Temperature float64
	MaxTokens   int
	Log         *zerolog.Logger
}

// NewGenerator selects the variant by the job's generator type.
func NewGenerator(t model.GeneratorType, deps GeneratorDeps) (ContentGenerator, error) {
	core := &generatorCore{deps: deps}
	switch t {
	case model.GeneratorSingleAgent:
		return &singleAgentGenerator{core: core}, nil
	case model.GeneratorMultiAgent:
		return &multiAgentGenerator{core: core}, nil
	default:
		return nil, fmt.Errorf("%w: unknown generator type %q", domain.ErrInvalidArgument, t)
	}
}

const (
	introWords      = 120
	bodyWords       = 300
	conclusionWords = 120
	defaultTarget   = 1000
)

// PlanSections turns a target word count into a fixed templated decomposition:
// introduction, enough ~300-word body sections to cover the budget, conclusion.
func PlanSections(topic string, targetWords int, keywords []string) []Section {
	if targetWords <= 0 {
		targetWords = defaultTarget
	}
	bodyBudget := targetWords - introWords - conclusionWords
	n := bodyBudget / bodyWords
	if n < 1 {
		n = 1
	}

	plan := make([]Section, 0, n+2)
	plan = append(plan, Section{Title: "Introduction", TargetWords: introWords})
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s: Part %d", topic, i+1)
		if i < len(keywords) && keywords[i] != "" {
			title = keywords[i]
		}
		plan = append(plan, Section{Title: title, TargetWords: bodyWords})
	}
	plan = append(plan, Section{Title: "Conclusion", TargetWords: conclusionWords})
	return plan
}

// CountWords is naive whitespace tokenization, matching what the dashboard
// reports.
func CountWords(s string) int { return len(strings.Fields(s)) }

// generatorCore holds the per-section mechanics shared by both variants:
// progress notifications, provider calls, cost accounting.
type generatorCore struct {
	deps GeneratorDeps
}

// callProvider executes one provider call and prices it. Usage falls back to
// local counting when the vendor reports none.
func (c *generatorCore) callProvider(ctx context.Context, system, prompt string) (adapter.CompletionResult, int64, error) {
	start := time.Now()
	res, err := c.deps.AI.Complete(ctx, adapter.CompletionRequest{
		Model:       c.deps.Model,
		System:      system,
		Prompt:      prompt,
		Temperature: c.deps.Temperature,
		MaxTokens:   c.deps.MaxTokens,
	})
	latencyMs := int(time.Since(start) / time.Millisecond)
	if err != nil {
		metrics.ObserveProviderCall(c.deps.AI.Name(), c.deps.Model, 0, 0, 0, latencyMs, false)
		return adapter.CompletionResult{}, 0, err
	}

	if res.PromptTokens == 0 {
		if n, cerr := c.deps.AI.CountTokens(ctx, c.deps.Model, prompt); cerr == nil {
			res.PromptTokens = n
		}
	}
	if res.CompletionTokens == 0 {
		if n, cerr := c.deps.AI.CountTokens(ctx, c.deps.Model, res.Text); cerr == nil {
			res.CompletionTokens = n
		}
	}

	var cost int64
	pricing, perr := c.deps.Pricing.PriceFor(ctx, c.deps.Model)
	if perr != nil {
		// Unpriced models generate at recorded cost zero rather than failing
		// the job; the operator sees the gap in the pricing dashboard.
		c.deps.Log.Warn().Err(perr).Str("model", c.deps.Model).Msg("no pricing for model")
	} else {
		cost = pricing.CostMicros(res.PromptTokens, res.CompletionTokens)
	}

	metrics.ObserveProviderCall(c.deps.AI.Name(), c.deps.Model, res.PromptTokens, res.CompletionTokens, cost, latencyMs, true)
	return res, cost, nil
}

// run walks the plan in order. generateSection produces the final text of one
// section; any section failure aborts the remaining plan.
func (c *generatorCore) run(ctx context.Context, job *model.GenerationJob,
	generateSection func(ctx context.Context, sec Section) (string, int64, error)) (*Draft, error) {

	plan := PlanSections(job.Topic, job.TargetWordCount, job.Keywords)
	c.deps.Progress.Init(ctx, job.ID, job.Topic, job.Category, len(plan))

	var parts []string
	draft := &Draft{Title: job.Topic, Sections: len(plan)}

	for _, sec := range plan {
		c.deps.Progress.StartSection(ctx, job.ID, sec.Title)

		text, cost, err := generateSection(ctx, sec)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sec.Title, err)
		}

		words := CountWords(text)
		draft.WordCount += words
		draft.CostMicros += cost
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", sec.Title, text))

		metrics.IncSectionGenerated()
		c.deps.Progress.CompleteSection(ctx, job.ID, sec.Title, words, cost)
	}

	draft.Body = strings.Join(parts, "\n\n")
	return draft, nil
}

// --- single-agent ---

// singleAgentGenerator issues one prompt per section and concatenates.
type singleAgentGenerator struct {
	core *generatorCore
}

func (g *singleAgentGenerator) Generate(ctx context.Context, job *model.GenerationJob) (*Draft, error) {
	return g.core.run(ctx, job, func(ctx context.Context, sec Section) (string, int64, error) {
		res, cost, err := g.core.callProvider(ctx, writerSystemPrompt(job.Category), sectionPrompt(job, sec))
		if err != nil {
			return "", 0, err
		}
		return res.Text, cost, nil
	})
}

// --- multi-agent ---

// multiAgentGenerator runs research, write, and edit passes per section; each
// later pass receives the earlier passes' output as context.
type multiAgentGenerator struct {
	core *generatorCore
}

func (g *multiAgentGenerator) Generate(ctx context.Context, job *model.GenerationJob) (*Draft, error) {
	return g.core.run(ctx, job, func(ctx context.Context, sec Section) (string, int64, error) {
		var total int64

		research, cost, err := g.core.callProvider(ctx, researcherSystem, researchPrompt(job, sec))
		if err != nil {
			return "", 0, err
		}
		total += cost

		written, cost, err := g.core.callProvider(ctx, writerSystemPrompt(job.Category),
			sectionPrompt(job, sec)+"\n\nResearch notes:\n"+research.Text)
		if err != nil {
			return "", 0, err
		}
		total += cost

		edited, cost, err := g.core.callProvider(ctx, editorSystem, editPrompt(job, sec, written.Text))
		if err != nil {
			return "", 0, err
		}
		total += cost

		return edited.Text, total, nil
	})
}

// --- prompts ---

const researcherSystem = "You are a research assistant. Produce concise, factual bullet-point notes for the requested article section. No prose, no filler."

const editorSystem = "You are a senior editor. Rewrite the draft for clarity and flow, keep the facts, return only the revised section text."

func writerSystemPrompt(category string) string {
	if category == "" {
		category = "general"
	}
	return fmt.Sprintf("You are an expert content writer for the %s domain. Write clear, engaging prose in Markdown. Return only the section body, no heading.", category)
}

func sectionPrompt(job *model.GenerationJob, sec Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %q section of an article about %q (about %d words).", sec.Title, job.Topic, sec.TargetWords)
	if len(job.Keywords) > 0 {
		fmt.Fprintf(&b, " Work in these keywords where natural: %s.", strings.Join(job.Keywords, ", "))
	}
	return b.String()
}

func researchPrompt(job *model.GenerationJob, sec Section) string {
	return fmt.Sprintf("Collect key facts and angles for the %q section of an article about %q.", sec.Title, job.Topic)
}

func editPrompt(job *model.GenerationJob, sec Section, draft string) string {
	return fmt.Sprintf("Article topic: %q. Section: %q. Draft:\n\n%s", job.Topic, sec.Title, draft)
}
