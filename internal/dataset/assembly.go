package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"syntaxforge/internal/logging"
	"syntaxforge/internal/record"
	"syntaxforge/internal/strategy"
)

// PromptPrefix is prepended to every sentence to form the user turn of a
// training example.
const PromptPrefix = "Analyze this sentence syntactically: "

// Message is one chat turn of a training example.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is one fine-tuning example: a user request and the expected
// assistant analysis as a JSON string.
type Example struct {
	Messages []Message `json:"messages"`
}

// Report accounts for every input row of a build.
type Report struct {
	Total        int // rows read from the source
	Built        int // examples produced
	SkippedEmpty int // rows with no sentence or no tag annotations
	Invalid      int // rows whose tag_info failed to parse
	Filtered     int // rows rejected by quality filters
}

// Builder assembles training examples from a row source by applying one
// strategy engine. Rows are transformed in parallel; output order matches
// input order.
type Builder struct {
	engine  *strategy.Engine
	filters strategy.QualityFilters
	workers int
}

// NewBuilder returns a builder for eng using the definition's quality
// filters. Worker count defaults to GOMAXPROCS.
func NewBuilder(eng *strategy.Engine) *Builder {
	return &Builder{
		engine:  eng,
		filters: eng.Definition().QualityFilters.WithDefaults(),
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers overrides the transform parallelism. Values below one are
// ignored.
func (b *Builder) WithWorkers(n int) *Builder {
	if n >= 1 {
		b.workers = n
	}
	return b
}

// Build reads every row from src and produces training examples in source
// order. Per-row problems are counted in the report, not returned as errors;
// only source and context failures abort the build.
func (b *Builder) Build(ctx context.Context, src Source) ([]Example, Report, error) {
	log := logging.Get(logging.CategoryDataset)
	timer := logging.StartTimer(logging.CategoryDataset, "build")
	defer timer.Stop()

	rows, err := ReadAll(src)
	if err != nil {
		return nil, Report{}, err
	}
	log.Info("building dataset: %d rows, strategy %s, %d workers", len(rows), b.engine.Name(), b.workers)

	outcomes := make([]rowOutcome, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = b.buildRow(rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Report{}, err
	}

	report := Report{Total: len(rows)}
	examples := make([]Example, 0, len(rows))
	for _, out := range outcomes {
		if out.ok {
			examples = append(examples, out.example)
			report.Built++
			continue
		}
		out.skip(&report)
	}

	log.Info("build done: %d built, %d empty, %d invalid, %d filtered",
		report.Built, report.SkippedEmpty, report.Invalid, report.Filtered)
	return examples, report, nil
}

type rowOutcome struct {
	example Example
	ok      bool
	skip    func(*Report)
}

func (b *Builder) buildRow(row Row) (out rowOutcome) {
	sentence := strings.TrimSpace(row.Sentence)
	if sentence == "" {
		out.skip = func(r *Report) { r.SkippedEmpty++ }
		return out
	}

	records, err := record.ParseTagInfo(row.TagInfo)
	if err != nil {
		out.skip = func(r *Report) { r.Invalid++ }
		return out
	}
	if len(records) == 0 {
		out.skip = func(r *Report) { r.SkippedEmpty++ }
		return out
	}

	if !b.passesFilters(sentence, len(records)) {
		out.skip = func(r *Report) { r.Filtered++ }
		return out
	}

	transformed := b.engine.Apply(records)
	if transformed.Chunks == "" || transformed.POSTags == "" || transformed.GrammaticalRoles == "" {
		out.skip = func(r *Report) { r.SkippedEmpty++ }
		return out
	}

	example, err := NewExample(sentence, transformed)
	if err != nil {
		out.skip = func(r *Report) { r.Invalid++ }
		return out
	}
	out.example = example
	out.ok = true
	return out
}

func (b *Builder) passesFilters(sentence string, tagCount int) bool {
	n := utf8.RuneCountInString(sentence)
	if n < b.filters.MinSentenceLength || n > b.filters.MaxSentenceLength {
		return false
	}
	if tagCount < b.filters.MinTagsPerSentence || tagCount > b.filters.MaxTagsPerSentence {
		return false
	}
	return true
}

// NewExample formats one sentence and its transformed analysis as a training
// example. The assistant turn carries the analysis as compact JSON with
// non-ASCII text kept literal.
func NewExample(sentence string, t strategy.TransformedExample) (Example, error) {
	content, err := marshalAnalysis(t)
	if err != nil {
		return Example{}, err
	}
	return Example{
		Messages: []Message{
			{Role: "user", Content: PromptPrefix + sentence},
			{Role: "assistant", Content: content},
		},
	}, nil
}

func marshalAnalysis(t strategy.TransformedExample) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
