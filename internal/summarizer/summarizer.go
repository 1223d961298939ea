package summarizer

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mohammad-safakhou/researcher/models"
	"github.com/mohammad-safakhou/researcher/provider"
)

const (
	DefaultModel        = "gemini-2.5-flash"
	DefaultMaxSources   = 3
	DefaultExcerptChars = 3000
)

type Options struct {
	Model        string
	MaxSources   int
	ExcerptChars int
	// Debug logs the raw model output.
	Debug  bool
	Logger *log.Logger
}

// Summarizer turns a query and its extracted sources into a Result.
type Summarizer struct {
	gen  provider.Generator
	opts Options
	log  *log.Logger
}

func New(gen provider.Generator, opts Options) *Summarizer {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxSources <= 0 {
		opts.MaxSources = DefaultMaxSources
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = DefaultExcerptChars
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[SUMMARIZER] ", log.LstdFlags)
	}
	return &Summarizer{gen: gen, opts: opts, log: logger}
}

// Summarize never returns an error. Call errors and unusable output come back
// as a Failure.
func (s *Summarizer) Summarize(ctx context.Context, query string, sources []models.Source) Result {
	prompt := BuildPrompt(query, sources, s.opts.MaxSources, s.opts.ExcerptChars)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		s.log.Printf("llm call failed: %v", err)
		return NewFailure(KindCallException, err.Error(), "")
	}
	if s.opts.Debug {
		s.log.Printf("raw output for %q:\n%s", query, raw)
	}

	res := Parse(raw)
	if res.Failure != nil {
		s.log.Printf("summary failed: kind=%s detail=%s", res.Failure.Kind, res.Failure.Detail)
	} else if res.Mismatch != "" {
		s.log.Printf("summary kept as received: %s", res.Mismatch)
	}
	return res
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("llm client panic: %v", r)
		}
	}()
	return s.gen.Generate(ctx, s.opts.Model, prompt)
}
