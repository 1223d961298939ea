package summarizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed summary_schema.json
var summarySchemaJSON string

// Summary is the success shape the model is asked to produce. Every field is optional.
type Summary struct {
	Title     string       `json:"title,omitempty"`
	Summary   string       `json:"summary,omitempty"`
	KeyPoints []KeyPoint   `json:"key_points,omitempty"`
	Sources   []SourceNote `json:"sources,omitempty"`
}

type KeyPoint struct {
	Point  string `json:"point"`
	Detail string `json:"detail"`
}

type SourceNote struct {
	URL  string `json:"url"`
	Note string `json:"note"`
}

var (
	compileOnce   sync.Once
	summarySchema *jsonschema.Schema
	compileErr    error
)

// SummarySchema returns the compiled JSON Schema for summaries.
func SummarySchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("summary_schema.json", strings.NewReader(summarySchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("summary_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile summary schema: %w", err)
			return
		}
		summarySchema = schema
	})
	return summarySchema, compileErr
}

// validateSummary checks a decoded JSON document against the summary schema.
// The error lists the offending instance paths only.
func validateSummary(doc any) error {
	schema, err := SummarySchema()
	if err != nil {
		return err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var problems []string
	collectProblems(ve, &problems)
	return fmt.Errorf("summary does not match schema: %s", strings.Join(problems, "; "))
}

func collectProblems(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, loc+": "+ve.Message)
		return
	}
	for _, c := range ve.Causes {
		collectProblems(c, out)
	}
}
