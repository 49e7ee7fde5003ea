package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tracefold/internal/pipeline"
)

// Scenario kinds.
const (
	KindEvaluate  = "evaluate"
	KindEnumerate = "enumerate"
	KindMerge     = "merge"
)

// Assertion types.
const (
	AssertRendered   = "rendered"
	AssertContains   = "contains"
	AssertTermCount  = "term_count"
	AssertSinglePass = "single_pass"
)

// Scenario describes one run and the assertions on its output.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Kind selects what runs: evaluate, enumerate or merge.
	Kind string `yaml:"kind"`

	// Order is the expansion order (evaluate).
	Order int `yaml:"order,omitempty"`

	// Odd keeps terms of odd order (evaluate).
	Odd bool `yaml:"odd,omitempty"`

	// Flavors names the two determinant flavors (evaluate).
	Flavors []string `yaml:"flavors,omitempty"`

	// Pool and Workers override the evaluation defaults when non-zero.
	Pool    int `yaml:"pool,omitempty"`
	Workers int `yaml:"workers,omitempty"`

	// FileTerms is the checkpoint file size (evaluate with checkpoint, merge).
	FileTerms int `yaml:"file_terms,omitempty"`

	// Checkpoint routes an evaluation through a checkpoint run.
	Checkpoint bool `yaml:"checkpoint,omitempty"`

	// Points is the point count to enumerate (enumerate).
	Points int `yaml:"points,omitempty"`

	// Input is a JSON term file, relative to the scenario file (merge).
	Input string `yaml:"input,omitempty"`

	// Assertions validate the output.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run's output.
type Assertion struct {
	// Type is one of rendered, contains, term_count, single_pass.
	Type string `yaml:"type"`

	// Value is the expected text (rendered, contains).
	Value string `yaml:"value,omitempty"`

	// Count is the expected number of terms (term_count).
	Count int `yaml:"count,omitempty"`
}

// Config returns the evaluation config the scenario describes.
func (s *Scenario) Config() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if s.Order != 0 {
		cfg.Order = s.Order
	}
	cfg.EvenOnly = !s.Odd
	if s.Pool != 0 {
		cfg.Pool = s.Pool
	}
	if s.Workers != 0 {
		cfg.Workers = s.Workers
	}
	if s.FileTerms != 0 {
		cfg.FileTerms = s.FileTerms
	}
	return cfg
}

// LoadScenario reads and parses a scenario YAML file. The input path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Input != "" && !filepath.IsAbs(scenario.Input) {
		scenario.Input = filepath.Join(filepath.Dir(path), scenario.Input)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that the fields the scenario's kind needs are
// present.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	switch s.Kind {
	case KindEvaluate:
		if len(s.Flavors) != 2 {
			return fmt.Errorf("evaluate needs exactly two flavors, got %d", len(s.Flavors))
		}
	case KindEnumerate:
		if s.Points <= 0 {
			return fmt.Errorf("enumerate needs a positive points count")
		}
	case KindMerge:
		if s.Input == "" {
			return fmt.Errorf("merge needs an input file")
		}
		if _, err := os.Stat(s.Input); err != nil {
			return fmt.Errorf("input file: %w", err)
		}
	default:
		return fmt.Errorf("unknown kind %q: must be one of %s, %s, %s", s.Kind, KindEvaluate, KindEnumerate, KindMerge)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, s.Kind, a); err != nil {
			return err
		}
	}
	return nil
}

var assertionTypes = []string{AssertRendered, AssertContains, AssertTermCount, AssertSinglePass}

func validateAssertion(index int, kind string, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !slices.Contains(assertionTypes, a.Type) {
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}

	switch a.Type {
	case AssertRendered, AssertContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: %s requires value", index, a.Type)
		}
	case AssertTermCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: term_count requires a non-negative count", index)
		}
	case AssertSinglePass:
		if kind != KindMerge {
			return fmt.Errorf("assertions[%d]: single_pass only applies to merge scenarios", index)
		}
	}
	return nil
}
