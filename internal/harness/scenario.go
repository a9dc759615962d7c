package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/todoracle/internal/oracle"
	"github.com/roach88/todoracle/internal/todomvc"
)

// Scenario is one user journey through the application.
// Setup establishes state, Steps are the operations under test.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Faults are injected into the in-process application before setup.
	// A scenario with faults only runs on the memory driver.
	Faults []string `yaml:"faults,omitempty"`

	// Setup actions must succeed and are cross-checked, but carry no
	// expectations.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps are executed in order. Every step is followed by a cross-check
	// of the rendered view against the persisted snapshot.
	Steps []Step `yaml:"steps"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Step is one façade operation with its expected outcome.
type Step struct {
	// Action names the operation, e.g. "add_item" or "toggle".
	Action string `yaml:"action"`

	// Args are the operation's arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect is checked on both sides after the step.
	Expect *oracle.Expectation `yaml:"expect,omitempty"`

	// Error names an expected failure. Only "precondition" is supported.
	Error string `yaml:"error,omitempty"`
}

// ExpectPrecondition is the Step.Error value for a step that must be
// rejected because its target does not exist.
const ExpectPrecondition = "precondition"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Path = path
	return sc, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "step:" vs "steps:".
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
// A non-empty pattern keeps only scenarios whose name matches it
// (filepath.Match syntax). Scenario names must be unique.
func LoadDir(dir, pattern string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	seen := make(map[string]string)
	var out []*Scenario
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[sc.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", sc.Name, prev, path)
		}
		seen[sc.Name] = path

		if pattern != "" {
			ok, err := filepath.Match(pattern, sc.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, sc)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must not contain slashes or spaces", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, f := range s.Faults {
		if _, err := todomvc.ParseFault(f); err != nil {
			return fmt.Errorf("faults[%d]: %w", i, err)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil || step.Error != "" {
			return fmt.Errorf("setup[%d]: setup steps take no expect or error", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// validateStep checks the action exists, its arguments are well-formed and
// the expectation can hold.
func validateStep(step Step) error {
	if step.Action == "" {
		return fmt.Errorf("action is required")
	}
	act, ok := actions[step.Action]
	if !ok {
		return fmt.Errorf("unknown action %q (known: %s)", step.Action, strings.Join(ActionNames(), ", "))
	}
	if err := act.validate(args(step.Args)); err != nil {
		return fmt.Errorf("%s: %w", step.Action, err)
	}

	if step.Error != "" && step.Error != ExpectPrecondition {
		return fmt.Errorf("unknown error kind %q: only %q is supported", step.Error, ExpectPrecondition)
	}
	if step.Expect != nil {
		if err := step.Expect.Validate(); err != nil {
			return fmt.Errorf("expect: %w", err)
		}
	}
	return nil
}
