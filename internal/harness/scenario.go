package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/irdiff/internal/ir"
)

// Backend modes a scenario can request.
const (
	ModeReference = "reference"
	ModeCompiled  = "compiled"
	ModeDual      = "dual"
)

// Scenario is one differential test case read from YAML.
// A scenario either lists literal cases or asks for random inputs.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name" validate:"required"`

	// Description explains what this scenario checks.
	Description string `yaml:"description" validate:"required"`

	// Program is the path of the CUE program under test.
	// Relative paths are resolved against the scenario file's directory.
	Program string `yaml:"program" validate:"required"`

	// Top overrides the program's entry function.
	Top string `yaml:"top,omitempty"`

	// Backends is reference, compiled, or dual (compiled checked against
	// reference).
	Backends string `yaml:"backends" validate:"required,oneof=reference compiled dual"`

	// Cases are literal argument lists, optionally with expected results.
	Cases []Case `yaml:"cases,omitempty" validate:"dive"`

	// Random generates inputs instead of Cases.
	Random *RandomBlock `yaml:"random,omitempty"`

	// InjectCompiledResult replaces every compiled result with this literal.
	InjectCompiledResult string `yaml:"inject_compiled_result,omitempty" validate:"omitempty,value_literal"`

	// ExpectFailure, when set, makes the scenario pass only if the run fails
	// with a diagnostic containing this text.
	ExpectFailure string `yaml:"expect_failure,omitempty"`
}

// Case is one literal argument list.
type Case struct {
	// Args holds the ";"-separated parameter literals.
	Args string `yaml:"args"`

	// Expect is the expected result literal. Either every case sets it or
	// none does.
	Expect string `yaml:"expect,omitempty" validate:"omitempty,value_literal"`
}

// RandomBlock configures random input generation.
type RandomBlock struct {
	Count int    `yaml:"count" validate:"required,min=1"`
	Seed  uint64 `yaml:"seed,omitempty"`

	// Validator is the path of a CUE predicate program. Relative paths are
	// resolved like Program.
	Validator string `yaml:"validator,omitempty"`

	// MaxAttempts bounds rejection sampling per tuple. Zero means the default.
	MaxAttempts int `yaml:"max_attempts,omitempty" validate:"gte=0"`
}

var scenarioValidate *validator.Validate

func init() {
	scenarioValidate = validator.New()
	scenarioValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = scenarioValidate.RegisterValidation("value_literal", validateValueLiteral)
}

// validateValueLiteral accepts any well-formed value literal.
func validateValueLiteral(fl validator.FieldLevel) bool {
	_, err := ir.Parse(fl.Field().String())
	return err == nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// Program and validator paths are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.Program = resolvePath(base, scenario.Program)
	if scenario.Random != nil && scenario.Random.Validator != "" {
		scenario.Random.Validator = resolvePath(base, scenario.Random.Validator)
	}

	if err := checkPaths(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML without touching the
// filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario applies the struct tags, then the rules that span fields.
func validateScenario(s *Scenario) error {
	if err := scenarioValidate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	switch {
	case len(s.Cases) == 0 && s.Random == nil:
		return errors.New("one of cases or random is required")
	case len(s.Cases) > 0 && s.Random != nil:
		return errors.New("cases and random are mutually exclusive")
	}

	withExpect := 0
	for _, c := range s.Cases {
		if c.Expect != "" {
			withExpect++
		}
	}
	if withExpect != 0 && withExpect != len(s.Cases) {
		return fmt.Errorf("cases: expect is set on %d of %d cases; set it on all or none", withExpect, len(s.Cases))
	}

	if s.InjectCompiledResult != "" && s.Backends == ModeReference {
		return errors.New("inject_compiled_result needs a compiled backend")
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Scenario.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "value_literal":
			msgs = append(msgs, fmt.Sprintf("%s is not a value literal: %q", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func checkPaths(s *Scenario) error {
	if _, err := os.Stat(s.Program); err != nil {
		return fmt.Errorf("program file not found: %s", s.Program)
	}
	if s.Random != nil && s.Random.Validator != "" {
		if _, err := os.Stat(s.Random.Validator); err != nil {
			return fmt.Errorf("validator file not found: %s", s.Random.Validator)
		}
	}
	return nil
}
