package harness

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/foldr/internal/ir"
)

// Fixture is one test case for a program.
type Fixture struct {
	// Name identifies the fixture in reports and logs.
	Name string `json:"name"`

	// Input is the document the program runs against.
	Input ir.IRValue `json:"input"`

	// ExpectedOutputKeys must all be present in the extracted output.
	ExpectedOutputKeys []string `json:"expected_output_keys"`
}

// rawFixture is the on-disk form. Input stays untyped until it is
// converted and unwrapped.
type rawFixture struct {
	Name               string   `yaml:"name" json:"name"`
	Input              any      `yaml:"input" json:"input"`
	ExpectedOutputKeys []string `yaml:"expected_output_keys" json:"expected_output_keys"`
}

type fixtureFile struct {
	Fixtures []rawFixture `yaml:"fixtures" json:"fixtures"`
}

// LoadFixtures reads a fixture suite from a YAML or JSON file.
//
// The file holds either a top-level "fixtures" list or a bare list.
// Unknown fields are rejected (catches typos like "expected_keys:").
func LoadFixtures(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var raws []rawFixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raws, err = decodeJSONFixtures(data)
	} else {
		raws, err = decodeYAMLFixtures(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	fixtures, err := convertFixtures(raws)
	if err != nil {
		return nil, fmt.Errorf("invalid fixtures in %s: %w", path, err)
	}
	return fixtures, nil
}

// ParseFixtures decodes a YAML (or JSON, which YAML accepts) fixture suite.
func ParseFixtures(data []byte) ([]Fixture, error) {
	raws, err := decodeYAMLFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return convertFixtures(raws)
}

func decodeYAMLFixtures(data []byte) ([]rawFixture, error) {
	// Peek at the document shape first; KnownFields only applies when
	// decoding into the concrete type.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, errors.New("empty fixture document")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if root.Content[0].Kind == yaml.SequenceNode {
		var raws []rawFixture
		if err := decoder.Decode(&raws); err != nil {
			return nil, err
		}
		return raws, nil
	}

	var file fixtureFile
	if err := decoder.Decode(&file); err != nil {
		return nil, err
	}
	return file.Fixtures, nil
}

func decodeJSONFixtures(data []byte) ([]rawFixture, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty fixture document")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	decoder.UseNumber()

	if trimmed[0] == '[' {
		var raws []rawFixture
		if err := decoder.Decode(&raws); err != nil {
			return nil, err
		}
		return raws, nil
	}

	var file fixtureFile
	if err := decoder.Decode(&file); err != nil {
		return nil, err
	}
	return file.Fixtures, nil
}

func convertFixtures(raws []rawFixture) ([]Fixture, error) {
	if len(raws) == 0 {
		return nil, errors.New("at least one fixture is required")
	}

	seen := make(map[string]int, len(raws))
	fixtures := make([]Fixture, 0, len(raws))
	for i, raw := range raws {
		if raw.Name == "" {
			return nil, fmt.Errorf("fixtures[%d]: name is required", i)
		}
		if first, ok := seen[raw.Name]; ok {
			return nil, fmt.Errorf("fixtures[%d]: duplicate name %q (first used by fixtures[%d])", i, raw.Name, first)
		}
		seen[raw.Name] = i

		input, err := ir.FromAny(raw.Input)
		if err != nil {
			return nil, fmt.Errorf("fixtures[%d] (%s): input: %w", i, raw.Name, err)
		}

		keys := raw.ExpectedOutputKeys
		if keys == nil {
			keys = []string{}
		}
		fixtures = append(fixtures, Fixture{
			Name:               raw.Name,
			Input:              UnwrapInput(input),
			ExpectedOutputKeys: keys,
		})
	}
	return fixtures, nil
}

// UnwrapInput replaces a string input holding a JSON document with the
// parsed document. Generated fixtures sometimes carry their input as
// stringified JSON. Any other value, or a string that does not parse, is
// returned unchanged.
func UnwrapInput(v ir.IRValue) ir.IRValue {
	s, ok := v.(ir.IRString)
	if !ok {
		return v
	}
	parsed, err := ir.UnmarshalIRValue([]byte(s))
	if err != nil {
		return v
	}
	return parsed
}
