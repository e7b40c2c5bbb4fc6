// Package schema defines document schemas: the ordered workflow elements a
// document is composed of and the agent owning each one. Schemas are loaded
// at process start and never mutated at runtime.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Element is one named part of a document, bound to the agent that owns it
// and ordered by position within the workflow.
type Element struct {
	ID              string `yaml:"id"`
	Position        int    `yaml:"position"`
	Name            string `yaml:"name"`
	AgentType       string `yaml:"agent"`
	RelevancyPrompt string `yaml:"relevancy_prompt"`
}

// Schema is a named, ordered set of workflow elements.
type Schema struct {
	Name     string    `yaml:"name"`
	Elements []Element `yaml:"elements"`
}

//go:embed schemas/default.yaml
var defaultSchemaYAML []byte

// Default returns the built-in system-design schema.
func Default() (Schema, error) {
	return parse(defaultSchemaYAML)
}

// LoadFile reads and validates a schema definition from a YAML file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return Schema{}, err
	}
	sort.Slice(s.Elements, func(i, j int) bool {
		return s.Elements[i].Position < s.Elements[j].Position
	})
	return s, nil
}

func (s Schema) validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name is required")
	}
	if len(s.Elements) == 0 {
		return fmt.Errorf("schema %q has no elements", s.Name)
	}
	seenIDs := make(map[string]bool, len(s.Elements))
	seenPositions := make(map[int]bool, len(s.Elements))
	for _, el := range s.Elements {
		if el.ID == "" || el.Name == "" || el.AgentType == "" {
			return fmt.Errorf("schema %q: element id, name and agent are required", s.Name)
		}
		if seenIDs[el.ID] {
			return fmt.Errorf("schema %q: duplicate element id %q", s.Name, el.ID)
		}
		if seenPositions[el.Position] {
			return fmt.Errorf("schema %q: duplicate position %d", s.Name, el.Position)
		}
		seenIDs[el.ID] = true
		seenPositions[el.Position] = true
	}
	return nil
}

// First returns the element with the lowest position.
func (s Schema) First() Element {
	return s.Elements[0]
}

// ElementByID looks up an element by id.
func (s Schema) ElementByID(id string) (Element, bool) {
	for _, el := range s.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}

// Next returns the element following the given one by position, if any.
func (s Schema) Next(current Element) (Element, bool) {
	for _, el := range s.Elements {
		if el.Position > current.Position {
			return el, true
		}
	}
	return Element{}, false
}
