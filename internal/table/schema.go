package table

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lox/pokerengine/internal/game"
)

//go:embed schemas
var schemaFiles embed.FS

const actionSchemaURL = "https://pokerengine.dev/schemas/action.json"

// Validator checks inbound JSON actions against the action schema before
// they are decoded and queued.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded action schema.
func NewValidator() (*Validator, error) {
	data, err := schemaFiles.ReadFile("schemas/action.json")
	if err != nil {
		return nil, fmt.Errorf("table: read action schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(actionSchemaURL, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("table: add action schema: %w", err)
	}
	schema, err := compiler.Compile(actionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("table: compile action schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks data against the action schema.
func (v *Validator) Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("table: invalid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("table: invalid action: %w", err)
	}
	return nil
}

// Decode validates data and decodes it into an action.
func (v *Validator) Decode(data []byte) (game.Action, error) {
	var a game.Action
	if err := v.Validate(data); err != nil {
		return a, err
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("table: decode action: %w", err)
	}
	return a, nil
}
