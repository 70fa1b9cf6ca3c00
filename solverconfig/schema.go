package solverconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaPolicy selects which of two JSON schemas a Config is checked
// against, resolving the Duck-typed-serialize-to-dict open question: a
// config destined for fingerprinting must be exact (Strict), while a
// config a human just edited by hand should only be checked for the fields
// this package actually reads (Lenient).
type SchemaPolicy int

const (
	// Strict rejects any property not explicitly listed in the schema
	// (additionalProperties: false), so two configs that differ only by a
	// stray unexpected key cannot both pass.
	Strict SchemaPolicy = iota
	// Lenient allows unknown properties through, validating only that
	// required fields are present and correctly typed.
	Lenient
)

// Validator compiles and caches JSON schemas for both policies, compiling
// each distinct schema text once and caching it by that raw text.
// Fingerprint does not call a Validator; callers validate separately.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator returns an empty Validator. Schemas are compiled lazily on
// first use and cached by their raw JSON text.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate checks data (raw config JSON) against rawSchema under the given
// policy. Lenient policy strips any top-level "additionalProperties": false
// before compiling a private copy of the schema; it never mutates the
// caller's rawSchema.
func (v *Validator) Validate(rawSchema []byte, policy SchemaPolicy, data []byte) error {
	effectiveSchema, err := v.schemaForPolicy(rawSchema, policy)
	if err != nil {
		return fmt.Errorf("solverconfig: preparing schema: %w", err)
	}
	compiled, err := v.compile(effectiveSchema)
	if err != nil {
		return fmt.Errorf("solverconfig: compiling schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("solverconfig: decoding config JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("solverconfig: config failed validation: %w", err)
	}
	return nil
}

func (v *Validator) schemaForPolicy(rawSchema []byte, policy SchemaPolicy) ([]byte, error) {
	if policy == Strict {
		return rawSchema, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(rawSchema, &doc); err != nil {
		return nil, fmt.Errorf("decoding schema for lenient relaxation: %w", err)
	}
	delete(doc, "additionalProperties")
	return json.Marshal(doc)
}

func (v *Validator) compile(rawSchema []byte) (*jsonschema.Schema, error) {
	key := cacheKey(rawSchema)

	v.mu.Lock()
	if cached, ok := v.compiled[key]; ok {
		v.mu.Unlock()
		return cached, nil
	}
	v.mu.Unlock()

	compiler := jsonschema.NewCompiler()
	const resourceName = "solver-config.schema.json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(rawSchema)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compiling: %w", err)
	}

	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

func cacheKey(rawSchema []byte) string {
	return string(rawSchema)
}
