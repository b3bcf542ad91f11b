package blockvalue

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	blockValueSchema = "schemas/block_value.json"
	richTextSchema   = "schemas/rich_text.json"
)

var (
	envelopeOnce    sync.Once
	envelopeSchemas map[string]*jsonschema.Schema
	envelopeErr     error
)

func compileEnvelopes() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	names := []string{blockValueSchema, richTextSchema}
	for _, name := range names {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			envelopeErr = err
			return
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			envelopeErr = err
			return
		}
	}
	envelopeSchemas = make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		schema, err := compiler.Compile(name)
		if err != nil {
			envelopeErr = err
			return
		}
		envelopeSchemas[name] = schema
	}
}

// CheckEnvelope validates the top-level shape of a persisted value before it
// is decoded. It does not look inside property values.
func CheckEnvelope(data []byte, editor EditorAlias) error {
	envelopeOnce.Do(compileEnvelopes)
	if envelopeErr != nil {
		return fmt.Errorf("blockvalue: compile envelope schema: %w", envelopeErr)
	}

	name := blockValueSchema
	if editor == RichText {
		name = richTextSchema
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := envelopeSchemas[name].Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, describeSchemaError(err))
	}
	return nil
}

func describeSchemaError(err error) string {
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var parts []string
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "#"
			}
			parts = append(parts, location+": "+strings.TrimSpace(node.Message))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return strings.Join(parts, "; ")
}
