package adapter

import (
	"github.com/invopop/jsonschema"

	provider "github.com/strandchat/strand/internal/provider/models"
)

// SchemaFor derives a provider parameter schema from a request struct by
// JSON-schema reflection. Field descriptions come from `jsonschema:`
// struct tags. Returns nil for parameterless tools (empty structs).
func SchemaFor(v any) *provider.ParameterSchema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)
	if schema == nil || schema.Properties == nil || schema.Properties.Len() == 0 {
		return nil
	}

	out := &provider.ParameterSchema{
		Type:       "object",
		Properties: make(map[string]provider.PropertySchema, schema.Properties.Len()),
		Required:   schema.Required,
	}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		out.Properties[pair.Key] = toProperty(pair.Value)
	}
	return out
}

func toProperty(s *jsonschema.Schema) provider.PropertySchema {
	p := provider.PropertySchema{
		Type:        s.Type,
		Description: s.Description,
	}
	for _, e := range s.Enum {
		if str, ok := e.(string); ok {
			p.Enum = append(p.Enum, str)
		}
	}
	if s.Items != nil {
		item := toProperty(s.Items)
		p.Items = &item
	}
	return p
}
