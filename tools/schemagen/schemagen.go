// Package main generates JSON schemas for the machine-readable outputs of
// oometrics: the run report and the metric catalog.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Sumatoshi-tech/oometrics/pkg/catalog"
	"github.com/Sumatoshi-tech/oometrics/pkg/report"
)

const draft07 = "https://json-schema.org/draft-07/schema#"

// Schema represents a JSON Schema. Type is a string or a list of strings.
type Schema struct {
	Schema      string             `json:"$schema,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        any                `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// outputs maps a schema file name to a sample of the value it describes.
var outputs = map[string]struct {
	title string
	value any
}{
	"report":  {title: "oometrics run report", value: &report.Report{}},
	"catalog": {title: "oometrics metric catalog", value: []catalog.Entry{}},
}

func main() {
	outputDir := flag.String("o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	for name, out := range outputs {
		if err := writeSchema(*outputDir, name, generateSchema(out.title, out.value)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing schema for %s: %v\n", name, err)
			os.Exit(1)
		}

		fmt.Printf("Generated schema for %s\n", name)
	}
}

func generateSchema(title string, v any) *Schema {
	defs := make(map[string]*Schema)

	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var schema *Schema

	if t.Kind() == reflect.Struct {
		schema = &Schema{Type: "object"}
		schema.Properties, schema.Required = structToProperties(t, defs)
	} else {
		schema = typeToSchema(t, defs)
	}

	schema.Schema = draft07
	schema.Title = title

	if len(defs) > 0 {
		schema.Definitions = defs
	}

	return schema
}

func structToProperties(t reflect.Type, defs map[string]*Schema) (map[string]*Schema, []string) {
	props := make(map[string]*Schema)

	var required []string

	for i := range t.NumField() {
		field := t.Field(i)

		jsonName, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if jsonName == "-" || jsonName == "" {
			continue
		}

		props[jsonName] = typeToSchema(field.Type, defs)

		if !strings.Contains(opts, "omitempty") {
			required = append(required, jsonName)
		}
	}

	return props, required
}

func typeToSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice:
		// encoding/json writes nil slices as null.
		return &Schema{
			Type:  []string{"array", "null"},
			Items: typeToSchema(t.Elem(), defs),
		}

	case reflect.Map:
		return &Schema{
			Type: "object",
			Description: fmt.Sprintf("Map with %s keys and %s values",
				t.Key().Kind().String(), t.Elem().Kind().String()),
		}

	case reflect.Struct:
		defName := t.Name()
		if defName == "" {
			props, required := structToProperties(t, defs)

			return &Schema{Type: "object", Properties: props, Required: required}
		}

		if _, exists := defs[defName]; !exists {
			// Registered before recursing so self-referencing types terminate.
			def := &Schema{Type: "object"}
			defs[defName] = def
			def.Properties, def.Required = structToProperties(t, defs)
		}

		return &Schema{Ref: "#/definitions/" + defName}

	case reflect.Ptr:
		return typeToSchema(t.Elem(), defs)

	default:
		return &Schema{}
	}
}

func writeSchema(dir, name string, schema *Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, name+".json"), append(data, '\n'), 0o644)
}
