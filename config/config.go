// Package config loads and validates a project's settings file
// (typedgraph.yaml). The YAML is parsed with goccy/go-yaml and checked
// against a compiled JSON Schema using santhosh-tekuri/jsonschema/v5,
// including a custom "semver" format validator backed by
// golang.org/x/mod/semver.
package config

import (
	"bytes"
	"encoding/json"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/aledsdavies/typedgraph/internal/xerrors"
)

// Settings is a project's typedgraph.yaml.
type Settings struct {
	DefaultTarget string   `yaml:"defaultTarget" json:"defaultTarget"`
	SchemasDir    string   `yaml:"schemasDir,omitempty" json:"schemasDir,omitempty"`
	ChangesetsDir string   `yaml:"changesetsDir,omitempty" json:"changesetsDir,omitempty"`
	Exporters     []string `yaml:"exporters,omitempty" json:"exporters,omitempty"`
}

const settingsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["defaultTarget"],
  "properties": {
    "defaultTarget": {"type": "string", "format": "semver"},
    "schemasDir": {"type": "string"},
    "changesetsDir": {"type": "string"},
    "exporters": {"type": "array", "items": {"type": "string"}}
  }
}`

func compileSettingsSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	compiler.Formats["semver"] = func(v interface{}) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		if len(s) > 0 && s[0] != 'v' {
			s = "v" + s
		}
		return semver.IsValid(s)
	}
	if err := compiler.AddResource("settings.json", bytes.NewReader([]byte(settingsSchema))); err != nil {
		return nil, err
	}
	return compiler.Compile("settings.json")
}

// Parse decodes and validates raw YAML into Settings, applying defaults
// for the directory layout fields when they are omitted.
func Parse(data []byte) (*Settings, error) {
	schema, err := compileSettingsSchema()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfigInvalid, "compiling settings schema", err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfigInvalid, "parsing typedgraph.yaml", err)
	}
	// jsonschema validates against encoding/json-shaped values; round-trip
	// through JSON to normalize map[interface{}]interface{} -> map[string]interface{}.
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfigInvalid, "normalizing typedgraph.yaml", err)
	}
	var jsonVal interface{}
	if err := json.Unmarshal(jsonBytes, &jsonVal); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfigInvalid, "normalizing typedgraph.yaml", err)
	}

	if err := schema.Validate(jsonVal); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfigInvalid, "typedgraph.yaml failed validation", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfigInvalid, "parsing typedgraph.yaml", err)
	}
	if settings.SchemasDir == "" {
		settings.SchemasDir = "schemas"
	}
	if settings.ChangesetsDir == "" {
		settings.ChangesetsDir = "changesets"
	}
	return &settings, nil
}
