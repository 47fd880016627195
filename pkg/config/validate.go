package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed sqltool.schema.json
var schemaFS embed.FS

var (
	configSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

// compileSchema compiles the embedded schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("sqltool.schema.json")
		if err != nil {
			compileErr = errors.Wrap(err, "failed to read embedded schema")
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = errors.Wrap(err, "failed to unmarshal schema")
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("sqltool.schema.json", doc); err != nil {
			compileErr = errors.Wrap(err, "failed to add schema resource")
			return
		}

		configSchema, compileErr = compiler.Compile("sqltool.schema.json")
	})
	return compileErr
}

// validate checks raw YAML config bytes against the embedded schema. The
// document is round-tripped through JSON because the schema library
// validates JSON-shaped values.
func validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "failed to parse config YAML")
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to convert config to JSON")
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to unmarshal config for validation")
	}

	if err := configSchema.Validate(instance); err != nil {
		return errors.Wrap(err, "config failed schema validation")
	}
	return nil
}
