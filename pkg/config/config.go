// Package config loads the sqltool.yaml project file: connection defaults
// plus named task definitions binding a tool to its target objects and
// properties. Files are validated against an embedded JSON schema before
// decoding, so malformed configuration fails with a precise error instead
// of a half-populated struct.
package config

import (
	"io"
	"os"

	"github.com/angusholder/sqltool/pkg/tool"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// ClickHouse holds connection defaults applied when the corresponding
	// CLI flags are not given.
	ClickHouse struct {
		// URL is the default connection DSN ("host:port").
		URL string `yaml:"url,omitempty"`

		// Cluster names the cluster this instance belongs to.
		Cluster string `yaml:"cluster,omitempty"`
	}

	// Task is one named task definition: which tool to run, against which
	// objects, with which tool-specific properties.
	Task struct {
		// Name identifies the task on the command line.
		Name string `yaml:"name"`

		// Tool is the registered tool name to execute.
		Tool string `yaml:"tool"`

		// Objects lists target tables ("db.table") or patterns ("db.*").
		Objects []string `yaml:"objects"`

		// Properties holds tool-specific settings (e.g. final: true).
		Properties map[string]any `yaml:"properties,omitempty"`
	}

	// Config is the parsed sqltool.yaml file.
	Config struct {
		// ClickHouse contains connection defaults.
		ClickHouse ClickHouse `yaml:"clickhouse,omitempty"`

		// Tasks lists the named task definitions.
		Tasks []Task `yaml:"tasks"`
	}
)

// LoadConfig parses and validates a configuration from the provided reader.
//
// Example:
//
//	yamlData := `
//	tasks:
//	  - name: nightly-optimize
//	    tool: optimize
//	    objects: [analytics.*]
//	    properties:
//	      final: true
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	if err := validate(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// LoadConfigFile loads a configuration from the specified file path. This is
// a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Task returns the named task definition.
func (c *Config) Task(name string) (*Task, error) {
	for i := range c.Tasks {
		if c.Tasks[i].Name == name {
			return &c.Tasks[i], nil
		}
	}
	return nil, errors.Errorf("task %q not found in configuration", name)
}

// ToolTask converts the definition into the engine's task form: the
// properties map plus the object list under the "objects" key.
func (t *Task) ToolTask() *tool.Task {
	props := make(map[string]any, len(t.Properties)+1)
	for k, v := range t.Properties {
		props[k] = v
	}
	props["objects"] = t.Objects

	return &tool.Task{
		Name:       t.Name,
		Tool:       t.Tool,
		Properties: props,
	}
}
