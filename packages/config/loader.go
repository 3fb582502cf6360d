// Package config loads run configuration from YAML files. Files are
// schema-checked before decoding so a malformed config fails at startup
// with a field-level message instead of surfacing mid-run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/reqpace/packages/capture"
	"github.com/abdul-hamid-achik/reqpace/packages/cycle"
	"github.com/abdul-hamid-achik/reqpace/packages/fields"
)

// File mirrors the YAML config document. Durations are plain
// milliseconds; pointers distinguish "absent" from an explicit zero.
type File struct {
	RequestA RequestFile `yaml:"requestA"`
	RequestB RequestFile `yaml:"requestB"`

	DelayAtoAMs *int `yaml:"delayAtoAMs"`
	DelayAtoBMs *int `yaml:"delayAtoBMs"`
	MaxCycles   int  `yaml:"maxCycles"`
	TimeoutMs   *int `yaml:"timeoutMs"`

	Auth     *AuthFile     `yaml:"auth"`
	Fields   []FieldFile   `yaml:"fields"`
	Mappings []MappingFile `yaml:"mappings"`
}

// RequestFile describes one request in the config document.
type RequestFile struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

// AuthFile holds digest credentials.
type AuthFile struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Realm    string `yaml:"realm"`
	Nonce    string `yaml:"nonce"`
}

// FieldFile describes one generated field.
type FieldFile struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Value  string `yaml:"value"`
	Target string `yaml:"target"`
}

// MappingFile describes one response-to-header mapping.
type MappingFile struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

const configSchema = `{
  "type": "object",
  "required": ["requestA", "requestB"],
  "additionalProperties": false,
  "properties": {
    "requestA": {"$ref": "#/definitions/request"},
    "requestB": {"$ref": "#/definitions/request"},
    "delayAtoAMs": {"type": "integer", "minimum": 0},
    "delayAtoBMs": {"type": "integer", "minimum": 0},
    "maxCycles": {"type": "integer", "minimum": 0},
    "timeoutMs": {"type": "integer", "minimum": 0},
    "auth": {
      "type": "object",
      "required": ["username", "password"],
      "additionalProperties": false,
      "properties": {
        "username": {"type": "string", "minLength": 1},
        "password": {"type": "string", "minLength": 1},
        "realm": {"type": "string"},
        "nonce": {"type": "string"}
      }
    },
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "kind"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "kind": {"enum": ["random", "timestamp", "counter", "uuid", "fixed"]},
          "value": {"type": "string"},
          "target": {"enum": ["header", "body"]}
        }
      }
    },
    "mappings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source", "target"],
        "additionalProperties": false,
        "properties": {
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1}
        }
      }
    }
  },
  "definitions": {
    "request": {
      "type": "object",
      "required": ["method", "url"],
      "additionalProperties": false,
      "properties": {
        "method": {"enum": ["GET", "POST", "PUT"]},
        "url": {"type": "string", "minLength": 1},
        "headers": {"type": "object", "additionalProperties": {"type": "string"}},
        "body": {"type": "string"}
      }
    }
  }
}`

// Load reads, schema-checks, and decodes a YAML config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse schema-checks and decodes YAML config bytes.
func Parse(data []byte) (*File, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &file, nil
}

// validateSchema round-trips the YAML document through JSON and checks
// it against the config schema.
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(docJSON)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}

	return nil
}

// ToCycleConfig converts the decoded file into a runnable config,
// filling defaults for anything the file leaves out.
func (f *File) ToCycleConfig() (*cycle.Config, error) {
	cfg := cycle.DefaultConfig()

	cfg.RequestA = toRequestSpec(f.RequestA)
	cfg.RequestB = toRequestSpec(f.RequestB)

	if f.DelayAtoAMs != nil {
		cfg.DelayAtoA = time.Duration(*f.DelayAtoAMs) * time.Millisecond
	}
	if f.DelayAtoBMs != nil {
		cfg.DelayAtoB = time.Duration(*f.DelayAtoBMs) * time.Millisecond
	}
	if f.TimeoutMs != nil {
		cfg.Timeout = time.Duration(*f.TimeoutMs) * time.Millisecond
	}
	cfg.MaxCycles = f.MaxCycles

	if f.Auth != nil {
		cfg.Auth = &cycle.AuthConfig{
			Username: f.Auth.Username,
			Password: f.Auth.Password,
			Realm:    f.Auth.Realm,
			Nonce:    f.Auth.Nonce,
		}
	}

	for _, ff := range f.Fields {
		cfg.Fields = append(cfg.Fields, fields.Spec{
			Name:   ff.Name,
			Kind:   fields.Kind(ff.Kind),
			Value:  ff.Value,
			Target: fields.Target(ff.Target),
		})
	}

	for _, mf := range f.Mappings {
		cfg.Mappings = append(cfg.Mappings, capture.Mapping{
			Source: mf.Source,
			Target: mf.Target,
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func toRequestSpec(r RequestFile) cycle.RequestSpec {
	return cycle.RequestSpec{
		Method:  r.Method,
		URL:     r.URL,
		Headers: r.Headers,
		Body:    r.Body,
	}
}
