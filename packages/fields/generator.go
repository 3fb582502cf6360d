package fields

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Kind selects how a field value is produced.
type Kind string

const (
	KindRandom    Kind = "random"
	KindTimestamp Kind = "timestamp"
	KindCounter   Kind = "counter"
	KindUUID      Kind = "uuid"
	KindFixed     Kind = "fixed"
)

// Target selects where a generated field is injected.
type Target string

const (
	TargetHeader Target = "header"
	TargetBody   Target = "body"
)

// Spec describes one generated field.
type Spec struct {
	Name   string
	Kind   Kind
	Value  string // for KindFixed
	Target Target
}

// Validate reports whether the spec is well-formed.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("field requires a name")
	}
	switch s.Kind {
	case KindRandom, KindTimestamp, KindCounter, KindUUID:
	case KindFixed:
		if s.Value == "" {
			return fmt.Errorf("fixed field %q requires a value", s.Name)
		}
	default:
		return fmt.Errorf("field %q: unknown generator %q", s.Name, s.Kind)
	}
	switch s.Target {
	case TargetHeader, TargetBody, "":
	default:
		return fmt.Errorf("field %q: unknown target %q", s.Name, s.Target)
	}
	return nil
}

const randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces field values. The counter is the only state it
// carries; it is process-wide for the run and safe for concurrent use.
type Generator struct {
	counter atomic.Uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate produces a single value for the given spec.
func (g *Generator) Generate(spec Spec) (string, error) {
	switch spec.Kind {
	case KindRandom:
		b := make([]byte, 12)
		for i := range b {
			b[i] = randomCharset[rand.Intn(len(randomCharset))]
		}
		return string(b), nil
	case KindTimestamp:
		return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
	case KindCounter:
		return strconv.FormatUint(g.counter.Add(1), 10), nil
	case KindUUID:
		return uuid.New().String(), nil
	case KindFixed:
		if spec.Value == "" {
			return "", fmt.Errorf("fixed field %q requires a value", spec.Name)
		}
		return spec.Value, nil
	default:
		return "", fmt.Errorf("field %q: unknown generator %q", spec.Name, spec.Kind)
	}
}

// GenerateAll produces every configured field exactly once and splits
// the results by target. Both requests of a cycle see the same values.
func (g *Generator) GenerateAll(specs []Spec) (headers, body map[string]string, err error) {
	headers = make(map[string]string)
	body = make(map[string]string)

	for _, spec := range specs {
		value, err := g.Generate(spec)
		if err != nil {
			return nil, nil, err
		}
		if spec.Target == TargetBody {
			body[spec.Name] = value
		} else {
			headers[spec.Name] = value
		}
	}

	return headers, body, nil
}

// ExpandBody substitutes {name} placeholders in base with the generated
// body field values. With no base body, a flat JSON object of the
// fields is synthesized instead.
func ExpandBody(base string, bodyFields map[string]string) string {
	if len(bodyFields) == 0 {
		return base
	}

	if base == "" {
		data, err := json.Marshal(bodyFields)
		if err != nil {
			return base
		}
		return string(data)
	}

	expanded := base
	for name, value := range bodyFields {
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", value)
	}
	return expanded
}
