// Package core contains the business logic of genkvo: schema parsing, type
// collection, Go code generation, live (interpreted) objects, configuration
// and schema file watching.
package core

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valter-silva-au/gokvo/pkg/models"
	"gopkg.in/yaml.v3"
)

// DetectFormat picks the schema format from a file extension.
func DetectFormat(path string) (models.SchemaFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return models.FormatJSON, nil
	case ".yaml", ".yml":
		return models.FormatYAML, nil
	default:
		return models.FormatAuto, fmt.Errorf("cannot detect schema format of %q (use .json, .yaml or .yml, or pass --format)", path)
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (models.SchemaFormat, error) {
	switch models.SchemaFormat(strings.ToLower(strings.TrimSpace(s))) {
	case models.FormatAuto:
		return models.FormatAuto, nil
	case models.FormatJSON:
		return models.FormatJSON, nil
	case models.FormatYAML, "yml":
		return models.FormatYAML, nil
	default:
		return models.FormatAuto, fmt.Errorf("unsupported schema format %q (use json or yaml)", s)
	}
}

// ParseSchema decodes an object description. With FormatAuto the format is
// sniffed: input starting with '{' is JSON, anything else YAML.
func ParseSchema(r io.Reader, format models.SchemaFormat) (models.ObjectSchema, error) {
	br := bufio.NewReader(r)
	if format == models.FormatAuto {
		format = sniffFormat(br)
	}

	var (
		raw any
		err error
	)
	switch format {
	case models.FormatJSON:
		raw, err = decodeJSON(br)
	case models.FormatYAML:
		raw, err = decodeYAML(br)
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}
	if err != nil {
		return nil, err
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ValidationError{Problem: fmt.Sprintf("schema root must be an object, got %s", describeValue(raw))}
	}
	return models.ObjectSchema(obj), nil
}

func sniffFormat(br *bufio.Reader) models.SchemaFormat {
	for n := 1; ; n++ {
		peek, _ := br.Peek(n)
		if len(peek) < n {
			return models.FormatYAML
		}
		c := peek[n-1]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			continue
		}
		if c == '{' {
			return models.FormatJSON
		}
		return models.FormatYAML
	}
}

func decodeJSON(r io.Reader) (any, error) {
	d := json.NewDecoder(r)
	// Keep numbers as text so "0.0" can be told apart from "0".
	d.UseNumber()

	var raw any
	if err := d.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ValidationError{Problem: "schema is empty"}
		}
		return nil, fmt.Errorf("decoding JSON schema: %w", err)
	}
	return raw, nil
}

func decodeYAML(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading YAML schema: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ValidationError{Problem: "schema is empty"}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding YAML schema: %w", err)
	}
	return yamlValue(&doc)
}

// yamlValue converts a YAML node into the same shape the JSON decoder
// produces, with scalar tags deciding between integers and floats.
func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[k.Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("line %d: %s cannot be used as an initial value", n.Line, n.Value)
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return json.Number(s), nil
	default:
		return n.Value, nil
	}
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	case bool:
		return "a bool"
	case json.Number:
		return "a number"
	case string:
		return "a string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
