package keychain

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec turns values into the bytes a Backend stores.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// YAMLCodec stores values as YAML documents.
//
// Decoding is as strict about scalar types as JSONCodec: a stored integer
// does not decode into a string, nor a string into a bool.
type YAMLCodec struct{}

func (YAMLCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (YAMLCodec) Unmarshal(data []byte, v any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		return nil
	}
	if t := reflect.TypeOf(v); t != nil {
		if err := checkScalars(&doc, t); err != nil {
			return err
		}
	}
	return doc.Decode(v)
}

var (
	yamlUnmarshalerType = reflect.TypeFor[yaml.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	yamlNodeType        = reflect.TypeFor[yaml.Node]()
)

// checkScalars walks n alongside the Go type it will decode into and
// rejects scalars whose resolved tag does not fit the target kind. Shape
// mismatches are left for yaml.v3 to report.
func checkScalars(n *yaml.Node, t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == yamlNodeType {
		return nil
	}
	if pt := reflect.PointerTo(t); pt.Implements(yamlUnmarshalerType) || pt.Implements(textUnmarshalerType) {
		return nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return checkScalars(n.Content[0], t)
		}
	case yaml.AliasNode:
		if n.Alias != nil {
			return checkScalars(n.Alias, t)
		}
	case yaml.ScalarNode:
		return checkScalar(n, t)
	case yaml.SequenceNode:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return nil
		}
		for _, c := range n.Content {
			if err := checkScalars(c, t.Elem()); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		switch t.Kind() {
		case reflect.Map:
			for i := 1; i < len(n.Content); i += 2 {
				if err := checkScalars(n.Content[i], t.Elem()); err != nil {
					return err
				}
			}
		case reflect.Struct:
			fields := yamlFields(t)
			for i := 0; i+1 < len(n.Content); i += 2 {
				ft, ok := fields[n.Content[i].Value]
				if !ok {
					continue
				}
				if err := checkScalars(n.Content[i+1], ft); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkScalar(n *yaml.Node, t reflect.Type) error {
	tag := n.ShortTag()
	if tag == "!!null" {
		return nil
	}

	var ok bool
	switch t.Kind() {
	case reflect.String:
		ok = tag == "!!str"
	case reflect.Bool:
		ok = tag == "!!bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		ok = tag == "!!int"
	case reflect.Float32, reflect.Float64:
		ok = tag == "!!int" || tag == "!!float"
	default:
		return nil
	}
	if !ok {
		return fmt.Errorf("yaml: line %d: cannot decode %s %q into %s", n.Line, tag, n.Value, t)
	}
	return nil
}

// yamlFields maps mapping keys to field types the way yaml.v3 names them:
// the tag name, or the lowercased field name. Inline fields are skipped.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("yaml")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if strings.Contains(opts, "inline") {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields[name] = f.Type
	}
	return fields
}
