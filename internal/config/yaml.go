package config

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML or JSON configuration. Types, fields and arguments
// keep the order in which they are written.
func FromYAML(src []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(src, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (t *Types) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeMapping(node, "types", func(v *Type, name string) { v.Name = name })
	if err != nil {
		return err
	}
	*t = items
	return nil
}

func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeMapping(node, "fields", func(v *Field, name string) { v.Name = name })
	if err != nil {
		return err
	}
	*f = items
	return nil
}

func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeMapping(node, "args", func(v *Arg, name string) { v.Name = name })
	if err != nil {
		return err
	}
	*a = items
	return nil
}

func decodeMapping[T any](node *yaml.Node, what string, setName func(*T, string)) ([]*T, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: %s must be a mapping", node.Line, what)
	}
	items := make([]*T, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		item := new(T)
		if err := value.Decode(item); err != nil {
			return nil, errors.Wrapf(err, "%s %q", what, key.Value)
		}
		setName(item, key.Value)
		items = append(items, item)
	}
	return items, nil
}

// normalize rewrites literal values into the shape JSON decoding produces
// (float64 numbers, map[string]any objects) so that const data and argument
// defaults look the same regardless of the input format.
func (c *Config) normalize() error {
	for _, t := range c.Types {
		for _, f := range t.Fields {
			if f.Const != nil {
				data, err := normalizeJSON(f.Const.Data)
				if err != nil {
					return errors.Wrapf(err, "%s.%s: invalid const data", t.Name, f.Name)
				}
				f.Const.Data = data
			}
			for _, a := range f.Args {
				if a.Default == nil {
					continue
				}
				def, err := normalizeJSON(a.Default)
				if err != nil {
					return errors.Wrapf(err, "%s.%s(%s): invalid default", t.Name, f.Name, a.Name)
				}
				a.Default = def
			}
		}
	}
	return nil
}

func normalizeJSON(v any) (any, error) {
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
