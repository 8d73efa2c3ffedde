package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// File is the on-disk keymap format. Keys are matrix positions written as
// decimal strings so the same document works in JSON, YAML and TOML.
type File struct {
	DefaultLayer string              `json:"defaultLayer,omitempty" yaml:"defaultLayer,omitempty" toml:"defaultLayer,omitempty"`
	Layers       []FileLayer         `json:"layers" yaml:"layers" toml:"layers"`
	Macros       map[string][]string `json:"macros,omitempty" yaml:"macros,omitempty" toml:"macros,omitempty"`
}

// FileLayer is one layer of a File.
type FileLayer struct {
	Name string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Keys map[string]string `json:"keys" yaml:"keys" toml:"keys"`
}

// Load reads and validates a keymap file. The format is chosen by extension:
// .yaml/.yml, .toml, anything else is JSON.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	f, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("decode keymap %s: %w", path, err)
	}
	t, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("keymap %s: %w", path, err)
	}
	return t, nil
}

// FormatFromPath maps a file extension to "json", "yaml" or "toml".
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// Decode parses a keymap document in the given format.
func Decode(data []byte, format string) (*File, error) {
	var f File
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &f)
	case "toml":
		err = toml.Unmarshal(data, &f)
	case "json":
		err = json.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Build parses every binding and macro step and validates the result.
func (f *File) Build() (*Table, error) {
	if len(f.Layers) == 0 {
		return nil, ErrNoLayers
	}

	names := Names{
		Layers:    make(map[string]LayerID, len(f.Layers)),
		NumLayers: len(f.Layers),
		Macros:    make(map[string]MacroID, len(f.Macros)),
		NumMacros: len(f.Macros),
	}
	for i, l := range f.Layers {
		if l.Name != "" {
			names.Layers[l.Name] = LayerID(i)
		}
	}

	macroNames := make([]string, 0, len(f.Macros))
	for name := range f.Macros {
		macroNames = append(macroNames, name)
	}
	sort.Strings(macroNames)

	var errs []error
	scripts := make([]Script, 0, len(macroNames))
	for i, name := range macroNames {
		names.Macros[name] = MacroID(i)
		s := Script{Name: name}
		for _, text := range f.Macros[name] {
			steps, err := ParseSteps(text)
			if err != nil {
				errs = append(errs, fmt.Errorf("macro %s: %w", name, err))
				continue
			}
			s.Steps = append(s.Steps, steps...)
		}
		scripts = append(scripts, s)
	}

	def := LayerID(0)
	if f.DefaultLayer != "" {
		id, err := lookupLayer(f.DefaultLayer, names)
		if err != nil {
			errs = append(errs, fmt.Errorf("default layer: %w", err))
		}
		def = id
	}

	layers := make([]Layer, len(f.Layers))
	for i, fl := range f.Layers {
		layers[i] = Layer{Name: fl.Name, Keys: make(map[KeyID]Binding, len(fl.Keys))}
		for ks, text := range fl.Keys {
			k, err := strconv.ParseUint(strings.TrimSpace(ks), 10, 16)
			if err != nil {
				errs = append(errs, fmt.Errorf("layer %d: %w: bad key id %q", i, ErrMalformedBinding, ks))
				continue
			}
			b, err := ParseBinding(text, names)
			if err != nil {
				errs = append(errs, fmt.Errorf("layer %d key %d: %w", i, k, err))
				continue
			}
			layers[i].Keys[KeyID(k)] = b
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewTable(def, layers, scripts)
}
