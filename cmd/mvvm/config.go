package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// document is the TOML file the CLI binds: plain data, computed properties
// written as templates over that data, and the bindings to keep current.
type document struct {
	Data     map[string]any    `toml:"data"`
	Computed map[string]string `toml:"computed"`
	Bind     []bindingConfig   `toml:"bind"`
}

type bindingConfig struct {
	Name  string `toml:"name"`
	Text  string `toml:"text"`
	Model string `toml:"model"`
}

func (b bindingConfig) kind() string {
	if b.Model != "" {
		return "model"
	}
	return "text"
}

func loadDocument(path string) (*document, error) {
	var doc document
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	// tables nested under [data] land in a map[string]any whole and are
	// reported undecoded, so only keys outside data are unknown
	var unknown []string
	for _, k := range meta.Undecoded() {
		if len(k) > 0 && k[0] == "data" {
			continue
		}
		unknown = append(unknown, k.String())
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("load document: unknown keys %s", strings.Join(unknown, ", "))
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return &doc, nil
}

func (d *document) validate() error {
	seen := map[string]bool{}
	for i := range d.Bind {
		b := &d.Bind[i]
		b.Name = strings.TrimSpace(b.Name)
		if b.Name == "" {
			b.Name = fmt.Sprintf("bind%d", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate binding name %q", b.Name)
		}
		seen[b.Name] = true

		hasText, hasModel := b.Text != "", strings.TrimSpace(b.Model) != ""
		if hasText == hasModel {
			return fmt.Errorf("binding %q: set exactly one of text or model", b.Name)
		}
	}
	return nil
}

// parseValue reads raw as a TOML value so that --set n=3 writes an integer
// and --set a={b=5} writes a table. Anything that is not valid TOML is taken
// as a bare string.
func parseValue(raw string) any {
	var v struct {
		V any `toml:"v"`
	}
	if _, err := toml.Decode("v = "+raw, &v); err != nil {
		return raw
	}
	return v.V
}

// parseAssignment splits "path=value".
func parseAssignment(s string) (path string, value any, err error) {
	path, raw, ok := strings.Cut(s, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", nil, fmt.Errorf("assignment %q: want path=value", s)
	}
	return path, parseValue(strings.TrimSpace(raw)), nil
}
