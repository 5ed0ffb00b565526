package lyrics

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"rap-order-service/internal/apperr"
)

//go:embed templates.yaml
var defaultCatalogYAML []byte

var ErrUnknownTemplate = apperr.Validation("unknown template")

var (
	tokenPattern     = regexp.MustCompile(`\{[A-Z0-9_]+\}`)
	fullTokenPattern = regexp.MustCompile(`^\{[A-Z0-9_]+\}$`)
)

type Placeholder struct {
	Token   string `yaml:"token" json:"token"`
	Field   string `yaml:"field" json:"field"`
	Default string `yaml:"default" json:"default"`
}

type Template struct {
	Key          string   `yaml:"key" json:"key"`
	Name         string   `yaml:"name" json:"name"`
	Style        string   `yaml:"style" json:"style"`
	Price        float64  `yaml:"price" json:"price"`
	DeliveryTime string   `yaml:"delivery_time" json:"deliveryTime"`
	Description  string   `yaml:"description" json:"description"`
	Example      string   `yaml:"example" json:"example"`
	Fields       []string `yaml:"fields" json:"fields"`
	Body         string   `yaml:"body" json:"-"`
}

type catalogFile struct {
	Placeholders []Placeholder `yaml:"placeholders"`
	Templates    []Template    `yaml:"templates"`
}

// Catalog is the immutable set of song templates and placeholder defaults.
// It is safe for concurrent use.
type Catalog struct {
	placeholders []Placeholder
	templates    map[string]Template
	keys         []string
}

// DefaultCatalog loads the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalogYAML)
}

// LoadCatalogFile loads a catalog from path, or the embedded one when path is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return LoadCatalog(data)
}

// LoadCatalog parses and validates a YAML catalog. Every token used in a
// template body must be declared as a placeholder.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, errors.New("catalog has no templates")
	}

	known := make(map[string]struct{}, len(file.Placeholders))
	for _, p := range file.Placeholders {
		if !fullTokenPattern.MatchString(p.Token) {
			return nil, fmt.Errorf("placeholder %q: malformed token", p.Token)
		}
		if strings.TrimSpace(p.Default) == "" {
			return nil, fmt.Errorf("placeholder %s: default is required", p.Token)
		}
		if _, dup := known[p.Token]; dup {
			return nil, fmt.Errorf("placeholder %s: declared twice", p.Token)
		}
		known[p.Token] = struct{}{}
	}

	c := &Catalog{
		placeholders: file.Placeholders,
		templates:    make(map[string]Template, len(file.Templates)),
		keys:         make([]string, 0, len(file.Templates)),
	}
	for _, t := range file.Templates {
		if t.Key == "" {
			return nil, errors.New("template with empty key")
		}
		if _, dup := c.templates[t.Key]; dup {
			return nil, fmt.Errorf("template %s: declared twice", t.Key)
		}
		for _, tok := range tokenPattern.FindAllString(t.Body, -1) {
			if _, ok := known[tok]; !ok {
				return nil, fmt.Errorf("template %s: undeclared placeholder %s", t.Key, tok)
			}
		}
		c.templates[t.Key] = t
		c.keys = append(c.keys, t.Key)
	}

	return c, nil
}

// Keys returns template keys in catalog order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

func (c *Catalog) Template(key string) (Template, bool) {
	t, ok := c.templates[key]
	return t, ok
}

// Templates returns all templates in catalog order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.templates[k])
	}
	return out
}

func (c *Catalog) Placeholders() []Placeholder {
	return append([]Placeholder(nil), c.placeholders...)
}
