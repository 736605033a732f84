// Package background turns a background selection (catalog template, uploaded
// image, or generated design) into a single descriptor shared by the editor
// and the immersive preview.
package background

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/dukerupert/invibe/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Template is a selectable background in the catalog.
type Template struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Style string `yaml:"style" json:"style"`
}

// Prompt is a suggested design-studio prompt.
type Prompt struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
}

// Catalog is the fixed set of templates and prompts.
type Catalog struct {
	Default   string     `yaml:"default" json:"default"`
	Templates []Template `yaml:"templates" json:"templates"`
	Recent    []Template `yaml:"recent" json:"recent"`
	Prompts   []Prompt   `yaml:"prompts" json:"prompts"`

	byID map[string]Template
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a YAML catalog and checks that ids are unique and the
// default template exists.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c.byID = make(map[string]Template, len(c.Templates)+len(c.Recent))
	for _, list := range [][]Template{c.Templates, c.Recent} {
		for _, t := range list {
			if t.ID == "" || t.Style == "" {
				return nil, fmt.Errorf("catalog template %q: id and style are required", t.ID)
			}
			if _, dup := c.byID[t.ID]; dup {
				return nil, fmt.Errorf("catalog template %q: duplicate id", t.ID)
			}
			c.byID[t.ID] = t
		}
	}

	if c.Default == "" {
		c.Default = model.DefaultTemplateID
	}
	if _, ok := c.byID[c.Default]; !ok {
		return nil, fmt.Errorf("catalog default %q is not a template", c.Default)
	}
	return &c, nil
}

// MustLoadCatalog is LoadCatalog for program start-up and tests.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the template with the given id.
func (c *Catalog) Lookup(id string) (Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Style resolves a descriptor to the style string the client paints with: the
// template's classes, or a url(...) for images.
func (c *Catalog) Style(bg model.Background) string {
	switch bg.Kind {
	case model.BackgroundTemplate:
		return c.templateStyle(bg.TemplateID)
	case model.BackgroundUploaded:
		return cssURL(bg.ImageData)
	case model.BackgroundGenerated:
		// Generators answer with either a catalog id or an image location.
		if t, ok := c.byID[bg.Result]; ok {
			return t.Style
		}
		return cssURL(bg.Result)
	default:
		return c.templateStyle(c.Default)
	}
}

func (c *Catalog) templateStyle(id string) string {
	if t, ok := c.byID[id]; ok {
		return t.Style
	}
	return c.byID[c.Default].Style
}

// urlEscaper percent-encodes the characters that would end or break out of
// an unquoted url(...).
var urlEscaper = strings.NewReplacer(
	"(", "%28", ")", "%29",
	"'", "%27", `"`, "%22", `\`, "%5C",
	" ", "%20", "\t", "%09", "\n", "%0A", "\r", "%0D",
)

func cssURL(ref string) string {
	return "url(" + urlEscaper.Replace(ref) + ")"
}
