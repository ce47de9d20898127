package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/pagewalk/internal/document"
)

// FieldDefinition is the YAML form of a FieldSpec.
type FieldDefinition struct {
	// Selector is an XPath query, or a CSS query prefixed with "css:".
	Selector string `yaml:"selector"`

	// Normalize lists normalizer specs applied in order.
	Normalize []string `yaml:"normalize,omitempty"`
}

// ItemDefinition groups the detail page fields.
type ItemDefinition struct {
	Title    FieldDefinition `yaml:"title"`
	Duration FieldDefinition `yaml:"duration"`
	Tags     FieldDefinition `yaml:"tags"`
}

// FieldsDefinition groups every field of a source.
type FieldsDefinition struct {
	PreviousPage   FieldDefinition `yaml:"previousPage"`
	ItemLinks      FieldDefinition `yaml:"itemLinks"`
	ItemThumbnails FieldDefinition `yaml:"itemThumbnails"`
	Item           ItemDefinition  `yaml:"item"`
}

// Definition is the YAML form of a Source.
type Definition struct {
	// Name identifies the source, e.g. "youjizz".
	Name string `yaml:"name"`

	// URL is the base address.
	URL string `yaml:"url"`

	// Favicon may be relative to URL.
	Favicon string `yaml:"favicon,omitempty"`

	// EntryPoint may be relative to URL. Empty means URL itself.
	EntryPoint string `yaml:"entryPoint,omitempty"`

	// Fields are the extraction rules.
	Fields FieldsDefinition `yaml:"fields"`
}

// ParseDefinition decodes one YAML definition. Unknown keys are rejected.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoName
		}
		return nil, fmt.Errorf("decode source definition: %w", err)
	}
	return &def, nil
}

// LoadFile reads a YAML definition from path and builds a Source from it.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided definition path is intentional
	if err != nil {
		return nil, err
	}
	src, err := Load(data)
	if err != nil {
		var de *DefinitionError
		if errors.As(err, &de) && de.Source == "" {
			de.Source = path
		}
		return nil, err
	}
	return src, nil
}

// Load builds a Source from YAML bytes.
func Load(data []byte) (*Source, error) {
	def, err := ParseDefinition(bytes.NewReader(data))
	if err != nil {
		return nil, &DefinitionError{Err: err}
	}
	return NewSource(def)
}

// NewSource validates def and compiles its selectors and normalizers.
func NewSource(def *Definition) (*Source, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, &DefinitionError{Err: ErrNoName}
	}

	base, err := url.Parse(strings.TrimSpace(def.URL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, &DefinitionError{Source: name, Field: "url", Err: ErrInvalidBaseURL}
	}

	src := &Source{
		Name:    name,
		BaseURL: base,
	}
	if def.Favicon != "" {
		src.Favicon = src.Resolve(def.Favicon)
	}
	src.EntryPoint = base.String()
	if def.EntryPoint != "" {
		src.EntryPoint = src.Resolve(def.EntryPoint)
	}

	env := Env{BaseURL: base}
	fields := []struct {
		name string
		def  FieldDefinition
		dst  *FieldSpec
	}{
		{FieldPreviousPage, def.Fields.PreviousPage, &src.Schema.PreviousPage},
		{FieldItemLinks, def.Fields.ItemLinks, &src.Schema.ItemLinks},
		{FieldItemThumbnails, def.Fields.ItemThumbnails, &src.Schema.ItemThumbnails},
		{FieldTitle, def.Fields.Item.Title, &src.Schema.Title},
		{FieldDuration, def.Fields.Item.Duration, &src.Schema.Duration},
		{FieldTags, def.Fields.Item.Tags, &src.Schema.Tags},
	}
	for _, f := range fields {
		spec, err := compileField(f.name, f.def, env)
		if err != nil {
			return nil, &DefinitionError{Source: name, Field: f.name, Err: err}
		}
		*f.dst = spec
	}

	return src, nil
}

func compileField(name string, def FieldDefinition, env Env) (FieldSpec, error) {
	if strings.TrimSpace(def.Selector) == "" {
		return FieldSpec{}, ErrMissingSelector
	}
	sel, err := document.Compile(def.Selector)
	if err != nil {
		return FieldSpec{}, err
	}
	n, err := Compile(def.Normalize, env)
	if err != nil {
		return FieldSpec{}, err
	}
	return FieldSpec{Name: name, Selector: sel, Normalize: n}, nil
}
