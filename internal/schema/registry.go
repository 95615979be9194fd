package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request schema names.
const (
	AddText       = "AddText"
	AddAnnotation = "AddAnnotation"
	InsertPage    = "InsertPage"
	ReorderPages  = "ReorderPages"
	ExtractPages  = "ExtractPages"
	FillForm      = "FillForm"
	Invoice       = "Invoice"
	Merge         = "Merge"
	Split         = "Split"
	ViewAction    = "ViewAction"
	ViewKey       = "ViewKey"
	Export        = "Export"
)

// ErrInvalid is returned for a request body that does not match its schema.
var ErrInvalid = errors.New("invalid request")

// Schema is a JSON Schema for one request body.
type Schema struct {
	Name string // Request name (e.g., "AddText")
	JSON string // Schema document
	File string // Embedded file name
}

// registry maps request names to their embedded schema files.
var registry = []Schema{
	{Name: AddText, File: "text.json"},
	{Name: AddAnnotation, File: "annotation.json"},
	{Name: InsertPage, File: "insert_page.json"},
	{Name: ReorderPages, File: "reorder_pages.json"},
	{Name: ExtractPages, File: "extract_pages.json"},
	{Name: FillForm, File: "fill_form.json"},
	{Name: Invoice, File: "invoice.json"},
	{Name: Merge, File: "merge.json"},
	{Name: Split, File: "split.json"},
	{Name: ViewAction, File: "view_action.json"},
	{Name: ViewKey, File: "view_key.json"},
	{Name: Export, File: "export.json"},
}

// All returns all schemas sorted by name.
func All() ([]Schema, error) {
	schemas := make([]Schema, len(registry))
	copy(schemas, registry)

	for i := range schemas {
		content, err := schemaFS.ReadFile("schemas/" + schemas[i].File)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", schemas[i].Name, err)
		}
		schemas[i].JSON = string(content)
	}

	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Name < schemas[j].Name
	})

	return schemas, nil
}

// Get returns a single schema by name.
func Get(name string) (*Schema, error) {
	for _, s := range registry {
		if s.Name == name {
			content, err := schemaFS.ReadFile("schemas/" + s.File)
			if err != nil {
				return nil, fmt.Errorf("failed to read schema %s: %w", s.Name, err)
			}
			s.JSON = string(content)
			return &s, nil
		}
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

// Validator holds the compiled request schemas.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// NewValidator compiles every registered schema.
func NewValidator() (*Validator, error) {
	schemas, err := All()
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	for _, s := range schemas {
		if err := c.AddResource(resourceURL(s.Name), strings.NewReader(s.JSON)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", s.Name, err)
		}
	}

	v := &Validator{compiled: make(map[string]*jsonschema.Schema, len(schemas))}
	for _, s := range schemas {
		compiled, err := c.Compile(resourceURL(s.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", s.Name, err)
		}
		v.compiled[s.Name] = compiled
	}
	return v, nil
}

func resourceURL(name string) string {
	return "folio://schemas/" + strings.ToLower(name) + ".json"
}

// Validate checks raw JSON against the named schema.
func (v *Validator) Validate(name string, raw []byte) error {
	s, ok := v.compiled[name]
	if !ok {
		return fmt.Errorf("schema not found: %s", name)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInvalid, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return nil
}

// Decode reads a request body from r, validates it against the named
// schema and unmarshals it into dst.
func (v *Validator) Decode(name string, r io.Reader, dst any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrInvalid, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := v.Validate(name, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// describe flattens a validation error to its innermost messages.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a process-wide validator compiled on first use. The
// schemas are embedded, so an error here is a build defect.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}
