package edit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
)

// Field types reported by FormFields.
const (
	FieldText     = "text"
	FieldDate     = "date"
	FieldCheckBox = "checkbox"
	FieldComboBox = "combobox"
	FieldListBox  = "listbox"
	FieldRadio    = "radio"
)

// Field is one AcroForm field.
type Field struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	Pages []int  `json:"pages,omitempty"`
}

// FormFields lists the form fields in doc. A document without a form has no
// fields.
func FormFields(doc []byte) ([]Field, error) {
	fs, err := api.FormFields(bytes.NewReader(doc), Configuration())
	if err != nil {
		if isNoForm(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}

	fields := make([]Field, 0, len(fs))
	for _, f := range fs {
		fields = append(fields, Field{
			ID:    f.ID,
			Name:  f.Name,
			Type:  fieldType(f.Typ),
			Value: f.V,
			Pages: f.Pages,
		})
	}
	return fields, nil
}

func isNoForm(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no form") || strings.Contains(msg, "no acroform")
}

func fieldType(t form.FieldType) string {
	switch t {
	case form.FTText:
		return FieldText
	case form.FTDate:
		return FieldDate
	case form.FTCheckBox:
		return FieldCheckBox
	case form.FTComboBox:
		return FieldComboBox
	case form.FTListBox:
		return FieldListBox
	case form.FTRadioButtonGroup:
		return FieldRadio
	}
	return "unknown"
}

// FillForm sets every field whose name appears in data. Checkbox fields are
// checked for "true", "on", "yes", "1" or "checked". Names that are
// not in the form are ignored; when nothing matches the result is ErrNoOp.
func FillForm(data map[string]string) Op {
	return func(ctx context.Context, doc []byte) ([]byte, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		fields, err := FormFields(doc)
		if err != nil {
			return nil, err
		}
		payload, n := buildFormPayload(fields, data)
		if n == 0 {
			return nil, ErrNoOp
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form data: %w", err)
		}

		var out bytes.Buffer
		if err := api.FillForm(bytes.NewReader(doc), bytes.NewReader(raw), &out, Configuration()); err != nil {
			return nil, fmt.Errorf("failed to fill form: %w", err)
		}
		return out.Bytes(), nil
	}
}

// formPayload is the pdfcpu form JSON layout.
type formPayload struct {
	Forms []formGroup `json:"forms"`
}

type formGroup struct {
	TextFields  []formValue `json:"textfield,omitempty"`
	DateFields  []formValue `json:"datefield,omitempty"`
	CheckBoxes  []formCheck `json:"checkbox,omitempty"`
	ComboBoxes  []formValue `json:"combobox,omitempty"`
	RadioGroups []formValue `json:"radiobuttongroup,omitempty"`
	ListBoxes   []formList  `json:"listbox,omitempty"`
}

type formValue struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type formCheck struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

type formList struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// buildFormPayload matches data against the document's fields and returns the
// fill payload along with the number of fields it sets.
func buildFormPayload(fields []Field, data map[string]string) (formPayload, int) {
	var g formGroup
	n := 0
	for _, f := range fields {
		v, ok := data[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case FieldText:
			g.TextFields = append(g.TextFields, formValue{ID: f.ID, Name: f.Name, Value: v})
		case FieldDate:
			g.DateFields = append(g.DateFields, formValue{ID: f.ID, Name: f.Name, Value: v})
		case FieldCheckBox:
			g.CheckBoxes = append(g.CheckBoxes, formCheck{ID: f.ID, Name: f.Name, Value: truthy(v)})
		case FieldComboBox:
			g.ComboBoxes = append(g.ComboBoxes, formValue{ID: f.ID, Name: f.Name, Value: v})
		case FieldRadio:
			g.RadioGroups = append(g.RadioGroups, formValue{ID: f.ID, Name: f.Name, Value: v})
		case FieldListBox:
			g.ListBoxes = append(g.ListBoxes, formList{ID: f.ID, Name: f.Name, Values: splitList(v)})
		default:
			continue
		}
		n++
	}
	return formPayload{Forms: []formGroup{g}}, n
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes", "checked":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
