package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestAll(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	if len(schemas) != len(registry) {
		t.Errorf("got %d schemas, want %d", len(schemas), len(registry))
	}

	for _, s := range schemas {
		if s.JSON == "" {
			t.Errorf("%s schema is empty", s.Name)
		}
		if !strings.Contains(s.JSON, `"title": "`+s.Name+`"`) {
			t.Errorf("%s schema title does not match its name", s.Name)
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("existing schema", func(t *testing.T) {
		s, err := Get(Invoice)
		if err != nil {
			t.Fatalf("Get(Invoice) error = %v", err)
		}
		if s.Name != Invoice {
			t.Errorf("expected name Invoice, got %s", s.Name)
		}
		if !strings.Contains(s.JSON, "client_name") {
			t.Error("Invoice schema does not mention client_name")
		}
	})

	t.Run("non-existent schema", func(t *testing.T) {
		_, err := Get("NonExistent")
		if err == nil {
			t.Error("expected error for non-existent schema")
		}
	})
}

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	tests := []struct {
		name   string
		schema string
		body   string
		valid  bool
	}{
		{"text ok", AddText, `{"page_index":0,"x":10,"y":20,"value":"hi","font":"Arial"}`, true},
		{"text missing value", AddText, `{"page_index":0,"x":10,"y":20}`, false},
		{"text negative page", AddText, `{"page_index":-1,"x":10,"y":20,"value":"hi"}`, false},
		{"text unknown field", AddText, `{"page_index":0,"x":1,"y":1,"value":"hi","bogus":1}`, false},
		{"invoice ok", Invoice, `{"client_name":"Acme","items":[{"name":"Widget","amount":9.99}]}`, true},
		{"invoice no items", Invoice, `{"client_name":"Acme","items":[]}`, false},
		{"invoice amount string", Invoice, `{"client_name":"Acme","items":[{"name":"W","amount":"9.99"}]}`, false},
		{"reorder ok", ReorderPages, `{"order":[2,0,1,9]}`, true},
		{"reorder not ints", ReorderPages, `{"order":[1.5]}`, false},
		{"fill ok", FillForm, `{"fields":{"name":"Ada","agree":"on"}}`, true},
		{"fill non-string", FillForm, `{"fields":{"agree":true}}`, false},
		{"view action ok", ViewAction, `{"action":"goto","page":3}`, true},
		{"view action unknown", ViewAction, `{"action":"spin"}`, false},
		{"merge too few", Merge, `{"session_ids":["a"]}`, false},
		{"split zero", Split, `{"at":0}`, false},
		{"export empty", Export, `{}`, true},
		{"malformed", AddText, `{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.schema, []byte(tt.body))
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v, want valid", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidator_Decode(t *testing.T) {
	v, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	var req struct {
		Order []int `json:"order"`
	}
	if err := v.Decode(ReorderPages, strings.NewReader(`{"order":[2,1,0]}`), &req); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(req.Order) != 3 || req.Order[0] != 2 {
		t.Errorf("decoded %+v", req)
	}

	var exp struct {
		Filename string `json:"filename"`
	}
	if err := v.Decode(Export, strings.NewReader(""), &exp); err != nil {
		t.Errorf("empty body should validate against Export: %v", err)
	}

	if err := v.Validate("Nope", []byte(`{}`)); err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("unknown schema error = %v", err)
	}
}
