package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/asrkit/errors"
)

func fieldsOf(t *testing.T, err error) []FieldError {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T (%v)", err, err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected fields detail, got %v", appErr.Details)
	}
	return fields
}

func TestValidatorRequired(t *testing.T) {
	if err := New().Required("directory", "corpus").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := New().Required("directory", "   ").Validate()
	fields := fieldsOf(t, err)
	if len(fields) != 1 || fields[0].Field != "directory" {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestValidatorRequiredUUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantMsg string
	}{
		{"valid", "4f1c2d0e-6a4b-4e8e-9d1a-0b6f3c2e1a77", ""},
		{"empty", "", "is required"},
		{"malformed", "run-1", "must be a valid UUID"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := New().RequiredUUID("id", tc.value).Validate()
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			fields := fieldsOf(t, err)
			if fields[0].Message != tc.wantMsg {
				t.Errorf("expected %q, got %q", tc.wantMsg, fields[0].Message)
			}
		})
	}
}

func TestValidatorChaining(t *testing.T) {
	err := New().
		Range("workers", 0, 1, 64).
		OneOf("match", "first", []string{"longest", "all"}).
		Custom(false, "marker", "must not be empty").
		Validate()
	fields := fieldsOf(t, err)
	if len(fields) != 3 {
		t.Fatalf("expected 3 errors, got %d (%v)", len(fields), fields)
	}
	if !strings.Contains(err.Error(), "workers: must be between 1 and 64") {
		t.Errorf("message should list each field, got %q", err.Error())
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := New().Range("workers", 4, 1, 64).OneOf("match", "all", []string{"longest", "all"})
	if v.HasErrors() {
		t.Errorf("unexpected errors %v", v.Errors())
	}
	if err := v.Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

type segmentBody struct {
	Start float64 `json:"start" validate:"gte=0"`
	End   float64 `json:"end" validate:"gte=0"`
	Text  string  `json:"text"`
}

type textGridBody struct {
	Segments []segmentBody `json:"segments" validate:"required,min=1,dive"`
	Duration float64       `json:"duration" validate:"gte=0"`
	Tier     string        `json:"tier" validate:"max=64"`
}

type sectionConfig struct {
	Marker  string `mapstructure:"marker" validate:"required"`
	Workers int    `mapstructure:"workers" validate:"gt=0"`
	Match   string `mapstructure:"match" validate:"oneof=longest all"`
}

func TestStructValidateValid(t *testing.T) {
	body := textGridBody{
		Segments: []segmentBody{{Start: 0, End: 2.5, Text: "hello"}},
		Duration: 6,
	}
	if err := Validate(body); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStructValidateUsesJSONNames(t *testing.T) {
	body := textGridBody{Duration: -1}
	fields := fieldsOf(t, Validate(body))

	names := map[string]string{}
	for _, f := range fields {
		names[f.Field] = f.Message
	}
	if names["segments"] != "is required" {
		t.Errorf("expected segments is required, got %v", names)
	}
	if names["duration"] != "must be at least 0" {
		t.Errorf("expected duration bound message, got %v", names)
	}
}

func TestStructValidateNestedPath(t *testing.T) {
	body := textGridBody{Segments: []segmentBody{{Start: -1, End: 1}}, Duration: 1}
	fields := fieldsOf(t, Validate(body))
	if fields[0].Field != "segments[0].start" {
		t.Errorf("expected nested path segments[0].start, got %q", fields[0].Field)
	}
}

func TestStructValidateUsesMapstructureNames(t *testing.T) {
	fields := fieldsOf(t, Validate(sectionConfig{Workers: 0, Match: "first"}))
	got := map[string]bool{}
	for _, f := range fields {
		got[f.Field] = true
	}
	for _, want := range []string{"marker", "workers", "match"} {
		if !got[want] {
			t.Errorf("expected field %q in %v", want, fields)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Workers":     "workers",
		"HistoryPath": "history_path",
		"tier":        "tier",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
