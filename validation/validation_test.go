package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/seqkit/errors"
)

func TestValidatorMin(t *testing.T) {
	v := New()
	v.Min("step", 1, 1)
	if v.HasErrors() {
		t.Error("expected no errors at the minimum")
	}

	v2 := New()
	v2.Min("step", 0, 1)
	if !v2.HasErrors() {
		t.Error("expected error below the minimum")
	}
}

func TestValidatorRange(t *testing.T) {
	tests := []struct {
		value float64
		ok    bool
	}{
		{0, true},
		{0.5, true},
		{1, true},
		{-0.1, false},
		{1.5, false},
	}
	for _, tc := range tests {
		v := New().Range("sample_rate", tc.value, 0, 1)
		if v.HasErrors() == tc.ok {
			t.Errorf("Range(%g): expected ok=%v, got errors %v", tc.value, tc.ok, v.Errors())
		}
	}
}

func TestValidatorRegexp(t *testing.T) {
	if New().Regexp("grep", "").HasErrors() {
		t.Error("expected empty pattern to be accepted")
	}
	if New().Regexp("grep", "^a.*z$").HasErrors() {
		t.Error("expected valid pattern to be accepted")
	}
	if !New().Regexp("grep", "(unclosed").HasErrors() {
		t.Error("expected invalid pattern to be rejected")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"json", "console"}

	if New().OneOf("format", "json", allowed).HasErrors() {
		t.Error("expected no errors for an allowed value")
	}
	if New().OneOf("format", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	if !New().OneOf("format", "xml", allowed).HasErrors() {
		t.Error("expected error for a value outside the set")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "field", "should not appear")
	if v.HasErrors() {
		t.Error("expected no errors when condition is true")
	}

	v.Custom(false, "count", "cannot be combined with --pool")
	if len(v.Errors()) != 1 || v.Errors()[0].Message != "cannot be combined with --pool" {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
}

func TestValidatorErr(t *testing.T) {
	if err := New().Err(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}

	err := New().Min("step", 0, 1).Min("pool", -1, 1).Err()
	if !stderrors.Is(err, errors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "step: must be at least 1") || !strings.Contains(err.Error(), "pool:") {
		t.Errorf("expected both fields in %q", err.Error())
	}
	appErr, _ := errors.AsAppError(err)
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

type limits struct {
	MaterializeLimit int `mapstructure:"materialize_limit" validate:"gte=0"`
}

type observe struct {
	Endpoint   string  `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type settings struct {
	Name          string  `mapstructure:"name" validate:"required"`
	Format        string  `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Pipeline      limits  `mapstructure:"pipeline"`
	Observability observe `mapstructure:"observability"`
	PlainField    string  `validate:"omitempty,min=3"`
}

func TestStructValidateValid(t *testing.T) {
	s := settings{
		Name:          "seqkit",
		Format:        "json",
		Observability: observe{Endpoint: "localhost:4318", SampleRate: 0.5},
	}
	if err := Validate(s); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	s := settings{
		Format:        "xml",
		Pipeline:      limits{MaterializeLimit: -1},
		Observability: observe{Endpoint: "no-port", SampleRate: 2},
		PlainField:    "ab",
	}
	err := Validate(s)
	if !stderrors.Is(err, errors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	for _, want := range []string{
		"name: is required",
		"format: must be one of: json console",
		"pipeline.materialize_limit: must be at least 0",
		"observability.endpoint: must be host:port",
		"observability.sample_rate: must be at most 1",
		"plain_field: must be at least 3 characters",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":             "name",
		"MaterializeLimit": "materialize_limit",
		"NoColor":          "no_color",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
