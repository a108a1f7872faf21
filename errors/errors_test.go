package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotCallable, "map needs a function")
	if err.Code != ErrCodeNotCallable {
		t.Errorf("expected code %s, got %s", ErrCodeNotCallable, err.Code)
	}
	if err.Message != "map needs a function" {
		t.Errorf("expected message 'map needs a function', got %q", err.Message)
	}
	if err.Evaluation {
		t.Error("NOT_CALLABLE should not be an evaluation error")
	}
}

func TestAppError_New_Evaluation(t *testing.T) {
	err := New(ErrCodeUnhashableKey, "bad key")
	if !err.Evaluation {
		t.Error("UNHASHABLE_KEY should be an evaluation error")
	}
}

func TestAppError_UnsupportedSource(t *testing.T) {
	err := UnsupportedSource(42)
	if err.Code != ErrCodeUnsupportedSource {
		t.Errorf("expected UNSUPPORTED_SOURCE, got %s", err.Code)
	}
	if err.Details["type"] != "int" {
		t.Errorf("expected type=int, got %v", err.Details["type"])
	}
	if !strings.Contains(err.Message, "int") {
		t.Errorf("expected message to name the type, got %q", err.Message)
	}
}

func TestAppError_InvalidArgument(t *testing.T) {
	err := InvalidArgument("StepBy", "step", 0)
	if err.Code != ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT, got %s", err.Code)
	}
	if err.Details["argument"] != "step" {
		t.Errorf("expected argument=step, got %v", err.Details["argument"])
	}
	if err.Details["value"] != 0 {
		t.Errorf("expected value=0, got %v", err.Details["value"])
	}
}

func TestAppError_InfiniteCollection(t *testing.T) {
	err := InfiniteCollection("Collect")
	if !strings.Contains(err.Message, "Take") {
		t.Errorf("expected message to point at Take, got %q", err.Message)
	}
	if err.Evaluation {
		t.Error("INFINITE_COLLECTION is raised before pulling")
	}
}

func TestIsEvaluationCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeUnsupportedSource, false},
		{ErrCodeNotCallable, false},
		{ErrCodeInvalidArgument, false},
		{ErrCodeInfiniteCollection, false},
		{ErrCodeUnhashableKey, true},
		{ErrCodeMaterializeLimit, true},
		{ErrCodeInternal, true},
		{ErrCodeInvalidConfig, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := IsEvaluationCode(tt.code); got != tt.want {
				t.Errorf("IsEvaluationCode(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestAppError_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"unsupported", UnsupportedSource(struct{}{}), ErrUnsupportedSource},
		{"not callable", NotCallable("Map"), ErrNotCallable},
		{"invalid argument", InvalidArgument("Pool", "size", -1), ErrInvalidArgument},
		{"infinite", InfiniteCollection("Count"), ErrInfiniteCollection},
		{"unhashable", UnhashableKey("Distinct", []int{1}), ErrUnhashableKey},
		{"limit", MaterializeLimit("Sort", 10), ErrMaterializeLimit},
		{"config", InvalidConfig("bad"), ErrInvalidConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !stderrors.Is(tc.err, tc.sentinel) {
				t.Errorf("expected %v to match its sentinel", tc.err)
			}
			wrapped := fmt.Errorf("outer: %w", tc.err)
			if !stderrors.Is(wrapped, tc.sentinel) {
				t.Error("expected wrapped error to match its sentinel")
			}
		})
	}
	if stderrors.Is(NotCallable("Map"), ErrInvalidArgument) {
		t.Error("different codes must not match")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := UnhashableKey("Distinct", []int{}).WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotCallable("Filter").WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["operation"] != "Filter" {
		t.Error("expected original details to be preserved")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized")
	}
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	s := MaterializeLimit("Sort", 3).Error()
	if !strings.Contains(s, "MATERIALIZE_LIMIT") {
		t.Errorf("expected error string to contain code, got %q", s)
	}
	if !strings.Contains(s, "3") {
		t.Errorf("expected error string to contain limit, got %q", s)
	}
}

func TestCode(t *testing.T) {
	if got := Code(fmt.Errorf("wrap: %w", NotCallable("Map"))); got != ErrCodeNotCallable {
		t.Errorf("expected NOT_CALLABLE, got %q", got)
	}
	if got := Code(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not convert")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", Internal(nil)))
	if !ok || appErr.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %v", appErr)
	}
	if !IsAppError(appErr) {
		t.Error("expected IsAppError to be true")
	}
}
