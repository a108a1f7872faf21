package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seqkit(t *testing.T, ctx context.Context, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(ctx, args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeLines(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"passthrough", "a\nb\n", nil, "a\nb\n"},
		{"grep", "apple\nbanana\ncherry\n", []string{"--grep", "an"}, "banana\n"},
		{"grep invert", "apple\nbanana\ncherry\n", []string{"-g", "an", "-v"}, "apple\ncherry\n"},
		{"skip and take", "1\n2\n3\n4\n5\n", []string{"--skip", "1", "--take", "2"}, "2\n3\n"},
		{"take zero", "1\n2\n", []string{"-n", "0"}, ""},
		{"skip while blank", "\n  \nx\n\ny\n", []string{"--skip-while-blank"}, "x\n\ny\n"},
		{"distinct", "b\na\nb\nc\na\n", []string{"--distinct"}, "b\na\nc\n"},
		{"upper sort", "pear\napple\nfig\n", []string{"--upper", "--sort"}, "APPLE\nFIG\nPEAR\n"},
		{"reverse", "1\n2\n3\n", []string{"--reverse"}, "3\n2\n1\n"},
		{"step", "0\n1\n2\n3\n4\n5\n6\n", []string{"--step", "3"}, "0\n3\n6\n"},
		{"pool", "a\nb\nc\nd\ne\n", []string{"--pool", "2"}, "a\tb\nc\td\ne\n"},
		{"number", "x\ny\n", []string{"--number"}, "1\tx\n2\ty\n"},
		{"count", "a\nb\nc\n", []string{"--grep", "[ab]", "--count"}, "2\n"},
		{"count empty", "", []string{"-c"}, "0\n"},
		{"stages in fixed order", "c\nb\na\nb\n", []string{"--number", "--sort", "--distinct"}, "1\ta\n2\tb\n3\tc\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errOut := seqkit(t, context.Background(), tc.stdin, tc.args...)
			if code != exitOK {
				t.Fatalf("expected exit 0, got %d: %s", code, errOut)
			}
			if diff := cmp.Diff(tc.want, out); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunFiles(t *testing.T) {
	a := writeLines(t, "a.txt", "one", "two")
	b := writeLines(t, "b.txt", "three")

	code, out, errOut := seqkit(t, context.Background(), "from stdin\n", a, "-", b)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if diff := cmp.Diff("one\ntwo\nfrom stdin\nthree\n", out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"step zero", []string{"--step", "0"}, "step: must be at least 1"},
		{"negative pool", []string{"--pool", "-1"}, "pool: must be at least 0"},
		{"invert without grep", []string{"--invert"}, "invert: requires --grep"},
		{"bad pattern", []string{"--grep", "("}, "grep: must be a valid regular expression"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
		{"bad log level", []string{"--log-level", "loud"}, "logging.level"},
		{"missing config", []string{"--config", "/nonexistent/seqkit.yml"}, "not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, errOut := seqkit(t, context.Background(), "", tc.args...)
			if code != exitUsage {
				t.Errorf("expected exit %d, got %d", exitUsage, code)
			}
			if !strings.Contains(errOut, tc.want) {
				t.Errorf("expected %q in stderr, got %q", tc.want, errOut)
			}
		})
	}
}

func TestRunHelpAndVersion(t *testing.T) {
	code, _, errOut := seqkit(t, context.Background(), "", "--help")
	if code != exitOK || !strings.Contains(errOut, "Usage: seqkit") {
		t.Errorf("expected usage on stderr and exit 0, got %d %q", code, errOut)
	}

	code, out, _ := seqkit(t, context.Background(), "", "--version")
	if code != exitOK || !strings.HasPrefix(out, "seqkit ") {
		t.Errorf("expected version output, got %d %q", code, out)
	}
}

func TestRunMaterializeLimit(t *testing.T) {
	code, out, errOut := seqkit(t, context.Background(), "c\nb\na\n", "--sort", "--materialize-limit", "2")
	if code != exitFailure {
		t.Fatalf("expected exit %d, got %d", exitFailure, code)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if !strings.Contains(errOut, "MATERIALIZE_LIMIT") {
		t.Errorf("expected the error code in stderr, got %q", errOut)
	}
}

func TestRunMaterializeLimitFromEnv(t *testing.T) {
	t.Setenv("SEQKIT_PIPELINE_MATERIALIZE_LIMIT", "1")
	code, _, errOut := seqkit(t, context.Background(), "a\nb\n", "--reverse")
	if code != exitFailure || !strings.Contains(errOut, "MATERIALIZE_LIMIT") {
		t.Errorf("expected the env limit to apply, got %d %q", code, errOut)
	}
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqkit.yml")
	if err := os.WriteFile(path, []byte("pipeline:\n  materialize_limit: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, _ := seqkit(t, context.Background(), "a\nb\n", "--config", path, "--distinct")
	if code != exitFailure {
		t.Errorf("expected the file limit to apply, got %d", code)
	}
	code, out, errOut := seqkit(t, context.Background(), "a\nb\n", "--config", path, "--distinct", "--materialize-limit", "5")
	if code != exitOK || out != "a\nb\n" {
		t.Errorf("expected the flag to override the file, got %d %q %q", code, out, errOut)
	}
}

func TestRunMissingFile(t *testing.T) {
	code, _, errOut := seqkit(t, context.Background(), "", "/nonexistent/input.txt")
	if code != exitFailure {
		t.Errorf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(errOut, "input.txt") {
		t.Errorf("expected the path in stderr, got %q", errOut)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, _, _ := seqkit(t, ctx, "a\nb\n")
	if code != exitCanceled {
		t.Errorf("expected exit %d, got %d", exitCanceled, code)
	}
}

func TestLineSourceClosesFiles(t *testing.T) {
	a := writeLines(t, "a.txt", "x", "y")
	src := newLineSource(nil, []string{a})
	ctx := context.Background()

	line, ok, err := src.Next(ctx)
	if err != nil || !ok || line != "x" {
		t.Fatalf("unexpected first pull: %q %v %v", line, ok, err)
	}
	if src.file == nil {
		t.Fatal("expected the file to be open")
	}
	if err := src.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if src.file != nil {
		t.Error("expected the file to be released")
	}
	if _, ok, _ := src.Next(ctx); ok {
		t.Error("expected a closed source to be exhausted")
	}
}

func TestRunDebugLogging(t *testing.T) {
	t.Setenv("SEQKIT_LOGGING_FORMAT", "json")
	code, _, errOut := seqkit(t, context.Background(), "b\na\n", "--log-level", "debug", "--sort")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}

	byComponent := map[string][]map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(errOut), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("expected JSON log lines, got %q: %v", line, err)
		}
		c, _ := entry["component"].(string)
		byComponent[c] = append(byComponent[c], entry)
	}

	cli := byComponent["cli"]
	if len(cli) != 1 || cli[0]["message"] != "seqkit finished" {
		t.Fatalf("expected one cli entry, got %v", cli)
	}
	if _, ok := cli[0]["duration_ms"]; !ok {
		t.Errorf("expected a duration on the cli entry, got %v", cli[0])
	}
	if len(byComponent["pipeline"]) == 0 {
		t.Error("expected pipeline entries through the global logger")
	}
}

func TestRunFailureIsLogged(t *testing.T) {
	t.Setenv("SEQKIT_LOGGING_FORMAT", "json")
	code, _, errOut := seqkit(t, context.Background(), "a\nb\n", "--log-level", "error", "--materialize-limit", "1", "--reverse")
	if code != exitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	first := strings.SplitN(errOut, "\n", 2)[0]
	var entry map[string]any
	if err := json.Unmarshal([]byte(first), &entry); err != nil {
		t.Fatalf("expected a JSON log line first, got %q: %v", first, err)
	}
	if entry["component"] != "cli" || entry["operation"] != "run" {
		t.Errorf("expected a cli run entry, got %v", entry)
	}
	if msg, _ := entry["error"].(string); !strings.Contains(msg, "MATERIALIZE_LIMIT") {
		t.Errorf("expected the error on the entry, got %v", entry["error"])
	}
}
