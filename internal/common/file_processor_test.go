package common

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"
)

func TestDocxXMLToText(t *testing.T) {
	raw := `<w:document><w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t><w:tab/><w:t>R&amp;D</w:t></w:r></w:p></w:body></w:document>`

	got := docxXMLToText(raw)
	want := "Jane Doe\nGo\tR&D"
	if got != want {
		t.Errorf("docxXMLToText() = %q, want %q", got, want)
	}
}

func TestReadFileErrors(t *testing.T) {
	fp := NewFileProcessor(nil, 0)

	_, err := fp.ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeFileNotFound {
		t.Fatalf("expected FILE_NOT_FOUND, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(bad, []byte("not a zip"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err = fp.ReadFile(bad)
	appErr, ok = errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT for a broken docx, got %v", err)
	}
}

func TestValidateAndReadFilesEnforcesSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("a", 100)), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileProcessor(nil, 50).ValidateAndReadFiles(path); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Errorf("expected validation error for oversized file, got %v", err)
	}

	contents, err := NewFileProcessor(nil, 0).ValidateAndReadFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 || len(contents[0]) != 100 {
		t.Errorf("unexpected contents: %v", contents)
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.md")
	job := filepath.Join(dir, "job.txt")
	out := filepath.Join(dir, "out", "state.json")
	if err := os.WriteFile(resume, []byte("resume body"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(job, []byte("job body"), 0600); err != nil {
		t.Fatal(err)
	}

	type input struct{ resume, job string }
	err := RunCommand(context.Background(), errors.NewNopLogger(),
		CommandConfig{OutputFile: out, OutputFormat: "json"},
		[]string{resume, job},
		func(contents []string) (input, error) { return input{contents[0], contents[1]}, nil },
		func(ctx context.Context, in input) (types.SessionState, error) {
			return types.SessionState{Resume: in.resume, JobDescription: in.job, Loading: types.PhaseIdle}, nil
		},
		nil,
	)
	if err != nil {
		t.Fatalf("RunCommand() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var state types.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}
	if state.Resume != "resume body" || state.JobDescription != "job body" {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestHandleOutputToWriter(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandlerWithWriter(nil, &buf)

	if err := oh.HandleOutput(types.SessionState{Resume: "Jane"}, CommandConfig{OutputFormat: "text"}); err != nil {
		t.Fatalf("HandleOutput() error = %v", err)
	}
	if !strings.Contains(buf.String(), "=== RESUME ===\nJane") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	err := oh.HandleOutput(types.SessionState{}, CommandConfig{OutputFormat: "xml"})
	if !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Errorf("expected validation error for unknown format, got %v", err)
	}
}
