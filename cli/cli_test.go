package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestRoot creates a fresh cobra root command wired to all subcommands.
// Each test gets an isolated command tree to avoid shared state.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "cwlforge",
		SilenceUsage: true,
	}
	AddPersistentFlags(root)
	root.AddCommand(NewBuildCmd())
	root.AddCommand(NewLintCmd())
	root.AddCommand(NewEvalCmd())
	root.AddCommand(NewListCmd())
	root.AddCommand(NewShowCmd())
	root.AddCommand(NewDeleteCmd())
	return root
}

// executeCommand runs a cobra command with the given args and captures stdout/stderr.
func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

// writeTestFile creates a temporary file with the given content and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolateHome points the default config and store locations at a temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return exitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error %v (%T) is not an ExitError", err, err)
	}
	return exitErr.Code
}

const validRecipeYAML = `
id: echo_tool
label: Echo
baseCommand: echo -n
stdout: "$job.inputs.name + '.txt'"
inputs:
  - id: name
    type: string
    prefix: --name
outputs:
  - id: out
    type: File
    glob: "*.txt"
`

const brokenExpressionYAML = `
id: broken
label: Broken
baseCommand: echo
stdout: "$job.inputs.("
`

func TestBuild_WritesJSONToStdout(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "echo.yaml", validRecipeYAML)

	stdout, _, err := executeCommand(newTestRoot(), "build", path)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if doc["id"] != "echo_tool" {
		t.Fatalf("id = %v, want echo_tool", doc["id"])
	}
	if !strings.HasPrefix(stdout, "{\n  \"id\": \"echo_tool\"") {
		t.Fatalf("expected indented JSON starting with id, got:\n%s", stdout)
	}
	reqs, _ := doc["requirements"].([]any)
	if len(reqs) != 1 {
		t.Fatalf("len(requirements) = %d, want 1", len(reqs))
	}
}

func TestBuild_YAMLToFile(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "echo.yaml", validRecipeYAML)
	outPath := filepath.Join(t.TempDir(), "echo.cwl")

	stdout, stderr, err := executeCommand(newTestRoot(), "build", path, "--format", "yaml", "-o", outPath)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "Wrote echo_tool") {
		t.Fatalf("stderr = %q, want write notice", stderr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "id: echo_tool\n") {
		t.Fatalf("output does not start with id:\n%s", data)
	}
	if !strings.Contains(string(data), "sbg:cmdInclude: true") {
		t.Fatalf("output missing sbg:cmdInclude:\n%s", data)
	}
}

func TestBuild_Errors(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name string
		args func(t *testing.T) []string
		want int
	}{
		{
			name: "missing file",
			args: func(t *testing.T) []string {
				return []string{"build", filepath.Join(t.TempDir(), "missing.yaml")}
			},
			want: exitFileNotFound,
		},
		{
			name: "parse error",
			args: func(t *testing.T) []string {
				return []string{"build", writeTestFile(t, "bad.yaml", "id: [unterminated")}
			},
			want: exitInputParse,
		},
		{
			name: "builder rejects recipe",
			args: func(t *testing.T) []string {
				return []string{"build", writeTestFile(t, "noglob.yaml", "id: x\nlabel: x\noutputs:\n  - id: o\n    type: File\n")}
			},
			want: exitValidation,
		},
		{
			name: "lint error",
			args: func(t *testing.T) []string {
				return []string{"build", writeTestFile(t, "broken.yaml", brokenExpressionYAML)}
			},
			want: exitValidation,
		},
		{
			name: "bad format",
			args: func(t *testing.T) []string {
				return []string{"build", writeTestFile(t, "echo.yaml", validRecipeYAML), "--format", "xml"}
			},
			want: exitValidation,
		},
		{
			name: "missing explicit config",
			args: func(t *testing.T) []string {
				return []string{"build", writeTestFile(t, "echo.yaml", validRecipeYAML), "--config", filepath.Join(t.TempDir(), "none.toml")}
			},
			want: exitFileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(newTestRoot(), tt.args(t)...)
			if got := exitCode(t, err); got != tt.want {
				t.Fatalf("exit code = %d, want %d (err = %v)", got, tt.want, err)
			}
		})
	}
}

func TestBuild_NoLintSkipsExpressionErrors(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "broken.yaml", brokenExpressionYAML)

	if _, _, err := executeCommand(newTestRoot(), "build", path, "--no-lint"); err != nil {
		t.Fatalf("build --no-lint error = %v", err)
	}
}

func TestBuild_ConfigSetsFormatAndEngine(t *testing.T) {
	isolateHome(t)
	cfgPath := writeTestFile(t, "config.toml", "format = \"yaml\"\n\n[engine]\nid = \"#node-engine\"\nimage = \"node:20\"\n")
	path := writeTestFile(t, "echo.yaml", validRecipeYAML)

	stdout, _, err := executeCommand(newTestRoot(), "build", path, "--config", cfgPath)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if !strings.HasPrefix(stdout, "id: echo_tool\n") {
		t.Fatalf("expected YAML output, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "dockerPull: node:20") {
		t.Fatalf("expected configured engine image, got:\n%s", stdout)
	}
}

func TestSaveListShowDelete(t *testing.T) {
	for _, kind := range []string{"file", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			isolateHome(t)
			storePath := filepath.Join(t.TempDir(), "store."+kind)
			recipe := writeTestFile(t, "echo.yaml", validRecipeYAML)
			storeArgs := []string{"--store", kind, "--store-path", storePath}

			_, stderr, err := executeCommand(newTestRoot(), append([]string{"build", recipe, "--save"}, storeArgs...)...)
			if err != nil {
				t.Fatalf("build --save error = %v", err)
			}
			if !strings.Contains(stderr, "Saved echo_tool") {
				t.Fatalf("stderr = %q, want save notice", stderr)
			}

			stdout, _, err := executeCommand(newTestRoot(), append([]string{"list"}, storeArgs...)...)
			if err != nil {
				t.Fatalf("list error = %v", err)
			}
			if !strings.Contains(stdout, "echo_tool") || !strings.Contains(stdout, "Echo") {
				t.Fatalf("list output missing descriptor:\n%s", stdout)
			}

			stdout, _, err = executeCommand(newTestRoot(), append([]string{"show", "echo_tool", "--format", "yaml"}, storeArgs...)...)
			if err != nil {
				t.Fatalf("show error = %v", err)
			}
			if !strings.HasPrefix(stdout, "id: echo_tool\n") {
				t.Fatalf("show output:\n%s", stdout)
			}

			stdout, _, err = executeCommand(newTestRoot(), append([]string{"delete", "echo_tool"}, storeArgs...)...)
			if err != nil {
				t.Fatalf("delete error = %v", err)
			}
			if !strings.Contains(stdout, "Deleted echo_tool") {
				t.Fatalf("delete output = %q", stdout)
			}

			_, _, err = executeCommand(newTestRoot(), append([]string{"show", "echo_tool"}, storeArgs...)...)
			if got := exitCode(t, err); got != exitFileNotFound {
				t.Fatalf("show after delete exit code = %d, want %d", got, exitFileNotFound)
			}
		})
	}
}

func TestList_EmptyStore(t *testing.T) {
	isolateHome(t)
	stdout, stderr, err := executeCommand(newTestRoot(), "list", "--store-path", filepath.Join(t.TempDir(), "d.json"))
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "No saved descriptors") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestDelete_Missing(t *testing.T) {
	isolateHome(t)
	_, _, err := executeCommand(newTestRoot(), "delete", "nope", "--store-path", filepath.Join(t.TempDir(), "d.json"))
	if got := exitCode(t, err); got != exitFileNotFound {
		t.Fatalf("exit code = %d, want %d", got, exitFileNotFound)
	}
}

func TestLint_Text(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "echo.yaml", validRecipeYAML)

	stdout, _, err := executeCommand(newTestRoot(), "lint", path)
	if err != nil {
		t.Fatalf("lint error = %v", err)
	}
	if !strings.Contains(stdout, "Valid!") {
		t.Fatalf("stdout = %q, want Valid!", stdout)
	}
}

func TestLint_StrictWarnings(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "old.yaml", "id: t\nlabel: t\nversion: v9\nbaseCommand: ls\n")

	stdout, _, err := executeCommand(newTestRoot(), "lint", path)
	if err != nil {
		t.Fatalf("lint error = %v", err)
	}
	if !strings.Contains(stdout, "WARNING [VR-001]") {
		t.Fatalf("stdout = %q, want VR-001 warning", stdout)
	}

	_, _, err = executeCommand(newTestRoot(), "lint", path, "--strict")
	if got := exitCode(t, err); got != exitValidation {
		t.Fatalf("exit code = %d, want %d", got, exitValidation)
	}
}

func TestLint_JSONErrors(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "broken.yaml", brokenExpressionYAML)

	stdout, _, err := executeCommand(newTestRoot(), "lint", path, "--format", "json")
	if got := exitCode(t, err); got != exitValidation {
		t.Fatalf("exit code = %d, want %d", got, exitValidation)
	}

	var diags []map[string]any
	if err := json.Unmarshal([]byte(stdout), &diags); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(diags) != 1 || diags[0]["code"] != "EX-001" || diags[0]["path"] != "stdout" {
		t.Fatalf("diagnostics = %v, want one EX-001 at stdout", diags)
	}
}

func TestLint_BuilderRejection(t *testing.T) {
	isolateHome(t)
	path := writeTestFile(t, "bad.yaml", "id: t\nlabel: t\nbaseCommand: \"  \"\n")

	stdout, _, err := executeCommand(newTestRoot(), "lint", path)
	if got := exitCode(t, err); got != exitValidation {
		t.Fatalf("exit code = %d, want %d", got, exitValidation)
	}
	if !strings.Contains(stdout, "RC-001") {
		t.Fatalf("stdout = %q, want RC-001", stdout)
	}
}

func TestEval(t *testing.T) {
	isolateHome(t)
	recipe := writeTestFile(t, "echo.yaml", validRecipeYAML)
	job := writeTestFile(t, "job.json", `{"inputs": {"name": "sample"}}`)

	stdout, _, err := executeCommand(newTestRoot(), "eval", recipe, "--job", job)
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}
	if strings.TrimSpace(stdout) != `stdout: "sample.txt"` {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestEval_JSONWithFailure(t *testing.T) {
	isolateHome(t)
	recipe := writeTestFile(t, "throw.yaml", "id: t\nlabel: t\nbaseCommand: ls\nstdout: \"$job.missing.name\"\n")
	job := writeTestFile(t, "job.yaml", "inputs: {}\n")

	stdout, _, err := executeCommand(newTestRoot(), "eval", recipe, "--job", job, "--format", "json")
	if got := exitCode(t, err); got != exitValidation {
		t.Fatalf("exit code = %d, want %d", got, exitValidation)
	}

	var results []map[string]any
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(results) != 1 || results[0]["error"] == nil {
		t.Fatalf("results = %v, want one failed result", results)
	}
}

func TestEval_MissingJob(t *testing.T) {
	isolateHome(t)
	recipe := writeTestFile(t, "echo.yaml", validRecipeYAML)

	_, _, err := executeCommand(newTestRoot(), "eval", recipe, "--job", filepath.Join(t.TempDir(), "none.json"))
	if got := exitCode(t, err); got != exitFileNotFound {
		t.Fatalf("exit code = %d, want %d", got, exitFileNotFound)
	}
}
