package isp

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestCSSCompiler(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"Valid", "body { color: red; }\n", ""},
		{"NestedMedia", "@media (min-width: 1px) { a { color: red; } }", ""},
		{"Empty", "", ""},
		{"UnclosedBlock", "a { color: red; }\nbody { color: red;\n", "line 2: unclosed block"},
		{"StrayBrace", "a { color: red; }\n}", `line 2: unexpected "}"`},
		{"UnclosedParen", "a { width: calc(1px + 2px; }", "unclosed parenthesis"},
		{"BadString", "a { content: \"oops\n; }", "line 1: unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CSSCompiler{}.Compile(context.Background(), "x.css", tt.source)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Compile() error = %v", err)
				}
				if got != tt.source {
					t.Errorf("Compile() = %q, want source unchanged", got)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Compile() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCompileErrorUnwraps(t *testing.T) {
	inner := errors.New("Undefined variable: $brand")
	var err error = &BuildError{Path: "app.scss", Step: StepCompile, Err: &CompileError{Path: "app.scss", Err: inner}}

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("errors.As(CompileError) = false")
	}
	if !errors.Is(err, inner) {
		t.Errorf("errors.Is(inner) = false")
	}
	if !strings.Contains(err.Error(), "app.scss") || !strings.Contains(err.Error(), "$brand") {
		t.Errorf("Error() = %q, want path and message", err.Error())
	}
}

// writeFakeSass drops a shell script that behaves like the sass CLI: it
// echoes stdin to stdout, records its arguments, and fails on @error.
func writeFakeSass(t *testing.T) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake sass binary is a shell script")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	binary = filepath.Join(dir, "sass")
	script := "#!/bin/sh\n" +
		"echo \"$@\" > " + argsFile + "\n" +
		"input=$(cat)\n" +
		"case \"$input\" in *@error*) echo 'Error: custom failure' >&2; exit 65;; esac\n" +
		"printf '%s\\n' \"$input\"\n"
	if err := os.WriteFile(binary, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write fake sass: %v", err)
	}
	return binary, argsFile
}

func TestSassCLI(t *testing.T) {
	binary, argsFile := writeFakeSass(t)
	s := &SassCLI{BinaryPath: binary, IncludePaths: []string{"node_modules"}}

	t.Run("Success", func(t *testing.T) {
		got, err := s.Compile(context.Background(), "src/app.scss", "a { color: red; }")
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if got != "a { color: red; }\n" {
			t.Errorf("Compile() = %q", got)
		}

		args, err := os.ReadFile(argsFile)
		if err != nil {
			t.Fatalf("Failed to read args: %v", err)
		}
		want := "--stdin --no-source-map --style=expanded --load-path src --load-path node_modules\n"
		if string(args) != want {
			t.Errorf("args = %q, want %q", args, want)
		}
	})

	t.Run("IndentedSyntax", func(t *testing.T) {
		if _, err := s.Compile(context.Background(), "src/app.sass", "a\n  color: red"); err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		args, _ := os.ReadFile(argsFile)
		if !strings.Contains(string(args), "--indented") {
			t.Errorf("args = %q, want --indented", args)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		_, err := s.Compile(context.Background(), "src/app.scss", `@error "nope";`)
		if err == nil || err.Error() != "Error: custom failure" {
			t.Errorf("Compile() error = %v, want stderr text", err)
		}
	})

	t.Run("MissingBinary", func(t *testing.T) {
		missing := &SassCLI{BinaryPath: filepath.Join(t.TempDir(), "nope")}
		_, err := missing.Compile(context.Background(), "src/app.scss", "a{}")
		if err == nil {
			t.Errorf("Compile() error = nil, want error for missing binary")
		}
	})
}

func TestDartSass(t *testing.T) {
	if _, err := exec.LookPath(defaultSassBinary); err != nil {
		t.Skip("dart sass not installed")
	}

	d := &DartSass{}
	defer d.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.scss")

	got, err := d.Compile(context.Background(), path, "$c: red;\nbody { a { color: $c; } }")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(got, "body a {") || !strings.Contains(got, "color: red;") {
		t.Errorf("Compile() = %q", got)
	}

	_, err = d.Compile(context.Background(), path, "body { color: $missing; }")
	if err == nil {
		t.Errorf("Compile() error = nil, want undefined variable error")
	}
}
