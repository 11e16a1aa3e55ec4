package isp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/sjc5/stylepipe/internal/logging"
)

const defaultSassBinary = "sass"

func sourceSyntax(path string) godartsass.SourceSyntax {
	switch filepath.Ext(path) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	}
	return godartsass.SourceSyntaxSCSS
}

// DartSass compiles through a long-lived Dart Sass process speaking the
// embedded protocol. The process is started on first use and shared by
// every file of every build until Close.
type DartSass struct {
	BinaryPath   string // defaults to "sass" on $PATH
	IncludePaths []string
	Timeout      time.Duration
	Logger       logging.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler != nil {
		return d.transpiler, nil
	}

	binary := d.BinaryPath
	if binary == "" {
		binary = defaultSassBinary
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binary,
		Timeout:                  d.Timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			if d.Logger != nil {
				d.Logger.Warningf("sass: %s", e.Message)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error starting dart sass (%s): %w", binary, err)
	}
	d.transpiler = t
	return t, nil
}

func (d *DartSass) Compile(ctx context.Context, path string, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t, err := d.start()
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	res, err := t.Execute(godartsass.Args{
		Source:       source,
		URL:          "file://" + filepath.ToSlash(absPath),
		OutputStyle:  godartsass.OutputStyleExpanded,
		SourceSyntax: sourceSyntax(path),
		IncludePaths: append([]string{filepath.Dir(absPath)}, d.IncludePaths...),
	})
	if err != nil {
		return "", err
	}
	return res.CSS + "\n", nil
}

func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}

// SassCLI runs the sass executable once per file, feeding the source on
// stdin. Slower than DartSass but works with any sass build that has the
// standard command line.
type SassCLI struct {
	BinaryPath   string // defaults to "sass" on $PATH
	IncludePaths []string
}

func (s *SassCLI) args(path string) []string {
	args := []string{
		"--stdin",
		"--no-source-map",
		"--style=expanded",
		"--load-path", filepath.Dir(path),
	}
	for _, p := range s.IncludePaths {
		args = append(args, "--load-path", p)
	}
	if filepath.Ext(path) == ".sass" {
		args = append(args, "--indented")
	}
	return args
}

func (s *SassCLI) Compile(ctx context.Context, path string, source string) (string, error) {
	binary := s.BinaryPath
	if binary == "" {
		binary = defaultSassBinary
	}

	cmd := exec.CommandContext(ctx, binary, s.args(path)...)
	cmd.Stdin = strings.NewReader(source)
	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("error running %s: %w", binary, err)
		}
		return "", errors.New(msg)
	}
	return stdout.String(), nil
}
