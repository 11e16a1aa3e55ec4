package isp

import (
	"context"
	"fmt"
)

const (
	StepRead      = "read"
	StepCompile   = "compile"
	StepAnnotate  = "annotate"
	StepPrefix    = "prefix"
	StepNormalize = "normalize"
	StepMinify    = "minify"
	StepWrite     = "write"
)

// Asset is one stylesheet on its way through the pipeline. Steps work on
// CSS; Banner is kept apart so that minifying or normalizing the body can
// never strip it.
type Asset struct {
	SrcPath string // path on disk
	RelPath string // path relative to the source dir, slash separated
	Banner  string
	CSS     string
}

func (a *Asset) Bytes() []byte {
	return []byte(a.Banner + a.CSS)
}

func (a *Asset) clone() *Asset {
	cp := *a
	return &cp
}

type Step struct {
	Name string
	Run  func(ctx context.Context, a *Asset) error
}

// BuildError reports the step at which a file failed.
type BuildError struct {
	Path string
	Step string
	Err  error
}

func (e *BuildError) Error() string {
	if _, isCompileErr := e.Err.(*CompileError); isCompileErr {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Step, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// runSteps folds steps over a, in order, stopping at the first failure.
func runSteps(ctx context.Context, a *Asset, steps []Step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Run(ctx, a); err != nil {
			return &BuildError{Path: a.RelPath, Step: s.Name, Err: err}
		}
	}
	return nil
}

// fullSteps produces the unminified artifact:
// compile → annotate → prefix → normalize (optional).
func (c *Config) fullSteps(banner string) []Step {
	steps := []Step{
		{Name: StepCompile, Run: c.compileStep},
		{Name: StepAnnotate, Run: annotateStep(banner)},
		{Name: StepPrefix, Run: prefixStep},
	}
	if c.Normalize {
		steps = append(steps, Step{Name: StepNormalize, Run: normalizeStep})
	}
	return steps
}

// minSteps derives the minified artifact from the full one.
func (c *Config) minSteps() []Step {
	return []Step{
		{Name: StepMinify, Run: minifyStep},
	}
}

func (c *Config) compileStep(ctx context.Context, a *Asset) error {
	out, err := c.Compiler.Compile(ctx, a.SrcPath, a.CSS)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &CompileError{Path: a.RelPath, Err: err}
	}
	a.CSS = out
	return nil
}

func annotateStep(banner string) func(context.Context, *Asset) error {
	return func(_ context.Context, a *Asset) error {
		a.Banner = banner
		return nil
	}
}

func prefixStep(_ context.Context, a *Asset) error {
	out, err := Prefix(a.CSS)
	if err != nil {
		return err
	}
	a.CSS = out
	return nil
}

func normalizeStep(_ context.Context, a *Asset) error {
	out, err := Normalize(a.CSS)
	if err != nil {
		return err
	}
	a.CSS = out
	return nil
}

func minifyStep(_ context.Context, a *Asset) error {
	out, err := Minify(a.CSS)
	if err != nil {
		return err
	}
	a.CSS = out
	return nil
}
