package stylepipe

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sjc5/stylepipe/internal/config"
	"github.com/sjc5/stylepipe/internal/isp"
	"github.com/sjc5/stylepipe/internal/logging"
	"github.com/sjc5/stylepipe/internal/notify"
)

type Config = isp.Config
type WatchConfig = isp.WatchConfig
type OnChange = isp.OnChange
type OnChangeFunc = isp.OnChangeFunc
type IgnorePatterns = isp.IgnorePatterns
type Report = isp.Report
type FileReport = isp.FileReport
type CompileError = isp.CompileError
type BuildError = isp.BuildError

const (
	OnChangeStrategyPre              = isp.OnChangeStrategyPre
	OnChangeStrategyConcurrent       = isp.OnChangeStrategyConcurrent
	OnChangeStrategyConcurrentNoWait = isp.OnChangeStrategyConcurrentNoWait
	OnChangeStrategyPost             = isp.OnChangeStrategyPost
)

type StylePipe struct {
	Config *isp.Config
}

func (s StylePipe) Build(ctx context.Context) (*Report, error) {
	return s.Config.Build(ctx)
}
func (s StylePipe) MustBuild() *Report {
	return s.Config.MustBuild()
}
func (s StylePipe) Watch(ctx context.Context) error {
	return s.Config.Watch(ctx)
}
func (s StylePipe) MustWatch(watchConfig *WatchConfig) {
	s.Config.WatchConfig = watchConfig
	s.Config.MustWatch()
}

// Close releases the compiler, if it holds a process open.
func (s StylePipe) Close() error {
	if closer, ok := s.Config.Compiler.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// FromSettings wires resolved settings into a ready StylePipe. Relative
// include paths are taken relative to the root.
func FromSettings(settings *config.Settings, logger logging.Logger) (StylePipe, error) {
	if logger == nil {
		logger = logging.Log
	}

	compiler, err := newCompiler(settings, logger)
	if err != nil {
		return StylePipe{}, err
	}

	notifier, err := notify.New(settings.Notify.Kind, isp.TaskName(settings.Pattern), logger)
	if err != nil {
		return StylePipe{}, err
	}

	metadata, err := settings.ResolveMetadata()
	if err != nil {
		return StylePipe{}, fmt.Errorf("error reading metadata: %w", err)
	}

	return StylePipe{Config: &isp.Config{
		RootDir:     settings.Root,
		SrcDir:      settings.SrcDir,
		DistDir:     settings.DistDir,
		Pattern:     settings.Pattern,
		Metadata:    metadata,
		Normalize:   settings.Normalize,
		Compiler:    compiler,
		Notifier:    notifier,
		Logger:      logger,
		Concurrency: settings.Concurrency,
		WatchConfig: &isp.WatchConfig{
			Debounce:     settings.Watch.Debounce,
			BuildOnStart: settings.Watch.BuildOnStart,
			IgnorePatterns: isp.IgnorePatterns{
				Dirs:  settings.Watch.IgnoreDirs,
				Files: settings.Watch.IgnoreFiles,
			},
		},
	}}, nil
}

func newCompiler(settings *config.Settings, logger logging.Logger) (isp.Compiler, error) {
	cs := settings.Compiler

	includePaths := make([]string, 0, len(cs.IncludePaths))
	for _, p := range cs.IncludePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(settings.Root, p)
		}
		includePaths = append(includePaths, p)
	}

	switch cs.Kind {
	case "embedded", "":
		return &isp.DartSass{
			BinaryPath:   cs.Binary,
			IncludePaths: includePaths,
			Timeout:      cs.Timeout,
			Logger:       logger,
		}, nil
	case "cli":
		return &isp.SassCLI{BinaryPath: cs.Binary, IncludePaths: includePaths}, nil
	case "css":
		return isp.CSSCompiler{}, nil
	}
	return nil, fmt.Errorf("unknown compiler %q (want embedded, cli or css)", cs.Kind)
}
