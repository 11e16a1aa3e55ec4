package isp

import (
	"sync"
	"time"

	"github.com/sjc5/kit/pkg/typed"
	"github.com/sjc5/stylepipe/internal/logging"
	"github.com/sjc5/stylepipe/internal/notify"
	"github.com/sjc5/stylepipe/internal/pkgmeta"
)

type Config struct {
	/*
		RootDir is the parent directory of the source and dist directories.
		It is usually your project's root, in which case set it to ".".
		We run filepath.Clean on it, so an empty RootDir means ".".
	*/
	RootDir string

	// SrcDir and DistDir are set relative to RootDir.
	// They default to "src" and "dist".
	SrcDir  string
	DistDir string

	// Pattern selects sources inside SrcDir (doublestar syntax).
	// Defaults to "**/*.scss". Files whose basename starts with "_"
	// are treated as partials and never emitted.
	Pattern string

	// Metadata feeds the banner. It is read on every build, so swapping
	// it between builds (e.g. after re-reading package.json) is fine.
	Metadata pkgmeta.Metadata

	// Normalize adds a rule normalization pass after vendor prefixing.
	Normalize bool

	// Compiler turns one source file into plain CSS. Defaults to DartSass
	// with the sass binary on $PATH. CSSCompiler suits plain-CSS sources.
	Compiler Compiler

	// Notifier reports the outcome of each build. Defaults to notify.Nop.
	Notifier notify.Notifier

	Logger logging.Logger

	// Concurrency bounds how many files are processed at once. Defaults to 8.
	Concurrency int64

	// Now is the clock the banner year is read from. Defaults to time.Now.
	Now func() time.Time

	WatchConfig *WatchConfig

	commonInitOnce sync.Once
	cleanDirs      cleanDirs
	matchResults   typed.SyncMap[string, bool]
}

type WatchConfig struct {
	// Debounce is the quiet window that folds an editor's burst of
	// filesystem events into a single rebuild. Defaults to 30ms.
	Debounce time.Duration

	// BuildOnStart runs one build before the first change arrives.
	BuildOnStart bool

	IgnorePatterns IgnorePatterns

	// OnChangeCallbacks run once per changed file, around each rebuild.
	OnChangeCallbacks []OnChange

	// OnBuildComplete receives the report of every rebuild that ran to the
	// end, failed files included. Called from the rebuild goroutine.
	OnBuildComplete func(*Report)
}

type OnChangeFunc func(string) error

type OnChange struct {
	Strategy         string
	Func             OnChangeFunc
	ExcludedPatterns []string // Glob patterns (set relative to Config.RootDir)
}

type IgnorePatterns struct {
	Dirs  []string // Glob patterns (set relative to Config.RootDir)
	Files []string // Glob patterns (set relative to Config.RootDir)
}
