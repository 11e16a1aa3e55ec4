package stylepipe

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sjc5/stylepipe/internal/config"
	"github.com/sjc5/stylepipe/internal/isp"
	"github.com/sjc5/stylepipe/internal/logging"
	"github.com/sjc5/stylepipe/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSettings(t *testing.T, root string, overrides map[string]interface{}) *config.Settings {
	t.Helper()
	all := map[string]interface{}{"root": root}
	for k, v := range overrides {
		all[k] = v
	}
	s, err := config.Load(config.Options{Root: root, Environ: []string{}, Overrides: all})
	require.NoError(t, err)
	return s
}

func TestFromSettingsBuilds(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.scss"), []byte("a { color: red; }\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"demo","version":"1.0.0"}`), 0644))

	s := loadSettings(t, root, map[string]interface{}{
		"compiler.kind": "css",
		"notify.kind":   "none",
	})
	pipe, err := FromSettings(s, logging.NewColorLogger("test", io.Discard))
	require.NoError(t, err)
	defer pipe.Close()

	assert.IsType(t, isp.CSSCompiler{}, pipe.Config.Compiler)
	assert.IsType(t, notify.Nop{}, pipe.Config.Notifier)
	assert.Equal(t, "demo", pipe.Config.Metadata.Name)

	report, err := pipe.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Files, 1)

	full, err := os.ReadFile(filepath.Join(root, "dist", "app.css"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(full), "/* * *"), "banner missing: %q", full)
	assert.Contains(t, string(full), " demo v1.0.0 \n")
	assert.FileExists(t, filepath.Join(root, "dist", "app.min.css"))
}

func TestFromSettingsCompilers(t *testing.T) {
	root := t.TempDir()

	pipe, err := FromSettings(loadSettings(t, root, nil), logging.NewColorLogger("test", io.Discard))
	require.NoError(t, err)
	dart, ok := pipe.Config.Compiler.(*isp.DartSass)
	require.True(t, ok, "default compiler is %T", pipe.Config.Compiler)
	assert.Equal(t, []string{filepath.Join(root, "node_modules")}, dart.IncludePaths)
	require.NoError(t, pipe.Close())

	pipe, err = FromSettings(loadSettings(t, root, map[string]interface{}{
		"compiler.kind":          "cli",
		"compiler.binary":        "/opt/sass",
		"compiler.include_paths": []string{"/abs/lib", "scss/lib"},
	}), nil)
	require.NoError(t, err)
	cli, ok := pipe.Config.Compiler.(*isp.SassCLI)
	require.True(t, ok, "cli compiler is %T", pipe.Config.Compiler)
	assert.Equal(t, "/opt/sass", cli.BinaryPath)
	assert.Equal(t, []string{"/abs/lib", filepath.Join(root, "scss", "lib")}, cli.IncludePaths)
}

func TestFromSettingsErrorTitleFollowsPattern(t *testing.T) {
	s := loadSettings(t, t.TempDir(), map[string]interface{}{"pattern": "**/*.css"})
	pipe, err := FromSettings(s, logging.NewColorLogger("test", io.Discard))
	require.NoError(t, err)

	fb, ok := pipe.Config.Notifier.(*notify.Fallback)
	require.True(t, ok, "notifier is %T", pipe.Config.Notifier)
	d, ok := fb.Primary.(*notify.Desktop)
	require.True(t, ok, "primary is %T", fb.Primary)
	assert.Equal(t, "Css error", d.ErrorTitle)
}

func TestFromSettingsWatchConfig(t *testing.T) {
	root := t.TempDir()
	s := loadSettings(t, root, map[string]interface{}{
		"watch.build_on_start": false,
		"watch.ignore_dirs":    []string{"src/vendor"},
	})
	pipe, err := FromSettings(s, logging.NewColorLogger("test", io.Discard))
	require.NoError(t, err)

	wc := pipe.Config.WatchConfig
	require.NotNil(t, wc)
	assert.False(t, wc.BuildOnStart)
	assert.Equal(t, s.Watch.Debounce, wc.Debounce)
	assert.Equal(t, []string{"src/vendor"}, wc.IgnorePatterns.Dirs)
}
