package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sjc5/stylepipe/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{}

func (failing) NotifySuccess(string) error { return errors.New("no daemon") }
func (failing) NotifyError(string) error   { return errors.New("no daemon") }

func TestFallback(t *testing.T) {
	rec := &Recorder{}
	f := &Fallback{Primary: failing{}, Secondary: rec}

	require.NoError(t, f.NotifySuccess("scss task complete!"))
	require.NoError(t, f.NotifyError("Error: boom"))

	assert.Equal(t, []string{"scss task complete!"}, rec.Successes())
	assert.Equal(t, []string{"Error: boom"}, rec.Errors())
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary, secondary := &Recorder{}, &Recorder{}
	f := &Fallback{Primary: primary, Secondary: secondary}

	require.NoError(t, f.NotifySuccess("done"))

	assert.Len(t, primary.Successes(), 1)
	assert.Empty(t, secondary.Successes())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &Log{Logger: logging.NewColorLogger("notify", &buf)}

	require.NoError(t, n.NotifyError("Error: Undefined variable"))
	assert.True(t, strings.Contains(buf.String(), "Error: Undefined variable"))
}

func TestRecorderReset(t *testing.T) {
	rec := &Recorder{}
	_ = rec.NotifySuccess("a")
	_ = rec.NotifyError("b")
	rec.Reset()

	assert.Empty(t, rec.Successes())
	assert.Empty(t, rec.Errors())
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"", "desktop", "log", "none"} {
		n, err := New(kind, "scss", logging.Log)
		require.NoError(t, err, kind)
		assert.NotNil(t, n, kind)
	}

	_, err := New("carrier-pigeon", "scss", logging.Log)
	assert.Error(t, err)
}

func TestErrorTitle(t *testing.T) {
	assert.Equal(t, "Scss error", ErrorTitle("scss"))
	assert.Equal(t, "Css error", ErrorTitle("css"))
	assert.Equal(t, "Stylesheet error", ErrorTitle("stylesheet"))
	assert.Equal(t, "Build error", ErrorTitle(""))
}

func TestNewDesktopTitlesFollowTask(t *testing.T) {
	n, err := New("desktop", "css", logging.Log)
	require.NoError(t, err)

	fb, ok := n.(*Fallback)
	require.True(t, ok, "desktop notifier is %T", n)
	d, ok := fb.Primary.(*Desktop)
	require.True(t, ok, "primary is %T", fb.Primary)
	assert.Equal(t, DefaultTitle, d.Title)
	assert.Equal(t, "Css error", d.ErrorTitle)
}
