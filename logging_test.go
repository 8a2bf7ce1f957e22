//go:build unix

package reactor

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(WithLogger(newBufferLogger(&buf, logiface.LevelTrace)))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"reactor created"`)
	assert.Contains(t, buf.String(), `"reactor":"`+r.ID()+`"`)

	rfd, wfd := testCreatePipe(t)
	r.SetReader(rfd, func() error { return errors.New("read failed") })
	testWrite(t, wfd, []byte("x"))

	buf.Reset()
	_, err = r.Wait()
	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, `"msg":"wait iteration"`)
	assert.Contains(t, out, `"msg":"callback failed"`)
	assert.Contains(t, out, `"kind":"reader"`)
	assert.Contains(t, out, `"err":"read failed"`)

	r.UnsetReader(rfd)
	r.SetReader(999999, Func(func() {}))
	buf.Reset()
	_, err = r.Wait()
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"poll failed"`)
	r.UnsetReader(999999)

	buf.Reset()
	require.NoError(t, r.Close())
	assert.Contains(t, buf.String(), `"msg":"reactor closed"`)
}

func TestLogging_TimerCallbackError(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReactor(t, WithLogger(newBufferLogger(&buf, logiface.LevelWarning)))

	id := r.SetTimer(0, func() error { return errors.New("tick failed") })
	_, err := r.Wait()
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"kind":"timer"`)
	assert.Contains(t, out, `"timer":`+strconv.Quote(id.String()))
	assert.NotContains(t, out, `"msg":"wait iteration"`, "trace entries must be filtered at warning level")
	assert.NotContains(t, out, `"msg":"reactor created"`)
}

func TestLogging_NilLogger(t *testing.T) {
	r := newTestReactor(t, WithLogger(nil))
	r.SetTimer(0, func() error { return errors.New("ignored") })
	_, err := r.Wait()
	require.Error(t, err)
}
