package mtlog

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestLogger(verbosity int) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &Logger{entry: logrus.NewEntry(base), verbosityLevel: verbosity}, &buf
}

func TestDetailGatedByVerbosity(t *testing.T) {
	l, buf := newTestLogger(1)

	l.Detail(2, "should not appear", nil)
	assert.Empty(t, buf.String())

	l.Detail(0, "should appear", logrus.Fields{"node_count": 42})
	assert.Contains(t, buf.String(), "should appear")
	assert.Contains(t, buf.String(), "node_count=42")
}

func TestEnabledBoundary(t *testing.T) {
	l, _ := newTestLogger(3)
	assert.True(t, l.Enabled(2))
	assert.False(t, l.Enabled(3))
	assert.False(t, l.Enabled(4))
}

func TestWithAddsFieldsWithoutMutatingParent(t *testing.T) {
	l, buf := newTestLogger(5)
	child := l.With(logrus.Fields{"objects": 3})

	child.Detail(0, "done", nil)
	assert.Contains(t, buf.String(), "objects=3")

	buf.Reset()
	l.Detail(0, "plain", nil)
	assert.NotContains(t, buf.String(), "objects=3")
}

func TestErrorAlwaysLogsRegardlessOfVerbosity(t *testing.T) {
	l, buf := newTestLogger(0)
	l.Error("failed", assertError{"boom"})
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "boom")
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
