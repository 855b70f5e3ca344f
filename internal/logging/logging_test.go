package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarnRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelQuiet)
	l.Warn("should not appear")
	assert.Empty(t, buf.String())

	l2 := New(&buf, LevelWarn)
	l2.Warn("blob read error for %s", "a.txt")
	assert.Contains(t, buf.String(), "[warn] blob read error for a.txt")
}

func TestDebugRequiresDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debug("should not appear")
	assert.Empty(t, buf.String())

	l2 := New(&buf, LevelDebug)
	l2.Debug("compiled %d rules", 5)
	assert.Contains(t, buf.String(), "[debug] compiled 5 rules")
}

func TestErrorAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelQuiet)
	l.Error("fatal: %s", "boom")
	assert.Contains(t, buf.String(), "[error] fatal: boom")
}
