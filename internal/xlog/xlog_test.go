package xlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminalHandlerFormatsMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(NewTerminalHandler(&buf, LevelTrace))
	logger.Info("hello", "foo", "bar")

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "INFO "))
	require.Contains(t, out, "hello")
	require.Contains(t, out, "foo=bar")
	require.True(t, strings.HasSuffix(out, "\n"))
}

func TestTerminalHandlerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(NewTerminalHandler(&buf, LevelWarn))
	logger.Debug("should not appear")
	logger.Info("also should not appear")
	require.Empty(t, buf.String())

	logger.Warn("this should appear")
	require.Contains(t, buf.String(), "this should appear")
}

func TestLevelOrderingAndLabels(t *testing.T) {
	require.True(t, LevelTrace < LevelDebug)
	require.True(t, LevelDebug < LevelInfo)
	require.True(t, LevelInfo < LevelWarn)
	require.True(t, LevelWarn < LevelError)
	require.True(t, LevelError < LevelCrit)

	require.Equal(t, "TRACE", LevelTrace.String())
	require.Equal(t, "CRIT ", LevelCrit.String())
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(NewTerminalHandler(&buf, LevelTrace)).With("component", "test")
	logger.Info("hi")
	require.Contains(t, buf.String(), "component=test")
}

func TestJSONHandlerProducesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(JSONHandler(&buf))
	logger.Error("boom", "code", 42)

	out := buf.String()
	require.Contains(t, out, `"msg":"boom"`)
	require.Contains(t, out, `"code":42`)
}

func TestRootAndSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelTrace)
	Root().Info("via root")
	require.Contains(t, buf.String(), "via root")
}
