package jsre

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecmago/ecmago/engine"
	"github.com/stretchr/testify/require"
)

func writeTestJS(t *testing.T, dir, testjs string) {
	t.Helper()
	if testjs == "" {
		return
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.js"), []byte(testjs), 0o644))
}

func TestExec(t *testing.T) {
	dir := t.TempDir()
	writeTestJS(t, dir, `msg = "testMsg"`)

	re := New(dir, os.Stdout)
	require.NoError(t, re.Exec("test.js"))

	v, err := re.Run("msg")
	require.NoError(t, err)
	require.True(t, v.IsString())
	require.Equal(t, "testMsg", v.AsString().String())
	re.Stop(false)
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	writeTestJS(t, dir, `msg = "testMsg"`)

	re := New(dir, os.Stdout)
	_, err := re.Run(`loadScript("test.js")`)
	require.NoError(t, err)

	v, err := re.Run("msg")
	require.NoError(t, err)
	require.Equal(t, "testMsg", v.AsString().String())
	re.Stop(false)
}

func TestConsoleLog(t *testing.T) {
	var buf bytes.Buffer
	re := New("", &buf)
	defer re.Stop(false)

	_, err := re.Run(`console.log("hello", 42)`)
	require.NoError(t, err)
	require.Equal(t, "hello 42\n", buf.String())
}

func TestRunReturnsCompletionValue(t *testing.T) {
	re := New("", os.Stdout)
	defer re.Stop(false)

	v, err := re.Run("1 + 2;")
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsFloat64())
}

func TestRunSyntaxErrorPropagates(t *testing.T) {
	re := New("", os.Stdout)
	defer re.Stop(false)

	_, err := re.Run("function broken( {")
	require.Error(t, err)
}

func TestExecMissingFile(t *testing.T) {
	re := New(t.TempDir(), os.Stdout)
	defer re.Stop(false)

	err := re.Exec("nope.js")
	require.Error(t, err)
}

func TestStopWithWaitReturnsWhenNothingPending(t *testing.T) {
	re := New("", os.Stdout)
	_, err := re.Run("1;")
	require.NoError(t, err)
	require.NotPanics(t, func() { re.Stop(true) })
}

func TestContextExposesNativeFunctionSeam(t *testing.T) {
	re := New("", os.Stdout)
	defer re.Stop(false)

	called := false
	re.Context().DefineGlobal("mark", re.Context().NewFunction("mark", 0, func(this engine.Value, args []engine.Value) (engine.Value, error) {
		called = true
		return engine.Bool(true), nil
	}))

	v, err := re.Run("mark();")
	require.NoError(t, err)
	require.True(t, called)
	require.True(t, v.ToBoolean())
}
