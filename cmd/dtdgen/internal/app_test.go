package internal

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	noenv := func(string) string { return "" }

	require.NoError(t, Run(context.Background(), []string{"modules"}, noenv))

	err := Run(context.Background(), []string{"parse", "missing.dtd"}, noenv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.dtd")

	badEnv := func(key string) string {
		if key == "DTDGEN_LOG_FORMAT" {
			return "xml"
		}
		return ""
	}
	err = Run(context.Background(), []string{"modules"}, badEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")
}
