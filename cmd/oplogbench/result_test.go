package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteResult_Produces_Readable_Indented_JSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")

	r := result{
		Variant:      "tsc",
		NumCPU:       4,
		TotalPushed:  1000,
		TotalApplied: 1000,
		PushDuration: 5 * time.Millisecond,
		SyncDuration: time.Millisecond,
	}

	require.NoError(t, writeResult(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "{\n  \"variant\": \"tsc\",")

	var got result
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, r, got)
}

func Test_WriteResult_Errors_When_Directory_Does_Not_Exist(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing-dir", "out.json")

	err := writeResult(path, result{})
	assert.Error(t, err)
}
