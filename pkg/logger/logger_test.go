package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesFieldsAndCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf).WithContext(map[string]interface{}{"request_id": "abc"})

	l.Error("review submission failed", errors.New("boom"), map[string]interface{}{
		"business_id": 7,
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "review submission failed", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, float64(7), entry["business_id"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLogLevel("warn").String())
	assert.Equal(t, "info", parseLogLevel("unknown").String())
}
