package judge0

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	config := DefaultConfig()
	config.BaseURL = baseURL
	config.PollInterval = time.Millisecond
	config.MaxWait = time.Second
	return NewClient(config)
}

func TestLanguageID(t *testing.T) {
	id, ok := LanguageID("python")
	require.True(t, ok)
	assert.Equal(t, LanguagePythonID, id)

	id, ok = LanguageID("javascript")
	require.True(t, ok)
	assert.Equal(t, LanguageJavaScriptID, id)

	_, ok = LanguageID("cobol")
	assert.False(t, ok)
}

func TestExecute(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/submissions":
			var req struct {
				SourceCode string `json:"source_code"`
				LanguageID int    `json:"language_id"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			decoded, err := base64.StdEncoding.DecodeString(req.SourceCode)
			require.NoError(t, err)
			assert.Equal(t, "print('hi')", string(decoded))
			assert.Equal(t, LanguagePythonID, req.LanguageID)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})

		case r.Method == http.MethodGet && r.URL.Path == "/submissions/tok-1":
			// First poll still processing, second poll done.
			if polls.Add(1) == 1 {
				json.NewEncoder(w).Encode(map[string]any{
					"status": map[string]any{"id": StatusProcessing, "description": "Processing"},
				})
				return
			}
			stdout := base64.StdEncoding.EncodeToString([]byte(`[{"passed": true}]`))
			json.NewEncoder(w).Encode(map[string]any{
				"status": map[string]any{"id": StatusAccepted, "description": "Accepted"},
				"stdout": stdout,
				"time":   "0.031",
				"memory": 9876,
			})

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Execute(context.Background(), "print('hi')", LanguagePythonID, "")
	require.NoError(t, err)

	assert.True(t, result.Accepted())
	assert.Equal(t, `[{"passed": true}]`, result.Stdout)
	assert.Equal(t, "0.031", result.TimeSec)
	assert.Equal(t, 9876, result.MemoryKb)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestExecuteCompileError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-2"})
			return
		}
		compileOutput := base64.StdEncoding.EncodeToString([]byte("SyntaxError: invalid syntax"))
		json.NewEncoder(w).Encode(map[string]any{
			"status":         map[string]any{"id": StatusCompilationError, "description": "Compilation Error"},
			"compile_output": compileOutput,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Execute(context.Background(), "def broken(", LanguagePythonID, "")
	require.NoError(t, err)

	assert.True(t, result.CompileError())
	assert.False(t, result.Accepted())
	assert.Contains(t, result.CompileOutput, "SyntaxError")
}

func TestExecuteJudgeDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Execute(context.Background(), "print('hi')", LanguagePythonID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judge rejected submission")
}

func TestRuntimeErrorStatuses(t *testing.T) {
	for _, id := range []int{StatusTimeLimitExceeded, 7, 8, 9, 10, StatusRuntimeErrorOther, StatusRuntimeErrorNZEC, StatusInternalError} {
		result := &Result{Status: Status{ID: id}}
		assert.True(t, result.RuntimeError(), "status %d", id)
	}
	for _, id := range []int{StatusAccepted, StatusWrongAnswer, StatusCompilationError} {
		result := &Result{Status: Status{ID: id}}
		assert.False(t, result.RuntimeError(), "status %d", id)
	}
}
