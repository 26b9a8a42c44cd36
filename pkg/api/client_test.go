package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Request(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      bool
		wantSuccess  bool
		wantErrorMsg string
	}{
		{
			name:        "success envelope",
			status:      http.StatusOK,
			body:        `{"success":true,"data":{"value":42}}`,
			wantSuccess: true,
		},
		{
			name:         "backend failure envelope is not a transport error",
			status:       http.StatusBadRequest,
			body:         `{"success":false,"error":"session not found"}`,
			wantSuccess:  false,
			wantErrorMsg: "session not found",
		},
		{
			name:         "error as object",
			status:       http.StatusOK,
			body:         `{"success":false,"error":{"code":"E_MODE","message":"unknown mode"}}`,
			wantSuccess:  false,
			wantErrorMsg: "E_MODE: unknown mode",
		},
		{
			name:    "malformed body is a transport error",
			status:  http.StatusOK,
			body:    `<html>not json</html>`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(NewClientOptions{BaseURL: server.URL})
			result, err := client.Request(context.Background(), http.MethodGet, "/v1/test", nil)

			if tt.wantErr {
				require.Error(t, err)
				transportErr := &TransportError{}
				assert.ErrorAs(t, err, &transportErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			if tt.wantErrorMsg != "" {
				assert.Equal(t, tt.wantErrorMsg, result.Error.String())
			}
		})
	}
}

func TestClient_RequestSendsAuthAndBody(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(NewClientOptions{BaseURL: server.URL, APIKey: "test-key"})
	_, err := client.Post(context.Background(), "/v1/test", map[string]string{"modeId": "standard"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "standard", gotBody["modeId"])
}

func TestClient_RequestNetworkFailure(t *testing.T) {
	client := NewClient(NewClientOptions{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Request(context.Background(), http.MethodGet, "/v1/test", nil)

	require.Error(t, err)
	transportErr := &TransportError{}
	assert.ErrorAs(t, err, &transportErr)
}

func TestClient_PostCompressed(t *testing.T) {
	var gotEncoding string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEncoding = r.Header.Get("Content-Encoding")
		if gotEncoding == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			require.NoError(t, err)
			defer gz.Close()
			gotBody = mustReadAll(t, gz)
		} else {
			gotBody = mustReadAll(t, r.Body)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(NewClientOptions{BaseURL: server.URL})

	// small bodies are sent uncompressed
	result, err := client.PostCompressed(context.Background(), "/v1/analytics/events", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, gotEncoding)

	// large bodies are gzipped
	large := map[string]string{}
	for i := 0; i < 200; i++ {
		large[string(rune('a'+i%26))+string(rune('0'+i%10))] = "some padding value to push the body over the threshold"
	}
	result, err = client.PostCompressed(context.Background(), "/v1/analytics/events", large)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "gzip", gotEncoding)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, large, decoded)
}

func mustReadAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func TestErrorInfo_String(t *testing.T) {
	var nilInfo *ErrorInfo
	assert.Equal(t, "unknown error", nilInfo.String())
	assert.Equal(t, "oops", (&ErrorInfo{Message: "oops"}).String())
	assert.Equal(t, "E1: oops", (&ErrorInfo{Code: "E1", Message: "oops"}).String())
}
