package sdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientCallIsUnsigned(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Hello from Lambda!"}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "us-east-1")
	res, err := client.Call(context.Background(), "/test/plain")
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"message":"Hello from Lambda!"}`, res.Body)

	require.NotNil(t, got)
	assert.Equal(t, "/test/plain", got.URL.Path)
	assert.Empty(t, got.Header.Get("Authorization"))
	assert.Empty(t, got.Header.Get("X-Amz-Date"))
	assert.Empty(t, got.Header.Get(IDTokenHeader))
}

func TestAPIClientCallSignedAddsSigV4(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "us-east-1",
		WithStaticCredentials("AKIDEXAMPLE", "secret", "session-token"),
		WithIDToken(func() string { return "raw-id-token" }),
	)
	res, err := client.CallSigned(context.Background(), "/test/auth")
	require.NoError(t, err)
	assert.True(t, res.OK())

	auth := got.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 "), "authorization %q", auth)
	assert.Contains(t, auth, "Credential=AKIDEXAMPLE/")
	assert.Contains(t, auth, "/us-east-1/execute-api/aws4_request")
	assert.Contains(t, auth, "SignedHeaders=")
	assert.Contains(t, auth, "Signature=")
	// The ID token header goes on before signing so it is covered by the
	// signature.
	assert.Contains(t, auth, "x-cognito-id-token")

	assert.NotEmpty(t, got.Get("X-Amz-Date"))
	assert.Equal(t, "session-token", got.Get("X-Amz-Security-Token"))
	assert.Equal(t, "raw-id-token", got.Get(IDTokenHeader))
}

func TestAPIClientCallSignedSkipsEmptyIDToken(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "us-east-1",
		WithStaticCredentials("AKIDEXAMPLE", "secret", ""),
	)
	_, err := client.CallSigned(context.Background(), "/test/public")
	require.NoError(t, err)

	assert.Empty(t, got.Get(IDTokenHeader))
	assert.Empty(t, got.Get("X-Amz-Security-Token"))
	assert.NotEmpty(t, got.Get("Authorization"))
}

func TestAPIClientCallSignedWithoutCredentials(t *testing.T) {
	client := NewAPIClient("http://127.0.0.1:0", "us-east-1")

	_, err := client.CallSigned(context.Background(), "/test/auth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential provider")
}

func TestAPIClientNon2xxIsAResultNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Missing Authentication Token"}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "us-east-1")
	res, err := client.Call(context.Background(), "/test/auth")
	require.NoError(t, err)

	assert.False(t, res.OK())
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "Status: 403\n\n{\"message\":\"Missing Authentication Token\"}", res.Display())
}

func TestAPIClientJoinsBaseURLAndPath(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		baseURL string
		path    string
	}{
		{name: "trailing slash on base", baseURL: srv.URL + "/", path: "/test/plain"},
		{name: "no leading slash on path", baseURL: srv.URL, path: "test/plain"},
		{name: "both plain", baseURL: srv.URL, path: "/test/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewAPIClient(tt.baseURL, "us-east-1")
			_, err := client.Call(context.Background(), tt.path)
			require.NoError(t, err)
		})
	}
	for _, p := range paths {
		assert.Equal(t, "/test/plain", p)
	}
}

func TestAPIClientTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewAPIClient(srv.URL, "us-east-1")
	_, err := client.Call(context.Background(), "/test/plain")
	assert.Error(t, err)
}

func TestCallResultOK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{status: 200, want: true},
		{status: 204, want: true},
		{status: 299, want: true},
		{status: 199, want: false},
		{status: 301, want: false},
		{status: 403, want: false},
		{status: 500, want: false},
	}

	for _, tt := range tests {
		res := &CallResult{StatusCode: tt.status}
		assert.Equal(t, tt.want, res.OK(), "status %d", tt.status)
	}
}
