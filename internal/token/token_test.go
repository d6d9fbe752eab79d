package token

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawToken builds header.payload.signature with an arbitrary payload. The
// header and signature are junk on purpose: the decoder must never look at
// them.
func rawToken(t *testing.T, payload any) string {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return "header." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

func TestDecodeReadsPayloadOnly(t *testing.T) {
	raw := rawToken(t, map[string]any{
		"sub":            "abc",
		"cognito:groups": []string{"Admin"},
	})

	claims := Decode(raw)

	assert.Equal(t, "abc", claims.String("sub"))
	assert.Equal(t, []string{"Admin"}, claims.StringList("cognito:groups"))
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no separators", "nodotshere"},
		{"two segments", "aaa.bbb"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", "header.!!!not-base64!!!.sig"},
		{"payload not json", "header." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"},
		{"payload not an object", "header." + base64.RawURLEncoding.EncodeToString([]byte("42")) + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Decode(tt.raw)
			require.NotNil(t, claims)
			assert.Empty(t, claims)
		})
	}
}

func TestDecodeToleratesPadding(t *testing.T) {
	// Padded base64url, as produced by proxies that re-encode segments.
	payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"padded"}`))
	claims := Decode("header." + payload + ".sig")
	assert.Equal(t, "padded", claims.String("sub"))
}

func TestDecodeUnicodePayload(t *testing.T) {
	claims := Decode(rawToken(t, map[string]any{"name": "José Ðemo"}))
	assert.Equal(t, "José Ðemo", claims.String("name"))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("aaa.bbb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segments")

	_, err = Parse("header.!!!.sig")
	require.Error(t, err)
}

func TestClaimsAccessors(t *testing.T) {
	claims := Decode(rawToken(t, map[string]any{
		"sub":            "user-1",
		"email_verified": true,
		"flag_str":       "true",
		"count":          3,
	}))

	assert.Equal(t, "user-1", claims.String("sub"))
	assert.Equal(t, "", claims.String("count"))
	assert.Equal(t, "fallback", claims.StringOr("missing", "fallback"))
	assert.Equal(t, "user-1", claims.StringOr("sub", "fallback"))
	assert.True(t, claims.Bool("email_verified"))
	assert.True(t, claims.Bool("flag_str"))
	assert.False(t, claims.Bool("missing"))
}

func TestClaimsStringList(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"flat list", []any{"Admin", "Viewer"}, []string{"Admin", "Viewer"}},
		{"comma separated", "Admin, Viewer ,Ops", []string{"Admin", "Viewer", "Ops"}},
		{"nested objects", []any{
			map[string]any{"name": "Admin"},
			map[string]any{"name": "Viewer"},
		}, []string{"Admin", "Viewer"}},
		{"mixed members drop junk", []any{"Admin", 7, map[string]any{"id": 1}}, []string{"Admin"}},
		{"empty string", "", nil},
		{"number", 42, nil},
		{"null", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Claims{"groups": tt.value}
			assert.Equal(t, tt.want, claims.StringList("groups"))
		})
	}

	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, Claims{}.StringList("groups"))
	})
}
