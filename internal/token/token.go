// Package token decodes Cognito ID tokens for display purposes.
//
// The default decoder reads the payload segment of a JWT without checking
// the signature. That is a deliberate simplification for a diagnostic
// endpoint that sits behind a platform authentication gate; the Verifier
// interface is the seam for swapping in real JWKS verification.
package token

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// Claims is a decoded token payload. Values carry the types encoding/json
// produces for an untyped document: string, float64, bool, []any and
// map[string]any.
type Claims map[string]any

// segments tolerates padded base64url, which some proxies re-encode.
var segments = jwt.NewParser(jwt.WithPaddingAllowed())

// Parse splits raw into its three dot-separated segments, base64url-decodes
// the middle one and unmarshals it into Claims. The header and signature
// segments are never decoded, so a garbage header or a stripped signature
// does not prevent reading the payload. The signature is NOT verified.
func Parse(raw string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("token has %d segments, want 3", len(parts))
	}

	payload, err := segments.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload segment: %w", err)
	}

	claims := Claims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return claims, nil
}

// Decode is the lenient form of Parse: any failure yields an empty, non-nil
// Claims so callers can treat the bearer as anonymous without branching on
// errors. Callers must not assume any particular claim is present.
func Decode(raw string) Claims {
	claims, err := Parse(raw)
	if err != nil {
		return Claims{}
	}
	return claims
}

// String returns the named claim when it is a string, else "".
func (c Claims) String(name string) string {
	v, _ := c[name].(string)
	return v
}

// StringOr returns the named string claim, or fallback when absent or empty.
func (c Claims) StringOr(name, fallback string) string {
	if v := c.String(name); v != "" {
		return v
	}
	return fallback
}

// Bool returns the named claim as a bool. Cognito emits email_verified as
// either a JSON bool or the string "true" depending on the trigger path, so
// both spellings are accepted.
func (c Claims) Bool(name string) bool {
	switch v := c[name].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// namedEntry is the nested shape some IdPs use for group-like claims,
// e.g. [{"name": "Admin"}, ...].
type namedEntry struct {
	Name string `mapstructure:"name"`
}

// StringList coerces the named claim into a list of strings. Accepted
// shapes, in the order real pools emit them:
//
//   - a JSON array of strings
//   - a single comma-separated string ("Admin,Viewer")
//   - a JSON array of {"name": ...} objects
//
// Anything else, including an absent claim, returns nil. Non-string array
// members without a usable name are dropped.
func (c Claims) StringList(name string) []string {
	v, ok := c[name]
	if !ok || v == nil {
		return nil
	}

	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			switch entry := item.(type) {
			case string:
				out = append(out, entry)
			case map[string]any:
				var named namedEntry
				if err := mapstructure.Decode(entry, &named); err == nil && named.Name != "" {
					out = append(out, named.Name)
				}
			}
		}
		return out
	}
	return nil
}
