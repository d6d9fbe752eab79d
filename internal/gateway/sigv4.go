package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// signingService is the SigV4 service name API Gateway verifies against.
const signingService = "execute-api"

// maxClockSkew bounds how far a request's X-Amz-Date may drift from the
// gateway clock, matching the real service's 15 minute limit.
const maxClockSkew = 15 * time.Minute

// amzDateFormat is the ISO 8601 basic format carried in X-Amz-Date.
const amzDateFormat = "20060102T150405Z"

// scopeDateFormat is the date portion of the credential scope.
const scopeDateFormat = "20060102"

// apiError is a rejection rendered the way API Gateway renders one: a
// JSON body with a single message field plus an x-amzn-ErrorType header.
type apiError struct {
	status    int
	errorType string
	message   string
}

func (e *apiError) write(w http.ResponseWriter) {
	body, _ := json.Marshal(map[string]string{"message": e.message})
	w.Header().Set("Content-Type", "application/json")
	if e.errorType != "" {
		w.Header().Set("X-Amzn-Errortype", e.errorType)
	}
	w.WriteHeader(e.status)
	_, _ = w.Write(body)
}

func missingAuthenticationToken() *apiError {
	return &apiError{
		status:    http.StatusForbidden,
		errorType: "MissingAuthenticationTokenException",
		message:   "Missing Authentication Token",
	}
}

func incompleteSignature(err error) *apiError {
	return &apiError{
		status:    http.StatusForbidden,
		errorType: "IncompleteSignatureException",
		message:   err.Error(),
	}
}

func invalidSecurityToken() *apiError {
	return &apiError{
		status:    http.StatusForbidden,
		errorType: "UnrecognizedClientException",
		message:   "The security token included in the request is invalid.",
	}
}

func invalidSignature(message string) *apiError {
	return &apiError{
		status:    http.StatusForbidden,
		errorType: "InvalidSignatureException",
		message:   message,
	}
}

func signatureMismatch() *apiError {
	return invalidSignature("The request signature we calculated does not match the signature you provided. Check your AWS Secret Access Key and signing method. Consult the service documentation for details.")
}

func accessDenied(role, path string) *apiError {
	return &apiError{
		status:    http.StatusForbidden,
		errorType: "AccessDeniedException",
		message: fmt.Sprintf(
			"User: arn:aws:sts::000000000000:assumed-role/%s/CognitoIdentityCredentials is not authorized to perform: execute-api:Invoke on resource: %s",
			role, path,
		),
	}
}

func verificationFailure() *apiError {
	return &apiError{
		status:    http.StatusInternalServerError,
		errorType: "InternalFailureException",
		message:   "Internal server error",
	}
}

// parsedAuthorization carries the pieces of a SigV4 Authorization header.
type parsedAuthorization struct {
	AccessKeyID   string
	Date          string
	Region        string
	Service       string
	SignedHeaders []string
	Signature     string
}

// parseAuthorization splits a SigV4 Authorization header into its
// credential scope, signed header list and signature.
func parseAuthorization(header string) (*parsedAuthorization, error) {
	const prefix = "AWS4-HMAC-SHA256"
	if !strings.HasPrefix(header, prefix) {
		return nil, fmt.Errorf("unsupported authorization scheme")
	}

	parsed := &parsedAuthorization{}
	for _, field := range strings.Split(header[len(prefix):], ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		switch name {
		case "Credential":
			scope := strings.Split(value, "/")
			if len(scope) != 5 || scope[4] != "aws4_request" {
				return nil, fmt.Errorf("malformed credential scope %q", value)
			}
			parsed.AccessKeyID = scope[0]
			parsed.Date = scope[1]
			parsed.Region = scope[2]
			parsed.Service = scope[3]
		case "SignedHeaders":
			parsed.SignedHeaders = strings.Split(value, ";")
		case "Signature":
			parsed.Signature = value
		}
	}

	if parsed.AccessKeyID == "" || len(parsed.SignedHeaders) == 0 || parsed.Signature == "" {
		return nil, fmt.Errorf("authorization header requires Credential, SignedHeaders and Signature parameters")
	}
	return parsed, nil
}

// Verifier authenticates SigV4-signed requests against the credential
// table by re-signing them with the claimed key's secret and comparing
// signatures.
type Verifier struct {
	table  *CredentialTable
	region string
	signer *v4.Signer

	// now is swappable for tests.
	now func() time.Time
}

// NewVerifier builds a verifier for the given table and signing region.
func NewVerifier(table *CredentialTable, region string) *Verifier {
	return &Verifier{
		table:  table,
		region: region,
		signer: v4.NewSigner(),
		now:    time.Now,
	}
}

// Verify authenticates r. It returns the table entry behind the signature,
// or the API Gateway shaped rejection to send back.
func (v *Verifier) Verify(r *http.Request) (Entry, *apiError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Entry{}, missingAuthenticationToken()
	}

	parsed, err := parseAuthorization(header)
	if err != nil {
		return Entry{}, incompleteSignature(err)
	}
	if parsed.Service != signingService {
		return Entry{}, invalidSignature(fmt.Sprintf("Credential should be scoped to correct service: '%s'. ", signingService))
	}
	if parsed.Region != v.region {
		return Entry{}, invalidSignature(fmt.Sprintf("Credential should be scoped to a valid region, not '%s'. ", parsed.Region))
	}

	entry, ok := v.table.Lookup(parsed.AccessKeyID)
	if !ok {
		return Entry{}, invalidSecurityToken()
	}
	if entry.SessionToken != "" && r.Header.Get("X-Amz-Security-Token") != entry.SessionToken {
		return Entry{}, invalidSecurityToken()
	}

	amzDate := r.Header.Get("X-Amz-Date")
	signedAt, err := time.Parse(amzDateFormat, amzDate)
	if err != nil {
		return Entry{}, incompleteSignature(fmt.Errorf("missing or malformed X-Amz-Date header"))
	}
	if parsed.Date != signedAt.Format(scopeDateFormat) {
		return Entry{}, invalidSignature("Date in Credential scope does not match YYYYMMDD from ISO 8601 X-Amz-Date.")
	}
	if skewErr := v.checkSkew(signedAt, amzDate); skewErr != nil {
		return Entry{}, skewErr
	}

	expected, err := v.resign(r, entry, parsed, signedAt)
	if err != nil {
		return Entry{}, verificationFailure()
	}
	if !hmac.Equal([]byte(expected), []byte(parsed.Signature)) {
		return Entry{}, signatureMismatch()
	}
	return entry, nil
}

func (v *Verifier) checkSkew(signedAt time.Time, amzDate string) *apiError {
	now := v.now().UTC()
	if limit := now.Add(-maxClockSkew); signedAt.Before(limit) {
		return invalidSignature(fmt.Sprintf("Signature expired: %s is now earlier than %s (%s - 15 min.)",
			amzDate, limit.Format(amzDateFormat), now.Format(amzDateFormat)))
	}
	if limit := now.Add(maxClockSkew); signedAt.After(limit) {
		return invalidSignature(fmt.Sprintf("Signature not yet current: %s is still later than %s (%s + 15 min.)",
			amzDate, limit.Format(amzDateFormat), now.Format(amzDateFormat)))
	}
	return nil
}

// resign reproduces the signature the caller should have computed: a
// fresh request carrying only the signed headers, signed with the table
// entry's secret at the claimed time.
func (v *Verifier) resign(r *http.Request, entry Entry, parsed *parsedAuthorization, signedAt time.Time) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	clone := http.Request{
		Method:        r.Method,
		URL:           r.URL,
		Host:          r.Host,
		Header:        http.Header{},
		ContentLength: int64(len(body)),
	}
	for _, name := range parsed.SignedHeaders {
		if name == "host" {
			continue
		}
		canonical := http.CanonicalHeaderKey(name)
		if values := r.Header.Values(canonical); len(values) > 0 {
			clone.Header[canonical] = values
		}
	}

	creds := aws.Credentials{
		AccessKeyID:     entry.AccessKeyID,
		SecretAccessKey: entry.SecretAccessKey,
		SessionToken:    entry.SessionToken,
	}
	hash := sha256.Sum256(body)
	if err := v.signer.SignHTTP(r.Context(), creds, &clone, hex.EncodeToString(hash[:]), signingService, parsed.Region, signedAt); err != nil {
		return "", fmt.Errorf("re-sign request: %w", err)
	}

	resigned, err := parseAuthorization(clone.Header.Get("Authorization"))
	if err != nil {
		return "", fmt.Errorf("parse re-signed authorization: %w", err)
	}
	return resigned.Signature, nil
}
