// Package turnstile verifies Cloudflare Turnstile challenge tokens.
package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	ident "github.com/lanternhq/go-ident"
)

// DefaultEndpoint is Cloudflare's siteverify API.
const DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier calls the siteverify endpoint with the server-side secret.
type Verifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

var _ ident.HumanVerifier = (*Verifier)(nil)

// Option mutates the verifier during construction.
type Option func(*Verifier)

// WithHTTPClient overrides the HTTP client; the caller owns its timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithEndpoint points the verifier at an alternate siteverify URL. Tests use
// it to target a local stub.
func WithEndpoint(endpoint string) Option {
	return func(v *Verifier) {
		if endpoint != "" {
			v.endpoint = endpoint
		}
	}
}

// New returns a Verifier for the given siteverify secret.
func New(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		secret:   secret,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify submits the challenge token and reports failure when Cloudflare
// rejects it. Transport failures are returned as-is; the flows collapse any
// error into their verification-failed response.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "turnstile request build failed")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "turnstile request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerrors.New(
			fmt.Sprintf("turnstile responded with status %d", resp.StatusCode),
			goerrors.CategoryInternal,
		)
	}

	var body siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "turnstile response decode failed")
	}

	if !body.Success {
		return goerrors.New("turnstile rejected token", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"error_codes": body.ErrorCodes})
	}

	return nil
}
