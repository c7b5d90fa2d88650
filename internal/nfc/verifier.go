package nfc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// VerifyTimeout bounds one tap verification; on expiry the tap counts
// as unverified, never as an error.
const VerifyTimeout = 10 * time.Second

// Verifier checks that a physical tap occurred for a product. The radio
// protocol lives in the external verifier service; this side only
// consumes its boolean answer.
type Verifier interface {
	Verify(ctx context.Context, productID string) bool
}

// HTTPVerifier asks an external verification endpoint.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPVerifier(endpoint string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: VerifyTimeout},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, productID string) bool {
	ctx, cancel := context.WithTimeout(ctx, VerifyTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"product_id": productID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var out struct {
		Verified bool `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false
	}
	return out.Verified
}

// Disabled is the verifier used when no endpoint is configured; every
// tap resolves unverified.
type Disabled struct{}

func (Disabled) Verify(context.Context, string) bool { return false }
