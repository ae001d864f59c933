package slip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
)

// HTTPVerifier asks the OCR service to read the amount on a slip image.
type HTTPVerifier struct {
	client   *http.Client
	endpoint string
}

func NewHTTPVerifier(client *http.Client, endpoint string) *HTTPVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPVerifier{client: client, endpoint: endpoint}
}

type ocrRequest struct {
	RequestID      string `json:"request_id"`
	ImageURL       string `json:"image_url"`
	ExpectedAmount string `json:"expected_amount"`
}

type ocrResponse struct {
	Readable       bool             `json:"readable"`
	DetectedAmount *decimal.Decimal `json:"detected_amount"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, imageRef string, expected decimal.Decimal) (Result, error) {
	body, err := json.Marshal(ocrRequest{
		RequestID:      id.NewCorrelationID(),
		ImageURL:       imageRef,
		ExpectedAmount: expected.StringFixed(2),
	})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("slip service: %w: %v", errs.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("slip service: %w: status %d", errs.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("slip service: decode: %w", err)
	}
	if !out.Readable {
		return Classify(expected, nil), nil
	}
	return Classify(expected, out.DetectedAmount), nil
}
