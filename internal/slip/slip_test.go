package slip

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		detected *decimal.Decimal
		want     Outcome
		diff     string
	}{
		{"exact", ptr(dec("300")), Matched, ""},
		{"exact with cents noise", ptr(dec("300.001")), Matched, ""},
		{"over", ptr(dec("350")), Overpaid, "50.00"},
		{"short", ptr(dec("200")), Underpaid, "100.00"},
		{"nothing read", nil, Unreadable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(dec("300"), tt.detected)
			assert.Equal(t, tt.want, got.Outcome)
			if tt.diff == "" {
				assert.Nil(t, got.Difference)
			} else {
				require.NotNil(t, got.Difference)
				assert.Equal(t, tt.diff, got.Difference.StringFixed(2))
				assert.Contains(t, got.Message, tt.diff)
			}
		})
	}
	assert.True(t, Classify(dec("300"), ptr(dec("301"))).Accepted())
	assert.False(t, Classify(dec("300"), ptr(dec("299"))).Accepted())
}

func TestHTTPVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in ocrRequest
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &in))
		assert.Equal(t, "300.00", in.ExpectedAmount)
		assert.NotEmpty(t, in.RequestID)

		switch in.ImageURL {
		case "https://slips/ok.jpg":
			_, _ = w.Write([]byte(`{"readable":true,"detected_amount":"300"}`))
		case "https://slips/blurry.jpg":
			_, _ = w.Write([]byte(`{"readable":false}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.Client(), srv.URL)
	ctx := context.Background()

	res, err := v.Verify(ctx, "https://slips/ok.jpg", dec("300"))
	require.NoError(t, err)
	assert.Equal(t, Matched, res.Outcome)

	res, err = v.Verify(ctx, "https://slips/blurry.jpg", dec("300"))
	require.NoError(t, err)
	assert.Equal(t, Unreadable, res.Outcome)

	_, err = v.Verify(ctx, "https://slips/boom.jpg", dec("300"))
	assert.Error(t, err)
}

type verifierFunc func(ctx context.Context, ref string, expected decimal.Decimal) (Result, error)

func (f verifierFunc) Verify(ctx context.Context, ref string, expected decimal.Decimal) (Result, error) {
	return f(ctx, ref, expected)
}

func TestGuarded_ErrorBecomesUnreadable(t *testing.T) {
	g := NewGuarded(verifierFunc(func(context.Context, string, decimal.Decimal) (Result, error) {
		return Result{}, errors.New("connection refused")
	}), time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := g.Verify(context.Background(), "x", dec("1"))
	require.NoError(t, err)
	assert.Equal(t, Unreadable, res.Outcome)
	assert.NotEmpty(t, res.Message)
}

func TestGuarded_Timeout(t *testing.T) {
	g := NewGuarded(verifierFunc(func(ctx context.Context, _ string, _ decimal.Decimal) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}), 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	res, err := g.Verify(context.Background(), "x", dec("1"))
	require.NoError(t, err)
	assert.Equal(t, Unreadable, res.Outcome)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuarded_PassesThrough(t *testing.T) {
	g := NewGuarded(verifierFunc(func(_ context.Context, _ string, expected decimal.Decimal) (Result, error) {
		return Classify(expected, ptr(dec("200"))), nil
	}), 0, nil)

	res, err := g.Verify(context.Background(), "x", dec("300"))
	require.NoError(t, err)
	assert.Equal(t, Underpaid, res.Outcome)
}
