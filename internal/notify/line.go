package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LineSender pushes text messages through the LINE Messaging API.
type LineSender struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewLineSender(client *http.Client, baseURL, token string) *LineSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &LineSender{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

type linePush struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *LineSender) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(linePush{To: m.To, Messages: []lineMessage{{Type: "text", Text: m.Text}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/bot/message/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	// LINE drops a push it has already accepted with the same retry key.
	req.Header.Set("X-Line-Retry-Key", m.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line push: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
