package errorlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studiosite/internal/storage"
)

const webhookTimeout = 5 * time.Second

type webhook struct {
	url    string
	token  string
	client *http.Client
}

func newWebhook(url, token string) *webhook {
	return &webhook{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// payload mirrors the client report plus what the server added to it.
type payload struct {
	ClientReport
	ServerTimestamp string            `json:"serverTimestamp"`
	IPHash          string            `json:"ipHash,omitempty"`
	Browser         string            `json:"browser,omitempty"`
	OS              string            `json:"os,omitempty"`
	Headers         map[string]string `json:"headers"`
}

func enriched(report ClientReport, rec *storage.ClientError, origin Origin) payload {
	return payload{
		ClientReport:    report,
		ServerTimestamp: rec.ServerTimestamp.Format(time.RFC3339Nano),
		IPHash:          deref(rec.IPHash),
		Browser:         deref(rec.Browser),
		OS:              deref(rec.OS),
		Headers: map[string]string{
			"user-agent":      origin.UserAgent,
			"referer":         origin.Referer,
			"x-forwarded-for": origin.ForwardedFor,
		},
	}
}

func (w *webhook) send(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	// forward even when the client has disconnected
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}
