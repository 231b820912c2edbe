// Package vision calls a Gemini vision model to describe an image.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 60 * time.Second
)

// Image is the binary payload sent inline with the instruction.
type Image struct {
	Data     []byte
	MimeType string
}

// Describer returns the model's raw text for an image and instruction.
type Describer interface {
	Describe(ctx context.Context, img Image, instruction string) (string, error)
}

// Client calls the generateContent endpoint. It never retries.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Describe sends the instruction and image and returns the model's text.
func (c *Client) Describe(ctx context.Context, img Image, instruction string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", &UpstreamError{Kind: KindInvalidCredential, Message: "API key is not set"}
	}
	if len(img.Data) == 0 {
		return "", &UpstreamError{Kind: KindMalformedRequest, Message: "empty image"}
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{
		Role: "user",
		Parts: []part{
			{Text: instruction},
			{InlineData: &inlineData{MimeType: img.MimeType, Data: base64.StdEncoding.EncodeToString(img.Data)}},
		},
	}}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &UpstreamError{Kind: KindMalformedRequest, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &UpstreamError{Kind: KindServiceUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(slurp))
		var er errorResponse
		if json.Unmarshal(slurp, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		return "", &UpstreamError{
			Kind:    kindForStatus(resp.StatusCode, string(slurp)),
			Status:  resp.StatusCode,
			Message: msg,
		}
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", &UpstreamError{Kind: KindEmptyResponse, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", &UpstreamError{Kind: KindEmptyResponse, Status: resp.StatusCode, Message: "blocked: " + gr.PromptFeedback.BlockReason}
	}
	if len(gr.Candidates) == 0 {
		return "", &UpstreamError{Kind: KindEmptyResponse, Status: resp.StatusCode, Message: "no candidates"}
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		msg := "empty text"
		if fr := gr.Candidates[0].FinishReason; fr != "" {
			msg += " (finish reason " + fr + ")"
		}
		return "", &UpstreamError{Kind: KindEmptyResponse, Status: resp.StatusCode, Message: msg}
	}
	return text.String(), nil
}

func (c *Client) endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	return strings.TrimRight(base, "/") + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}
