package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDescribeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "k" {
			t.Errorf("api key header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].Text != "describe" {
			t.Fatalf("parts = %+v", parts)
		}
		if parts[1].InlineData.MimeType != "image/png" || parts[1].InlineData.Data != base64.StdEncoding.EncodeToString([]byte("PNG")) {
			t.Errorf("inline data = %+v", parts[1].InlineData)
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"TITLE: A cat\n"},{"text":"KEYWORDS: cat"}]}}]}`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL + "/", APIKey: "k", Model: "gemini-test"}
	text, err := c.Describe(context.Background(), Image{Data: []byte("PNG"), MimeType: "image/png"}, "describe")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != "TITLE: A cat\nKEYWORDS: cat" {
		t.Errorf("text = %q", text)
	}
}

func TestDescribeMissingKey(t *testing.T) {
	c := &Client{BaseURL: "http://unused"}
	_, err := c.Describe(context.Background(), Image{Data: []byte("x")}, "")
	if Classify(err) != KindInvalidCredential {
		t.Errorf("Classify = %v, err = %v", Classify(err), err)
	}
}

func TestDescribeStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   Kind
	}{
		{400, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, KindInvalidCredential},
		{400, `{"error":{"code":400,"message":"Unsupported MIME type","status":"INVALID_ARGUMENT"}}`, KindMalformedRequest},
		{403, `{"error":{"message":"permission denied"}}`, KindInvalidCredential},
		{429, `{"error":{"message":"Resource has been exhausted"}}`, KindQuotaExceeded},
		{503, `overloaded`, KindServiceUnavailable},
		{408, ``, KindServiceUnavailable},
		{404, `not found`, KindGeneric},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, tt.body)
		}))
		c := &Client{BaseURL: srv.URL, APIKey: "k"}
		_, err := c.Describe(context.Background(), Image{Data: []byte("x"), MimeType: "image/jpeg"}, "i")
		srv.Close()

		if got := Classify(err); got != tt.want {
			t.Errorf("status %d: Classify = %v, want %v (err %v)", tt.status, got, tt.want, err)
		}
		var ue *UpstreamError
		if !errors.As(err, &ue) || ue.Status != tt.status {
			t.Errorf("status %d: err = %#v", tt.status, err)
		}
	}
}

func TestDescribeEmptyResponses(t *testing.T) {
	bodies := []string{
		`{"candidates":[]}`,
		`{"promptFeedback":{"blockReason":"SAFETY"}}`,
		`{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"SAFETY"}]}`,
		`not json`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))
		c := &Client{BaseURL: srv.URL, APIKey: "k"}
		_, err := c.Describe(context.Background(), Image{Data: []byte("x")}, "i")
		srv.Close()

		if Classify(err) != KindEmptyResponse {
			t.Errorf("body %s: err = %v", body, err)
		}
	}
}

func TestDescribeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "k", HTTPClient: &http.Client{Timeout: 20 * time.Millisecond}}
	_, err := c.Describe(context.Background(), Image{Data: []byte("x")}, "i")
	if Classify(err) != KindServiceUnavailable {
		t.Errorf("err = %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Error("nil error should have no message")
	}
	msg := UserMessage(&UpstreamError{Kind: KindQuotaExceeded, Status: 429})
	if !strings.Contains(msg, "quota") {
		t.Errorf("UserMessage = %q", msg)
	}
	if got := UserMessage(errors.New("boom")); got != "AI generation failed: boom" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestMetadataInstruction(t *testing.T) {
	text := MetadataInstruction([]string{"Animals", "Business"})
	for _, want := range []string{"TITLE:", "KEYWORDS:", "CATEGORY:", "DESCRIPTION:", "Animals, Business", "25-49"} {
		if !strings.Contains(text, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
	if !strings.Contains(PromptInstruction, "PROMPT:") {
		t.Error("prompt instruction should request a PROMPT: line")
	}
}
