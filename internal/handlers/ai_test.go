package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/omnidev/gateway/internal/openai"
)

// stubProvider serves a canned chat completion and records the request it
// received.
func stubProvider(t *testing.T, reply string) (*httptest.Server, *openai.ChatCompletionRequest) {
	t.Helper()
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding provider request: %v", err)
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.Choice{{Message: openai.ResponseMessage{Role: "assistant", Content: reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleStatus(t *testing.T) {
	h := &AI{Client: openai.NewClient("key"), Model: "gpt-5-nano", Logger: discardLogger()}
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/ai/status", nil))

	body := decodeJSON(t, rec)
	if body["model"] != "gpt-5-nano" || body["configured"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestHandleChat(t *testing.T) {
	srv, got := stubProvider(t, "hi there")
	h := &AI{
		Client: openai.NewClient("key", openai.WithBaseURL(srv.URL)),
		Model:  "gpt-5-nano",
		Logger: discardLogger(),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat",
		strings.NewReader(`{"message":"hello","history":[{"role":"user","content":"earlier"},{"role":"assistant","content":"reply"}]}`))
	h.HandleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeJSON(t, rec)
	if body["response"] != "hi there" || body["status"] != "success" {
		t.Errorf("body = %v", body)
	}

	// system + 2 history turns + current message
	if len(got.Messages) != 4 {
		t.Fatalf("provider saw %d messages, want 4", len(got.Messages))
	}
	if got.Messages[0].Role != "system" {
		t.Errorf("first message role = %q", got.Messages[0].Role)
	}
	if got.Messages[3].Role != "user" || got.Messages[3].Content != "hello" {
		t.Errorf("last message = %+v", got.Messages[3])
	}
}

func TestHandleChatValidation(t *testing.T) {
	h := &AI{Client: openai.NewClient("key"), Model: "gpt-5-nano", Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.HandleChat(rec, httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"history":[]}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want 400", rec.Code)
	}
}

func TestHandleChatUnconfigured(t *testing.T) {
	h := &AI{Client: openai.NewClient(""), Model: "gpt-5-nano", Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.HandleChat(rec, httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"message":"hi"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func imageUpload(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="photo.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	part.Write([]byte("fake image bytes"))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleAnalyze(t *testing.T) {
	srv, got := stubProvider(t, "a sunny beach")
	h := &Vision{
		Client: openai.NewClient("key", openai.WithBaseURL(srv.URL)),
		Model:  "gpt-5-nano",
		Logger: discardLogger(),
	}

	body, contentType := imageUpload(t, "image/jpeg")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vision/analyze", body)
	req.Header.Set("Content-Type", contentType)
	h.HandleAnalyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if decodeJSON(t, rec)["analysis"] != "a sunny beach" {
		t.Errorf("body = %s", rec.Body.String())
	}
	if len(got.Messages) != 1 {
		t.Fatalf("provider saw %d messages", len(got.Messages))
	}
}

func TestHandleAnalyzeRejectsBadType(t *testing.T) {
	h := &Vision{Client: openai.NewClient("key"), Model: "gpt-5-nano", Logger: discardLogger()}

	body, contentType := imageUpload(t, "application/pdf")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vision/analyze", body)
	req.Header.Set("Content-Type", contentType)
	h.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyzeRejectsOversizedBody(t *testing.T) {
	providerCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerCalls++
	}))
	defer srv.Close()

	h := &Vision{
		Client: openai.NewClient("key", openai.WithBaseURL(srv.URL)),
		Model:  "gpt-5-nano",
		Logger: discardLogger(),
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="big.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	part.Write(bytes.Repeat([]byte("a"), maxImageBytes+1))
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vision/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if providerCalls != 0 {
		t.Errorf("oversized upload reached the provider %d times", providerCalls)
	}
}

func TestHandleAnalyzeMissingFile(t *testing.T) {
	h := &Vision{Client: openai.NewClient("key"), Model: "gpt-5-nano", Logger: discardLogger()}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("prompt", "what is this")
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vision/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
