package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/omnidev/gateway/internal/openai"
)

const (
	defaultAnalyzePrompt = "Describe this image in detail. Include objects, " +
		"colors, setting, and any text visible."

	describePrompt = "Provide a comprehensive description of this image " +
		"including main subjects, colors and visual style, setting and " +
		"context, any visible text, and overall mood."

	// maxImageBytes bounds the multipart read; provider limits are lower
	// than this anyway.
	maxImageBytes = 20 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Vision proxies image analysis to the LLM provider's multimodal endpoint.
type Vision struct {
	Client *openai.Client
	Model  string
	Logger *slog.Logger
}

// HandleAnalyze analyzes an uploaded image with an optional custom prompt.
// The body cap must be installed before the first form access, which parses
// the whole multipart payload.
func (h *Vision) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	prompt := r.FormValue("prompt")
	if prompt == "" {
		prompt = defaultAnalyzePrompt
	}
	h.analyze(w, r, prompt)
}

// HandleDescribe analyzes an uploaded image with the fixed description
// prompt.
func (h *Vision) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	h.analyze(w, r, describePrompt)
}

func (h *Vision) analyze(w http.ResponseWriter, r *http.Request, prompt string) {
	if !h.Client.Configured() {
		writeDetail(w, http.StatusServiceUnavailable, "AI provider not configured")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeDetail(w, http.StatusBadRequest,
			"invalid file type; allowed: image/jpeg, image/png, image/webp, image/gif")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read file")
		return
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	resp, err := h.Client.CreateChatCompletion(r.Context(), &openai.ChatCompletionRequest{
		Model:     h.Model,
		Messages:  []openai.Message{openai.ImageMessage(prompt, dataURL)},
		MaxTokens: 4096,
	})
	if err != nil {
		h.Logger.Error("vision analysis failed", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(resp.Choices) == 0 {
		writeDetail(w, http.StatusInternalServerError, "provider returned no choices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"analysis": resp.Choices[0].Message.Content,
		"status":   "success",
	})
}
