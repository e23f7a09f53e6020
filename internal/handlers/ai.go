package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/omnidev/gateway/internal/openai"
	"github.com/omnidev/gateway/internal/server"
)

const chatSystemPrompt = "You are OmniDev AI Assistant. You help users with " +
	"technical questions, cloud computing, DevOps practices, web scraping, " +
	"and general research. Be concise, accurate, and friendly. Format " +
	"responses with markdown when helpful."

// AI proxies chat requests to the LLM provider.
type AI struct {
	Client *openai.Client
	Model  string
	Gate   *server.Gate
	Logger *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []chatMessage `json:"history,omitempty"`

	// APIKey lets a caller supply their own provider key instead of the
	// gateway's.
	APIKey string `json:"api_key,omitempty"`
}

// HandleStatus reports whether the provider is usable.
func (h *AI) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "operational",
		"model":      h.Model,
		"configured": h.Client.Configured(),
	})
}

// HandleChat forwards one chat turn and returns the provider's reply.
func (h *AI) HandleChat(w http.ResponseWriter, r *http.Request) {
	var in chatRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Message == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	client := h.clientFor(in.APIKey)
	if !client.Configured() {
		writeDetail(w, http.StatusServiceUnavailable, "AI provider not configured")
		return
	}

	resp, err := client.CreateChatCompletion(r.Context(), h.buildRequest(in))
	if err != nil {
		h.Logger.Error("chat completion failed", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(resp.Choices) == 0 {
		writeDetail(w, http.StatusInternalServerError, "provider returned no choices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": resp.Choices[0].Message.Content,
		"status":   "success",
	})
}

// HandleChatStream is the WebSocket chat endpoint. Authentication happens
// out-of-band during the upgrade; each inbound frame is one chat turn and
// the reply is streamed back as chunk frames followed by a done frame.
func (h *AI) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	conn, _, ok := h.Gate.UpgradeAuthenticated(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	for {
		var in chatRequest
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Message == "" {
			conn.WriteJSON(map[string]string{"type": "error", "content": "message is required"})
			continue
		}

		client := h.clientFor(in.APIKey)
		if !client.Configured() {
			conn.WriteJSON(map[string]string{"type": "error", "content": "AI provider not configured"})
			continue
		}

		if err := h.streamReply(r.Context(), conn, client, in); err != nil {
			conn.WriteJSON(map[string]string{"type": "error", "content": err.Error()})
		}
	}
}

func (h *AI) streamReply(ctx context.Context, conn *websocket.Conn, client *openai.Client, in chatRequest) error {
	// Canceling on exit unblocks the stream reader when this returns early
	// (dead client, upstream error) with results still pending.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results, err := client.StreamChatCompletion(ctx, h.buildRequest(in))
	if err != nil {
		return err
	}
	for result := range results {
		if result.Err != nil {
			return result.Err
		}
		for _, choice := range result.Chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := conn.WriteJSON(map[string]string{
				"type":    "chunk",
				"content": choice.Delta.Content,
			}); err != nil {
				return err
			}
		}
	}
	return conn.WriteJSON(map[string]string{"type": "done"})
}

func (h *AI) clientFor(override string) *openai.Client {
	if override != "" {
		return h.Client.WithKey(override)
	}
	return h.Client
}

func (h *AI) buildRequest(in chatRequest) *openai.ChatCompletionRequest {
	messages := []openai.Message{openai.TextMessage("system", chatSystemPrompt)}
	for _, msg := range in.History {
		role := "assistant"
		if msg.Role == "user" {
			role = "user"
		}
		messages = append(messages, openai.TextMessage(role, msg.Content))
	}
	messages = append(messages, openai.TextMessage("user", in.Message))

	return &openai.ChatCompletionRequest{
		Model:       h.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   8192,
	}
}
