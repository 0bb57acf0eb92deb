package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"voice-platform/internal/voice"
)

// Completer is the chat surface the responder needs. *Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string, jsonMode bool) (string, error)
}

// Speaker synthesizes a spoken reply. *Client satisfies it.
type Speaker interface {
	Speech(ctx context.Context, text, voice string) ([]byte, error)
}

// ContextSearcher retrieves knowledge-base chunks relevant to a query.
type ContextSearcher interface {
	Search(ctx context.Context, workspaceID, query string) ([]string, error)
}

// Responder drives call turns and dashboard conversations with an LLM,
// optionally grounding replies in the workspace knowledge base.
type Responder struct {
	llm    Completer
	tts    Speaker
	search ContextSearcher
}

func NewResponder(llm Completer, tts Speaker, search ContextSearcher) *Responder {
	return &Responder{llm: llm, tts: tts, search: search}
}

const voiceSystemPrompt = `You are Guru, an advanced AI voice assistant for a high-tech call center platform.
Your voice should be professional, warm, and concise (optimized for speech).

Instructions:
- If context is provided and relevant, use it to answer accurately.
- If no context is found, rely on your general knowledge but be helpful.
- Keep responses short (under 2-3 sentences) for natural voice interaction.
- Do not mention "context" or "database" explicitly, just answer naturally.`

const defaultListening = "I'm listening."

// minQueryLength guards the retrieval step against one-word fillers.
const minQueryLength = 5

var escalateHints = []string{"agent", "human", "representative", "supervisor", "manager"}

var endHints = []string{"goodbye", "bye", "hang up", "that's all", "nothing else"}

// Decide produces the reply for one call turn. A transcript that asks for a
// person escalates; a farewell ends the call; everything else continues.
func (r *Responder) Decide(ctx context.Context, turn voice.Turn) (voice.Decision, error) {
	action := classifyTranscript(turn.Transcript)

	user := turn.Transcript
	if user == "" {
		user = "The caller left a voice message but no transcript is available. Acknowledge them and ask how you can help."
	}

	system := voiceSystemPrompt
	if r.search != nil && len(turn.Transcript) > minQueryLength {
		if chunks, err := r.search.Search(ctx, turn.WorkspaceID, turn.Transcript); err != nil {
			slog.WarnContext(ctx, "knowledge retrieval failed, continuing without context", "err", err)
		} else if len(chunks) > 0 {
			system = withContext(system, chunks)
		}
	}

	reply, err := r.llm.Complete(ctx, system, user, false)
	if err != nil {
		return voice.Decision{}, fmt.Errorf("turn completion: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = defaultListening
	}
	return voice.Decision{Reply: reply, Action: action}, nil
}

// ConverseRequest is a dashboard conversation exchange.
type ConverseRequest struct {
	WorkspaceID string
	Message     string
	Voice       string
	Identified  bool
}

type ConverseResponse struct {
	Text    string `json:"text"`
	Audio   string `json:"audio,omitempty"`
	RAGUsed bool   `json:"rag_used"`
}

// Converse answers a typed or transcribed message and synthesizes the reply
// as a base64 mp3 data URL. Audio failure degrades to text only.
func (r *Responder) Converse(ctx context.Context, req ConverseRequest) (ConverseResponse, error) {
	ragUsed := false
	system := voiceSystemPrompt + "\n\nUser Profile:\n- Status: " + profileStatus(req.Identified)
	if r.search != nil && len(req.Message) > minQueryLength {
		if chunks, err := r.search.Search(ctx, req.WorkspaceID, req.Message); err != nil {
			slog.WarnContext(ctx, "knowledge retrieval failed, continuing without context", "err", err)
		} else if len(chunks) > 0 {
			system = withContext(system, chunks)
			ragUsed = true
		}
	}

	message := req.Message
	if message == "" {
		message = "Hello"
	}
	text, err := r.llm.Complete(ctx, system, message, false)
	if err != nil {
		return ConverseResponse{}, fmt.Errorf("conversation completion: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = defaultListening
	}

	resp := ConverseResponse{Text: text, RAGUsed: ragUsed}
	if r.tts != nil {
		if audio, err := r.tts.Speech(ctx, text, req.Voice); err != nil {
			slog.WarnContext(ctx, "speech synthesis failed, returning text only", "err", err)
		} else {
			resp.Audio = "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio)
		}
	}
	return resp, nil
}

func classifyTranscript(transcript string) voice.Action {
	t := strings.ToLower(transcript)
	for _, hint := range escalateHints {
		if strings.Contains(t, hint) {
			return voice.ActionEscalate
		}
	}
	for _, hint := range endHints {
		if strings.Contains(t, hint) {
			return voice.ActionEnd
		}
	}
	return voice.ActionContinue
}

func withContext(system string, chunks []string) string {
	return system + "\n\nKNOWLEDGE BASE CONTEXT (Use this to answer):\n---\n" +
		strings.Join(chunks, "\n---\n") + "\n---"
}

func profileStatus(identified bool) string {
	if identified {
		return "Identified Customer (VIP)"
	}
	return "Guest"
}
