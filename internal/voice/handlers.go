package voice

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"voice-platform/internal/calls"
	"voice-platform/internal/integrations"
	"voice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler implements the telephony webhook surface: the two-endpoint exchange
// (incoming-call, then a record/respond loop) that constitutes one phone call
// from ring to hangup, plus the vendor's generic status callback.
//
// Failure policy: once a request is authenticated, the handler ALWAYS answers
// with valid call-control markup. A bookkeeping miss must never leave the
// caller on a dead line; store failures degrade to an apology and a hangup.
type Handler struct {
	Integrations *integrations.Service
	Calls        *calls.Service
	Decider      TurnDecider
	Dedupe       Dedupe
	Limiter      CallLimiter

	Greeting      string
	Goodbye       string
	RecordSeconds int

	// BaseURL is used when the request carries no usable Host/Forwarded
	// headers (e.g. direct vendor delivery behind a misconfigured proxy).
	BaseURL string
}

const (
	apiKeyHeader = "x-api-key"
	apiKeyQuery  = "api_key"

	apologyReply  = "We are sorry, we cannot take your call right now. Please try again later. Goodbye."
	escalateReply = "Please hold while I connect you to a human agent."
	busyReply     = "All of our lines are currently busy. Please call back in a few minutes. Goodbye."
)

// Register wires the webhook routes. The provider may probe incoming-call
// with GET, so both methods are accepted there.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/webhooks/voice/incoming-call", h.guarded(h.incomingCall))
	r.POST("/webhooks/voice/incoming-call", h.guarded(h.incomingCall))
	r.POST("/webhooks/voice/process-audio", h.guarded(h.processAudio))
	r.POST("/webhooks/voice/status", h.statusCallback)
}

// guarded makes "always emit markup" structural: any panic past this point is
// converted into an apology + hangup response instead of a bare 500.
func (h *Handler) guarded(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromGin(c).Error("voice webhook panicked", "panic", r)
				if !c.Writer.Written() {
					h.writeMarkup(c, Markup{Speak: apologyReply, Hangup: true})
				}
			}
		}()
		fn(c)
	}
}

func (h *Handler) incomingCall(c *gin.Context) {
	log := logger.FromGin(c)

	key, workspaceID, ok := h.authenticate(c)
	if !ok {
		return
	}

	payload := NormalizePayload(c.Request)
	fields := ExtractFields(payload)

	if !h.acquireSlot(c.Request.Context(), workspaceID) {
		log.Warn("concurrent call cap reached", "workspace_id", workspaceID)
		h.writeMarkup(c, Markup{Speak: busyReply, Hangup: true})
		return
	}

	_, err := h.Calls.Create(c.Request.Context(), calls.CreateCallRequest{
		WorkspaceID:    workspaceID,
		CallerPhone:    fields.CallerPhone,
		CallerName:     fields.CallerName,
		ProviderCallID: fields.ProviderCallID,
		RawMetadata:    payload,
		AIHandled:      true,
	})
	if err != nil {
		// Fatal for tracking: without a row later turns have nothing to
		// update. The phone call still gets a graceful exit.
		log.Error("call row creation failed", "workspace_id", workspaceID, "err", err)
		h.releaseSlot(c.Request.Context(), workspaceID)
		h.writeMarkup(c, Markup{Speak: apologyReply, Hangup: true})
		return
	}

	h.writeMarkup(c, Markup{
		Speak:         h.Greeting,
		RecordAction:  h.processURL(c, key),
		RecordSeconds: h.RecordSeconds,
	})
}

func (h *Handler) processAudio(c *gin.Context) {
	log := logger.FromGin(c)

	key, workspaceID, ok := h.authenticate(c)
	if !ok {
		return
	}

	payload := NormalizePayload(c.Request)
	fields := ExtractFields(payload)

	decision := h.decide(c.Request.Context(), Turn{
		WorkspaceID:    workspaceID,
		ProviderCallID: fields.ProviderCallID,
		RecordingURL:   fields.RecordingURL,
	})

	if h.firstDelivery(c.Request.Context(), workspaceID, fields) {
		terminal := decision.Action != ActionContinue
		terminalStatus := calls.CallStatusCompleted
		if decision.Action == ActionEscalate {
			terminalStatus = calls.CallStatusEscalated
		}
		_, found, err := h.Calls.AppendTurn(c.Request.Context(), calls.AppendTurnRequest{
			WorkspaceID:    workspaceID,
			ProviderCallID: fields.ProviderCallID,
			Transcript:     decision.Reply,
			RecordingURL:   fields.RecordingURL,
			RawMetadata:    payload,
			Terminal:       terminal,
			TerminalStatus: terminalStatus,
		})
		if terminal {
			h.releaseSlot(c.Request.Context(), workspaceID)
		}
		if err != nil {
			// Non-fatal: the phone call is unaffected by a bookkeeping miss.
			log.Error("turn update failed", "workspace_id", workspaceID, "err", err)
		} else if !found {
			log.Warn("turn dropped; no call row to update",
				"workspace_id", workspaceID, "provider_call_id", fields.ProviderCallID)
		}
	} else {
		log.Info("duplicate turn delivery suppressed",
			"workspace_id", workspaceID, "provider_call_id", fields.ProviderCallID)
	}

	switch decision.Action {
	case ActionEnd:
		h.writeMarkup(c, Markup{Speak: h.Goodbye, Hangup: true})
	case ActionEscalate:
		h.writeMarkup(c, Markup{Speak: escalateReply, Hangup: true})
	default:
		h.writeMarkup(c, Markup{
			Speak:         decision.Reply,
			RecordAction:  h.processURL(c, key),
			RecordSeconds: h.RecordSeconds,
		})
	}
}

// statusCallback handles generic lifecycle events (ringing, answered, hangup)
// some vendors deliver alongside the voice loop. It answers JSON, not markup.
func (h *Handler) statusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	_, workspaceID, ok := h.authenticate(c)
	if !ok {
		return
	}

	payload := NormalizePayload(c.Request)
	fields := ExtractFields(payload)

	status := mapProviderStatus(fields.Event)
	call, created, err := h.Calls.ApplyProviderStatus(c.Request.Context(), calls.ProviderStatusRequest{
		WorkspaceID:     workspaceID,
		ProviderCallID:  fields.ProviderCallID,
		CallerPhone:     fields.CallerPhone,
		CallerName:      fields.CallerName,
		Status:          status,
		DurationSeconds: fields.Duration,
		RawMetadata:     payload,
	})
	if err != nil {
		log.Error("status callback failed", "workspace_id", workspaceID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}
	if status.IsTerminal() && !created {
		h.releaseSlot(c.Request.Context(), workspaceID)
	}
	action := "updated"
	if created {
		action = "created"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "action": action, "id": call.ID})
}

// authenticate extracts and validates the webhook secret. On failure it writes
// a plain 401 with no markup body and no side effects.
func (h *Handler) authenticate(c *gin.Context) (key, workspaceID string, ok bool) {
	key = strings.TrimSpace(c.GetHeader(apiKeyHeader))
	if key == "" {
		key = strings.TrimSpace(c.Query(apiKeyQuery))
	}
	workspaceID, ok = h.Integrations.ValidateKey(c.Request.Context(), key)
	if !ok {
		logger.FromGin(c).Warn("webhook authentication failed", "path", c.FullPath())
		c.String(http.StatusUnauthorized, "Unauthorized")
		c.Abort()
		return "", "", false
	}
	return key, workspaceID, true
}

func (h *Handler) decide(ctx context.Context, t Turn) Decision {
	decider := h.Decider
	if decider == nil {
		decider = StaticDecider{}
	}
	d, err := decider.Decide(ctx, t)
	if err != nil || d.Reply == "" {
		// The voice loop never goes silent on a decider fault.
		return Decision{Reply: defaultStaticReply, Action: ActionContinue}
	}
	if d.Action == "" {
		d.Action = ActionContinue
	}
	return d
}

// acquireSlot consults the concurrency cap. Limiter failures admit the call:
// a cache outage must not take the phone line down.
func (h *Handler) acquireSlot(ctx context.Context, workspaceID string) bool {
	if h.Limiter == nil {
		return true
	}
	ok, err := h.Limiter.Acquire(ctx, workspaceID)
	if err != nil {
		return true
	}
	return ok
}

func (h *Handler) releaseSlot(ctx context.Context, workspaceID string) {
	if h.Limiter == nil {
		return
	}
	if err := h.Limiter.Release(ctx, workspaceID); err != nil {
		logger.From(ctx).Warn("call slot release failed", "workspace_id", workspaceID, "err", err)
	}
}

// firstDelivery consults the dedupe guard. Guard failures process the turn
// normally: a cache outage must not drop live calls.
func (h *Handler) firstDelivery(ctx context.Context, workspaceID string, f Fields) bool {
	if h.Dedupe == nil || f.ProviderCallID == "" {
		return true
	}
	first, err := h.Dedupe.FirstSeen(ctx, workspaceID+"|"+f.ProviderCallID+"|"+f.RecordingURL)
	if err != nil {
		return true
	}
	return first
}

func (h *Handler) processURL(c *gin.Context, key string) string {
	return h.baseURL(c) + "/webhooks/voice/process-audio?" + apiKeyQuery + "=" + url.QueryEscape(key)
}

func (h *Handler) baseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	if host == "" {
		if h.BaseURL != "" {
			return strings.TrimRight(h.BaseURL, "/")
		}
		host = "localhost"
	}
	return proto + "://" + host
}

func (h *Handler) writeMarkup(c *gin.Context, m Markup) {
	body, err := RenderMarkup(m)
	if err != nil {
		// Last resort: a hand-assembled hangup keeps the contract even if the
		// renderer rejects the input.
		logger.FromGin(c).Error("markup render failed", "err", err)
		body = xmlFallback
	}
	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, body)
}

const xmlFallback = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <playtext data="Goodbye."></playtext>
  <hangup></hangup>
</response>`

// mapProviderStatus folds the vendor's free-form event strings onto the call
// lifecycle.
func mapProviderStatus(event string) calls.CallStatus {
	e := strings.ToLower(event)
	switch {
	// Terminal events first: "disconnected" would otherwise match "connect".
	case strings.Contains(e, "end"), strings.Contains(e, "hangup"), strings.Contains(e, "disconnect"):
		return calls.CallStatusCompleted
	case strings.Contains(e, "answer"), strings.Contains(e, "connect"):
		return calls.CallStatusActive
	case strings.Contains(e, "ring"), strings.Contains(e, "offer"):
		return calls.CallStatusRinging
	default:
		return calls.CallStatusActive
	}
}
