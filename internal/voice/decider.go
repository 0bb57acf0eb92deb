package voice

import "context"

// Action is the orchestrator's next move after a caller turn.
type Action string

const (
	// ActionContinue keeps the loop going: speak the reply, record again.
	ActionContinue Action = "continue"
	// ActionEnd finishes the call normally.
	ActionEnd Action = "end"
	// ActionEscalate hands the caller off to a human and ends the AI call.
	ActionEscalate Action = "escalate"
)

// Turn is one caller utterance presented to the decision function.
type Turn struct {
	WorkspaceID    string
	ProviderCallID string
	RecordingURL   string

	// Transcript may be empty; speech-to-text is not always available at
	// webhook time.
	Transcript string
}

// Decision is what to say next and whether to keep the call alive.
type Decision struct {
	Reply  string
	Action Action
}

// TurnDecider decides how a call proceeds after each turn. The webhook
// orchestrator treats this as an external function: it never embeds
// conversational logic of its own, and it maps any decider failure to a safe
// continue so the caller is never left on a dead line.
type TurnDecider interface {
	Decide(ctx context.Context, t Turn) (Decision, error)
}

// StaticDecider always continues with a fixed reply. It is the default when
// no AI backend is configured.
type StaticDecider struct {
	Reply string
}

const defaultStaticReply = "Thank you for your message. Our AI is processing your request. Please hold on."

func (d StaticDecider) Decide(ctx context.Context, t Turn) (Decision, error) {
	reply := d.Reply
	if reply == "" {
		reply = defaultStaticReply
	}
	return Decision{Reply: reply, Action: ActionContinue}, nil
}
