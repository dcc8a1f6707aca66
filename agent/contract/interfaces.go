package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Assistant interface {
	Respond(ctx context.Context, req AssistantRequest) (AssistantResponse, error)
}

// ToolGateway is the tool surface bound to one call.
type ToolGateway interface {
	Infos() []*schema.ToolInfo
	Execute(ctx context.Context, req ToolRequest) ToolResult
}

// ToolFactory binds a fresh tool surface, and with it fresh per-call state, to
// a session.
type ToolFactory func(sessionID string) (ToolGateway, error)

// Sink receives finalised records (lead summaries, orders, resolved cases).
type Sink interface {
	Deliver(ctx context.Context, kind string, payload []byte) error
}

type UsageRecorder interface {
	ToolInvoked(agent AgentType, tool string, kind string)
	TurnCompleted(agent AgentType)
	CallEnded(agent AgentType)
}
