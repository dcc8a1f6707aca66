package contract

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

type AgentType string

const (
	AgentTypeEducation AgentType = "education"
	AgentTypeFraud     AgentType = "fraud"
	AgentTypeGrocery   AgentType = "grocery"
)

func ParseAgentType(raw string) (AgentType, error) {
	switch t := AgentType(strings.ToLower(strings.TrimSpace(raw))); t {
	case AgentTypeEducation, AgentTypeFraud, AgentTypeGrocery:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown agent type %q", ErrValidation, raw)
	}
}

type AssistantRequest struct {
	SessionID   string            `json:"session_id"`
	UserMessage string            `json:"user_message"`
	History     []*schema.Message `json:"history,omitempty"`
	Tools       ToolGateway       `json:"-"`
}

type AssistantResponse struct {
	Message string `json:"message"`
	// Turn holds every message produced this turn (user, assistant, tool) in
	// order, ready to be appended to the call history.
	Turn    []*schema.Message `json:"turn,omitempty"`
	EndCall bool              `json:"end_call,omitempty"`
	Tools   []ToolResult      `json:"tools,omitempty"`
}

// TurnError carries the messages a turn produced before it failed, so tool
// calls that already ran stay in the call history.
type TurnError struct {
	Turn []*schema.Message
	Err  error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the tagged outcome of one tool call: either Result (spoken
// on success) or Error with its Kind.
type ToolResult struct {
	Tool    string `json:"tool"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	EndCall bool   `json:"end_call,omitempty"`
}

func (r ToolResult) Failed() bool {
	return r.Error != ""
}

// Spoken is the text handed back to the model, and through it to TTS.
func (r ToolResult) Spoken() string {
	if r.Failed() {
		return r.Error
	}
	return r.Result
}
