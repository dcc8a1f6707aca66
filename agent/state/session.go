package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

// Call is the conversation record of one phone call: the transcript the
// model sees each turn plus lifecycle bookkeeping. Domain state (lead, case,
// cart) lives in the call's tool gateway, not here.
type Call struct {
	SessionID string              `json:"session_id"`
	Agent     contractx.AgentType `json:"agent"`
	Status    CallStatus          `json:"status"`

	History []*schema.Message `json:"history,omitempty"`
	Turns   int               `json:"turns"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CallStatus string

const (
	CallActive CallStatus = "active"
	CallEnded  CallStatus = "ended"
)

var (
	ErrCallEnded     = errors.New("call already ended")
	ErrInvalidStatus = errors.New("invalid call status")
)

func NewCall(sessionID string, agent contractx.AgentType, now time.Time) *Call {
	return &Call{
		SessionID: sessionID,
		Agent:     agent,
		Status:    CallActive,
		StartedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (c *Call) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

func (c *Call) Ended() bool {
	return c.Status == CallEnded
}

// AppendTurn records one completed user turn.
func (c *Call) AppendTurn(msgs []*schema.Message) error {
	if c.Ended() {
		return ErrCallEnded
	}
	c.History = append(c.History, msgs...)
	c.Turns++
	return nil
}

func (c *Call) End(now time.Time) {
	c.Status = CallEnded
	c.Touch(now)
}

// TrimHistory keeps the last maxTurns user turns. Cuts land on user messages
// so a tool result never loses the assistant call it answers. Zero or less
// keeps everything.
func (c *Call) TrimHistory(maxTurns int) {
	if maxTurns <= 0 {
		return
	}
	seen := 0
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i] == nil || c.History[i].Role != schema.User {
			continue
		}
		seen++
		if seen == maxTurns {
			c.History = append([]*schema.Message(nil), c.History[i:]...)
			return
		}
	}
}

func (c *Call) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	if _, err := contractx.ParseAgentType(string(c.Agent)); err != nil {
		return err
	}
	switch c.Status {
	case CallActive, CallEnded:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	if c.UpdatedAt.Before(c.StartedAt) {
		return fmt.Errorf("updated_at %s is before started_at %s", c.UpdatedAt, c.StartedAt)
	}
	return nil
}

func (c *Call) clone() *Call {
	cp := *c
	cp.History = append([]*schema.Message(nil), c.History...)
	return &cp
}
