package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
)

// ToolResolver returns the tool surface bound to a session.
type ToolResolver func(sessionID string) (contractx.ToolGateway, error)

// RunAssistant answers one user turn. When the turn fails after tools ran,
// their messages are still saved to the call before the error is returned.
func RunAssistant(
	ctx context.Context,
	in *GraphState,
	assistant contractx.Assistant,
	tools ToolResolver,
	store statex.Store,
	historyTurns int,
) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	gateway, err := tools(in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("bind tools for session=%s: %w", in.SessionID, err)
	}

	resp, err := assistant.Respond(ctx, contractx.AssistantRequest{
		SessionID:   in.SessionID,
		UserMessage: in.Text,
		History:     in.Call.History,
		Tools:       gateway,
	})
	if err != nil {
		var partial *contractx.TurnError
		if errors.As(err, &partial) && len(partial.Turn) > 0 {
			if saveErr := savePartialTurn(ctx, in, store, historyTurns, partial.Turn); saveErr != nil {
				log.Error().Err(saveErr).Str("session_id", in.SessionID).Msg("failed to save partial turn")
			}
		}
		return nil, err
	}

	in.Response = resp
	return in, nil
}

func savePartialTurn(ctx context.Context, in *GraphState, store statex.Store, historyTurns int, turn []*schema.Message) error {
	if err := in.Call.AppendTurn(turn); err != nil {
		return err
	}
	in.Call.TrimHistory(historyTurns)
	in.Call.Touch(in.Now)
	return store.Save(ctx, in.Call)
}
