package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
)

// SaveCall appends the finished turn to the call history. An ended call is
// removed from the store.
func SaveCall(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	historyTurns int,
) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	if err := in.Call.AppendTurn(in.Response.Turn); err != nil {
		return nil, err
	}
	in.Call.TrimHistory(historyTurns)
	in.Call.Touch(in.Now)

	if in.Response.EndCall {
		in.Call.End(in.Now)
		if err := store.Delete(ctx, in.SessionID); err != nil {
			return nil, err
		}
		return in, nil
	}

	if err := in.Call.Validate(); err != nil {
		return nil, fmt.Errorf("call validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Call); err != nil {
		return nil, err
	}
	return in, nil
}
