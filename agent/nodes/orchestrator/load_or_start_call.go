package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
)

func LoadOrStartCall(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	agent contractx.AgentType,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	call, err := store.Load(ctx, in.SessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		call = statex.NewCall(in.SessionID, agent, in.Now)
	case err != nil:
		return nil, err
	case call.Ended():
		return nil, fmt.Errorf("%w: session=%s", statex.ErrCallEnded, in.SessionID)
	case call.Agent != agent:
		return nil, fmt.Errorf("%w: session=%s belongs to agent=%s", contractx.ErrValidation, in.SessionID, call.Agent)
	}

	in.Call = call
	return in, nil
}
