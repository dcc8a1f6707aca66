package assistant

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	llmx "github.com/tanpawarit/Chative-Voice-Agents/agent/llm"
	promptx "github.com/tanpawarit/Chative-Voice-Agents/agent/prompt"
)

// New builds the assistant for one agent variant backed by OpenRouter.
func New(
	ctx context.Context,
	cfg llmx.Config,
	agentType contractx.AgentType,
	vars promptx.Vars,
	maxSteps int,
) (contractx.Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	systemPrompt, err := promptx.Render(ctx, agentType, vars)
	if err != nil {
		return nil, err
	}

	modelCfg := cfg.OpenRouterFor(agentType)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
	}

	return newAssistant(ctx, agentType, chatModel, systemPrompt, maxSteps)
}
