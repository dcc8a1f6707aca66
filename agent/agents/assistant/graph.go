package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

func compileAssistantRuntimeGraph(
	ctx context.Context,
	toolLoop func(context.Context, contractx.AssistantRequest) (contractx.AssistantResponse, error),
) (compose.Runnable[contractx.AssistantRequest, contractx.AssistantResponse], error) {
	graph := compose.NewGraph[contractx.AssistantRequest, contractx.AssistantResponse]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, req contractx.AssistantRequest) (contractx.AssistantRequest, error) {
			if req.Tools == nil {
				return req, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
			}
			req.UserMessage = strings.TrimSpace(req.UserMessage)
			if req.UserMessage == "" {
				return req, fmt.Errorf("%w: user message is empty", contractx.ErrValidation)
			}
			return req, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add assistant validate node: %w", err)
	}

	if err := graph.AddLambdaNode("tool_loop", compose.InvokableLambda(toolLoop)); err != nil {
		return nil, fmt.Errorf("add assistant tool loop node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "tool_loop"},
		{"tool_loop", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add assistant edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.runtime_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile assistant runtime graph: %w", err)
	}
	return runner, nil
}
