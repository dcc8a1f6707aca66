package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

// DefaultMaxSteps bounds model round trips inside a single user turn.
const DefaultMaxSteps = 6

type assistantImpl struct {
	agentType     contractx.AgentType
	chatModel     einomodel.ToolCallingChatModel
	systemPrompt  string
	maxSteps      int
	runtimeRunner compose.Runnable[contractx.AssistantRequest, contractx.AssistantResponse]
}

var _ contractx.Assistant = (*assistantImpl)(nil)

func newAssistant(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	maxSteps int,
) (*assistantImpl, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required for agent=%s", contractx.ErrValidation, agentType)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	a := &assistantImpl{
		agentType:    agentType,
		chatModel:    chatModel,
		systemPrompt: systemPrompt,
		maxSteps:     maxSteps,
	}

	runner, err := compileAssistantRuntimeGraph(ctx, a.runToolLoop)
	if err != nil {
		return nil, fmt.Errorf("%w: compile assistant runtime graph: %v", contractx.ErrModelInvoke, err)
	}
	a.runtimeRunner = runner

	return a, nil
}

func (a *assistantImpl) Respond(ctx context.Context, req contractx.AssistantRequest) (contractx.AssistantResponse, error) {
	return a.runtimeRunner.Invoke(ctx, req)
}

// runToolLoop drives one user turn: the model either answers in plain text or
// asks for tools, whose spoken results are fed back until it answers. A
// terminal tool ends the turn and the call with its own result.
func (a *assistantImpl) runToolLoop(ctx context.Context, req contractx.AssistantRequest) (contractx.AssistantResponse, error) {
	toolModel, err := a.chatModel.WithTools(req.Tools.Infos())
	if err != nil {
		return contractx.AssistantResponse{}, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, a.agentType, err)
	}

	input := make([]*schema.Message, 0, len(req.History)+1)
	input = append(input, schema.SystemMessage(a.systemPrompt))
	input = append(input, req.History...)

	turn := []*schema.Message{schema.UserMessage(req.UserMessage)}
	var results []contractx.ToolResult

	// fail keeps the messages of tool calls that already ran.
	fail := func(err error) (contractx.AssistantResponse, error) {
		if len(results) == 0 {
			return contractx.AssistantResponse{}, err
		}
		return contractx.AssistantResponse{}, &contractx.TurnError{Turn: turn, Err: err}
	}

	for step := 0; step < a.maxSteps; step++ {
		msg, err := toolModel.Generate(ctx, append(input, turn...))
		if err != nil {
			return fail(fmt.Errorf("%w: agent=%s step=%d: %v", contractx.ErrModelInvoke, a.agentType, step, err))
		}
		if msg == nil {
			return fail(fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation))
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return fail(fmt.Errorf("%w: assistant message is empty", contractx.ErrSchemaViolation))
			}
			turn = append(turn, schema.AssistantMessage(content, nil))
			return contractx.AssistantResponse{
				Message: content,
				Turn:    turn,
				Tools:   results,
			}, nil
		}

		turn = append(turn, schema.AssistantMessage(msg.Content, msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			res := a.execute(ctx, req.Tools, call)
			results = append(results, res)
			turn = append(turn, schema.ToolMessage(res.Spoken(), call.ID))

			if res.EndCall {
				turn = append(turn, schema.AssistantMessage(res.Result, nil))
				return contractx.AssistantResponse{
					Message: res.Result,
					Turn:    turn,
					EndCall: true,
					Tools:   results,
				}, nil
			}
		}
	}

	return fail(fmt.Errorf("%w: agent=%s exceeded %d tool steps", contractx.ErrSchemaViolation, a.agentType, a.maxSteps))
}

func (a *assistantImpl) execute(ctx context.Context, tools contractx.ToolGateway, call schema.ToolCall) contractx.ToolResult {
	name := strings.TrimSpace(call.Function.Name)
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Warn().Err(err).
				Str("agent", string(a.agentType)).
				Str("tool", name).
				Msg("malformed tool arguments")
			return contractx.ToolResult{
				Tool:  name,
				Error: "I could not read the details for that request. Could you say it again?",
				Kind:  contractx.KindOf(contractx.ErrInvalidArgument),
			}
		}
	}
	return tools.Execute(ctx, contractx.ToolRequest{Tool: name, Args: args})
}
