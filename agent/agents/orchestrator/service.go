package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	nodex "github.com/tanpawarit/Chative-Voice-Agents/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Config struct {
	Agent contractx.AgentType
	// HistoryTurns caps the user turns replayed to the model; zero keeps all.
	HistoryTurns int
}

// Reply is what the agent says back for one user turn. EndCall asks the
// caller to hang up after speaking it.
type Reply struct {
	Text    string
	EndCall bool
}

type Orchestrator struct {
	store     statex.Store
	assistant contractx.Assistant
	tools     contractx.ToolFactory
	usage     contractx.UsageRecorder

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	agent        contractx.AgentType
	historyTurns int

	mu       sync.Mutex
	gateways map[string]contractx.ToolGateway

	now func() time.Time
}

func New(
	store statex.Store,
	assistant contractx.Assistant,
	tools contractx.ToolFactory,
	usage contractx.UsageRecorder,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if tools == nil {
		return nil, errors.New("tool factory is required")
	}
	if usage == nil {
		usage = noopUsage{}
	}
	agent, err := contractx.ParseAgentType(string(cfg.Agent))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:        store,
		assistant:    assistant,
		tools:        tools,
		usage:        usage,
		agent:        agent,
		historyTurns: cfg.HistoryTurns,
		gateways:     map[string]contractx.ToolGateway{},
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (Reply, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return Reply{}, err
	}

	o.usage.TurnCompleted(o.agent)
	if out.EndCall {
		o.release(sessionID)
		o.usage.CallEnded(o.agent)
		log.Info().
			Str("session_id", sessionID).
			Str("agent", string(o.agent)).
			Msg("call ended by agent")
	}
	return Reply{Text: out.Reply, EndCall: out.EndCall}, nil
}

// EndCall discards a call the caller hung up on. Unknown sessions are a no-op.
func (o *Orchestrator) EndCall(ctx context.Context, sessionID string) error {
	_, err := o.store.Load(ctx, sessionID)
	active := err == nil
	if err != nil && !errors.Is(err, statex.ErrStateNotFound) && !errors.Is(err, statex.ErrInvalidSession) {
		return err
	}

	if o.release(sessionID) {
		active = true
	}
	if !active {
		return nil
	}
	if err := o.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("discard call session=%s: %w", sessionID, err)
	}

	o.usage.CallEnded(o.agent)
	log.Info().
		Str("session_id", sessionID).
		Str("agent", string(o.agent)).
		Msg("call ended by caller")
	return nil
}

// gateway returns the tool surface bound to sessionID, creating it on first use.
func (o *Orchestrator) gateway(sessionID string) (contractx.ToolGateway, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if g, ok := o.gateways[sessionID]; ok {
		return g, nil
	}
	g, err := o.tools(sessionID)
	if err != nil {
		return nil, err
	}
	o.gateways[sessionID] = g
	return g, nil
}

func (o *Orchestrator) release(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.gateways[sessionID]
	delete(o.gateways, sessionID)
	return ok
}

type noopUsage struct{}

func (noopUsage) ToolInvoked(contractx.AgentType, string, string) {}

func (noopUsage) TurnCompleted(contractx.AgentType) {}

func (noopUsage) CallEnded(contractx.AgentType) {}
