package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/fraud"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/grocery"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/lead"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

// Deps are the process-wide collaborators every call's tools share.
type Deps struct {
	Company  *lead.Company
	LeadDir  string
	Cases    *fraud.Store
	Catalog  *grocery.Catalog
	OrderDir string
	Sink     contractx.Sink
	Usage    contractx.UsageRecorder
	Now      func() time.Time
}

type handler func(ctx context.Context, args Args) (string, error)

type entry struct {
	info     *schema.ToolInfo
	run      handler
	terminal bool
}

// Gateway is the tool surface of one call. It owns that call's lead, fraud
// verification flow or cart.
type Gateway struct {
	agentType contractx.AgentType
	sessionID string
	deps      Deps
	entries   []entry
	byName    map[string]entry
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(agentType contractx.AgentType, sessionID string, deps Deps) (*Gateway, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	g := &Gateway{agentType: agentType, sessionID: sessionID, deps: deps}

	switch agentType {
	case contractx.AgentTypeEducation:
		if deps.Company == nil {
			return nil, fmt.Errorf("%w: education tools need a company document", contractx.ErrValidation)
		}
		g.entries = educationTools(g, &lead.Lead{})
	case contractx.AgentTypeFraud:
		if deps.Cases == nil {
			return nil, fmt.Errorf("%w: fraud tools need a case store", contractx.ErrValidation)
		}
		g.entries = fraudTools(g, fraud.NewCall(deps.Cases, deps.Now))
	case contractx.AgentTypeGrocery:
		if deps.Catalog == nil {
			return nil, fmt.Errorf("%w: grocery tools need a catalog", contractx.ErrValidation)
		}
		g.entries = groceryTools(g, grocery.NewCart(deps.Catalog))
	default:
		return nil, fmt.Errorf("%w: unknown agent type %q", contractx.ErrValidation, agentType)
	}

	g.byName = make(map[string]entry, len(g.entries))
	for _, e := range g.entries {
		g.byName[e.info.Name] = e
	}
	return g, nil
}

// Factory binds a fresh Gateway per session.
func Factory(agentType contractx.AgentType, deps Deps) contractx.ToolFactory {
	return func(sessionID string) (contractx.ToolGateway, error) {
		return NewGateway(agentType, sessionID, deps)
	}
}

// InfosForAgent lists the tools an agent exposes without binding call state.
func InfosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	deps := Deps{Company: &lead.Company{}, Cases: &fraud.Store{}, Catalog: &grocery.Catalog{}}
	g, err := NewGateway(agentType, "", deps)
	if err != nil {
		return nil
	}
	return g.Infos()
}

func (g *Gateway) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e.info)
	}
	return out
}

// unknownTool is the usage label for names outside the agent's tool set, so
// model output never becomes a metric label.
const unknownTool = "unknown"

// Execute runs one tool call. Failures come back as spoken text with a kind;
// nothing here returns an error to the model runtime.
func (g *Gateway) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	name := strings.TrimSpace(req.Tool)
	e, ok := g.byName[name]
	if !ok {
		log.Warn().Str("session_id", g.sessionID).Str("agent", string(g.agentType)).Str("tool", name).Msg("unknown tool requested")
		g.record(unknownTool, "unavailable")
		return contractx.ToolResult{
			Tool:  name,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", name, g.agentType),
			Kind:  "unavailable",
		}
	}

	text, err := e.run(ctx, Args(req.Args))
	kind := contractx.KindOf(err)
	g.record(name, kind)

	if err != nil {
		log.Warn().Err(err).
			Str("session_id", g.sessionID).
			Str("agent", string(g.agentType)).
			Str("tool", name).
			Str("kind", kind).
			Msg("tool call failed")
		return contractx.ToolResult{Tool: name, Error: spoken(err), Kind: kind}
	}

	log.Info().
		Str("session_id", g.sessionID).
		Str("agent", string(g.agentType)).
		Str("tool", name).
		Bool("terminal", e.terminal).
		Msg("tool call")
	return contractx.ToolResult{Tool: name, Result: text, Kind: kind, EndCall: e.terminal}
}

func (g *Gateway) record(tool, kind string) {
	if g.deps.Usage != nil {
		g.deps.Usage.ToolInvoked(g.agentType, tool, kind)
	}
}

// deliver forwards a finalised record to the sink. Delivery problems never
// reach the caller.
func (g *Gateway) deliver(ctx context.Context, kind string, v any) {
	if g.deps.Sink == nil {
		return
	}
	payload, err := record.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("encode record for sink")
		return
	}
	if err := g.deps.Sink.Deliver(ctx, kind, payload); err != nil {
		log.Error().Err(err).
			Str("session_id", g.sessionID).
			Str("kind", kind).
			Msg("deliver record")
	}
}

// sayError attaches the sentence the caller should hear to err.
type sayError struct {
	err  error
	text string
}

func (e *sayError) Error() string { return e.err.Error() }
func (e *sayError) Unwrap() error { return e.err }

func say(err error, format string, args ...any) error {
	return &sayError{err: err, text: fmt.Sprintf(format, args...)}
}

func spoken(err error) string {
	var s *sayError
	if errors.As(err, &s) {
		return s.text
	}
	switch contractx.KindOf(err) {
	case "invalid_argument":
		return "Sorry, I didn't quite catch that. Could you say it again?"
	case "persist_failed":
		return "Sorry, I couldn't save that just now."
	default:
		return "Sorry, something went wrong on my side."
	}
}
