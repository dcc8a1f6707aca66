package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
)

type fakeStore struct {
	*statex.MemoryStore
	saveErr error
	saves   int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: statex.NewMemoryStore()}
}

func (f *fakeStore) Save(ctx context.Context, c *statex.Call) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return f.MemoryStore.Save(ctx, c)
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	f.deletes++
	return f.MemoryStore.Delete(ctx, sessionID)
}

type fakeAssistant struct {
	responses []contractx.AssistantResponse
	err       error
	calls     int
	lastReqs  []contractx.AssistantRequest
}

func (f *fakeAssistant) Respond(ctx context.Context, req contractx.AssistantRequest) (contractx.AssistantResponse, error) {
	f.calls++
	f.lastReqs = append(f.lastReqs, req)
	if f.err != nil {
		return contractx.AssistantResponse{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		return contractx.AssistantResponse{}, fmt.Errorf("no assistant response left at call=%d", f.calls)
	}
	resp := f.responses[idx]
	resp.Turn = []*schema.Message{schema.UserMessage(req.UserMessage), schema.AssistantMessage(resp.Message, nil)}
	return resp, nil
}

type fakeGateway struct {
	sessionID string
}

func (g *fakeGateway) Infos() []*schema.ToolInfo {
	return nil
}

func (g *fakeGateway) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	return contractx.ToolResult{Tool: req.Tool, Result: "ok", Kind: "ok"}
}

type fakeFactory struct {
	mu      sync.Mutex
	created []string
	err     error
}

func (f *fakeFactory) New(sessionID string) (contractx.ToolGateway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, sessionID)
	return &fakeGateway{sessionID: sessionID}, nil
}

type fakeUsage struct {
	turns int
	ended int
}

func (f *fakeUsage) ToolInvoked(contractx.AgentType, string, string) {}

func (f *fakeUsage) TurnCompleted(contractx.AgentType) { f.turns++ }

func (f *fakeUsage) CallEnded(contractx.AgentType) { f.ended++ }

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, newFakeStore(), &fakeAssistant{}, &fakeFactory{}, &fakeUsage{}, 0)

	_, err := o.HandleMessage(context.Background(), "   ", "hello")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	_, err = o.HandleMessage(context.Background(), "s1", "    ")
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestHandleMessageKeepsHistoryAndGateway(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	assistant := &fakeAssistant{responses: []contractx.AssistantResponse{
		{Message: "Hi, this is the fraud team."},
		{Message: "Thanks, I found your case."},
	}}
	factory := &fakeFactory{}
	usage := &fakeUsage{}
	o := newTestOrchestrator(t, store, assistant, factory, usage, 0)

	reply, err := o.HandleMessage(context.Background(), "call-1", "hello")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Text != "Hi, this is the fraud team." || reply.EndCall {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	if _, err := o.HandleMessage(context.Background(), "call-1", "I am Rohan Gupta"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if len(factory.created) != 1 {
		t.Fatalf("expected one gateway per session, got %v", factory.created)
	}
	if assistant.lastReqs[0].Tools != assistant.lastReqs[1].Tools {
		t.Fatal("expected the same gateway across turns")
	}
	if len(assistant.lastReqs[1].History) != 2 || assistant.lastReqs[1].History[0].Content != "hello" {
		t.Fatalf("unexpected history on second turn: %+v", assistant.lastReqs[1].History)
	}

	call, err := store.Load(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if call.Turns != 2 || call.Agent != contractx.AgentTypeFraud {
		t.Fatalf("unexpected stored call: %+v", call)
	}
	if usage.turns != 2 || usage.ended != 0 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
}

func TestHandleMessageHistoryCap(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	assistant := &fakeAssistant{responses: []contractx.AssistantResponse{
		{Message: "one"}, {Message: "two"}, {Message: "three"},
	}}
	o := newTestOrchestrator(t, store, assistant, &fakeFactory{}, &fakeUsage{}, 1)

	for _, text := range []string{"a", "b", "c"} {
		if _, err := o.HandleMessage(context.Background(), "call-1", text); err != nil {
			t.Fatalf("HandleMessage() error = %v", err)
		}
	}
	if got := len(assistant.lastReqs[2].History); got != 2 {
		t.Fatalf("expected one replayed turn, got %d messages", got)
	}
}

func TestHandleMessageTerminalToolEndsCall(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	assistant := &fakeAssistant{responses: []contractx.AssistantResponse{
		{Message: "Your order is placed. Goodbye!", EndCall: true},
		{Message: "Welcome back."},
	}}
	factory := &fakeFactory{}
	usage := &fakeUsage{}
	o := newTestOrchestrator(t, store, assistant, factory, usage, 0)

	reply, err := o.HandleMessage(context.Background(), "call-1", "place my order")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !reply.EndCall {
		t.Fatalf("expected EndCall, got %+v", reply)
	}
	if store.Len() != 0 || store.deletes != 1 {
		t.Fatalf("expected ended call discarded, len=%d deletes=%d", store.Len(), store.deletes)
	}
	if usage.ended != 1 {
		t.Fatalf("expected one ended call, got %d", usage.ended)
	}

	// A new turn on the same id starts a fresh call with fresh tool state.
	if _, err := o.HandleMessage(context.Background(), "call-1", "hello again"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if len(factory.created) != 2 {
		t.Fatalf("expected fresh gateway after call end, got %v", factory.created)
	}
	if len(assistant.lastReqs[1].History) != 0 {
		t.Fatal("expected empty history for the new call")
	}
}

func TestEndCallDiscardsSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	assistant := &fakeAssistant{responses: []contractx.AssistantResponse{{Message: "Hello!"}}}
	usage := &fakeUsage{}
	o := newTestOrchestrator(t, store, assistant, &fakeFactory{}, usage, 0)

	if _, err := o.HandleMessage(context.Background(), "call-1", "hi"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if err := o.EndCall(context.Background(), "call-1"); err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}
	if store.Len() != 0 || usage.ended != 1 {
		t.Fatalf("expected discarded call, len=%d ended=%d", store.Len(), usage.ended)
	}

	if err := o.EndCall(context.Background(), "call-1"); err != nil {
		t.Fatalf("second EndCall() error = %v", err)
	}
	if usage.ended != 1 {
		t.Fatalf("unknown session must not count as ended, got %d", usage.ended)
	}
}

func TestHandleMessageRejectsEndedCall(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	ended := statex.NewCall("call-1", contractx.AgentTypeFraud, time.Now())
	ended.End(time.Now())
	if err := store.MemoryStore.Save(context.Background(), ended); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	assistant := &fakeAssistant{}
	o := newTestOrchestrator(t, store, assistant, &fakeFactory{}, &fakeUsage{}, 0)
	_, err := o.HandleMessage(context.Background(), "call-1", "hello")
	if !errors.Is(err, statex.ErrCallEnded) {
		t.Fatalf("expected ErrCallEnded, got %v", err)
	}
	if assistant.calls != 0 {
		t.Fatal("assistant must not run for an ended call")
	}
}

func TestHandleMessagePropagatesFailures(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	store := newFakeStore()
	store.saveErr = saveErr
	o := newTestOrchestrator(t, store, &fakeAssistant{responses: []contractx.AssistantResponse{{Message: "ok"}}}, &fakeFactory{}, &fakeUsage{}, 0)
	if _, err := o.HandleMessage(context.Background(), "call-1", "hi"); !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}

	modelErr := fmt.Errorf("%w: upstream", contractx.ErrModelInvoke)
	o = newTestOrchestrator(t, newFakeStore(), &fakeAssistant{err: modelErr}, &fakeFactory{}, &fakeUsage{}, 0)
	if _, err := o.HandleMessage(context.Background(), "call-1", "hi"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}

	factoryErr := errors.New("catalog missing")
	o = newTestOrchestrator(t, newFakeStore(), &fakeAssistant{}, &fakeFactory{err: factoryErr}, &fakeUsage{}, 0)
	if _, err := o.HandleMessage(context.Background(), "call-1", "hi"); !errors.Is(err, factoryErr) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestHandleMessageSavesToolsRunBeforeFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	partial := []*schema.Message{
		schema.UserMessage("I did not make that purchase"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "c1", Function: schema.FunctionCall{Name: "mark_fraud", Arguments: "{}"}}}),
		schema.ToolMessage("Card blocked and dispute raised.", "c1"),
	}
	assistant := &fakeAssistant{
		err: &contractx.TurnError{Turn: partial, Err: fmt.Errorf("%w: upstream 503", contractx.ErrModelInvoke)},
		responses: []contractx.AssistantResponse{
			{},
			{Message: "Your card is blocked."},
		},
	}
	o := newTestOrchestrator(t, store, assistant, &fakeFactory{}, &fakeUsage{}, 0)

	if _, err := o.HandleMessage(context.Background(), "call-1", "I did not make that purchase"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	call, err := store.Load(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("expected the call to be saved after the failure: %v", err)
	}
	if len(call.History) != 3 || call.History[2].Role != schema.Tool {
		t.Fatalf("unexpected saved history: %+v", call.History)
	}

	assistant.err = nil
	if _, err := o.HandleMessage(context.Background(), "call-1", "what happens now?"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if got := assistant.lastReqs[1].History; len(got) != 3 || got[2].ToolCallID != "c1" {
		t.Fatalf("expected the tool result to be replayed, got %+v", got)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &fakeAssistant{}, (&fakeFactory{}).New, nil, Config{Agent: contractx.AgentTypeFraud}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := New(newFakeStore(), &fakeAssistant{}, (&fakeFactory{}).New, nil, Config{Agent: "sales"}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown agent, got %v", err)
	}
}

func newTestOrchestrator(
	t *testing.T,
	store statex.Store,
	assistant contractx.Assistant,
	factory *fakeFactory,
	usage contractx.UsageRecorder,
	historyTurns int,
) *Orchestrator {
	t.Helper()
	o, err := New(store, assistant, factory.New, usage, Config{
		Agent:        contractx.AgentTypeFraud,
		HistoryTurns: historyTurns,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	o.now = func() time.Time { return time.Date(2026, 2, 3, 18, 45, 12, 0, time.UTC) }
	return o
}
