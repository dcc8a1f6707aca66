package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/grocery"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/tool"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/usage"
)

// scriptedAssistant maps each caller line to one tool call and speaks the
// tool's result back.
type scriptedAssistant struct {
	script map[string]contractx.ToolRequest
}

func (s *scriptedAssistant) Respond(ctx context.Context, req contractx.AssistantRequest) (contractx.AssistantResponse, error) {
	call, ok := s.script[req.UserMessage]
	if !ok {
		return contractx.AssistantResponse{Message: "Sure, what else?"}, nil
	}
	res := req.Tools.Execute(ctx, call)
	return contractx.AssistantResponse{
		Message: res.Spoken(),
		EndCall: res.EndCall,
		Tools:   []contractx.ToolResult{res},
	}, nil
}

func TestToolsCommandListsGroceryTools(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"tools", "--agent", "grocery"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 7 || !strings.HasPrefix(lines[0], tool.ToolAddToCart) {
		t.Fatalf("unexpected tools output:\n%s", out.String())
	}
}

func TestToolsCommandRejectsUnknownAgent(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"tools", "--agent", "sales"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for unknown agent")
	}
}

func TestConverseGroceryCall(t *testing.T) {
	orderDir := t.TempDir()
	collector := usage.NewCollector()
	deps := tool.Deps{
		Catalog:  grocery.LoadCatalog(filepath.Join("data", "catalog.json")),
		OrderDir: orderDir,
		Usage:    collector,
	}
	assistant := &scriptedAssistant{script: map[string]contractx.ToolRequest{
		"two breads please": {Tool: tool.ToolAddToCart, Args: map[string]any{"item": "bread", "quantity": float64(2)}},
		"and a milk":        {Tool: tool.ToolAddToCart, Args: map[string]any{"item": "milk"}},
		"that's all, Asha":  {Tool: tool.ToolPlaceOrder, Args: map[string]any{"customer_name": "Asha"}},
	}}

	orch, err := orchestrator.New(statex.NewMemoryStore(), assistant, tool.Factory(contractx.AgentTypeGrocery, deps), collector, orchestrator.Config{
		Agent: contractx.AgentTypeGrocery,
	})
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	a := &app{agent: contractx.AgentTypeGrocery, orchestrator: orch, usage: collector}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("two breads please\nand a milk\nthat's all, Asha\nnever read\n"))
	cmd.SetOut(&out)

	if err := a.converse(context.Background(), cmd, "call-1"); err != nil {
		t.Fatalf("converse() error = %v", err)
	}
	if !strings.Contains(out.String(), "Added 2 Whole Wheat Bread to your cart, total 2.") {
		t.Fatalf("missing add confirmation:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "total ₹140") {
		t.Fatalf("missing order total:\n%s", out.String())
	}

	entries, err := os.ReadDir(orderDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one order file, got %d (%v)", len(entries), err)
	}
	raw, err := os.ReadFile(filepath.Join(orderDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read order: %v", err)
	}
	var order grocery.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.CustomerName != "Asha" || order.Total != 140 || len(order.Items) != 2 {
		t.Fatalf("unexpected order: %+v", order)
	}

	s, err := collector.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Turns != 3 || s.CallsEnded != 1 || s.ToolCalls[tool.ToolAddToCart] != 2 {
		t.Fatalf("unexpected usage: %+v", s)
	}
}

func TestConverseHangupDiscardsCall(t *testing.T) {
	collector := usage.NewCollector()
	store := statex.NewMemoryStore()
	deps := tool.Deps{Catalog: grocery.LoadCatalog(filepath.Join("data", "catalog.json")), OrderDir: t.TempDir()}
	orch, err := orchestrator.New(store, &scriptedAssistant{}, tool.Factory(contractx.AgentTypeGrocery, deps), collector, orchestrator.Config{
		Agent: contractx.AgentTypeGrocery,
	})
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	a := &app{agent: contractx.AgentTypeGrocery, orchestrator: orch, usage: collector}

	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("hello\n" + hangup + "\n"))
	cmd.SetOut(&bytes.Buffer{})

	if err := a.converse(context.Background(), cmd, "call-2"); err != nil {
		t.Fatalf("converse() error = %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected call discarded on hangup, %d left", store.Len())
	}
	s, _ := collector.Summary()
	if s.CallsEnded != 1 {
		t.Fatalf("expected one ended call, got %d", s.CallsEnded)
	}
}
