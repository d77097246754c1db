package mcp

import (
	"context"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectClient wires a client to server over in-memory transports.
func connectClient(t *testing.T, server *Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ss, err := server.server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestServer_ListTools(t *testing.T) {
	server := setupTestServer(t, 10)
	cs := connectClient(t, server)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	got := make(map[string]bool)
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{"sim_step", "sim_snapshot", "sim_reset", "sim_toggle", "sim_summary"} {
		if !got[name] {
			t.Errorf("missing tool %s", name)
		}
	}
}

func TestServer_CallToolsOverSession(t *testing.T) {
	server := setupTestServer(t, 4)
	cs := connectClient(t, server)
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "sim_summary"})
	if err != nil {
		t.Fatalf("CallTool sim_summary: %v", err)
	}
	if !res.IsError {
		t.Error("summary before the cap should be a tool error")
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{
		Name:      "sim_step",
		Arguments: map[string]any{"rounds": 10},
	})
	if err != nil {
		t.Fatalf("CallTool sim_step: %v", err)
	}
	if res.IsError {
		t.Fatalf("sim_step failed: %+v", res.Content)
	}
	if got := server.driver.Engine().Snapshot().Rounds; got != 4 {
		t.Errorf("rounds = %d, want 4", got)
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{Name: "sim_summary"})
	if err != nil {
		t.Fatalf("CallTool sim_summary: %v", err)
	}
	if res.IsError {
		t.Fatalf("sim_summary failed after the cap: %+v", res.Content)
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{
		Name:      "sim_reset",
		Arguments: map[string]any{"seed": "abc"},
	})
	if err != nil {
		t.Fatalf("CallTool sim_reset: %v", err)
	}
	if !res.IsError {
		t.Error("invalid seed should be a tool error")
	}
	if got := server.driver.Engine().Snapshot().Rounds; got != 4 {
		t.Errorf("invalid seed changed the run: rounds = %d", got)
	}
}

func TestServer_ReadDashboardResource(t *testing.T) {
	server := setupTestServer(t, 10)
	cs := connectClient(t, server)

	res, err := cs.ReadResource(context.Background(), &sdk.ReadResourceParams{URI: dashboardURI})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].Text == "" {
		t.Errorf("unexpected contents: %+v", res.Contents)
	}
}
