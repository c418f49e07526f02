package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// WalkResponse aligns with the HTTP walk endpoint and provides a unified structure across adapters.
type WalkResponse struct {
	Path          []string `json:"path" jsonschema_description:"Edge labels that were followed from the root"`
	IsBot         bool     `json:"is_bot" jsonschema_description:"Whether the node holds agent phrases"`
	Phrases       []string `json:"phrases" jsonschema_description:"Phrase variants recorded at the node"`
	Intents       []string `json:"intents" jsonschema_description:"Intents that can be followed from here"`
	HasAgentReply bool     `json:"has_agent_reply" jsonschema_description:"Whether an unlabelled agent reply follows"`
	Terminal      bool     `json:"terminal" jsonschema_description:"Indicates the node has no replies"`
}

// SearchResponse lists the tree positions whose phrases match a query.
type SearchResponse struct {
	Matches []PhraseMatch `json:"matches" jsonschema_description:"Nodes holding at least one matching phrase"`
}

// PhraseMatch locates a single matching phrase within the tree.
type PhraseMatch struct {
	Path   []string `json:"path" jsonschema_description:"Edge labels leading to the node"`
	IsBot  bool     `json:"is_bot" jsonschema_description:"Whether the phrase belongs to the agent"`
	Phrase string   `json:"phrase" jsonschema_description:"The phrase that matched"`
}

// Server wraps a built dialog tree and exposes it as an MCP Server.
type Server struct {
	tree      *domain.Node
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance around a built tree.
func NewServer(tree *domain.Node) *Server {
	s := &Server{
		tree:      tree,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: walk_dialog
	walkTool := mcp.NewTool("walk_dialog",
		mcp.WithDescription("Walk the dialog tree along a path of intents. If path is omitted, describes the root."),
		mcp.WithString("path", mcp.Description("JSON array of intent names to follow; an empty string follows an unlabelled agent reply (optional)")),
		mcp.WithOutputSchema[WalkResponse](),
	)
	s.mcpServer.AddTool(walkTool, mcp.NewStructuredToolHandler(s.handleWalk))

	// TOOL: find_phrase
	searchTool := mcp.NewTool("find_phrase",
		mcp.WithDescription("Find every node whose phrases contain the query, case-insensitively."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to look for")),
		mcp.WithOutputSchema[SearchResponse](),
	)
	s.mcpServer.AddTool(searchTool, mcp.NewStructuredToolHandler(s.handleSearch))

	// TOOL: list_intents
	s.mcpServer.AddTool(mcp.NewTool("list_intents",
		mcp.WithDescription("List the distinct intents observed across the dialog tree."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.tree.Intents())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_tree
	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the full dialog tree for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.tree)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleWalk(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WalkResponse, error) {
	var params struct {
		Path string `mapstructure:"path"`
	}
	if err := mapstructure.Decode(args, &params); err != nil {
		return WalkResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}

	var path []string
	if params.Path != "" {
		if err := json.Unmarshal([]byte(params.Path), &path); err != nil {
			return WalkResponse{}, fmt.Errorf("path must be a JSON array of strings: %w", err)
		}
	}

	node := s.tree
	for _, step := range path {
		child, ok := node.Reply(step)
		if !ok {
			return WalkResponse{}, fmt.Errorf("no reply under intent %q", step)
		}
		node = child
	}

	return describeNode(node, path), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SearchResponse, error) {
	var params struct {
		Query string `mapstructure:"query"`
	}
	if err := mapstructure.Decode(args, &params); err != nil {
		return SearchResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	query := strings.ToLower(strings.TrimSpace(params.Query))
	if query == "" {
		return SearchResponse{}, fmt.Errorf("query must not be empty")
	}

	resp := SearchResponse{Matches: []PhraseMatch{}}
	collectMatches(s.tree, nil, query, &resp.Matches)
	return resp, nil
}

func describeNode(node *domain.Node, path []string) WalkResponse {
	resp := WalkResponse{
		Path:    path,
		IsBot:   node.IsBot(),
		Phrases: node.Phrases(),
	}
	for _, child := range node.Replies() {
		if child.IsBot() {
			resp.HasAgentReply = true
			continue
		}
		resp.Intents = append(resp.Intents, child.Intent())
	}
	resp.Terminal = !resp.HasAgentReply && len(resp.Intents) == 0
	return resp
}

func collectMatches(node *domain.Node, path []string, query string, out *[]PhraseMatch) {
	for _, phrase := range node.Phrases() {
		if strings.Contains(strings.ToLower(phrase), query) {
			*out = append(*out, PhraseMatch{Path: path, IsBot: node.IsBot(), Phrase: phrase})
		}
	}
	for _, child := range node.Replies() {
		next := append(append([]string{}, path...), child.Intent())
		collectMatches(child, next, query, out)
	}
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://tree
	s.mcpServer.AddResource(mcp.NewResource("espalier://tree", "Built Dialog Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.tree)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tree: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://tree",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
