package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/searchindex"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
	"github.com/Aman-CERP/ctxindex/pkg/version"
)

// DefaultDatabase is the database used when a request names none.
const DefaultDatabase = "master"

// Explainer runs a single resolution.
type Explainer interface {
	Explain(ctx context.Context, indexable resolver.Indexable) resolver.Explanation
}

// IndexSource lists the configured search indexes.
type IndexSource interface {
	List() []searchindex.Index
	Index(name string) (searchindex.Index, bool)
}

// Server is the MCP server for ctxindex.
// It lets AI clients ask which search index owns a content item.
type Server struct {
	mcp      *mcp.Server
	resolver Explainer
	indexes  IndexSource
	store    content.Store
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "resolve_index",
		Description: "Find the search index responsible for a content item. Give a database and an item path or ID. Set explain to see every candidate index with its rank.",
	},
	{
		Name:        "list_indexes",
		Description: "List the configured search indexes with their type, crawler roots and document count.",
	},
	{
		Name:        "search_index",
		Description: "Run a keyword query against one search index. Returns matching document IDs, best first.",
	},
}

// NewServer creates a new MCP server.
func NewServer(res Explainer, indexes IndexSource, store content.Store, logger *slog.Logger) (*Server, error) {
	if res == nil {
		return nil, errors.New("resolver is required")
	}
	if indexes == nil {
		return nil, errors.New("index source is required")
	}
	if store == nil {
		return nil, errors.New("content store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		resolver: res,
		indexes:  indexes,
		store:    store,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "ctxindex",
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)

	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "ctxindex", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpResolveIndexHandler)
	s.logger.Debug("Registered tool", slog.String("name", tools[0].Name))

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpListIndexesHandler)
	s.logger.Debug("Registered tool", slog.String("name", tools[1].Name))

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpSearchIndexHandler)
	s.logger.Debug("Registered tool", slog.String("name", tools[2].Name))

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

// mcpResolveIndexHandler is the MCP SDK handler for the resolve_index tool.
func (s *Server) mcpResolveIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, input ResolveIndexInput) (
	*mcp.CallToolResult,
	ResolveIndexOutput,
	error,
) {
	out, err := s.resolveIndex(ctx, input)
	if err != nil {
		return nil, ResolveIndexOutput{}, err
	}
	return textResult(FormatResolution(out)), out, nil
}

func (s *Server) resolveIndex(ctx context.Context, input ResolveIndexInput) (ResolveIndexOutput, error) {
	path := strings.TrimSpace(input.Path)
	id := strings.TrimSpace(input.ID)
	if path == "" && id == "" {
		return ResolveIndexOutput{}, NewInvalidParamsError("path or id parameter is required")
	}
	database := strings.TrimSpace(input.Database)
	if database == "" {
		database = DefaultDatabase
	}

	start := time.Now()
	requestID := generateRequestID()

	var (
		item *content.Item
		err  error
	)
	if id != "" {
		item, err = s.store.Get(ctx, database, id)
	} else {
		item, err = s.store.GetByPath(ctx, database, path)
	}
	if err != nil {
		attrs := append([]slog.Attr{
			slog.String("request_id", requestID),
			slog.String("database", database),
		}, cerrors.LogAttrs(err)...)
		s.logger.LogAttrs(ctx, slog.LevelWarn, "resolve_index lookup failed", attrs...)
		return ResolveIndexOutput{}, MapError(err)
	}

	exp := s.resolver.Explain(ctx, content.NewIndexable(item))

	out := ResolveIndexOutput{
		ItemID:   item.ID,
		ItemPath: item.Path,
		Index:    exp.IndexName,
		Resolved: exp.Reason != resolver.ReasonNone,
		Reason:   string(exp.Reason),
		Fallback: exp.Fallback,
	}
	if input.Explain {
		out.Candidates = candidateOutputs(exp.Candidates)
	}

	s.logger.Info("resolve_index completed",
		slog.String("request_id", requestID),
		slog.String("path", item.Path),
		slog.String("index", out.Index),
		slog.String("reason", out.Reason),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func candidateOutputs(cands []resolver.Candidate) []CandidateOutput {
	out := make([]CandidateOutput, 0, len(cands))
	for _, c := range cands {
		co := CandidateOutput{
			Index: c.Index.Name(),
			Type:  string(c.Index.Type()),
			Rank:  c.Rank,
		}
		if c.Rank == resolver.Unranked {
			co.Rank = -1
			co.Unranked = true
		}
		out = append(out, co)
	}
	return out
}

// mcpListIndexesHandler is the MCP SDK handler for the list_indexes tool.
func (s *Server) mcpListIndexesHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ListIndexesInput) (
	*mcp.CallToolResult,
	ListIndexesOutput,
	error,
) {
	out, err := s.listIndexes(ctx)
	if err != nil {
		return nil, ListIndexesOutput{}, MapError(err)
	}
	return textResult(FormatIndexes(out)), out, nil
}

func (s *Server) listIndexes(ctx context.Context) (ListIndexesOutput, error) {
	list := s.indexes.List()
	out := ListIndexesOutput{Indexes: make([]IndexInfo, 0, len(list))}
	for _, idx := range list {
		n, err := idx.Count(ctx)
		if err != nil {
			return ListIndexesOutput{}, fmt.Errorf("count %s: %w", idx.Name(), err)
		}
		info := IndexInfo{
			Name:      idx.Name(),
			Type:      string(idx.Type()),
			Crawlers:  make([]string, 0, len(idx.Crawlers())),
			Documents: n,
		}
		for _, c := range idx.Crawlers() {
			info.Crawlers = append(info.Crawlers, fmt.Sprint(c))
		}
		out.Indexes = append(out.Indexes, info)
	}
	return out, nil
}

// mcpSearchIndexHandler is the MCP SDK handler for the search_index tool.
func (s *Server) mcpSearchIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchIndexInput) (
	*mcp.CallToolResult,
	SearchIndexOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchIndexOutput{}, NewInvalidParamsError("query cannot be empty or whitespace only")
	}
	idx, ok := s.indexes.Index(input.Index)
	if !ok {
		return nil, SearchIndexOutput{}, NewIndexNotFoundError(input.Index)
	}

	limit := clampLimit(input.Limit, 10, 1, 50)
	ids, err := idx.Search(ctx, input.Query, limit)
	if err != nil {
		s.logger.Error("search_index failed",
			slog.String("index", input.Index),
			slog.String("error", err.Error()))
		return nil, SearchIndexOutput{}, MapError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return nil, SearchIndexOutput{Index: idx.Name(), Results: ids}, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	return uuid.NewString()[:8]
}
