// Package mcpserver exposes a cache over the Model Context Protocol on stdio.
//
// Four tools are registered (store_data, retrieve_data, clear_cache and
// get_cache_stats) plus one resource, cache://stats. Lookup misses and bad
// arguments are reported as tool errors, never as protocol failures.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/discochess/kvcache"
)

// Name is the server name announced during the protocol handshake.
const Name = "kvcache"

// StatsURI is the resource URI serving cache statistics.
const StatsURI = "cache://stats"

// Cache is the subset of *kvcache.Cache the server needs.
type Cache interface {
	Set(key string, value any)
	SetWithTTL(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Delete(key string) bool
	Clear()
	Stats() kvcache.Stats
}

// Compile-time check that *kvcache.Cache satisfies Cache.
var _ Cache = (*kvcache.Cache)(nil)

// Server adapts a Cache to MCP tool and resource handlers.
type Server struct {
	cache  Cache
	logger *zap.Logger
	mcp    *server.MCPServer
}

// New creates a server for c. If logger is nil, a no-op logger is used.
func New(c Cache, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cache:  c,
		logger: logger,
		mcp: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}

	s.mcp.AddTool(storeDataTool, s.storeData)
	s.mcp.AddTool(retrieveDataTool, s.retrieveData)
	s.mcp.AddTool(clearCacheTool, s.clearCache)
	s.mcp.AddTool(statsTool, s.cacheStats)
	s.mcp.AddResource(statsResource, s.readStats)

	return s
}

// Serve handles protocol messages from in and writes responses to out until
// ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("protocol")))

	s.logger.Info("serving on stdio", zap.String("server", Name))
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

var storeDataTool = mcp.NewToolWithRawSchema("store_data",
	"Store data in the cache with optional TTL",
	[]byte(`{
		"type": "object",
		"properties": {
			"key": {"type": "string", "description": "Unique identifier for the cached data"},
			"value": {"description": "Data to cache"},
			"ttl": {"type": "number", "description": "Time-to-live in seconds (optional)"}
		},
		"required": ["key", "value"]
	}`),
)

var retrieveDataTool = mcp.NewTool("retrieve_data",
	mcp.WithDescription("Retrieve data from the cache"),
	mcp.WithString("key", mcp.Required(), mcp.Description("Key of the cached data to retrieve")),
)

var clearCacheTool = mcp.NewTool("clear_cache",
	mcp.WithDescription("Clear specific or all cache entries"),
	mcp.WithString("key", mcp.Description("Specific key to clear (optional - clears all if not provided)")),
)

var statsTool = mcp.NewTool("get_cache_stats",
	mcp.WithDescription("Get cache statistics"),
)

var statsResource = mcp.NewResource(StatsURI, "Cache Statistics",
	mcp.WithResourceDescription("Real-time cache performance metrics"),
	mcp.WithMIMEType("application/json"),
)

func (s *Server) storeData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	value, ok := args["value"]
	if !ok {
		return mcp.NewToolResultError(`required argument "value" not found`), nil
	}

	raw, hasTTL := args["ttl"]
	if !hasTTL || raw == nil {
		s.cache.Set(key, value)
	} else {
		ttl, err := seconds(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.cache.SetWithTTL(key, value, ttl)
	}

	s.logger.Debug("stored", zap.String("key", key))
	return mcp.NewToolResultText(fmt.Sprintf("Successfully stored data with key: %s", key)), nil
}

func (s *Server) retrieveData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	value, ok := s.cache.Get(key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No data found for key: %s", key)), nil
	}

	text, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding value for key %s: %v", key, err)), nil
	}
	return mcp.NewToolResultText(string(text)), nil
}

func (s *Server) clearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		s.cache.Clear()
		return mcp.NewToolResultText("Successfully cleared all cache entries"), nil
	}

	if s.cache.Delete(key) {
		return mcp.NewToolResultText(fmt.Sprintf("Successfully cleared cache entry: %s", key)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("No cache entry found for key: %s", key)), nil
}

func (s *Server) cacheStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := statsJSON(s.cache.Stats())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) readStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if req.Params.URI != StatsURI {
		return nil, fmt.Errorf("unknown resource: %s", req.Params.URI)
	}

	text, err := statsJSON(s.cache.Stats())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StatsURI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func statsJSON(st kvcache.Stats) (string, error) {
	text, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding stats: %w", err)
	}
	return string(text), nil
}

// seconds converts a JSON number of seconds to a duration.
func seconds(raw any) (time.Duration, error) {
	var secs float64
	switch v := raw.(type) {
	case float64:
		secs = v
	case int:
		secs = float64(v)
	case int64:
		secs = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("ttl must be a number: %w", err)
		}
		secs = f
	default:
		return 0, fmt.Errorf("ttl must be a number, got %T", raw)
	}
	return clampSeconds(secs)
}

// maxSeconds is the largest whole-second count a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// clampSeconds saturates out-of-range values at the Duration limits.
func clampSeconds(secs float64) (time.Duration, error) {
	switch {
	case math.IsNaN(secs) || math.IsInf(secs, 0):
		return 0, fmt.Errorf("ttl must be finite, got %v", secs)
	case secs >= maxSeconds:
		return time.Duration(math.MaxInt64), nil
	case secs <= -maxSeconds:
		return time.Duration(math.MinInt64), nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}
