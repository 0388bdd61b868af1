package mcpserver

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/discochess/kvcache"
)

func newTestServer(t *testing.T) (*Server, *kvcache.Cache) {
	t.Helper()
	c := kvcache.New(kvcache.Config{CheckInterval: time.Hour, StatsInterval: time.Hour})
	t.Cleanup(c.Destroy)
	return New(c, "test", nil), c
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestStoreAndRetrieve(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.storeData(ctx, callRequest("store_data", map[string]any{
		"key":   "user",
		"value": map[string]any{"name": "ada", "age": float64(36)},
	}))
	if err != nil {
		t.Fatalf("storeData() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("storeData() IsError, text = %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "Successfully stored data with key: user" {
		t.Errorf("storeData() text = %q", got)
	}

	res, err = s.retrieveData(ctx, callRequest("retrieve_data", map[string]any{"key": "user"}))
	if err != nil {
		t.Fatalf("retrieveData() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("retrieveData() IsError, text = %s", resultText(t, res))
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("retrieveData() returned invalid JSON: %v", err)
	}
	if got["name"] != "ada" || got["age"] != float64(36) {
		t.Errorf("retrieveData() = %v, want stored object", got)
	}
}

func TestStoreData_TTL(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	res, err := s.storeData(ctx, callRequest("store_data", map[string]any{
		"key": "gone", "value": "v", "ttl": float64(0),
	}))
	if err != nil || res.IsError {
		t.Fatalf("storeData() = %v, %v", res, err)
	}
	if _, ok := c.Get("gone"); ok {
		t.Error("entry stored with ttl 0 should be expired")
	}

	res, _ = s.storeData(ctx, callRequest("store_data", map[string]any{
		"key": "bad", "value": "v", "ttl": "soon",
	}))
	if !res.IsError {
		t.Error("storeData() with non-numeric ttl should be a tool error")
	}
}

func TestStoreData_HugeTTL(t *testing.T) {
	s, c := newTestServer(t)

	res, err := s.storeData(context.Background(), callRequest("store_data", map[string]any{
		"key": "forever", "value": "v", "ttl": float64(1e11),
	}))
	if err != nil || res.IsError {
		t.Fatalf("storeData() = %v, %v", res, err)
	}
	if v, ok := c.Get("forever"); !ok || v != "v" {
		t.Errorf("Get(forever) = %v, %v, want v, true", v, ok)
	}

	res, _ = s.storeData(context.Background(), callRequest("store_data", map[string]any{
		"key": "nan", "value": "v", "ttl": math.NaN(),
	}))
	if !res.IsError {
		t.Error("storeData() with NaN ttl should be a tool error")
	}
}

func TestStoreData_MissingArguments(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no key", map[string]any{"value": 1}},
		{"no value", map[string]any{"key": "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.storeData(ctx, callRequest("store_data", tt.args))
			if err != nil {
				t.Fatalf("storeData() error = %v", err)
			}
			if !res.IsError {
				t.Error("storeData() should report a tool error")
			}
		})
	}
}

func TestRetrieveData_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.retrieveData(context.Background(), callRequest("retrieve_data", map[string]any{"key": "nope"}))
	if err != nil {
		t.Fatalf("retrieveData() error = %v", err)
	}
	if !res.IsError {
		t.Error("retrieveData() miss should be a tool error")
	}
	if got := resultText(t, res); got != "No data found for key: nope" {
		t.Errorf("retrieveData() text = %q", got)
	}
}

func TestClearCache(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	c.Set("a", 1)
	c.Set("b", 2)

	res, _ := s.clearCache(ctx, callRequest("clear_cache", map[string]any{"key": "a"}))
	if got := resultText(t, res); got != "Successfully cleared cache entry: a" {
		t.Errorf("clearCache(a) text = %q", got)
	}

	res, _ = s.clearCache(ctx, callRequest("clear_cache", map[string]any{"key": "a"}))
	if got := resultText(t, res); got != "No cache entry found for key: a" {
		t.Errorf("clearCache(a) again text = %q", got)
	}

	res, _ = s.clearCache(ctx, callRequest("clear_cache", map[string]any{}))
	if got := resultText(t, res); got != "Successfully cleared all cache entries" {
		t.Errorf("clearCache() text = %q", got)
	}
	if n := c.Stats().EntryCount; n != 0 {
		t.Errorf("EntryCount = %d, want 0", n)
	}
}

func TestCacheStats(t *testing.T) {
	s, c := newTestServer(t)

	c.Set("k", "v")
	c.Get("k")
	c.Get("missing")

	res, err := s.cacheStats(context.Background(), callRequest("get_cache_stats", nil))
	if err != nil {
		t.Fatalf("cacheStats() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("cacheStats() returned invalid JSON: %v", err)
	}

	for _, field := range []string{"hitCount", "missCount", "hitRate", "entryCount", "totalSizeEstimate", "evictionCount"} {
		if _, ok := got[field]; !ok {
			t.Errorf("stats JSON missing field %q", field)
		}
	}
	if len(got) != 6 {
		t.Errorf("stats JSON has %d fields, want 6", len(got))
	}
	if got["hitRate"] != 0.5 {
		t.Errorf("hitRate = %v, want 0.5", got["hitRate"])
	}
}

func TestReadStats(t *testing.T) {
	s, c := newTestServer(t)
	c.Set("k", "v")

	var req mcp.ReadResourceRequest
	req.Params.URI = StatsURI

	contents, err := s.readStats(context.Background(), req)
	if err != nil {
		t.Fatalf("readStats() error = %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("readStats() returned %d contents, want 1", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type = %T, want mcp.TextResourceContents", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q, want application/json", text.MIMEType)
	}
	if !strings.Contains(text.Text, `"entryCount": 1`) {
		t.Errorf("stats text = %s, want entryCount 1", text.Text)
	}

	req.Params.URI = "cache://other"
	if _, err := s.readStats(context.Background(), req); err == nil {
		t.Error("readStats() should fail for an unknown URI")
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"float", float64(1.5), 1500 * time.Millisecond, false},
		{"int", 3, 3 * time.Second, false},
		{"zero", float64(0), 0, false},
		{"negative", float64(-2), -2 * time.Second, false},
		{"huge", float64(1e11), time.Duration(math.MaxInt64), false},
		{"huge negative", float64(-1e11), time.Duration(math.MinInt64), false},
		{"NaN", math.NaN(), 0, true},
		{"infinity", math.Inf(1), 0, true},
		{"string", "10", 0, true},
		{"bool", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := seconds(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("seconds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("seconds() = %v, want %v", got, tt.want)
			}
		})
	}
}
