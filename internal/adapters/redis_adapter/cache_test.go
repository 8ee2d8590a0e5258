package redis_a_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, 5*time.Minute, helpers.TestLogger())

	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "stores_string", key: "test:string", value: "test value"},
		{name: "stores_slice", key: "test:slice", value: []string{"Cooler-B1", "Dry-C1"}},
		{
			name: "stores_struct",
			key:  "test:struct",
			value: struct {
				Location string `json:"location"`
				Quantity int    `json:"quantity"`
			}{Location: "Freezer-A1", Quantity: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value))

			var raw json.RawMessage
			require.NoError(t, cache.Get(ctx, tt.key, &raw))

			expected, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, string(expected), string(raw))
		})
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, 5*time.Minute, helpers.TestLogger())

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	tr.Server.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())

	for _, key := range []string{"suggest:a:1:", "suggest:a:2:", "suggest:b:1:", "other"} {
		require.NoError(t, cache.Set(ctx, key, 1))
	}

	require.NoError(t, cache.DeletePattern(ctx, "suggest:a:*"))

	exists, err := cache.Exists(ctx, "suggest:a:1:")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, "suggest:b:1:", "other")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, cache.DeletePattern(ctx, "nothing:*"))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"Cooler-B1": 16, "Cooler-B2": 4}, nil
	}

	var first, second map[string]int
	require.NoError(t, cache.GetOrSet(ctx, "k", &first, fetch, time.Minute))
	require.NoError(t, cache.GetOrSet(ctx, "k", &second, fetch, time.Minute))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 16, second["Cooler-B1"])

	boom := errors.New("boom")
	var out map[string]int
	err := cache.GetOrSet(ctx, "other", &out, func() (interface{}, error) { return nil, boom }, time.Minute)
	assert.ErrorIs(t, err, boom)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())

	ok, err := cache.SetNX(ctx, "setnx:test", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "setnx:test", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var result string
	require.NoError(t, cache.Get(ctx, "setnx:test", &result))
	assert.Equal(t, "first", result)
}

func TestCacheManager_Suggestions(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())
	manager := redis_a.NewCacheManager(cache, helpers.TestLogger())

	compute := func() (interface{}, error) { return []string{"Cooler-B1"}, nil }

	var out []string
	require.NoError(t, manager.Suggestion(ctx, redis_a.SuggestionKey("SKU1", 10, ""), &out, time.Minute, compute))
	require.NoError(t, manager.Suggestion(ctx, redis_a.SuggestionKey("sku1", 10, ""), &out, time.Minute, compute))
	require.NoError(t, manager.Suggestion(ctx, redis_a.SuggestionKey("SKU2", 5, "dairy"), &out, time.Minute, compute))
	require.NoError(t, manager.Suggestion(ctx, redis_a.SuggestionKey("SKU2", 5, "dairy"), &out, time.Minute, compute))

	// codes differing only in case are different products
	stats := manager.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.InDelta(t, 0.25, stats.HitRate, 1e-9)

	require.NoError(t, manager.InvalidateSuggestions(ctx, " SKU1 "))
	exists, err := cache.Exists(ctx, redis_a.SuggestionKey("SKU1", 10, ""))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = cache.Exists(ctx, redis_a.SuggestionKey("sku1", 10, ""))
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = cache.Exists(ctx, redis_a.SuggestionKey("SKU2", 5, "dairy"))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, manager.InvalidateSuggestions(ctx, ""))
	exists, err = cache.Exists(ctx, redis_a.SuggestionKey("SKU2", 5, "dairy"))
	require.NoError(t, err)
	assert.False(t, exists)

	manager.ResetStats()
	assert.Zero(t, manager.GetStats().Hits)
}

func TestCacheManager_InvalidateSuggestionsMatchesCodeLiterally(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())
	manager := redis_a.NewCacheManager(cache, helpers.TestLogger())

	compute := func() (interface{}, error) { return []string{"Dry-C1"}, nil }
	var out []string
	for _, code := range []string{"A*", "AB", "A?", "A[1]"} {
		require.NoError(t, manager.Suggestion(ctx, redis_a.SuggestionKey(code, 1, ""), &out, time.Minute, compute))
	}

	require.NoError(t, manager.InvalidateSuggestions(ctx, "A*"))

	tests := []struct {
		code string
		kept bool
	}{
		{code: "A*", kept: false},
		{code: "AB", kept: true},
		{code: "A?", kept: true},
		{code: "A[1]", kept: true},
	}
	for _, tt := range tests {
		exists, err := cache.Exists(ctx, redis_a.SuggestionKey(tt.code, 1, ""))
		require.NoError(t, err)
		assert.Equal(t, tt.kept, exists, tt.code)
	}
}

func TestCacheManager_Receipts(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	manager := redis_a.NewCacheManager(redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger()), helpers.TestLogger())

	ok, err := manager.ClaimReceipt(ctx, "PO-1", "MILK-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = manager.ClaimReceipt(ctx, "PO-1", "MILK-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	// other lines of the same order are claimed separately
	ok, err = manager.ClaimReceipt(ctx, "PO-1", "EGG-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.ReleaseReceipt(ctx, "PO-1", "MILK-1"))
	ok, err = manager.ClaimReceipt(ctx, "PO-1", "MILK-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = manager.ClaimReceipt(ctx, "PO-1", "EGG-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheManager_ImportStatus(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)
	manager := redis_a.NewCacheManager(redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger()), helpers.TestLogger())

	type status struct {
		State string `json:"state"`
	}
	require.NoError(t, manager.SaveImportStatus(ctx, "job-1", status{State: "queued"}, time.Hour))

	var got status
	require.NoError(t, manager.ImportStatus(ctx, "job-1", &got))
	assert.Equal(t, "queued", got.State)

	assert.ErrorIs(t, manager.ImportStatus(ctx, "job-2", &got), redis_a.ErrCacheMiss)
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{name: "suggestion_key", prefix: redis_a.PrefixSuggestion, parts: []string{"sku1", "10", ""}, expected: "suggest:sku1:10:"},
		{name: "receipt_key", prefix: redis_a.PrefixReceipt, parts: []string{"PO-7", "MILK-1"}, expected: "receipt:PO-7:MILK-1"},
		{name: "no_parts", prefix: redis_a.PrefixImport, parts: nil, expected: "import"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
