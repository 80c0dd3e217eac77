package rules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreDefaultsAndReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("")
	assert.Contains(t, s.Rules(ctx), "14 days")

	require.NoError(t, s.SetRules(ctx, "No returns."))
	assert.Equal(t, "No returns.", s.Rules(ctx))

	require.NoError(t, s.SetRules(ctx, ""))
	assert.Equal(t, "", s.Rules(ctx))
}

func TestMemoryStoreConcurrentReadersSeeWholeDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("old")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got := s.Rules(ctx)
				assert.Contains(t, []string{"old", "new"}, got)
			}
		}()
	}
	require.NoError(t, s.SetRules(ctx, "new"))
	wg.Wait()
}

type fakeKV struct {
	values map[string]string
	getErr error
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{values: map[string]string{}}
	s := newRedisStore(kv, "rules", "")

	assert.Equal(t, DefaultRules, s.Rules(ctx), "missing key falls back to default")

	require.NoError(t, s.SetRules(ctx, "Returns within 30 days."))
	assert.Equal(t, "Returns within 30 days.", kv.values["rules"])

	kv.values["rules"] = "Updated by another process."
	assert.Equal(t, "Updated by another process.", s.Rules(ctx))

	kv.getErr = errors.New("connection refused")
	assert.Equal(t, "Updated by another process.", s.Rules(ctx), "outage serves cached copy")
}
