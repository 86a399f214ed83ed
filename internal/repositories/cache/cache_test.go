package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"dompet/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMetrics struct {
	observability.NoopMetricsCollector
	mock.Mock
}

func (m *MockMetrics) RecordCacheHit(entity string)  { m.MethodCalled("hit", entity) }
func (m *MockMetrics) RecordCacheMiss(entity string) { m.MethodCalled("miss", entity) }
func (m *MockMetrics) RecordCacheError(op string)    { m.MethodCalled("error", op) }

func TestGetOrLoad(t *testing.T) {
	tests := []struct {
		name       string
		prime      bool
		storeErr   error
		loadErr    error
		wantLoads  int
		wantCached bool
		wantErr    bool
	}{
		{name: "miss loads and stores", wantLoads: 1, wantCached: true},
		{name: "hit skips load", prime: true, wantLoads: 0, wantCached: true},
		{name: "store down falls back to load", storeErr: errors.New("timeout"), wantLoads: 1},
		{name: "load error is not cached", loadErr: errors.New("db down"), wantLoads: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			c := New(store, observability.Noop())
			ctx := context.Background()
			key := "saldo:find_by_card:card:abc"

			if tt.prime {
				require.NoError(t, store.Set(ctx, key, 1500, time.Minute))
			}
			if tt.storeErr != nil {
				store.FailWith(tt.storeErr)
			}

			loads := 0
			got, err := GetOrLoad(ctx, c, key, time.Minute, func(context.Context) (int64, error) {
				loads++
				return 1500, tt.loadErr
			})

			assert.Equal(t, tt.wantLoads, loads)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, store.Has(key))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1500), got)
			if tt.storeErr == nil {
				assert.Equal(t, tt.wantCached, store.Has(key))
			}
		})
	}
}

func TestCache_MetricsAndFailOpen(t *testing.T) {
	store := NewMemoryStore()
	metrics := new(MockMetrics)
	c := New(store, observability.Observer{Metrics: metrics}.WithDefaults())
	ctx := context.Background()

	metrics.On("miss", "topup").Return().Once()
	metrics.On("hit", "topup").Return().Once()
	metrics.On("error", "generation").Return().Once()
	metrics.On("error", "delete").Return().Once()

	var v int
	assert.False(t, c.Get(ctx, "topup:find_by_id:id:1", &v))
	c.Set(ctx, "topup:find_by_id:id:1", 1, time.Minute)
	assert.True(t, c.Get(ctx, "topup:find_by_id:id:1", &v))

	store.FailWith(errors.New("unreachable"))
	assert.NotPanics(t, func() { c.Invalidate(ctx, "topup:find_all:*") })

	metrics.AssertExpectations(t)
}

func TestGetOrLoad_DropsResultInvalidatedDuringLoad(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, observability.Noop())
	ctx := context.Background()
	key := "saldo:find_by_card:card:abc"

	got, err := GetOrLoad(ctx, c, key, time.Minute, func(ctx context.Context) (int64, error) {
		// A mutation commits and invalidates while the old balance is in flight.
		c.Invalidate(ctx, "saldo:find_by_card:card:*")
		return 1000, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)
	assert.False(t, store.Has(key))

	got, err = GetOrLoad(ctx, c, key, time.Minute, func(context.Context) (int64, error) {
		return 1500, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got)
	assert.True(t, store.Has(key))
}

func TestGetOrLoad_OtherEntityInvalidationKeepsResult(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, observability.Noop())
	ctx := context.Background()
	key := "saldo:find_by_card:card:abc"

	_, err := GetOrLoad(ctx, c, key, time.Minute, func(ctx context.Context) (int64, error) {
		c.Invalidate(ctx, "topup:find_all:*")
		return 1000, nil
	})
	require.NoError(t, err)
	assert.True(t, store.Has(key))
}
