package mycache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// 同一 fingerprint 的结果至多保留这么久；fingerprint 变化时会立即重新计算
const responseCacheTTL = 30 * time.Minute

// 合并后的计算不跟随任何一个请求取消，只受这个上限约束
const computeTimeout = 2 * time.Minute

type entry[V any] struct {
	fingerprint string
	value       V
}

// ResponseCache 按 key 缓存计算结果，tokens（通常是快照的 lastUpdatedAt）变化即失效
type ResponseCache[V any] struct {
	store *ristretto.Cache[string, *entry[V]]
	group singleflight.Group
	cost  func(V) int64
}

// NewResponseCache maxCost 为总成本上限，cost 为 nil 时每项成本为 1
func NewResponseCache[V any](maxCost int64, cost func(V) int64) (*ResponseCache[V], error) {
	if maxCost <= 0 {
		return nil, fmt.Errorf("response cache: max cost must be positive, got %d", maxCost)
	}
	store, err := ristretto.NewCache[string, *entry[V]](&ristretto.Config[string, *entry[V]]{
		NumCounters: 10000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("response cache: %w", err)
	}
	if cost == nil {
		cost = func(V) int64 { return 1 }
	}
	return &ResponseCache[V]{store: store, cost: cost}, nil
}

func fingerprint(tokens []int64) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.FormatInt(t, 10)
	}
	return strings.Join(parts, ",")
}

// Get fingerprint 与缓存一致时直接返回，否则调用 compute 并写回。
// 同一 key、同一 fingerprint 的并发未命中只会计算一次；compute 出错不缓存。
// compute 拿到的 ctx 与调用方的取消解耦，某个调用方放弃等待不会影响其他调用方
func (c *ResponseCache[V]) Get(ctx context.Context, key string, tokens []int64, compute func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	fp := fingerprint(tokens)
	if e, ok := c.store.Get(key); ok && e.fingerprint == fp {
		return e.value, nil
	}

	ch := c.group.DoChan(key+"|"+fp, func() (interface{}, error) {
		if e, ok := c.store.Get(key); ok && e.fingerprint == fp {
			return e.value, nil
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		value, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		c.store.SetWithTTL(key, &entry[V]{fingerprint: fp, value: value}, c.cost(value), responseCacheTTL)
		c.store.Wait()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *ResponseCache[V]) Clear() {
	c.store.Clear()
}

func (c *ResponseCache[V]) Close() {
	c.store.Close()
}
