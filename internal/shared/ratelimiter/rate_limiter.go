// Package ratelimiter counts hits per key in fixed time windows.
package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Counter は、キーごとに固定ウィンドウ内のヒット数を数えるインターフェースです。
type Counter interface {
	// Hit records one hit for key and returns the hit count of the current
	// window together with the time left until the window resets.
	Hit(ctx context.Context, key string) (count int64, resetIn time.Duration, err error)
}

type window struct {
	count int64
	start time.Time
}

// FixedWindow はプロセス内でヒット数を数えるCounterです。
// 複数インスタンス間でカウントは共有されません。
type FixedWindow struct {
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

// NewFixedWindow は新しいFixedWindowのインスタンスを生成します。
func NewFixedWindow(interval time.Duration) *FixedWindow {
	return &FixedWindow{
		interval: interval,
		now:      time.Now,
		windows:  make(map[string]*window),
	}
}

// Hit はキーのヒットを記録します。intervalを過ぎたウィンドウはリセットされます。
func (fw *FixedWindow) Hit(_ context.Context, key string) (int64, time.Duration, error) {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.sweep(now)

	w, ok := fw.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.start) >= fw.interval {
		w = &window{start: now}
		fw.windows[key] = w
	}
	w.count++
	return w.count, fw.interval - now.Sub(w.start), nil
}

// sweep drops expired windows at most once per interval. Caller holds mu.
func (fw *FixedWindow) sweep(now time.Time) {
	if now.Sub(fw.lastSweep) < fw.interval {
		return
	}
	for k, w := range fw.windows {
		if now.Sub(w.start) >= fw.interval {
			delete(fw.windows, k)
		}
	}
	fw.lastSweep = now
}

// Len returns the number of live windows.
func (fw *FixedWindow) Len() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.windows)
}
