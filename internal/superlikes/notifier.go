// internal/superlikes/notifier.go

package superlikes

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Notifier wakes requests waiting on a top-up when its status changes
type Notifier interface {
	Notify(ctx context.Context, checkoutRequestID string) error
	// Subscribe returns a channel that receives a value per notification.
	// Call the returned func to release it.
	Subscribe(ctx context.Context, checkoutRequestID string) (<-chan struct{}, func(), error)
}

// RedisNotifier fans top-up updates out over Redis pub/sub so any API
// instance can wake its waiters
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func topUpChannel(checkoutRequestID string) string {
	return "superlikes:topup:" + checkoutRequestID
}

func (n *RedisNotifier) Notify(ctx context.Context, checkoutRequestID string) error {
	return n.client.Publish(ctx, topUpChannel(checkoutRequestID), "updated").Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, checkoutRequestID string) (<-chan struct{}, func(), error) {
	ps := n.client.Subscribe(ctx, topUpChannel(checkoutRequestID))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		for range ps.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, func() { ps.Close() }, nil
}

// LocalNotifier wakes waiters within this process only. Used when Redis is
// not configured.
type LocalNotifier struct {
	mu      sync.Mutex
	waiters map[string]map[chan struct{}]struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{waiters: make(map[string]map[chan struct{}]struct{})}
}

func (n *LocalNotifier) Notify(_ context.Context, checkoutRequestID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.waiters[checkoutRequestID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Subscribe(_ context.Context, checkoutRequestID string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.waiters[checkoutRequestID] == nil {
		n.waiters[checkoutRequestID] = make(map[chan struct{}]struct{})
	}
	n.waiters[checkoutRequestID][ch] = struct{}{}
	n.mu.Unlock()

	release := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.waiters[checkoutRequestID], ch)
		if len(n.waiters[checkoutRequestID]) == 0 {
			delete(n.waiters, checkoutRequestID)
		}
	}
	return ch, release, nil
}
