package status

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

const Channel = "ranking_status"

// Latest remembers the most recent status for polling clients.
type Latest struct {
	mu   sync.RWMutex
	last Status
	set  bool
}

func NewLatest() *Latest {
	return &Latest{}
}

func (l *Latest) Publish(_ context.Context, s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = s
	l.set = true
}

func (l *Latest) Get() (Status, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last, l.set
}

// LogSink writes every status line to the standard logger.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, s Status) {
	log.Printf("[status] run %s: %s", s.RunID, s.Message)
}

// RedisPublisher pushes statuses as JSON on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, channel: Channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, s Status) {
	payload, err := json.Marshal(s)
	if err != nil {
		return
	}
	// Status delivery outlives a cancelled run.
	if err := p.client.Publish(context.WithoutCancel(ctx), p.channel, payload).Err(); err != nil {
		log.Printf("Failed to publish status: %v", err)
	}
}

// Broadcaster fans statuses out to in-process subscribers. Slow subscribers
// miss updates rather than block the run.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Status]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Status]struct{})}
}

func (b *Broadcaster) Publish(_ context.Context, s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe returns a channel of statuses and a func that ends the subscription.
func (b *Broadcaster) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}
