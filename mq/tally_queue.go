package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sachit-ab-lele/POC2-local/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue key constants.
const (
	tallyQueueName      = "tally_events"
	tallyProcessingName = "tally_events_processing"
)

// tallyEnvelope is the wire format for queued tally events.
type tallyEnvelope struct {
	MessageID string             `json:"message_id"`
	Timestamp int64              `json:"timestamp"`
	Event     service.TallyEvent `json:"event"`
}

// TallyQueue decouples vote ingestion from tally fan-out. Events are pushed
// onto a Redis list and consumed by a background loop; when Redis is not
// available the queue degrades to an in-process channel so single-node
// deployments keep working.
type TallyQueue struct {
	client  *redis.Client
	handler func(service.TallyEvent)

	memory   chan []byte
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewTallyQueue builds a queue over the given Redis client. A nil client
// selects the in-process fallback.
func NewTallyQueue(client *redis.Client) *TallyQueue {
	return &TallyQueue{
		client:   client,
		memory:   make(chan []byte, 1024),
		stopChan: make(chan struct{}),
	}
}

// RegisterHandler sets the consumer callback. Must be called before Start.
func (q *TallyQueue) RegisterHandler(handler func(service.TallyEvent)) {
	q.handler = handler
}

// Publish enqueues a tally event. Errors are logged, not returned: losing a
// fan-out event never fails the vote that produced it.
func (q *TallyQueue) Publish(event service.TallyEvent) {
	envelope := tallyEnvelope{
		MessageID: uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Event:     event,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("failed to marshal tally event: %v", err)
		return
	}

	if q.client == nil {
		select {
		case q.memory <- data:
		default:
			log.Printf("tally queue full, dropping event for poll %s", event.PollID)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.client.LPush(ctx, tallyQueueName, data).Err(); err != nil {
		log.Printf("failed to enqueue tally event: %v", err)
	}
}

// Start launches the consumer loop.
func (q *TallyQueue) Start() error {
	if q.handler == nil {
		return fmt.Errorf("tally queue handler not registered")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	q.started = true

	q.wg.Add(1)
	if q.client == nil {
		go q.consumeMemory()
	} else {
		go q.consumeRedis()
	}
	return nil
}

// Close stops the consumer and waits for it to drain.
func (q *TallyQueue) Close() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.mu.Unlock()

	close(q.stopChan)
	q.wg.Wait()
}

func (q *TallyQueue) consumeMemory() {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopChan:
			return
		case data := <-q.memory:
			q.dispatch(data)
		}
	}
}

func (q *TallyQueue) consumeRedis() {
	defer q.wg.Done()

	ctx := context.Background()
	for {
		select {
		case <-q.stopChan:
			return
		default:
			data, err := q.client.BRPopLPush(ctx, tallyQueueName, tallyProcessingName, time.Second).Result()
			if err != nil {
				if err != redis.Nil {
					log.Printf("failed to pop tally event: %v", err)
					time.Sleep(time.Second)
				}
				continue
			}
			q.dispatch([]byte(data))
			q.client.LRem(ctx, tallyProcessingName, 1, data)
		}
	}
}

func (q *TallyQueue) dispatch(data []byte) {
	var envelope tallyEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Printf("failed to decode tally event: %v", err)
		return
	}
	q.handler(envelope.Event)
}

// QueueStats reports pending and in-flight message counts. Always zero in
// the in-process fallback since events are dispatched as they arrive.
func (q *TallyQueue) QueueStats(ctx context.Context) map[string]int64 {
	stats := map[string]int64{"pending": 0, "processing": 0}
	if q.client == nil {
		stats["pending"] = int64(len(q.memory))
		return stats
	}

	if n, err := q.client.LLen(ctx, tallyQueueName).Result(); err == nil {
		stats["pending"] = n
	}
	if n, err := q.client.LLen(ctx, tallyProcessingName).Result(); err == nil {
		stats["processing"] = n
	}
	return stats
}
