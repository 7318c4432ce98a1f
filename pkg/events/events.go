package events

import (
	"sync"
	"time"

	"github.com/hyperctl/hypervisor/pkg/metrics"
)

// EventType identifies what happened to a deployment.
type EventType string

const (
	EventDeploymentAdmitted  EventType = "deployment.admitted"
	EventDeploymentPreempted EventType = "deployment.preempted"
	EventDeploymentBackfill  EventType = "deployment.backfilled"
	EventDeploymentCompleted EventType = "deployment.completed"
)

// Event describes one deployment status transition.
type Event struct {
	ID           string
	Type         EventType
	Timestamp    time.Time
	ClusterID    string
	DeploymentID string
	Status       string
	Metadata     map[string]string
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker fans Publish calls out to every current Subscriber. A slow
// subscriber drops events rather than blocking the publisher.
type Broker struct {
	// subscribers maps each Subscriber to the cluster ID it's filtered to,
	// or "" for one that wants every cluster's events.
	subscribers map[Subscriber]string
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker returns a Broker with a 100-event publish buffer.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]string),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop in its own goroutine.
func (b *Broker) Start() {
	go b.run()
}

// Stop halts the distribution loop. Publish after Stop is a no-op.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe registers a new subscription with a 50-event buffer that
// receives events for every cluster.
func (b *Broker) Subscribe() Subscriber {
	return b.subscribe("")
}

// SubscribeCluster registers a subscription that only receives events for
// clusterID. A dashboard watching one cluster shouldn't pay for, or have to
// filter out, every other tenant's admission traffic.
func (b *Broker) SubscribeCluster(clusterID string) Subscriber {
	return b.subscribe(clusterID)
}

func (b *Broker) subscribe(clusterID string) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = clusterID
	return sub
}

// Unsubscribe removes and closes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues event for delivery to every current subscriber.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()

	for sub, clusterID := range b.subscribers {
		if clusterID != "" && clusterID != event.ClusterID {
			continue
		}
		select {
		case sub <- event:
		default:
			metrics.EventsDroppedTotal.WithLabelValues(string(event.Type)).Inc()
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
