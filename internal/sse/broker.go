// Package sse streams console changes to agents over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"
)

// SummaryEvent is sent at most once per throttle window and names every
// resource that changed since the previous one.
const SummaryEvent = "console.updated"

// Status is implemented by payloads describing the latest outcome for a key
// (e.g. the last sync of one sheet). The newest status per key is replayed
// to clients when they connect.
type Status interface {
	StatusKey() string
}

// Summary is the payload of SummaryEvent.
type Summary struct {
	Resources []string `json:"resources"`
}

type change struct {
	resource string
	kind     string
	data     any
}

// Broker fans console changes out to SSE clients.
//
// A single loop goroutine owns the clients, the per-key status cache and the
// pending summary. Public methods talk to it over channels.
type Broker struct {
	summaryMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	changeCh      chan change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that sends at most one console.updated per
// summaryThrottle.
func NewBroker(summaryThrottle time.Duration) *Broker {
	if summaryThrottle <= 0 {
		summaryThrottle = 2 * time.Second
	}

	b := &Broker{
		summaryMin:    summaryThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	status := make(map[string][]byte)
	pending := make(map[string]struct{})
	var (
		seq         uint64
		lastSummary time.Time
		summaryT    *time.Timer
		summaryC    <-chan time.Time
	)

	frame := func(eventType string, data any) []byte {
		if data == nil {
			data = struct{}{}
		}
		payload, err := json.Marshal(data)
		if err != nil {
			return nil
		}
		seq++
		return fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", seq, eventType, payload)
	}

	send := func(raw []byte) {
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; drop rather than stall the loop.
			}
		}
	}

	flushSummary := func(now time.Time) {
		if len(pending) == 0 {
			return
		}
		resources := make([]string, 0, len(pending))
		for r := range pending {
			resources = append(resources, r)
		}
		slices.Sort(resources)
		clear(pending)
		lastSummary = now
		if raw := frame(SummaryEvent, Summary{Resources: resources}); raw != nil {
			send(raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			if summaryT != nil {
				summaryT.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			keys := make([]string, 0, len(status))
			for k := range status {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				select {
				case ch <- status[k]:
				default:
				}
			}
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			raw := frame(c.resource+"."+c.kind, c.data)
			if raw == nil {
				continue
			}
			if st, ok := c.data.(Status); ok {
				status[st.StatusKey()] = raw
			}
			send(raw)

			pending[c.resource] = struct{}{}
			if summaryC != nil {
				continue
			}
			now := time.Now()
			if wait := b.summaryMin - now.Sub(lastSummary); wait > 0 {
				summaryT = time.NewTimer(wait)
				summaryC = summaryT.C
				continue
			}
			flushSummary(now)

		case now := <-summaryC:
			summaryT, summaryC = nil, nil
			flushSummary(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client. Its channel first receives the cached statuses.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishChange sends a "<resource>.<kind>" event (e.g. flow.synced) and
// marks resource for the next console.updated. A data value implementing
// Status replaces the cached status for its key.
func (b *Broker) PublishChange(resource, kind string, data any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- change{resource: resource, kind: kind, data: data}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
