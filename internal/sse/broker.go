// Package sse streams vault and cluster changes to browser clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/bignote/internal/index"
	"github.com/starford/bignote/internal/spawn"
)

// Event types sent to clients.
const (
	TypeNoteCreated     = "note.created"
	TypeNoteUpdated     = "note.updated"
	TypeNoteDeleted     = "note.deleted"
	TypeNoteSpawned     = "note.spawned"
	TypeClustersUpdated = "clusters.updated"
)

const (
	clientBuffer     = 64
	defaultHeartbeat = 30 * time.Second
)

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker fans events out to connected clients.
//
// A single loop goroutine owns the client set, the message sequence and the
// clusters.updated schedule; methods talk to it over channels.
//
// Any vault change may alter cluster structure (file counts decide cluster
// roots, frontmatter decides peripheral notes), so each one asks for a
// clusters.updated. Those are rate limited to one per clustersMin; a request
// inside the window is deferred to its end, never dropped.
type Broker struct {
	clustersMin time.Duration
	heartbeat   time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a Broker that sends clusters.updated at most once per
// clustersThrottle.
func NewBroker(clustersThrottle time.Duration) *Broker {
	if clustersThrottle <= 0 {
		clustersThrottle = 2 * time.Second
	}

	b := &Broker{
		clustersMin:   clustersThrottle,
		heartbeat:     defaultHeartbeat,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// frame renders one SSE message with id seq.
func frame(seq uint64, ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Type, payload), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var seq uint64

	var lastClusters time.Time
	var deferred *time.Timer
	var deferredC <-chan time.Time

	send := func(ev Event) {
		seq++
		msg, err := frame(seq, ev)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client: it misses this message and can resync from
				// the next clusters.updated.
			}
		}
	}

	sendClusters := func(now time.Time) {
		lastClusters = now
		send(Event{Type: TypeClustersUpdated, Data: map[string]string{}})
	}

	for {
		select {
		case <-b.stopCh:
			if deferred != nil {
				deferred.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			send(ev)

		case ev := <-b.changeCh:
			if ev.Type != "" {
				send(ev)
			}
			now := time.Now()
			wait := b.clustersMin - now.Sub(lastClusters)
			switch {
			case wait <= 0:
				sendClusters(now)
			case deferred == nil:
				deferred = time.NewTimer(wait)
				deferredC = deferred.C
			}

		case now := <-deferredC:
			deferred, deferredC = nil, nil
			sendClusters(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed on
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
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

// Publish sends an event to all connected clients as is.
func (b *Broker) Publish(event Event) {
	b.enqueue(b.publishCh, event)
}

// vaultChanged sends ev (unless its type is empty) and schedules a
// clusters.updated.
func (b *Broker) vaultChanged(ev Event) {
	b.enqueue(b.changeCh, ev)
}

func (b *Broker) enqueue(ch chan Event, ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case ch <- ev:
	case <-b.stopped:
	}
}

// PublishNoteEvent forwards a change reported by the index watcher. kind is
// one of the index.Event constants; a new folder sends only
// clusters.updated.
func (b *Broker) PublishNoteEvent(kind, path string) {
	data := map[string]string{"path": path}
	var ev Event
	switch kind {
	case index.EventCreated:
		ev = Event{Type: TypeNoteCreated, Data: data}
	case index.EventUpdated:
		ev = Event{Type: TypeNoteUpdated, Data: data}
	case index.EventDeleted:
		ev = Event{Type: TypeNoteDeleted, Data: data}
	}
	b.vaultChanged(ev)
}

// PublishSpawned announces a spawned note. Its payload is the spawn result.
func (b *Broker) PublishSpawned(res *spawn.Result) {
	if res == nil {
		return
	}
	b.vaultChanged(Event{Type: TypeNoteSpawned, Data: res})
}

// ServeHTTP streams events to one client (GET /api/events). A comment line
// is sent every heartbeat so idle connections survive proxies.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
