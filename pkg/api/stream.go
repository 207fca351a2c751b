// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/units"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Event is one message on the /v1/stream websocket
type Event struct {
	Type     string              `json:"type"`
	Time     time.Time           `json:"time"`
	Receipt  *settlement.Receipt `json:"receipt,omitempty"`
	Opened   *auction.Round      `json:"opened,omitempty"`
	Auto     bool                `json:"auto,omitempty"`
	Snapshot Snapshot            `json:"snapshot"`
}

// Snapshot is the compact engine state pushed after every commit
type Snapshot struct {
	Round    auction.Round     `json:"round"`
	Frozen   units.Amount      `json:"frozen"`
	LastThaw time.Time         `json:"last_thaw"`
	Totals   settlement.Totals `json:"totals"`
	Sequence uint64            `json:"sequence"`
}

func snapshotOf(s settlement.State) Snapshot {
	return Snapshot{
		Round:    s.Current,
		Frozen:   s.Frozen,
		LastThaw: s.LastThaw,
		Totals:   s.Totals,
		Sequence: s.Sequence,
	}
}

// Hub fans engine commits out to websocket subscribers. It is called under
// the engine lock, so publishing never blocks: a subscriber whose queue is
// full is disconnected.
type Hub struct {
	settlement.NopObserver

	mu      sync.Mutex
	clients map[*subscriber]struct{}
	buffer  int
	log     log.Logger

	upgrader websocket.Upgrader
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *subscriber) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub with a per-subscriber queue of buffer messages
func NewHub(buffer int, logger log.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = log.NoOp()
	}
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		buffer:  buffer,
		log:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) OnDeposit(ev settlement.DepositEvent) {
	h.publish(Event{Type: settlement.OpDeposit, Time: ev.Time, Snapshot: snapshotOf(ev.State)})
}

func (h *Hub) OnThaw(ev settlement.ThawEvent) {
	opened := ev.Opened
	h.publish(Event{Type: settlement.OpThaw, Time: ev.Time, Opened: &opened, Auto: ev.Auto, Snapshot: snapshotOf(ev.State)})
}

func (h *Hub) OnSettle(ev settlement.SettleEvent) {
	receipt := ev.Receipt
	h.publish(Event{Type: settlement.OpSettle, Time: receipt.Time, Receipt: &receipt, Snapshot: snapshotOf(ev.State)})
}

func (h *Hub) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to encode stream event", log.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			c.close()
			h.log.Warn("dropped slow stream subscriber")
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", log.Error(err))
		return
	}

	c := &subscriber{conn: conn, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) remove(c *subscriber) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readPump discards client messages and notices disconnects
func (h *Hub) readPump(c *subscriber) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
