// Package realtime maintains the persistent WebSocket connection to the
// server and applies inbound change events to the in-memory view models.
// The channel is best-effort: it reconnects on its own and never surfaces
// a fatal error to the host application.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lebensmittel/cli/internal/model"
	"github.com/lebensmittel/cli/internal/session"
	"github.com/lebensmittel/cli/internal/state"
)

// reconnectDelay is the fixed wait between a drop and the next dial.
const reconnectDelay = 3 * time.Second

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type deletedPayload struct {
	ID string `json:"id"`
}

// Client owns the socket exclusively; no other component touches the
// connection. At most one reconnect timer is pending at any time, and an
// explicit Disconnect is terminal until Restart.
type Client struct {
	endpoint string
	session  *session.Manager
	dialer   *websocket.Dialer

	groceries *state.Groceries
	meals     *state.MealPlans
	receipts  *state.Receipts

	// notify, when set, observes each applied event. Used by the CLI
	// watch command; never required for correctness.
	notify func(event string)

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	closed     bool
	reconnect  *time.Timer
	delay      backoff.BackOff
	started    bool

	writeMu sync.Mutex
}

// NewClient creates a sync client for the given WebSocket endpoint
// (ws://host/ws). Tokens and the active group come from the session.
func NewClient(sess *session.Manager, endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		session:  sess,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		delay:    backoff.NewConstantBackOff(reconnectDelay),
	}
}

// Endpoint derives the WebSocket URL from an API base URL, e.g.
// "https://host/api" -> "wss://host/ws".
func Endpoint(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/api")
	u = strings.TrimSuffix(u, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// SetNotify registers an observer for applied events. Must be called
// before Start.
func (c *Client) SetNotify(fn func(event string)) {
	c.notify = fn
}

// Start wires the view-model consumers and opens the connection. Calling
// it again while started is a no-op.
func (c *Client) Start(groceries *state.Groceries, meals *state.MealPlans, receipts *state.Receipts) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.groceries = groceries
	c.meals = meals
	c.receipts = receipts
	c.mu.Unlock()

	c.connect()
}

// connect dials the endpoint with a fresh access token. Failures never
// propagate; they schedule a reconnect instead.
func (c *Client) connect() {
	c.mu.Lock()
	if c.closed || c.conn != nil || c.connecting || !c.started {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := c.session.AccessToken(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no access token for sync connection, will retry")
		c.mu.Lock()
		c.connecting = false
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	query := url.Values{"token": {token}}
	// Best effort: connecting without a group still succeeds, the server
	// scopes the stream to the account's active group.
	if groupID, err := c.session.ActiveGroupID(ctx); err == nil && groupID != "" {
		query.Set("group_id", groupID)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint+"?"+query.Encode(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("sync connection failed, will retry")
		c.mu.Lock()
		c.connecting = false
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.connecting = false
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.mu.Unlock()

	log.Info().Str("endpoint", c.endpoint).Msg("sync connected")

	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		// A stale read loop for an already replaced connection.
		return
	}
	c.conn = nil

	if c.closed {
		return
	}

	log.Warn().Err(err).Msg("sync connection lost")
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer. Caller must
// hold c.mu. A second drop while one is pending does not arm another.
func (c *Client) scheduleReconnectLocked() {
	if c.closed || c.reconnect != nil || c.conn != nil {
		return
	}
	delay := c.delay.NextBackOff()
	c.reconnect = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnect = nil
		c.mu.Unlock()
		c.connect()
	})
	log.Debug().Dur("delay", delay).Msg("sync reconnect scheduled")
}

// Disconnect cancels any pending reconnect, closes the connection and
// stays disconnected until Restart.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Restart tears the connection down and dials again. Used when the active
// group changes, since the stream is scoped to a group at connect time.
func (c *Client) Restart() {
	c.Disconnect()
	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()
	c.connect()
}

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send serializes {event, data} as one text frame. Logged no-op when not
// connected.
func (c *Client) Send(event string, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		log.Debug().Str("event", event).Msg("not connected, dropping outbound event")
		return nil
	}

	frame, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// dispatch applies one inbound frame. Decode failures are isolated to the
// frame: logged, dropped, never fatal to the connection.
func (c *Client) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Msg("dropping unparsable sync frame")
		return
	}

	switch env.Event {
	case EventGroceryItemCreated, EventGroceryItemUpdated:
		var item model.GroceryItem
		if err := json.Unmarshal(env.Data, &item); err != nil {
			log.Debug().Err(err).Str("event", env.Event).Msg("dropping undecodable event payload")
			return
		}
		c.groceries.Upsert(item)

	case EventGroceryItemDeleted:
		var payload deletedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Debug().Err(err).Str("event", env.Event).Msg("dropping undecodable event payload")
			return
		}
		c.groceries.Remove(payload.ID)

	case EventMealPlanCreated, EventMealPlanUpdated:
		var plan model.MealPlan
		if err := json.Unmarshal(env.Data, &plan); err != nil {
			log.Debug().Err(err).Str("event", env.Event).Msg("dropping undecodable event payload")
			return
		}
		c.meals.Upsert(plan)

	case EventMealPlanDeleted:
		var payload deletedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Debug().Err(err).Str("event", env.Event).Msg("dropping undecodable event payload")
			return
		}
		c.meals.Remove(payload.ID)

	case EventReceiptCreated, EventReceiptUpdated:
		var receipt model.Receipt
		if err := json.Unmarshal(env.Data, &receipt); err != nil {
			log.Debug().Err(err).Str("event", env.Event).Msg("dropping undecodable event payload")
			return
		}
		c.receipts.Upsert(receipt)

	case EventReceiptDeleted:
		var payload deletedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Debug().Err(err).Str("event", env.Event).Msg("dropping undecodable event payload")
			return
		}
		c.receipts.Remove(payload.ID)

	case EventConnected:
		log.Debug().Msg("server acknowledged sync connection")
		return

	default:
		log.Debug().Str("event", env.Event).Msg("ignoring unrecognized event")
		return
	}

	if c.notify != nil {
		c.notify(env.Event)
	}
}
