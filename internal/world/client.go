package world

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"blockmate/internal/logger"
)

var ErrNotConnected = errors.New("world: not connected")

// Per-op bounded waits. A request that outlives its bound is abandoned (the
// bridge goal is cleared) and reported as failed; execution moves on.
const (
	stateTimeout  = 5 * time.Second
	moveTimeout   = 20 * time.Second
	breakTimeout  = 8 * time.Second
	gatherTimeout = 15 * time.Second
	chatTimeout   = 3 * time.Second
)

// Options identify the bridge endpoint and the agent identity presented in
// the hello handshake.
type Options struct {
	Host            string
	Port            int
	Username        string
	ProtocolVersion string
}

// Client talks to the bot control bridge over a websocket. It owns the
// connection lifecycle; the pipeline only sees capability calls.
type Client struct {
	opts Options

	mu      sync.Mutex
	conn    *websocket.Conn
	alive   bool
	agentID string
	pending map[string]chan ResponseMsg

	group  *errgroup.Group
	cancel context.CancelFunc
}

func NewClient(opts Options) *Client {
	return &Client{
		opts:    opts,
		pending: make(map[string]chan ResponseMsg),
	}
}

// Connect dials the bridge, performs the hello/welcome handshake and starts
// the read pump. Fatal to startup if it fails.
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", c.opts.Host, c.opts.Port), Path: "/agent"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("world: dial %s: %w", u.String(), err)
	}

	hello := HelloMsg{Type: "hello", Username: c.opts.Username, ProtocolVersion: c.opts.ProtocolVersion}
	data, err := codec.Marshal(hello)
	if err != nil {
		conn.Close()
		return fmt.Errorf("world: encode hello: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
		return fmt.Errorf("world: send hello: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("world: awaiting welcome: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var welcome WelcomeMsg
	if err := codec.Unmarshal(raw, &welcome); err != nil || welcome.Type != "welcome" {
		conn.Close()
		return fmt.Errorf("world: unexpected frame before welcome")
	}
	if welcome.ProtocolVersion != c.opts.ProtocolVersion {
		conn.Close()
		return fmt.Errorf("world: protocol mismatch: bridge %s, client %s",
			welcome.ProtocolVersion, c.opts.ProtocolVersion)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	g, pumpCtx := errgroup.WithContext(pumpCtx)

	c.mu.Lock()
	c.conn = conn
	c.alive = true
	c.agentID = welcome.AgentID
	c.group = g
	c.cancel = cancel
	c.mu.Unlock()

	g.Go(func() error { return c.readPump(pumpCtx) })

	logger.Log.Printf("[world] connected to %s as %s (agent %s)", u.String(), c.opts.Username, welcome.AgentID)
	return nil
}

// Disconnect closes the connection and fails any request still waiting.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.alive = false
	c.cancel = nil
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive && c.conn != nil
}

func (c *Client) readPump(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return ErrNotConnected
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.alive = false
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			return fmt.Errorf("world: read: %w", err)
		}

		var env envelope
		if err := codec.Unmarshal(raw, &env); err != nil {
			logger.Log.Printf("[world] dropping undecodable frame: %v", err)
			continue
		}
		if env.Type != "response" {
			// State pushes and other unsolicited frames are not consumed here.
			continue
		}

		var resp ResponseMsg
		if err := codec.Unmarshal(raw, &resp); err != nil {
			logger.Log.Printf("[world] dropping malformed response: %v", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
			close(ch)
		}
	}
}

// request sends one capability invocation and waits for its response within
// the given bound. A timed-out request is abandoned, never retried here.
func (c *Client) request(ctx context.Context, op string, params map[string]any, timeout time.Duration) (ResponseMsg, error) {
	id := uuid.New().String()[:8]
	req := RequestMsg{Type: "request", ID: id, Op: op, Params: params}
	data, err := codec.Marshal(req)
	if err != nil {
		return ResponseMsg{}, fmt.Errorf("world: encode %s: %w", op, err)
	}

	ch := make(chan ResponseMsg, 1)
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ResponseMsg{}, ErrNotConnected
	}
	c.pending[id] = ch
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.mu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ResponseMsg{}, fmt.Errorf("world: send %s: %w", op, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp, ok := <-ch:
		if !ok {
			return ResponseMsg{}, ErrNotConnected
		}
		return resp, nil
	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ResponseMsg{}, fmt.Errorf("world: %s timed out after %s", op, timeout)
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ResponseMsg{}, ctx.Err()
	}
}

// CurrentState captures a fresh snapshot. Returns nil when the agent is not
// connected or the bridge does not answer in time.
func (c *Client) CurrentState(ctx context.Context) *GameState {
	resp, err := c.request(ctx, OpState, nil, stateTimeout)
	if err != nil || !resp.Ok || resp.State == nil {
		if err != nil {
			logger.Log.Printf("[world] state query failed: %v", err)
		}
		return nil
	}
	return resp.State
}

// MoveTo walks to the target. True means the goal was reached within the
// movement bound; on timeout the outstanding goal is cleared.
func (c *Client) MoveTo(ctx context.Context, x, y, z float64) bool {
	resp, err := c.request(ctx, OpMoveTo, map[string]any{"x": x, "y": y, "z": z}, moveTimeout)
	if err != nil {
		logger.Log.Printf("[world] move_to (%.1f,%.1f,%.1f) failed: %v", x, y, z, err)
		c.ClearGoal()
		return false
	}
	return resp.Ok
}

// BreakBlock finds and breaks the nearest matching block. False when no
// matching block is in search radius or the break failed.
func (c *Client) BreakBlock(ctx context.Context, blockType string) bool {
	resp, err := c.request(ctx, OpBreakBlock, map[string]any{"block": blockType}, breakTimeout)
	if err != nil {
		logger.Log.Printf("[world] break_block %q failed: %v", blockType, err)
		c.ClearGoal()
		return false
	}
	return resp.Ok
}

// GatherItem collects up to amount items and reports how many it actually got.
func (c *Client) GatherItem(ctx context.Context, itemType string, amount int) int {
	resp, err := c.request(ctx, OpGather, map[string]any{"item": itemType, "amount": amount}, gatherTimeout)
	if err != nil {
		logger.Log.Printf("[world] gather %q failed: %v", itemType, err)
		c.ClearGoal()
		return 0
	}
	return resp.Count
}

// SendChat posts a chat line. Cannot fail once the agent is alive; a
// transport error is logged and swallowed.
func (c *Client) SendChat(ctx context.Context, text string) {
	if _, err := c.request(ctx, OpChat, map[string]any{"text": text}, chatTimeout); err != nil {
		logger.Log.Printf("[world] chat failed: %v", err)
	}
}

// ClearGoal drops any pending movement goal on the bridge. Idempotent.
func (c *Client) ClearGoal() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	req := RequestMsg{Type: "request", ID: uuid.New().String()[:8], Op: OpClearGoal}
	data, err := codec.Marshal(req)
	if err != nil {
		return
	}
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.TextMessage, data)
	}
	c.mu.Unlock()
}
