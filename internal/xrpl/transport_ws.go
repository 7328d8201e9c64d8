package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

var errTransportClosed = errors.New("xrpl: websocket transport closed")

// wsTransport multiplexes requests over one WebSocket connection. Responses are
// matched to callers by id; a dropped connection fails every pending call and
// the next call dials again.
type wsTransport struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan wsReply
	nextID  uint64
	closed  bool

	writeMu sync.Mutex
}

type wsReply struct {
	raw json.RawMessage
	err error
}

func newWSTransport(endpoint string, timeout time.Duration) *wsTransport {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &wsTransport{
		url:     endpoint,
		timeout: timeout,
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
		pending: make(map[uint64]chan wsReply),
	}
}

func (t *wsTransport) connection(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errTransportClosed
	}
	if t.conn != nil {
		return t.conn, nil
	}

	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}
	t.conn = conn
	go t.readLoop(conn)
	return conn, nil
}

func (t *wsTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.drop(conn, err)
			return
		}

		msg := gjson.ParseBytes(data)
		// Subscription streams carry no id and are ignored.
		if !msg.Get("id").Exists() {
			continue
		}
		id := msg.Get("id").Uint()

		t.mu.Lock()
		ch, ok := t.pending[id]
		delete(t.pending, id)
		t.mu.Unlock()
		if !ok {
			continue
		}

		reply := wsReply{}
		if err := resultError(data); err != nil {
			reply.err = err
		} else {
			reply.raw = json.RawMessage(msg.Get("result").Raw)
		}
		ch <- reply
	}
}

// drop forgets conn and fails every call waiting on it.
func (t *wsTransport) drop(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	pending := t.pending
	t.pending = make(map[uint64]chan wsReply)
	t.mu.Unlock()

	_ = conn.Close()
	for _, ch := range pending {
		select {
		case ch <- wsReply{err: fmt.Errorf("xrpl: connection lost: %w", cause)}:
		default:
		}
	}
}

func (t *wsTransport) call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	conn, err := t.connection(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan wsReply, 1)
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.pending[id] = ch
	t.mu.Unlock()

	req := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		req[k] = v
	}
	req["id"] = id
	req["command"] = method

	t.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(t.timeout))
	err = conn.WriteJSON(req)
	t.writeMu.Unlock()
	if err != nil {
		t.forget(id)
		t.drop(conn, err)
		return nil, fmt.Errorf("%s: write request: %w", method, err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		if reply.err != nil {
			return nil, reply.err
		}
		return reply.raw, nil
	case <-timer.C:
		t.forget(id)
		return nil, fmt.Errorf("%s: timed out after %s", method, t.timeout)
	case <-ctx.Done():
		t.forget(id)
		return nil, ctx.Err()
	}
}

func (t *wsTransport) forget(id uint64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *wsTransport) close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	t.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	t.writeMu.Unlock()
	t.drop(conn, errTransportClosed)
	return nil
}
