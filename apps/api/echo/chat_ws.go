package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 8 << 10
)

// Client frame types
const (
	frameMessage = "message"
	frameTyping  = "typing"
	frameRead    = "read"
	frameError   = "error"
)

// ClientFrame is what websocket clients send.
type ClientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ErrorFrame reports a rejected client frame; the connection stays open unless access was lost.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows a single concurrent writer
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (api *chatApi) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range api.origins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// serveWS relays the events of one room to the connection and turns client frames into chat actions.
// Access is checked before the upgrade and again by the chat service on every frame.
func (api *chatApi) serveWS(ctx echo.Context, usr user.User) error {
	roomID := core.CleanString(ctx.QueryParam("room_id"))
	if roomID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "room_id", Error: "this field is required"})
	}

	connCtx, cancel := context.WithCancel(ctx.Request().Context())
	defer cancel()

	sub, err := api.svc.Subscribe(connCtx, usr, roomID)
	if err != nil {
		return errors.Wrap(err, "subscribing to chat room")
	}
	defer func() { _ = sub.Close() }()

	upgrader := api.upgrader()
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		api.logger.Warn("websocket upgrade failed", map[string]interface{}{"room_id": roomID, "error": err.Error()}, usr)
		return nil // the upgrader already replied
	}
	defer func() { _ = conn.Close() }()

	if api.metrics != nil {
		api.metrics.WebsocketOpened()
		defer api.metrics.WebsocketClosed()
	}

	c := &wsConn{conn: conn}
	go api.pump(connCtx, cancel, c, sub)
	api.readLoop(connCtx, c, usr, roomID)
	return nil
}

// pump forwards the room events to the client and keeps the connection alive.
func (api *chatApi) pump(ctx context.Context, cancel context.CancelFunc, c *wsConn, sub core.Subscription) {
	defer cancel()
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (api *chatApi) readLoop(ctx context.Context, c *wsConn, usr user.User, roomID string) {
	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var frame ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				api.logger.Debug("websocket closed: "+err.Error(), usr)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		var err error
		switch frame.Type {
		case frameMessage:
			_, err = api.svc.SendMessage(ctx, usr, roomID, frame.Content)
		case frameTyping:
			err = api.svc.Typing(ctx, usr, roomID)
		case frameRead:
			_, err = api.svc.MarkRead(ctx, usr, roomID)
		default:
			err = core.NewValidationError(errors.Errorf("unknown frame type %q", frame.Type))
		}
		if err == nil {
			continue
		}

		if statusOf(err) == http.StatusInternalServerError {
			api.logger.Error("chat websocket frame", errors.Wrap(err, "handling "+frame.Type), usr)
			err = errors.New(http.StatusText(http.StatusInternalServerError))
		}
		if wErr := c.writeJSON(ErrorFrame{Type: frameError, Message: errors.Cause(err).Error()}); wErr != nil {
			return
		}
		// lost access to the room: the match ended, chat got locked or parent control kicked in
		if core.IsAuthorization(err) || core.IsNotFound(err) {
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access revoked"))
			return
		}
	}
}
