package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamPingInterval = 30 * time.Second
)

// HandleStream upgrades to a WebSocket and pushes every newly published view.
// The current view, if any, is sent straight after the upgrade.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// The dashboard only listens; CloseRead handles control frames and
	// cancels ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())

	views, cancel := h.state.Subscribe()
	defer cancel()

	h.log.Info().Msg("Client connected to dashboard stream")

	if current := h.state.Current(); !current.IsZero() {
		if err := h.writeView(ctx, conn, current); err != nil {
			h.logStreamEnd(err)
			return
		}
	}

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from dashboard stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case view, ok := <-views:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.writeView(ctx, conn, view); err != nil {
				h.logStreamEnd(err)
				return
			}

		case <-ping.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, streamWriteTimeout)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				h.logStreamEnd(err)
				return
			}
		}
	}
}

func (h *Handler) writeView(ctx context.Context, conn *websocket.Conn, view dashboard.View) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, view)
}

func (h *Handler) logStreamEnd(err error) {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
		h.log.Info().Msg("Client disconnected from dashboard stream")
		return
	}
	h.log.Warn().Err(err).Msg("Dashboard stream ended")
}
