// internal/app/system/realtime/handler.go
package realtime

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// Handler upgrades authenticated clients to a websocket and streams them the
// events published for their account. Browsers cannot set an Authorization
// header on a websocket upgrade, so the bearer token rides in the "token"
// query parameter instead.
func (h *Hub) Handler(issuer *auth.Issuer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			httperr.Write(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			token = auth.BearerToken(r)
		}
		if token == "" {
			httperr.Write(w, http.StatusUnauthorized, "No token provided")
			return
		}

		accountID, err := issuer.Validate(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				httperr.Write(w, http.StatusUnauthorized, "Token expired")
				return
			}
			httperr.Write(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ws := websocket.Handler(func(conn *websocket.Conn) {
			h.serveConn(conn, accountID)
		})
		ws.ServeHTTP(w, r)
	})
}

// serveConn streams hub events to one connection until the client
// disconnects or an encode fails.
func (h *Hub) serveConn(conn *websocket.Conn, accountID primitive.ObjectID) {
	defer func() {
		_ = conn.Close()
	}()

	id, ch := h.Subscribe(accountID)
	defer h.Unsubscribe(accountID, id)

	// Drain inbound frames so we notice the close; clients have nothing to
	// send on this channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var discard json.RawMessage
		for {
			if err := websocket.JSON.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	enc := json.NewEncoder(conn)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := enc.Encode(ev); err != nil {
				h.log.Debug("websocket send failed",
					zap.String("account_id", accountID.Hex()),
					zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
