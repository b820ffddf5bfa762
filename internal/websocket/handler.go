package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades GET /ws and streams hub messages until the peer
// goes away.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			// Single-device app served on localhost or the home LAN.
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "remote", r.RemoteAddr)
		NewClient(hub, conn).Run(r.Context())
		logger.Debug("websocket disconnected", "remote", r.RemoteAddr)
	}
}
