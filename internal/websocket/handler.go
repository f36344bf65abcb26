package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
	"go.uber.org/zap"
)

// Handler upgrades connections and runs them as hub clients.
// originPatterns restricts browser origins; empty allows same-origin only.
func Handler(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn).Run(r.Context())
	}
}
