// internal/realtime/handler.go

package realtime

import (
    "log"
    "net/http"

    "github.com/gorilla/mux"
    "github.com/gorilla/websocket"

    "github.com/imadgeboyega/matchup-backend/internal/auth"
    "github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    CheckOrigin: func(r *http.Request) bool {
        return true
    },
}

// Handler upgrades authenticated requests onto the hub
type Handler struct {
    hub *Hub
}

func NewHandler(hub *Hub) *Handler {
    return &Handler{hub: hub}
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        log.Printf("WebSocket upgrade failed: %v", err)
        return
    }

    client := newClient(h.hub, conn, userID)
    select {
    case h.hub.register <- client:
        client.start()
    case <-h.hub.ctx.Done():
        conn.Close()
    }
}

// RegisterRoutes mounts /ws behind the auth middleware. Browsers pass the
// access token as ?token=.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
    router.Handle("/ws", authMiddleware.Authenticate(http.HandlerFunc(handler.ServeWS))).Methods("GET")
}
