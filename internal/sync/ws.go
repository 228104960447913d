package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"moviehub/internal/apperr"
	"moviehub/internal/auth"
)

// WSHandler upgrades authenticated requests and registers the session under
// the caller's user id. Browsers cannot set headers on websocket requests, so
// the access token may also come as ?token=.
func WSHandler(hub *Hub, tokens auth.TokenService, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			raw = auth.BearerToken(c)
		}
		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			apperr.Respond(c, apperr.Unauthorized("invalid token"))
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Debug().Err(err).Msg("upgrade failed")
			return
		}

		// written before Add so it never races a Publish
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome"}`))

		hub.Add(claims.UserID, ws)
		hub.log.Info().Str("user_id", claims.UserID).Msg("client connected")

		// incoming messages are ignored; reading detects the close
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(claims.UserID, ws)
		hub.log.Info().Str("user_id", claims.UserID).Msg("client disconnected")
	}
}

// originChecker allows any origin when allowed is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || origin == "" || set[origin]
	}
}
