package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	ws "github.com/stemsi/schoolhub-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// EventSubscriber streams result transitions.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan model.ResultEvent, func() error)
}

// FeedHandler pushes result transitions to reviewers over WebSocket.
type FeedHandler struct {
	events   EventSubscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(events EventSubscriber, log zerolog.Logger, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		events:   events,
		log:      log.With().Str("component", "feed_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ResultFeed godoc
// WS /ws/v1/results/feed?token=...
// Streams every result transition until the client disconnects.
// Clients may send {"action":"filter"} to narrow the stream and {"action":"ping"}.
func (h *FeedHandler) ResultFeed(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, closeSub := h.events.Subscribe(ctx)
	defer closeSub()

	feedLog := h.log.With().Int("user_id", claims.UserID).Logger()
	feedLog.Info().Msg("Reviewer connected")

	if err := ws.WriteTyped(conn, ws.SubscribedResponse{Event: ws.EventSubscribed, UserID: claims.UserID}); err != nil {
		return
	}

	frames := make(chan []byte)
	go func() {
		defer cancel()
		for {
			raw, err := ws.ReadMessage(conn)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					feedLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case frames <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	var filter ws.FilterRequest
	for {
		select {
		case <-ctx.Done():
			feedLog.Debug().Msg("Connection closed")
			return

		case event, ok := <-events:
			if !ok {
				ws.WriteError(conn, "feed unavailable")
				return
			}
			if !filter.Matches(event) {
				continue
			}
			if err := ws.WriteTyped(conn, ws.ResultEventResponse{Event: ws.EventResult, Result: event}); err != nil {
				return
			}

		case raw := <-frames:
			if err := h.handleFrame(conn, raw, &filter); err != nil {
				return
			}
		}
	}
}

func (h *FeedHandler) handleFrame(conn *websocket.Conn, raw []byte, filter *ws.FilterRequest) error {
	var env ws.RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ws.WriteError(conn, "invalid message")
	}

	switch env.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
	case ws.ActionFilter:
		var req ws.FilterRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return ws.WriteError(conn, "invalid filter")
		}
		*filter = req
		return ws.WriteTyped(conn, ws.FilterResponse{
			Event:       ws.EventFilterSaved,
			ClassroomID: req.ClassroomID,
			ExamID:      req.ExamID,
		})
	default:
		return ws.WriteError(conn, "unknown action: "+string(env.Action))
	}
}
