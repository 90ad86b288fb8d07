package http

import (
	"encoding/json"
	"log"
	"net/http"

	status "anoa.com/communitywealth/internal/modules/status/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type StatusHandler struct {
	latest      *status.Latest
	broadcaster *status.Broadcaster
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewStatusHandler(latest *status.Latest, broadcaster *status.Broadcaster, redisClient *redis.Client) *StatusHandler {
	return &StatusHandler{
		latest:      latest,
		broadcaster: broadcaster,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *StatusHandler) GetStatus(c *gin.Context) {
	s, ok := h.latest.Get()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s})
}

// HandleWebSocket streams status JSON to the client. With redis every
// instance's statuses arrive through pub/sub, otherwise only this process's.
func (h *StatusHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	// Exactly one of these is set; a nil channel never fires.
	var redisMessages <-chan *redis.Message
	var localStatuses <-chan status.Status

	if h.redisClient != nil {
		pubsub := h.redisClient.Subscribe(ctx, status.Channel)
		defer pubsub.Close()

		// Wait for confirmation that subscription is created
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Printf("Failed to subscribe to redis channel: %v", err)
			return
		}
		redisMessages = pubsub.Channel()
	} else {
		ch, cancel := h.broadcaster.Subscribe()
		defer cancel()
		localStatuses = ch
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		var payload []byte
		select {
		case msg, ok := <-redisMessages:
			if !ok {
				return
			}
			payload = []byte(msg.Payload)
		case s, ok := <-localStatuses:
			if !ok {
				return
			}
			b, err := json.Marshal(s)
			if err != nil {
				continue
			}
			payload = b
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Failed to write message to websocket: %v", err)
			return
		}
	}
}
