package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

type ConnectedClient struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Stream serves the camera websocket. Each connection runs its own session in the handler goroutine,
// the only things shared between connections are the (read-only) processor and the recorder.
type Stream struct {
	processor FrameProcessor
	recorder  PresenceRecorder
	log       *zap.Logger
	upgrader  websocket.Upgrader
	readLimit int64
	clients   cmap.ConcurrentMap[string, *ConnectedClient]
}

// NewStream creates the websocket handler. readLimit caps a single message (frame) size, 0 for no limit
func NewStream(processor FrameProcessor, recorder PresenceRecorder, log *zap.Logger, readLimit int64) *Stream {
	return &Stream{
		processor: processor,
		recorder:  recorder,
		log:       log,
		upgrader: websocket.Upgrader{
			// Camera clients are not browsers bound to our origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		readLimit: readLimit,
		clients:   cmap.New[*ConnectedClient](),
	}
}

func (s *Stream) Handle(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}

	client := &ConnectedClient{
		ID:          uuid.NewString(),
		RemoteAddr:  conn.RemoteAddr().String(),
		ConnectedAt: time.Now(),
	}
	s.clients.Set(client.ID, client)
	defer s.clients.Remove(client.ID)

	log := s.log.With(zap.String("conn", client.ID), zap.String("remote", client.RemoteAddr))
	log.Info("client connected")
	newSession(conn, s.processor, s.recorder, log).run(c.Request.Context())
}

func (s *Stream) ConnectedClients() []*ConnectedClient {
	result := make([]*ConnectedClient, 0, s.clients.Count())
	for _, c := range s.clients.Items() {
		result = append(result, c)
	}
	return result
}
