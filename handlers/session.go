package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"attendance/faces"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageConn is the part of *websocket.Conn a session uses
type MessageConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

type FrameProcessor interface {
	Process(frame []byte) (faces.Result, error)
}

type PresenceRecorder interface {
	Record(ctx context.Context, seanceID, studentName string) bool
}

type sessionState uint8

const (
	stateAwaitingHeader sessionState = iota
	stateAwaitingFrame
	stateProcessing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateAwaitingHeader:
		return "awaiting-header"
	case stateAwaitingFrame:
		return "awaiting-frame"
	case stateProcessing:
		return "processing"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// session drives one connection: header (text) -> frame (binary) -> reply, over and over.
// A frame is fully processed, its presences recorded and its reply sent before the next message is read.
type session struct {
	conn      MessageConn
	processor FrameProcessor
	recorder  PresenceRecorder
	log       *zap.Logger

	state  sessionState
	header Header
	frame  []byte
	frames int
}

func newSession(conn MessageConn, processor FrameProcessor, recorder PresenceRecorder, log *zap.Logger) *session {
	return &session{
		conn:      conn,
		processor: processor,
		recorder:  recorder,
		log:       log,
		state:     stateAwaitingHeader,
	}
}

// run steps until the connection is closed. A panic ends this connection only.
func (s *session) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("unexpected failure, closing connection", zap.Any("panic", r), zap.Stringer("state", s.state))
			s.state = stateClosed
		}
	}()
	for s.state != stateClosed {
		s.step(ctx)
	}
}

func (s *session) step(ctx context.Context) {
	switch s.state {
	case stateAwaitingHeader:
		s.awaitHeader()
	case stateAwaitingFrame:
		s.awaitFrame()
	case stateProcessing:
		s.process(ctx)
	}
}

func (s *session) awaitHeader() {
	mt, message, err := s.conn.ReadMessage()
	if err != nil {
		s.closed(err)
		return
	}
	if mt != websocket.TextMessage {
		s.log.Error("expected a JSON header, got a non-text message", zap.Int("type", mt), zap.Int("size", len(message)))
		return
	}
	if string(message) == "ping" {
		if err = s.conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
			s.closed(err)
		}
		return
	}
	header, err := parseHeader(message)
	if err != nil {
		s.log.Error("invalid header", zap.ByteString("message", truncate(message, 256)), zap.Error(err))
		return
	}
	s.header = header
	s.state = stateAwaitingFrame
}

func (s *session) awaitFrame() {
	mt, message, err := s.conn.ReadMessage()
	if err != nil {
		s.closed(err)
		return
	}
	if mt != websocket.BinaryMessage {
		s.log.Error("expected binary image data, dropping header", zap.String("seance_id", string(s.header.SeanceID)))
		s.reset()
		return
	}
	s.frame = message
	s.state = stateProcessing
}

func (s *session) process(ctx context.Context) {
	seanceID := string(s.header.SeanceID)
	frame := s.frame
	s.reset()
	s.log.Debug("frame received", zap.String("seance_id", seanceID), zap.Int("size", len(frame)))

	result, err := s.processor.Process(frame)
	if err != nil {
		s.log.Error("cannot process frame", zap.String("seance_id", seanceID), zap.Error(err))
		return
	}
	for _, student := range result.Identities {
		s.recorder.Record(ctx, seanceID, student)
	}
	reply, err := json.Marshal(Reply{
		Detections: result.Detections,
		ImageSize:  result.ImageSize,
	})
	if err != nil {
		s.log.Error("cannot encode reply", zap.Error(err))
		return
	}
	if err = s.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
		s.closed(err)
		return
	}
	s.frames++
}

// reset forgets the current header/frame pair and goes back to waiting for a header
func (s *session) reset() {
	s.header = Header{}
	s.frame = nil
	s.state = stateAwaitingHeader
}

func (s *session) closed(err error) {
	s.header = Header{}
	s.frame = nil
	s.state = stateClosed
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		s.log.Warn("connection lost", zap.Int("frames", s.frames), zap.Error(err))
		return
	}
	s.log.Info("client disconnected", zap.Int("frames", s.frames))
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
