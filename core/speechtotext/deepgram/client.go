package deepgram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient streams audio to Deepgram's realtime listen API over a
// websocket and reports typed transcript events through callbacks.
type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs time.Time

	// lastEnd tracks the end of the last confirmed segment so the closing
	// final event can be anchored on the utterance timeline.
	lastEnd        time.Duration
	confidenceSum  float64
	segmentCount   int
	unendedSegment bool
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{}
}

func (s *TranscriptionClient) Close(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close deepgram websocket: %w", err)
	}
	s.conn = nil
	return nil
}
