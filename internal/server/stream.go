package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

const streamWriteWait = 5 * time.Second

// handleStream pushes msgpack-encoded snapshots over a websocket until the
// client goes away or the simulation shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	clientID := uuid.New().String()
	log := s.log.With().Str("client_id", clientID).Logger()
	s.streamClients.Add(1)
	defer s.streamClients.Add(-1)
	log.Info().Msg("Stream client connected")

	// Clients never send; CloseRead handles pings and the close handshake.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stream client disconnected")
			return
		case <-ticker.C:
		}

		snap, err := s.sim.Snapshot(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Snapshot unavailable, closing stream")
			conn.Close(websocket.StatusGoingAway, "simulation stopped")
			return
		}

		payload, err := msgpack.Marshal(&snap)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode snapshot")
			return
		}

		writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
		err = conn.Write(writeCtx, websocket.MessageBinary, payload)
		cancel()
		if err != nil {
			log.Debug().Err(err).Msg("Stream write failed")
			return
		}
	}
}
