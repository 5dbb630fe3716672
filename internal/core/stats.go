package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/arcas-io/load-server/internal/metrics"
)

// OutboundStreamStats is the send-side counter set for one RTP stream.
type OutboundStreamStats struct {
	SSRC            uint32 `json:"ssrc"`
	Kind            string `json:"kind"`
	PacketsSent     uint64 `json:"packets_sent"`
	BytesSent       uint64 `json:"bytes_sent"`
	HeaderBytesSent uint64 `json:"header_bytes_sent"`
	NACKCount       uint32 `json:"nack_count"`
	PLICount        uint32 `json:"pli_count"`
	FIRCount        uint32 `json:"fir_count"`
}

// PeerConnectionStats is the collected counter set for one peer connection.
type PeerConnectionStats struct {
	ID      string                `json:"peer_connection_id"`
	Name    string                `json:"name"`
	Streams []OutboundStreamStats `json:"streams"`
}

// SessionStats is the lifecycle snapshot of a session. ElapsedSeconds is
// nil until the session has been started.
type SessionStats struct {
	ID                  string     `json:"session_id"`
	Name                string     `json:"name"`
	State               State      `json:"state"`
	StartTime           *time.Time `json:"start_time,omitempty"`
	StopTime            *time.Time `json:"stop_time,omitempty"`
	ElapsedSeconds      *int64     `json:"elapsed_time,omitempty"`
	PeerConnectionCount int        `json:"peer_connection_count"`
}

// Stats is the aggregate returned by Session.Stats: the session snapshot
// plus one entry per peer connection that reported successfully.
type Stats struct {
	Session         SessionStats          `json:"session"`
	PeerConnections []PeerConnectionStats `json:"peer_connections"`
}

// Stats collects outbound stats from every peer connection in the session.
// Collection runs against a point-in-time snapshot of the peer connection
// set with a bounded worker pool, so no session-wide lock is held while
// collectors run. A peer connection whose collector fails is logged and
// left out of the aggregate; the rest still report.
func (s *Session) Stats(ctx context.Context, collector StatsCollector) Stats {
	session := s.snapshotStats()
	handles := s.peerConnections.Snapshot()

	out := make([]PeerConnectionStats, 0, len(handles))
	var mu sync.Mutex
	workers := pool.New().WithMaxGoroutines(s.statsWorkers)
	for _, pc := range handles {
		workers.Go(func() {
			var streams []OutboundStreamStats
			err := pc.With(func(conn Connection) error {
				var cerr error
				streams, cerr = collector.Collect(ctx, conn)
				return cerr
			})
			if err != nil {
				metrics.StatsCollectErrors.Inc()
				log.Error().
					Err(err).
					Str("module", "core.session").
					Str("session_id", s.id).
					Str("peer_connection_id", pc.ID()).
					Msg("failed to collect peer connection stats")
				return
			}
			mu.Lock()
			out = append(out, PeerConnectionStats{ID: pc.ID(), Name: pc.Name(), Streams: streams})
			mu.Unlock()
		})
	}
	workers.Wait()

	return Stats{Session: session, PeerConnections: out}
}

func (s *Session) snapshotStats() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := SessionStats{
		ID:                  s.id,
		Name:                s.name,
		State:               State(s.lifecycle.Current()),
		StartTime:           s.startTime,
		StopTime:            s.stopTime,
		PeerConnectionCount: s.peerConnections.Len(),
	}
	if elapsed, ok := s.elapsedLocked(); ok {
		secs := int64(elapsed / time.Second)
		stats.ElapsedSeconds = &secs
	}
	return stats
}
