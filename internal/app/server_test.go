package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcas-io/load-server/internal/core"
)

var testEpoch = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func TestCreateSessionRegistersCreatedSession(t *testing.T) {
	ts := newTestServer()

	id, err := ts.server.CreateSession("soak test")

	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, ts.provider.started)

	session, err := ts.registry.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "soak test", session.Name())
	assert.Equal(t, core.StateCreated, session.State())
	assert.Equal(t, "source-1", session.Source().ID())
}

func TestCreateSessionsGetDistinctSources(t *testing.T) {
	ts := newTestServer()

	first, err := ts.server.CreateSession("first")
	require.NoError(t, err)
	second, err := ts.server.CreateSession("second")
	require.NoError(t, err)

	a, err := ts.registry.Get(first)
	require.NoError(t, err)
	b, err := ts.registry.Get(second)
	require.NoError(t, err)
	assert.NotEqual(t, a.Source().ID(), b.Source().ID())
	assert.Equal(t, 2, ts.provider.started)
}

func TestCreateSessionProviderFailure(t *testing.T) {
	ts := newTestServer()
	ts.provider.err = errors.New("no capture device")

	_, err := ts.server.CreateSession("doomed")

	require.Error(t, err)
	assert.Equal(t, 0, ts.registry.Len())
}

func TestStartAndStopSession(t *testing.T) {
	ts := newTestServer()
	id, err := ts.server.CreateSession("lifecycle")
	require.NoError(t, err)

	require.NoError(t, ts.server.StartSession(id))
	session, err := ts.registry.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.StateStarted, session.State())

	require.NoError(t, ts.server.StopSession(id))
	assert.Equal(t, core.StateStopped, session.State())
}

func TestStartSessionUnknown(t *testing.T) {
	ts := newTestServer()

	err := ts.server.StartSession("missing")

	var notFound *core.InvalidSessionError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestStartSessionTwiceConflicts(t *testing.T) {
	ts := newTestServer()
	id, err := ts.server.CreateSession("lifecycle")
	require.NoError(t, err)
	require.NoError(t, ts.server.StartSession(id))

	err = ts.server.StartSession(id)

	var stateErr *core.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCreatePeerConnectionBindsSessionSource(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("with pcs")
	require.NoError(t, err)

	pcID, err := ts.server.CreatePeerConnection(sessionID, "viewer-1")

	require.NoError(t, err)
	require.NotEmpty(t, pcID)
	require.Equal(t, 1, ts.engine.created())

	session, err := ts.registry.Get(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.PeerConnectionCount())
	assert.Equal(t, session.Source().ID(), ts.engine.sources[0].ID(), "engine connects to the session's shared source")

	pc, err := session.GetPeerConnection(pcID)
	require.NoError(t, err)
	assert.Equal(t, "viewer-1", pc.Name())
}

func TestCreatePeerConnectionUnknownSession(t *testing.T) {
	ts := newTestServer()

	_, err := ts.server.CreatePeerConnection("missing", "viewer-1")

	var notFound *core.InvalidSessionError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, ts.engine.created(), "engine is untouched when the session does not resolve")
}

func TestCreatePeerConnectionEngineFailure(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("with pcs")
	require.NoError(t, err)
	ts.engine.err = errors.New("ice agent failure")

	_, err = ts.server.CreatePeerConnection(sessionID, "viewer-1")

	require.Error(t, err)
	var notFound *core.InvalidSessionError
	assert.False(t, errors.As(err, &notFound), "engine failures are not lookup failures")

	session, getErr := ts.registry.Get(sessionID)
	require.NoError(t, getErr)
	assert.Equal(t, 0, session.PeerConnectionCount())
}

func TestCreateOfferAndAnswer(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("signaling")
	require.NoError(t, err)
	pcID, err := ts.server.CreatePeerConnection(sessionID, "viewer-1")
	require.NoError(t, err)

	offer, err := ts.server.CreateOffer(sessionID, pcID)
	require.NoError(t, err)
	assert.Equal(t, core.SDPTypeOffer, offer.Type)
	assert.NotEmpty(t, offer.SDP)

	answer, err := ts.server.CreateAnswer(sessionID, pcID)
	require.NoError(t, err)
	assert.Equal(t, core.SDPTypeAnswer, answer.Type)

	conn := ts.engine.conns[0]
	assert.Equal(t, 1, conn.offers)
	assert.Equal(t, 1, conn.answers)
}

func TestCreateOfferUnknownPeerConnection(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("signaling")
	require.NoError(t, err)

	_, err = ts.server.CreateOffer(sessionID, "missing")

	var notFound *core.InvalidPeerConnectionError
	require.ErrorAs(t, err, &notFound)
}

func TestSetDescriptions(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("signaling")
	require.NoError(t, err)
	pcID, err := ts.server.CreatePeerConnection(sessionID, "viewer-1")
	require.NoError(t, err)

	local := core.SessionDescription{Type: core.SDPTypeOffer, SDP: "v=0 local"}
	require.NoError(t, ts.server.SetLocalDescription(sessionID, pcID, local))
	remote := core.SessionDescription{Type: core.SDPTypeAnswer, SDP: "v=0 remote"}
	require.NoError(t, ts.server.SetRemoteDescription(sessionID, pcID, remote))

	conn := ts.engine.conns[0]
	require.Len(t, conn.locals, 1)
	assert.Equal(t, local, conn.locals[0])
	require.Len(t, conn.remotes, 1)
	assert.Equal(t, remote, conn.remotes[0])
}

func TestAddTrackUsesSessionSource(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("tracks")
	require.NoError(t, err)
	pcID, err := ts.server.CreatePeerConnection(sessionID, "viewer-1")
	require.NoError(t, err)

	require.NoError(t, ts.server.AddTrack(sessionID, pcID, "camera-2"))

	session, err := ts.registry.Get(sessionID)
	require.NoError(t, err)
	conn := ts.engine.conns[0]
	require.Len(t, conn.tracks, 1)
	assert.Equal(t, "camera-2", conn.tracks[0].label)
	assert.Equal(t, session.Source().ID(), conn.tracks[0].src.ID(), "tracks come from the shared session source")
}

func TestAddTransceiverUsesSessionSource(t *testing.T) {
	ts := newTestServer()
	sessionID, err := ts.server.CreateSession("tracks")
	require.NoError(t, err)
	pcID, err := ts.server.CreatePeerConnection(sessionID, "viewer-1")
	require.NoError(t, err)

	require.NoError(t, ts.server.AddTransceiver(sessionID, pcID, "camera-3"))

	conn := ts.engine.conns[0]
	require.Len(t, conn.transceivers, 1)
	assert.Equal(t, "camera-3", conn.transceivers[0].label)
}

func TestGetStats(t *testing.T) {
	ts := newTestServer()
	ts.collector.streams = []core.OutboundStreamStats{{SSRC: 7, Kind: "video", PacketsSent: 500, BytesSent: 4000}}
	sessionID, err := ts.server.CreateSession("stats")
	require.NoError(t, err)
	_, err = ts.server.CreatePeerConnection(sessionID, "viewer-1")
	require.NoError(t, err)
	require.NoError(t, ts.server.StartSession(sessionID))
	ts.clock.Advance(20 * time.Second)

	stats, err := ts.server.GetStats(context.Background(), sessionID)

	require.NoError(t, err)
	assert.Equal(t, sessionID, stats.Session.ID)
	assert.Equal(t, core.StateStarted, stats.Session.State)
	require.NotNil(t, stats.Session.ElapsedSeconds)
	assert.EqualValues(t, 20, *stats.Session.ElapsedSeconds)
	require.Len(t, stats.PeerConnections, 1)
	require.Len(t, stats.PeerConnections[0].Streams, 1)
	assert.EqualValues(t, 500, stats.PeerConnections[0].Streams[0].PacketsSent)
}

func TestGetStatsUnknownSession(t *testing.T) {
	ts := newTestServer()

	_, err := ts.server.GetStats(context.Background(), "missing")

	var notFound *core.InvalidSessionError
	require.ErrorAs(t, err, &notFound)
}

func TestCloseTearsDownAllSessions(t *testing.T) {
	ts := newTestServer()
	_, err := ts.server.CreateSession("first")
	require.NoError(t, err)
	_, err = ts.server.CreateSession("second")
	require.NoError(t, err)

	ts.server.Close()

	assert.Equal(t, 0, ts.registry.Len())
	for _, producer := range ts.provider.producers {
		assert.Equal(t, 1, producer.cancelCount())
	}
}
