package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcas-io/load-server/internal/app"
	"github.com/arcas-io/load-server/internal/core"
)

type CreateSessionRequest struct {
	Name string `json:"name"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type CreatePeerConnectionRequest struct {
	Name string `json:"name"`
}

type CreatePeerConnectionResponse struct {
	PeerConnectionID string `json:"peer_connection_id"`
}

type SessionDescriptionRequest struct {
	SDPType string `json:"sdp_type"`
	SDP     string `json:"sdp"`
}

type SessionDescriptionResponse struct {
	SessionID        string `json:"session_id"`
	PeerConnectionID string `json:"peer_connection_id"`
	SDPType          string `json:"sdp_type"`
	SDP              string `json:"sdp"`
}

type SetDescriptionResponse struct {
	SessionID        string `json:"session_id"`
	PeerConnectionID string `json:"peer_connection_id"`
	Success          bool   `json:"success"`
}

type AddTrackRequest struct {
	TrackLabel string `json:"track_label"`
}

// Handlers binds the RPC surface to the application server.
type Handlers struct {
	server *app.Server
}

// respondError maps registry errors onto HTTP statuses: unknown identifiers
// are 404, illegal lifecycle transitions are 409, everything else is 500.
func respondError(c *gin.Context, err error) {
	var (
		invalidSession *core.InvalidSessionError
		invalidPC      *core.InvalidPeerConnectionError
		invalidState   *core.InvalidStateError
	)
	switch {
	case errors.As(err, &invalidSession), errors.As(err, &invalidPC):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.server.CreateSession(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSessionResponse{SessionID: id})
}

func (h *Handlers) StartSession(c *gin.Context) {
	if err := h.server.StartSession(c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handlers) StopSession(c *gin.Context) {
	if err := h.server.StopSession(c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.server.GetStats(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) CreatePeerConnection(c *gin.Context) {
	var req CreatePeerConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.server.CreatePeerConnection(c.Param("session_id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreatePeerConnectionResponse{PeerConnectionID: id})
}

func (h *Handlers) CreateOffer(c *gin.Context) {
	desc, err := h.server.CreateOffer(c.Param("session_id"), c.Param("peer_connection_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionDescriptionResponse{
		SessionID:        c.Param("session_id"),
		PeerConnectionID: c.Param("peer_connection_id"),
		SDPType:          string(desc.Type),
		SDP:              desc.SDP,
	})
}

func (h *Handlers) CreateAnswer(c *gin.Context) {
	desc, err := h.server.CreateAnswer(c.Param("session_id"), c.Param("peer_connection_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionDescriptionResponse{
		SessionID:        c.Param("session_id"),
		PeerConnectionID: c.Param("peer_connection_id"),
		SDPType:          string(desc.Type),
		SDP:              desc.SDP,
	})
}

func (h *Handlers) SetLocalDescription(c *gin.Context) {
	h.setDescription(c, h.server.SetLocalDescription)
}

func (h *Handlers) SetRemoteDescription(c *gin.Context) {
	h.setDescription(c, h.server.SetRemoteDescription)
}

func (h *Handlers) setDescription(c *gin.Context, apply func(sessionID, peerConnectionID string, desc core.SessionDescription) error) {
	var req SessionDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sdpType, err := core.ParseSDPType(req.SDPType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	desc := core.SessionDescription{Type: sdpType, SDP: req.SDP}
	if err := apply(c.Param("session_id"), c.Param("peer_connection_id"), desc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SetDescriptionResponse{
		SessionID:        c.Param("session_id"),
		PeerConnectionID: c.Param("peer_connection_id"),
		Success:          true,
	})
}

func (h *Handlers) AddTrack(c *gin.Context) {
	var req AddTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.server.AddTrack(c.Param("session_id"), c.Param("peer_connection_id"), req.TrackLabel); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handlers) AddTransceiver(c *gin.Context) {
	var req AddTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.server.AddTransceiver(c.Param("session_id"), c.Param("peer_connection_id"), req.TrackLabel); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
