package web

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/framedigest/pkg/hub"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string  `json:"status"`
	Session    string  `json:"session,omitempty"`
	Absorbs    uint64  `json:"absorbs"`
	Bytes      uint64  `json:"bytes"`
	Cycles     uint64  `json:"cycles"`
	Brightness float64 `json:"brightness"`
	Clients    int     `json:"clients"`
	Dropped    uint64  `json:"dropped"`
}

// handleDigest returns the current digest as lowercase hex.
func (s *Server) handleDigest(c *fiber.Ctx) error {
	snap := s.acc.Snapshot()
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(snap.Hex())
}

// handleHealth reports digest and loop counters.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	snap := s.acc.Snapshot()
	resp := HealthResponse{
		Status:  "ok",
		Session: s.session,
		Absorbs: snap.Absorbs,
		Bytes:   snap.Bytes,
	}
	if s.stats != nil {
		st := s.stats()
		resp.Cycles = st.Cycles
		resp.Brightness = st.Brightness
	}
	if s.feed != nil {
		resp.Clients = s.feed.ClientCount()
		resp.Dropped = s.feed.Dropped()
	}
	return c.JSON(resp)
}

// handleDigestWS sends the current digest, then every digest published
// after an absorb, until the client goes away.
func (s *Server) handleDigestWS(c *websocket.Conn) {
	client := hub.NewClient(s.feed, c, hub.NewTextMessage(s.acc.Snapshot().Hex()))
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
