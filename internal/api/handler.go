package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatsResponse represents the response body for the stats endpoint
type StatsResponse struct {
	UptimeSeconds   float64 `json:"uptimeSeconds"`
	FramesPublished uint64  `json:"framesPublished"`
	SubscriberCount int     `json:"subscriberCount"`
	HasFrame        bool    `json:"hasFrame"`
}

// SubscriberInfo represents one active subscriber in the subscribers endpoint
type SubscriberInfo struct {
	ID       string `json:"id"`
	Enqueued uint64 `json:"enqueued"`
	Dropped  uint64 `json:"dropped"`
}

// SubscribersResponse represents the response body for the subscribers endpoint
type SubscribersResponse struct {
	Subscribers []SubscriberInfo `json:"subscribers"`
	Total       int              `json:"total"`
}

// PublishFrameResponse represents the response body for the frame endpoint
type PublishFrameResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Sequence uint64 `json:"sequence,omitempty"`
}

// StatsHandler handles GET /api/v1/stats requests
func (s *Server) StatsHandler(c *gin.Context) {
	b := s.camServer.Broadcaster()

	c.JSON(http.StatusOK, StatsResponse{
		UptimeSeconds:   s.camServer.Uptime().Seconds(),
		FramesPublished: b.Published(),
		SubscriberCount: b.SubscriberCount(),
		HasFrame:        b.HasFrame(),
	})
}

// SubscribersHandler handles GET /api/v1/subscribers requests
func (s *Server) SubscribersHandler(c *gin.Context) {
	b := s.camServer.Broadcaster()

	ids := b.Subscribers()
	subscribers := make([]SubscriberInfo, 0, len(ids))
	for _, id := range ids {
		stats, err := b.Stats(id)
		if err != nil {
			// 조회 도중 해지된 구독자는 건너뜀
			continue
		}
		subscribers = append(subscribers, SubscriberInfo{
			ID:       id,
			Enqueued: stats.Enqueued,
			Dropped:  stats.Dropped,
		})
	}

	c.JSON(http.StatusOK, SubscribersResponse{
		Subscribers: subscribers,
		Total:       len(subscribers),
	})
}

// PublishFrameHandler handles POST /api/v1/frame requests. The raw body is
// one encoded JPEG frame; it is published to every streaming client.
func (s *Server) PublishFrameHandler(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, PublishFrameResponse{
			Success: false,
			Message: "failed to read request body",
		})
		return
	}

	// JPEG SOI 마커 확인
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		c.JSON(http.StatusBadRequest, PublishFrameResponse{
			Success: false,
			Message: "body is not a JPEG image",
		})
		return
	}

	frame := s.camServer.Broadcaster().Publish(data)

	c.JSON(http.StatusOK, PublishFrameResponse{
		Success:  true,
		Sequence: frame.Sequence,
	})
}
