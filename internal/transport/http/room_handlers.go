package http

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/termchat-server/internal/core"
	"github.com/vovakirdan/termchat-server/internal/proto"
)

// RoomHandlers exposes read-only views of live rooms and their history.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomStats is one occupied room in a stats response.
type RoomStats struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
	Direct  bool   `json:"direct"`
}

// StatsResponse is the presence snapshot.
type StatsResponse struct {
	Online int         `json:"online"`
	Rooms  []RoomStats `json:"rooms"`
}

// HistoryResponse is the body of the history endpoint.
type HistoryResponse struct {
	Room     string               `json:"room"`
	Messages []proto.EventMessage `json:"messages"`
}

// Stats reports connected clients and room occupancy.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	stats := h.hub.Stats()

	rooms := make([]RoomStats, 0, len(stats.Rooms))
	for name, members := range stats.Rooms {
		rooms = append(rooms, RoomStats{Name: name, Members: members, Direct: core.IsDirectRoom(name)})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })

	c.JSON(http.StatusOK, StatsResponse{Online: stats.Online, Rooms: rooms})
}

// History returns the recent messages of a room, oldest first. Direct-message
// history is only visible to its participants.
// GET /api/rooms/:room/history?limit=N
func (h *RoomHandlers) History(c *gin.Context) {
	room, err := core.ValidateRoomName(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room name"})
		return
	}

	if a, b, ok := core.DirectParticipants(room); ok {
		username := c.GetString(ContextKeyUsername)
		if username != a && username != b {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a participant"})
			return
		}
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
	}

	msgs, err := h.hub.History(c.Request.Context(), room, limit)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room).Msg("history request failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history unavailable"})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{Room: room, Messages: messagesToProto(msgs)})
}
