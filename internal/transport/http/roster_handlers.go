package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/core"
)

const rosterTimeout = 2 * time.Second

// RosterHandlers exposes read-only views of the room.
type RosterHandlers struct {
	hub core.Hub
	log *zerolog.Logger
}

// NewRosterHandlers creates a new roster handlers instance.
func NewRosterHandlers(hub core.Hub, logger *zerolog.Logger) *RosterHandlers {
	return &RosterHandlers{hub: hub, log: logger}
}

// UsersResponse lists every live connection.
type UsersResponse struct {
	Users []core.Member `json:"users"`
}

// ManagersResponse lists manager names in appointment order.
type ManagersResponse struct {
	Managers []string `json:"managers"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListUsers handles GET /api/users
func (h *RosterHandlers) ListUsers(c *gin.Context) {
	roster, ok := h.roster(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, UsersResponse{Users: roster.Members})
}

// ListManagers handles GET /api/managers
func (h *RosterHandlers) ListManagers(c *gin.Context) {
	roster, ok := h.roster(c)
	if !ok {
		return
	}
	managers := roster.Managers
	if managers == nil {
		managers = []string{}
	}
	c.JSON(http.StatusOK, ManagersResponse{Managers: managers})
}

func (h *RosterHandlers) roster(c *gin.Context) (core.Roster, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rosterTimeout)
	defer cancel()

	roster, err := h.hub.Roster(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrHubStopped) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		h.log.Warn().Err(err).Msg("roster unavailable")
		c.JSON(status, ErrorResponse{Error: "roster unavailable"})
		return core.Roster{}, false
	}
	return roster, true
}
