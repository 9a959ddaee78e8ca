package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/caiinstall/caictl/internal/client"
	"github.com/caiinstall/caictl/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServerAdmin is the interface that wraps the administrative calls of the task server.
// They are forwarded as is and do not touch the task session.
type ServerAdmin interface {
	// Method RestartSteam asks the server to restart the Steam client.
	//
	// If the server cannot be reached or answers with a non-2xx status, the error will be returned.
	RestartSteam(ctx context.Context) (*models.ServerResponse, error)
	// Method Shutdown asks the server process to exit.
	//
	// Please reference RestartSteam method for more information about error values.
	Shutdown(ctx context.Context) (*models.ServerResponse, error)
	// Method Sources retrieve the manifest sources known to the server.
	Sources(ctx context.Context) (*models.SourcesResponse, error)
	// Method SearchGame looks up games by name.
	//
	// "name" parameter must not be empty.
	SearchGame(ctx context.Context, name string) (*models.SearchGameResponse, error)
}

// AdminHandler forwards administrative requests to the task server
type AdminHandler struct {
	BaseHandler
	admin ServerAdmin
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin ServerAdmin, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: BaseHandler{logger: logger},
		admin:       admin,
	}
}

// RegisterRoutes registers all admin handler routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/steam/restart", h.RestartSteam)
	r.Post("/server/shutdown", h.Shutdown)
	r.Get("/server/sources", h.Sources)
	r.Get("/games/search", h.SearchGame)
}

// RestartSteam handles POST /api/v1/steam/restart
// @Summary Restart Steam
// @Tags admin
// @Produce json
// @Success 200 {object} models.ServerResponse "Server answer"
// @Failure 502 {object} map[string]string "Task server unreachable"
// @Router /steam/restart [post]
func (h *AdminHandler) RestartSteam(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin.RestartSteam(r.Context())
	if err != nil {
		h.respondUpstreamError(w, "failed to restart steam", err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// Shutdown handles POST /api/v1/server/shutdown
// @Summary Shut down the task server
// @Tags admin
// @Produce json
// @Success 200 {object} models.ServerResponse "Server answer"
// @Failure 502 {object} map[string]string "Task server unreachable"
// @Router /server/shutdown [post]
func (h *AdminHandler) Shutdown(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin.Shutdown(r.Context())
	if err != nil {
		h.respondUpstreamError(w, "failed to shut down task server", err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// Sources handles GET /api/v1/server/sources
// @Summary List manifest sources
// @Tags admin
// @Produce json
// @Success 200 {object} models.SourcesResponse "Known sources"
// @Failure 502 {object} map[string]string "Task server unreachable"
// @Router /server/sources [get]
func (h *AdminHandler) Sources(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin.Sources(r.Context())
	if err != nil {
		h.respondUpstreamError(w, "failed to get sources", err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// SearchGame handles GET /api/v1/games/search
// @Summary Search games by name
// @Tags admin
// @Produce json
// @Param name query string true "Game name"
// @Success 200 {object} models.SearchGameResponse "Matching games"
// @Failure 400 {object} map[string]string "Name is required"
// @Failure 502 {object} map[string]string "Task server unreachable"
// @Router /games/search [get]
func (h *AdminHandler) SearchGame(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "name parameter is required")
		return
	}

	resp, err := h.admin.SearchGame(r.Context(), name)
	if err != nil {
		h.respondUpstreamError(w, "failed to search games", err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) respondUpstreamError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		message = statusErr.Message
	}
	h.respondError(w, http.StatusBadGateway, message)
}
