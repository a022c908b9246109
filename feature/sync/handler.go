package sync

import (
	"context"
	"errors"
	"strconv"

	"guild-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync runner.
type Handler struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(orchestrator *Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/run", h.HandleRun)
	group.Get("/status", h.HandleStatus)
	group.Post("/guilds/:id", h.HandleSyncGuild)
	group.Post("/characters/:id", h.HandleSyncCharacter)
}

// HandleRun starts a sync run in the background.
// @Summary Start Sync Run
// @Description Start a sync of every stale guild and character. Returns immediately.
// @Tags sync
// @Produce json
// @Success 202 {object} map[string]string "Run started"
// @Failure 409 {object} map[string]string "A run is already in progress"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	if h.orchestrator.State() == Running {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": ErrSyncInProgress.Error(),
		})
	}

	l := logger.WithRayID(h.logger, c)
	go func() {
		if err := h.orchestrator.RunSync(context.Background()); err != nil && !errors.Is(err, ErrSyncInProgress) {
			l.Error("Sync run failed", zap.Error(err))
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
	})
}

// HandleStatus returns the current or last run's status.
// @Summary Sync Status
// @Description Get the state and counters of the current or last sync run.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Status "Status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.orchestrator.Status())
}

// HandleSyncGuild syncs one guild immediately.
// @Summary Sync Guild
// @Description Fetch and apply one guild regardless of staleness.
// @Tags sync
// @Produce json
// @Param id path int true "Guild ID"
// @Success 200 {object} map[string]string "Guild synced"
// @Failure 400 {object} map[string]string "Invalid guild id"
// @Failure 404 {object} map[string]string "Guild not found"
// @Failure 502 {object} map[string]string "Sync failed"
// @Router /sync/guilds/{id} [post]
func (h *Handler) HandleSyncGuild(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid guild id"})
	}

	err := h.orchestrator.SyncGuildByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"outcome": string(Synced)})
}

// HandleSyncCharacter syncs one character immediately.
// @Summary Sync Character
// @Description Fetch and apply one character profile regardless of staleness.
// @Tags sync
// @Produce json
// @Param id path int true "Character ID"
// @Success 200 {object} map[string]string "Outcome"
// @Failure 400 {object} map[string]string "Invalid character id"
// @Failure 404 {object} map[string]string "Character not found"
// @Failure 502 {object} map[string]string "Sync failed"
// @Router /sync/characters/{id} [post]
func (h *Handler) HandleSyncCharacter(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid character id"})
	}

	outcome, err := h.orchestrator.SyncCharacterByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"outcome": string(outcome)})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Error("Single item sync failed", zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
