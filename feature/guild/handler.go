package guild

import (
	"errors"
	"strconv"

	"guild-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for guild classification.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the guild routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/guilds")
	group.Get("/:id/classification", h.HandleGetClassification)
	group.Post("/:id/classification", h.HandlePersistClassification)
}

// HandleGetClassification previews the main/alt classification of a guild.
// @Summary Preview Classification
// @Description Classify the current members of a guild without writing anything.
// @Tags guilds
// @Produce json
// @Param id path int true "Guild ID"
// @Success 200 {object} guild.ClassificationReport "Classification"
// @Failure 400 {object} map[string]string "Invalid guild id"
// @Failure 404 {object} map[string]string "Guild not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /guilds/{id}/classification [get]
func (h *Handler) HandleGetClassification(c *fiber.Ctx) error {
	return h.classify(c, false)
}

// HandlePersistClassification classifies a guild and stores the main flags.
// @Summary Persist Classification
// @Description Classify the current members of a guild and store the guild-scoped main flags.
// @Tags guilds
// @Produce json
// @Param id path int true "Guild ID"
// @Success 200 {object} guild.ClassificationReport "Classification"
// @Failure 400 {object} map[string]string "Invalid guild id"
// @Failure 404 {object} map[string]string "Guild not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /guilds/{id}/classification [post]
func (h *Handler) HandlePersistClassification(c *fiber.Ctx) error {
	return h.classify(c, true)
}

func (h *Handler) classify(c *fiber.Ctx, persist bool) error {
	l := logger.WithRayID(h.service.logger, c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid guild id",
		})
	}

	report, err := h.service.ClassifyGuild(c.UserContext(), uint(id), persist)
	if errors.Is(err, ErrGuildNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Guild classification failed", zap.Uint64("guild_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
