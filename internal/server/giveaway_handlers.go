package server

import (
	"time"

	"bigspin/internal/models"
	"bigspin/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateGiveaway handles POST /api/giveaways
func (s *Server) CreateGiveaway(c *fiber.Ctx) error {
	var req struct {
		Title        string                     `json:"title"`
		Prize        string                     `json:"prize"`
		MaxEntries   *int                       `json:"max_entries"`
		EndsAt       time.Time                  `json:"ends_at"`
		Requirements []service.RequirementInput `json:"requirements"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	giveaway, err := s.giveawayService.CreateGiveaway(c.Context(), service.CreateGiveawayInput{
		Title:        req.Title,
		Prize:        req.Prize,
		MaxEntries:   req.MaxEntries,
		EndsAt:       req.EndsAt,
		Requirements: req.Requirements,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(giveaway)
}

// GetGiveaways handles GET /api/giveaways
func (s *Server) GetGiveaways(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	activeOnly := c.QueryBool("active", false)

	giveaways, err := s.giveawayService.ListGiveaways(c.Context(), activeOnly, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(giveaways)
}

// GetGiveaway handles GET /api/giveaways/:id
func (s *Server) GetGiveaway(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	giveaway, err := s.giveawayService.GetGiveaway(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	// The route is public; a valid token additionally reports whether the
	// caller has already entered.
	if userID, ok := s.optionalUserID(c); ok {
		entered, err := s.giveawayRepo.HasEntry(c.Context(), id, userID)
		if err == nil {
			return c.JSON(fiber.Map{"giveaway": giveaway, "entered": entered})
		}
	}

	return c.JSON(giveaway)
}

// EnterGiveaway handles POST /api/giveaways/:id/enter
func (s *Server) EnterGiveaway(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	entry, err := s.giveawayService.Enter(c.Context(), id, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// PickGiveawayWinner handles POST /api/giveaways/:id/draw
func (s *Server) PickGiveawayWinner(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.giveawayService.PickWinner(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// VerifyGiveawayDraw handles GET /api/giveaways/:id/verify
func (s *Server) VerifyGiveawayDraw(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	verification, err := s.giveawayService.VerifyDraw(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(verification)
}
