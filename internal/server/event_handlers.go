package server

import (
	"bigspin/internal/models"
	"bigspin/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateEvent handles POST /api/events
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Type            string  `json:"type"`
		Title           string  `json:"title"`
		MaxPlayers      int     `json:"max_players"`
		StartingBalance float64 `json:"starting_balance"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	event, err := s.eventService.CreateEvent(c.Context(), service.CreateEventInput{
		Type:            models.EventType(req.Type),
		Title:           req.Title,
		MaxPlayers:      req.MaxPlayers,
		StartingBalance: req.StartingBalance,
		CreatedByUserID: &userID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

// GetEvents handles GET /api/events
func (s *Server) GetEvents(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	events, err := s.eventRepo.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(events)
}

// GetEvent handles GET /api/events/:id
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.eventService.GetEventState(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(state)
}

// OpenEvent handles POST /api/events/:id/open
func (s *Server) OpenEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	event, err := s.eventService.OpenEvent(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(event)
}

// LockEvent handles POST /api/events/:id/lock
func (s *Server) LockEvent(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	event, err := s.eventService.LockEvent(c.Context(), id, &userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(event)
}

// StartEvent handles POST /api/events/:id/start
func (s *Server) StartEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	event, err := s.eventService.StartEvent(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(event)
}

// CompleteEvent handles POST /api/events/:id/complete
func (s *Server) CompleteEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	event, err := s.eventService.CompleteEvent(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(event)
}

// DeleteEvent handles DELETE /api/events/:id
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.eventService.DeleteEvent(c.Context(), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AddEntry handles POST /api/events/:id/entries
func (s *Server) AddEntry(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		DisplayName string `json:"display_name"`
		SlotChoice  string `json:"slot_choice"`
		Category    string `json:"category"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.eventService.AddEntry(c.Context(), service.AddEntryInput{
		EventID:     id,
		DisplayName: req.DisplayName,
		SlotChoice:  req.SlotChoice,
		Category:    req.Category,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// SubmitWinner handles POST /api/events/:id/matches/:matchId/winner
func (s *Server) SubmitWinner(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	matchID, err := s.parseID(c, "matchId")
	if err != nil {
		return nil
	}

	var req struct {
		WinnerEntryID uint `json:"winner_entry_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	match, err := s.eventService.SubmitWinner(c.Context(), service.SubmitWinnerInput{
		EventID:       id,
		MatchID:       matchID,
		WinnerEntryID: req.WinnerEntryID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(match)
}

// MarkBonused handles POST /api/events/:id/bonus
func (s *Server) MarkBonused(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Payout float64 `json:"payout"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	next, err := s.eventService.MarkBonused(c.Context(), id, req.Payout)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"next_entry": next})
}

// MarkNoBonus handles POST /api/events/:id/no-bonus
func (s *Server) MarkNoBonus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	next, err := s.eventService.MarkNoBonus(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"next_entry": next})
}

// GetBonusHuntSummary handles GET /api/events/:id/summary
func (s *Server) GetBonusHuntSummary(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	summary, err := s.eventService.GetBonusHuntSummary(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(summary)
}
