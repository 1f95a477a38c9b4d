package service

import (
	"context"
	"log/slog"
	"time"

	"bigspin/internal/cache"
	"bigspin/internal/fair"
	"bigspin/internal/middleware"
	"bigspin/internal/models"
	"bigspin/internal/observability"
	"bigspin/internal/repository"

	"gorm.io/gorm"
)

// GiveawayService manages giveaways: entry intake with eligibility gating,
// the exactly-once winner draw, and third-party draw verification.
type GiveawayService struct {
	giveawayRepo repository.GiveawayRepository
	userRepo     repository.UserRepository
	eligibility  *EligibilityEvaluator
	db           *gorm.DB
	now          func() time.Time
	newSeed      func() (int64, error)
}

// NewGiveawayService returns a new GiveawayService.
func NewGiveawayService(
	giveawayRepo repository.GiveawayRepository,
	userRepo repository.UserRepository,
	eligibility *EligibilityEvaluator,
	db *gorm.DB,
) *GiveawayService {
	return &GiveawayService{
		giveawayRepo: giveawayRepo,
		userRepo:     userRepo,
		eligibility:  eligibility,
		db:           db,
		now:          time.Now,
		newSeed:      fair.NewSeed,
	}
}

type RequirementInput struct {
	Type            models.RequirementType `json:"type"`
	CasinoID        *uint                  `json:"casino_id,omitempty"`
	RequireVerified bool                   `json:"require_verified,omitempty"`
	MinAmount       *float64               `json:"min_amount,omitempty"`
	Tier            string                 `json:"tier,omitempty"`
}

type CreateGiveawayInput struct {
	Title        string
	Prize        string
	MaxEntries   *int
	EndsAt       time.Time
	Requirements []RequirementInput
}

// DrawResult is the auditable record of a winner pick.
type DrawResult struct {
	GiveawayID   uint      `json:"giveaway_id"`
	WinnerUserID uint      `json:"winner_user_id"`
	Seed         int64     `json:"seed"`
	EntryCount   int       `json:"entry_count"`
	PickedAt     time.Time `json:"picked_at"`
}

// DrawVerification is the result of replaying a recorded draw.
type DrawVerification struct {
	GiveawayID     uint  `json:"giveaway_id"`
	Seed           int64 `json:"seed"`
	EntryCount     int   `json:"entry_count"`
	RecordedWinner uint  `json:"recorded_winner"`
	ComputedWinner uint  `json:"computed_winner"`
	Valid          bool  `json:"valid"`
}

func (s *GiveawayService) CreateGiveaway(ctx context.Context, in CreateGiveawayInput) (*models.Giveaway, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Prize == "" {
		return nil, models.NewValidationError("Prize is required")
	}
	if !in.EndsAt.After(s.now()) {
		return nil, models.NewValidationError("ends_at must be in the future")
	}
	if in.MaxEntries != nil && *in.MaxEntries < 1 {
		return nil, models.NewValidationError("max_entries must be at least 1")
	}

	giveaway := &models.Giveaway{
		Title:      in.Title,
		Prize:      in.Prize,
		MaxEntries: in.MaxEntries,
		EndsAt:     in.EndsAt.UTC(),
		IsActive:   true,
	}
	for _, req := range in.Requirements {
		switch req.Type {
		case models.RequirementDiscord, models.RequirementWager, models.RequirementVIP, models.RequirementLinkedAccount:
			// valid
		default:
			return nil, models.NewValidationError("Invalid requirement type")
		}
		giveaway.Requirements = append(giveaway.Requirements, models.GiveawayRequirement{
			Type:            req.Type,
			CasinoID:        req.CasinoID,
			RequireVerified: req.RequireVerified,
			MinAmount:       req.MinAmount,
			Tier:            req.Tier,
		})
	}

	if err := s.giveawayRepo.Create(ctx, giveaway); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "giveaway created",
		slog.Uint64("giveaway_id", uint64(giveaway.ID)),
		slog.Time("ends_at", giveaway.EndsAt),
	)
	return giveaway, nil
}

func (s *GiveawayService) GetGiveaway(ctx context.Context, id uint) (*models.Giveaway, error) {
	var giveaway models.Giveaway
	err := cache.Aside(ctx, cache.GiveawayKey(id), &giveaway, cache.GiveawayTTL, func() error {
		fetched, err := s.giveawayRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		giveaway = *fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &giveaway, nil
}

func (s *GiveawayService) ListGiveaways(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Giveaway, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.giveawayRepo.List(ctx, activeOnly, limit, offset)
}

// Enter registers a user for a giveaway after checking the giveaway is
// still open, requirements pass, the user has no prior entry, and the entry
// cap is not hit. The unique index on (giveaway_id, user_id) backs the
// duplicate check against concurrent requests.
func (s *GiveawayService) Enter(ctx context.Context, giveawayID, userID uint) (*models.GiveawayEntry, error) {
	giveaway, err := s.giveawayRepo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if !giveaway.IsActive || giveaway.WinnerID != nil || giveaway.Ended(s.now()) {
		return nil, models.NewEventEndedError(giveawayID)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.eligibility.Evaluate(ctx, user, giveaway.Requirements); err != nil {
		return nil, err
	}

	has, err := s.giveawayRepo.HasEntry(ctx, giveawayID, userID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, models.NewDuplicateEntryError(giveawayID, userID)
	}

	if giveaway.MaxEntries != nil {
		count, err := s.giveawayRepo.CountEntries(ctx, giveawayID)
		if err != nil {
			return nil, err
		}
		if count >= int64(*giveaway.MaxEntries) {
			return nil, models.NewEntryLimitReachedError("giveaway", giveawayID, *giveaway.MaxEntries)
		}
	}

	entry := &models.GiveawayEntry{GiveawayID: giveawayID, UserID: userID}
	if err := s.giveawayRepo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	observability.GiveawayEntries.Inc()
	return entry, nil
}

// PickWinner draws the winner exactly once. The seed, the entry snapshot
// size, and the draw time are persisted so the pick can be replayed by
// VerifyDraw. A concurrent second pick loses the winner CAS and gets
// WINNER_ALREADY_PICKED.
func (s *GiveawayService) PickWinner(ctx context.Context, giveawayID uint) (*DrawResult, error) {
	giveaway, err := s.giveawayRepo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if giveaway.WinnerID != nil {
		return nil, models.NewWinnerAlreadyPickedError(giveawayID)
	}
	now := s.now().UTC()
	if !giveaway.Ended(now) {
		return nil, models.NewNotEndedError(giveawayID)
	}

	seed, err := s.newSeed()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var result *DrawResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.giveawayRepo.WithTx(tx)

		entries, err := txRepo.ListEntries(ctx, giveawayID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return models.NewNoEntriesError(giveawayID)
		}

		winner := entries[fair.DrawIndex(seed, len(entries))]
		ok, err := txRepo.SetWinnerCAS(ctx, giveawayID, winner.UserID, seed, now)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewWinnerAlreadyPickedError(giveawayID)
		}

		result = &DrawResult{
			GiveawayID:   giveawayID,
			WinnerUserID: winner.UserID,
			Seed:         seed,
			EntryCount:   len(entries),
			PickedAt:     now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.WinnerDraws.Inc()
	middleware.Logger.InfoContext(ctx, "giveaway winner drawn",
		slog.Uint64("giveaway_id", uint64(giveawayID)),
		slog.Uint64("winner_user_id", uint64(result.WinnerUserID)),
		slog.Int64("seed", result.Seed),
		slog.Int("entries", result.EntryCount),
	)
	return result, nil
}

// VerifyDraw replays a recorded draw: same seed, same entry snapshot, same
// formula. Valid is false if the recomputed winner differs from the stored
// one.
func (s *GiveawayService) VerifyDraw(ctx context.Context, giveawayID uint) (*DrawVerification, error) {
	giveaway, err := s.giveawayRepo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if giveaway.WinnerID == nil || giveaway.WinnerSeed == nil {
		return nil, models.NewValidationError("giveaway has no recorded draw")
	}

	entries, err := s.giveawayRepo.ListEntries(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, models.NewNoEntriesError(giveawayID)
	}

	computed := entries[fair.DrawIndex(*giveaway.WinnerSeed, len(entries))].UserID
	return &DrawVerification{
		GiveawayID:     giveawayID,
		Seed:           *giveaway.WinnerSeed,
		EntryCount:     len(entries),
		RecordedWinner: *giveaway.WinnerID,
		ComputedWinner: computed,
		Valid:          computed == *giveaway.WinnerID,
	}, nil
}

// DeactivateEnded flips is_active off for every giveaway past its end time.
// Called by the background sweep.
func (s *GiveawayService) DeactivateEnded(ctx context.Context) (int64, error) {
	n, err := s.giveawayRepo.DeactivateEnded(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		middleware.Logger.InfoContext(ctx, "deactivated ended giveaways", slog.Int64("count", n))
	}
	return n, nil
}
