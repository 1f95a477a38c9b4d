package service

import (
	"context"
	"testing"

	"bigspin/internal/featureflags"
	"bigspin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountRepoStub struct {
	getByUserAndCasinoFn func(ctx context.Context, userID, casinoID uint) (*models.CasinoAccount, error)
	listByUserFn         func(ctx context.Context, userID uint) ([]models.CasinoAccount, error)
	createFn             func(ctx context.Context, account *models.CasinoAccount) error
	updateFn             func(ctx context.Context, account *models.CasinoAccount) error
}

func (s *accountRepoStub) GetByUserAndCasino(ctx context.Context, userID, casinoID uint) (*models.CasinoAccount, error) {
	return s.getByUserAndCasinoFn(ctx, userID, casinoID)
}

func (s *accountRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.CasinoAccount, error) {
	return s.listByUserFn(ctx, userID)
}

func (s *accountRepoStub) Create(ctx context.Context, account *models.CasinoAccount) error {
	return s.createFn(ctx, account)
}

func (s *accountRepoStub) Update(ctx context.Context, account *models.CasinoAccount) error {
	return s.updateFn(ctx, account)
}

func noopAccountRepo() *accountRepoStub {
	return &accountRepoStub{
		getByUserAndCasinoFn: func(context.Context, uint, uint) (*models.CasinoAccount, error) { return nil, nil },
		listByUserFn:         func(context.Context, uint) ([]models.CasinoAccount, error) { return nil, nil },
		createFn:             func(context.Context, *models.CasinoAccount) error { return nil },
		updateFn:             func(context.Context, *models.CasinoAccount) error { return nil },
	}
}

type wagerReaderFunc func(ctx context.Context, userID uint, casinoID *uint) (float64, error)

func (f wagerReaderFunc) TotalWagered(ctx context.Context, userID uint, casinoID *uint) (float64, error) {
	return f(ctx, userID, casinoID)
}

type vipReaderFunc func(ctx context.Context, userID uint, casinoID *uint) (string, error)

func (f vipReaderFunc) Tier(ctx context.Context, userID uint, casinoID *uint) (string, error) {
	return f(ctx, userID, casinoID)
}

func TestEligibility_Discord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager(""))
	req := []models.GiveawayRequirement{{Type: models.RequirementDiscord}}

	assert.NoError(t, eval.Evaluate(ctx, &models.User{ID: 1}, req))

	err := eval.Evaluate(ctx, nil, req)
	requireCode(t, err, models.CodeRequirementNotMet)
}

func TestEligibility_LinkedAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := &models.User{ID: 7}
	casinoID := uint(3)

	t.Run("SpecificCasinoLinked", func(t *testing.T) {
		t.Parallel()
		repo := noopAccountRepo()
		repo.getByUserAndCasinoFn = func(_ context.Context, userID, cID uint) (*models.CasinoAccount, error) {
			require.Equal(t, user.ID, userID)
			require.Equal(t, casinoID, cID)
			return &models.CasinoAccount{UserID: userID, CasinoID: cID}, nil
		}
		eval := NewEligibilityEvaluator(repo, featureflags.NewManager(""))

		err := eval.Evaluate(ctx, user, []models.GiveawayRequirement{
			{Type: models.RequirementLinkedAccount, CasinoID: &casinoID},
		})
		assert.NoError(t, err)
	})

	t.Run("SpecificCasinoMissing", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager(""))

		err := eval.Evaluate(ctx, user, []models.GiveawayRequirement{
			{Type: models.RequirementLinkedAccount, CasinoID: &casinoID},
		})
		requireCode(t, err, models.CodeRequirementNotMet)
	})

	t.Run("VerifiedRequired", func(t *testing.T) {
		t.Parallel()
		repo := noopAccountRepo()
		repo.getByUserAndCasinoFn = func(context.Context, uint, uint) (*models.CasinoAccount, error) {
			return &models.CasinoAccount{Verified: false}, nil
		}
		eval := NewEligibilityEvaluator(repo, featureflags.NewManager(""))

		err := eval.Evaluate(ctx, user, []models.GiveawayRequirement{
			{Type: models.RequirementLinkedAccount, CasinoID: &casinoID, RequireVerified: true},
		})
		requireCode(t, err, models.CodeRequirementNotMet)
	})

	t.Run("AnyCasinoScansAllLinks", func(t *testing.T) {
		t.Parallel()
		repo := noopAccountRepo()
		repo.listByUserFn = func(context.Context, uint) ([]models.CasinoAccount, error) {
			return []models.CasinoAccount{
				{CasinoID: 1, Verified: false},
				{CasinoID: 2, Verified: true},
			}, nil
		}
		eval := NewEligibilityEvaluator(repo, featureflags.NewManager(""))

		err := eval.Evaluate(ctx, user, []models.GiveawayRequirement{
			{Type: models.RequirementLinkedAccount, RequireVerified: true},
		})
		assert.NoError(t, err)
	})
}

func TestEligibility_Wager(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := &models.User{ID: 9}
	min := 250.0
	req := []models.GiveawayRequirement{{Type: models.RequirementWager, MinAmount: &min}}

	t.Run("FlagOffFailsClosed", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("")).
			WithWagerReader(wagerReaderFunc(func(context.Context, uint, *uint) (float64, error) {
				return 1000, nil
			}))

		err := eval.Evaluate(ctx, user, req)
		requireCode(t, err, models.CodeRequirementNotMet)
	})

	t.Run("NoReaderFailsClosed", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("wager_requirements=on"))

		err := eval.Evaluate(ctx, user, req)
		requireCode(t, err, models.CodeRequirementNotMet)
	})

	t.Run("MeetsMinimum", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("wager_requirements=on")).
			WithWagerReader(wagerReaderFunc(func(context.Context, uint, *uint) (float64, error) {
				return 300, nil
			}))

		assert.NoError(t, eval.Evaluate(ctx, user, req))
	})

	t.Run("BelowMinimum", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("wager_requirements=on")).
			WithWagerReader(wagerReaderFunc(func(context.Context, uint, *uint) (float64, error) {
				return 249.99, nil
			}))

		err := eval.Evaluate(ctx, user, req)
		requireCode(t, err, models.CodeRequirementNotMet)
	})
}

func TestEligibility_VIP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := &models.User{ID: 11}
	req := []models.GiveawayRequirement{{Type: models.RequirementVIP, Tier: "Gold"}}

	t.Run("TierMatchIsCaseInsensitive", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("vip_requirements=on")).
			WithVIPReader(vipReaderFunc(func(context.Context, uint, *uint) (string, error) {
				return "gold", nil
			}))

		assert.NoError(t, eval.Evaluate(ctx, user, req))
	})

	t.Run("WrongTier", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("vip_requirements=on")).
			WithVIPReader(vipReaderFunc(func(context.Context, uint, *uint) (string, error) {
				return "silver", nil
			}))

		err := eval.Evaluate(ctx, user, req)
		requireCode(t, err, models.CodeRequirementNotMet)
	})

	t.Run("FlagOffFailsClosed", func(t *testing.T) {
		t.Parallel()
		eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager("")).
			WithVIPReader(vipReaderFunc(func(context.Context, uint, *uint) (string, error) {
				return "gold", nil
			}))

		err := eval.Evaluate(ctx, user, req)
		requireCode(t, err, models.CodeRequirementNotMet)
	})
}

func TestEligibility_UnknownTypeFailsClosed(t *testing.T) {
	t.Parallel()
	eval := NewEligibilityEvaluator(noopAccountRepo(), featureflags.NewManager(""))

	err := eval.Evaluate(context.Background(), &models.User{ID: 1}, []models.GiveawayRequirement{
		{Type: "captcha"},
	})
	requireCode(t, err, models.CodeRequirementNotMet)
}

func TestEligibility_FirstFailureWins(t *testing.T) {
	t.Parallel()
	repo := noopAccountRepo()
	eval := NewEligibilityEvaluator(repo, featureflags.NewManager(""))

	err := eval.Evaluate(context.Background(), &models.User{ID: 1}, []models.GiveawayRequirement{
		{Type: models.RequirementDiscord},
		{Type: models.RequirementLinkedAccount},
		{Type: models.RequirementVIP, Tier: "gold"},
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeRequirementNotMet, appErr.Code)
	assert.Contains(t, appErr.Message, string(models.RequirementLinkedAccount))
}
