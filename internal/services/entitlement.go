package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

// Lots default to a year of validity. Paid checkouts pass the shorter
// 30-day window instead.
const (
	addonDefaultValidity  = 365 * 24 * time.Hour
	addonCheckoutValidity = 30 * 24 * time.Hour
)

// GrantHook runs inside the granting transaction after a new lot is
// inserted. The app wires it to the coach workflow bootstrap so every zoom
// and ai lot gets its tracking row atomically with the grant.
type GrantHook func(ctx context.Context, tx *gorm.DB, lot *types.AddOn) error

// EntitlementService owns the add-on ledger: purchased lots, per-unit
// consumption and the denormalized per-user summary.
type EntitlementService interface {
	// Grant inserts a purchased lot inside the given transaction. A
	// non-positive validity falls back to the one-year default; ebooks
	// never expire regardless. It reports false without error when the
	// grant is skipped (ebook the user already holds or held).
	Grant(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string, quantity int, validity time.Duration) (bool, error)

	// ConsumeOne draws a single unit of addonType from the largest
	// consumable lot and returns the units remaining across all lots.
	ConsumeOne(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string) (int, error)

	// ActiveSummary recomputes the per-type totals from live lot rows.
	ActiveSummary(ctx context.Context, userID uuid.UUID) (map[string]int, error)

	// RefreshSummary recomputes the totals and writes them back onto the
	// user row. Returns the totals it wrote.
	RefreshSummary(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int, error)

	// SweepExpired expires due subscriptions and lots, then re-syncs
	// every user's cached plan and summary.
	SweepExpired(ctx context.Context) (SweepResult, error)

	SetGrantHook(hook GrantHook)
}

type SweepResult struct {
	SubscriptionsExpired int64
	AddOnsExpired        int64
	UsersSynced          int
}

type entitlementService struct {
	db     *gorm.DB
	users  repos.UserRepo
	subs   repos.SubscriptionRepo
	addons repos.AddOnRepo
	log    *logger.Logger

	grantHook GrantHook
}

func NewEntitlementService(db *gorm.DB, users repos.UserRepo, subs repos.SubscriptionRepo, addons repos.AddOnRepo, baseLog *logger.Logger) EntitlementService {
	return &entitlementService{
		db:     db,
		users:  users,
		subs:   subs,
		addons: addons,
		log:    baseLog.With("service", "EntitlementService"),
	}
}

func (s *entitlementService) SetGrantHook(hook GrantHook) {
	s.grantHook = hook
}

func validAddonType(addonType string) bool {
	switch addonType {
	case types.AddOnEbook, types.AddOnZoom, types.AddOnAI:
		return true
	}
	return false
}

func (s *entitlementService) Grant(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string, quantity int, validity time.Duration) (bool, error) {
	if !validAddonType(addonType) {
		return false, ErrInvalidTarget
	}
	if quantity <= 0 {
		quantity = 1
	}
	if validity <= 0 {
		validity = addonDefaultValidity
	}

	now := time.Now().UTC()
	lot := &types.AddOn{
		ID:        uuid.New(),
		UserID:    userID,
		AddonType: addonType,
		Quantity:  quantity,
		Status:    types.AddOnStatusActive,
		StartDate: now,
	}

	if addonType == types.AddOnEbook {
		// The ebook is a one-time purchase. A previously consumed copy
		// still counts as owned, so the dedup check spans used lots.
		exists, err := s.addons.ExistsByUserAndType(ctx, tx, userID, types.AddOnEbook, []string{types.AddOnStatusActive, types.AddOnStatusUsed})
		if err != nil {
			return false, translateDBError(err)
		}
		if exists {
			s.log.Info("Ebook grant skipped, already owned", "user_id", userID.String())
			return false, nil
		}
		lot.Quantity = 1
	} else {
		end := now.Add(validity)
		lot.EndDate = &end
	}

	if err := s.addons.Create(ctx, tx, lot); err != nil {
		return false, translateDBError(err)
	}
	if _, err := s.RefreshSummary(ctx, tx, userID); err != nil {
		return false, err
	}
	if s.grantHook != nil {
		if err := s.grantHook(ctx, tx, lot); err != nil {
			return false, err
		}
	}

	s.log.Info("Add-on granted",
		"user_id", userID.String(),
		"addon_type", addonType,
		"quantity", lot.Quantity,
	)
	return true, nil
}

func (s *entitlementService) ConsumeOne(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string) (int, error) {
	if !validAddonType(addonType) {
		return 0, ErrInvalidTarget
	}

	lots, err := s.addons.ListConsumable(ctx, tx, userID, addonType)
	if err != nil {
		return 0, translateDBError(err)
	}
	if len(lots) == 0 {
		return 0, ErrNoEligibleLot
	}

	lot := lots[0]
	newQuantity := lot.Quantity - 1
	fields := map[string]any{"quantity": newQuantity}
	if newQuantity <= 0 {
		fields["status"] = types.AddOnStatusUsed
	}
	if err := s.addons.UpdateFields(ctx, tx, lot.ID, fields); err != nil {
		return 0, translateDBError(err)
	}

	remaining := newQuantity
	for _, other := range lots[1:] {
		remaining += other.Quantity
	}

	if _, err := s.RefreshSummary(ctx, tx, userID); err != nil {
		return 0, err
	}

	s.log.Info("Add-on unit consumed",
		"user_id", userID.String(),
		"addon_type", addonType,
		"remaining", remaining,
	)
	return remaining, nil
}

func (s *entitlementService) ActiveSummary(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	return s.summarize(ctx, nil, userID)
}

func (s *entitlementService) summarize(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int, error) {
	lots, err := s.addons.ListActiveByUser(ctx, tx, userID)
	if err != nil {
		return nil, translateDBError(err)
	}
	summary := map[string]int{}
	for _, lot := range lots {
		if lot.Quantity <= 0 {
			continue
		}
		summary[lot.AddonType] += lot.Quantity
	}
	return summary, nil
}

func (s *entitlementService) RefreshSummary(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int, error) {
	summary, err := s.summarize(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	cached := datatypes.JSONMap{}
	for addonType, total := range summary {
		cached[addonType] = total
	}
	if err := s.users.UpdateFields(ctx, tx, userID, map[string]any{"add_ons": cached}); err != nil {
		return nil, translateDBError(err)
	}
	return summary, nil
}

func (s *entitlementService) SweepExpired(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		subsExpired, err := s.subs.ExpireDue(ctx, tx, now)
		if err != nil {
			return translateDBError(err)
		}
		result.SubscriptionsExpired = subsExpired

		lotsExpired, err := s.addons.ExpireDue(ctx, tx, now)
		if err != nil {
			return translateDBError(err)
		}
		result.AddOnsExpired = lotsExpired

		users, err := s.users.ListByRole(ctx, tx, types.RoleUser)
		if err != nil {
			return translateDBError(err)
		}
		for _, user := range users {
			active, err := s.subs.ListActiveByUser(ctx, tx, user.ID)
			if err != nil {
				return translateDBError(err)
			}
			plan := types.PlanNone
			if len(active) > 0 {
				plan = active[0].Plan
			}
			if plan != user.SubscriptionPlan {
				if err := s.users.UpdateFields(ctx, tx, user.ID, map[string]any{"subscription_plan": plan}); err != nil {
					return translateDBError(err)
				}
			}
			if _, err := s.RefreshSummary(ctx, tx, user.ID); err != nil {
				return err
			}
			result.UsersSynced++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRetryable) {
			s.log.Warn("Sweep hit transient database failure", "error", err)
		}
		return SweepResult{}, err
	}
	return result, nil
}
