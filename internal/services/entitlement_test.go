package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/perfoevolution-backend/internal/types"
)

func newEntitlementFixture(tb testing.TB) (*fakeUserRepo, *fakeSubscriptionRepo, *fakeAddOnRepo, EntitlementService) {
	tb.Helper()
	users := newFakeUserRepo()
	subs := newFakeSubscriptionRepo()
	addons := newFakeAddOnRepo()
	svc := NewEntitlementService(testTxDB(tb), users, subs, addons, testLogger(tb))
	return users, subs, addons, svc
}

func seedUser(tb testing.TB, users *fakeUserRepo, role string) *types.User {
	tb.Helper()
	user := &types.User{
		ID:               uuid.New(),
		Auth0ID:          "auth0|" + uuid.NewString(),
		Email:            uuid.NewString() + "@example.com",
		Role:             role,
		SubscriptionPlan: types.PlanNone,
		AddOns:           datatypes.JSONMap{},
	}
	if err := users.Create(context.Background(), nil, user); err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return user
}

func TestGrantRejectsUnknownType(t *testing.T) {
	users, _, _, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	if _, err := svc.Grant(context.Background(), nil, user.ID, "sauna", 1, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("want ErrInvalidTarget, got %v", err)
	}
}

func TestGrantZoomCreatesExpiringLot(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	granted, err := svc.Grant(context.Background(), nil, user.ID, types.AddOnZoom, 3, 0)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if !granted {
		t.Fatalf("grant reported skipped")
	}

	lots, err := addons.ListActiveByUser(context.Background(), nil, user.ID)
	if err != nil {
		t.Fatalf("list lots: %v", err)
	}
	if len(lots) != 1 {
		t.Fatalf("lot count: want=1 got=%d", len(lots))
	}
	lot := lots[0]
	if lot.Quantity != 3 {
		t.Fatalf("quantity: want=3 got=%d", lot.Quantity)
	}
	if lot.EndDate == nil {
		t.Fatalf("zoom lot missing end date")
	}
	wantEnd := lot.StartDate.Add(365 * 24 * time.Hour)
	if !lot.EndDate.Equal(wantEnd) {
		t.Fatalf("default end date: want=%s got=%s", wantEnd, lot.EndDate)
	}

	fresh, err := users.GetByID(context.Background(), nil, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got := fresh.AddOns[types.AddOnZoom]; got != 3 {
		t.Fatalf("cached summary: want=3 got=%v", got)
	}
}

func TestGrantHonorsExplicitValidity(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	if _, err := svc.Grant(context.Background(), nil, user.ID, types.AddOnAI, 2, 30*24*time.Hour); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	lots, _ := addons.ListActiveByUser(context.Background(), nil, user.ID)
	if len(lots) != 1 || lots[0].EndDate == nil {
		t.Fatalf("lot missing or open-ended: %+v", lots)
	}
	if got := lots[0].EndDate.Sub(lots[0].StartDate); got != 30*24*time.Hour {
		t.Fatalf("validity: want=720h got=%s", got)
	}
}

func TestGrantEbookDedupSpansUsedLots(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	granted, err := svc.Grant(context.Background(), nil, user.ID, types.AddOnEbook, 5, 0)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if !granted {
		t.Fatalf("first grant skipped")
	}

	lots, _ := addons.ListActiveByUser(context.Background(), nil, user.ID)
	if len(lots) != 1 || lots[0].Quantity != 1 {
		t.Fatalf("ebook must be a single unit lot, got %+v", lots)
	}
	if lots[0].EndDate != nil {
		t.Fatalf("ebook lot must not expire")
	}

	// Second purchase of an owned ebook is a silent no-op.
	granted, err = svc.Grant(context.Background(), nil, user.ID, types.AddOnEbook, 1, 0)
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if granted {
		t.Fatalf("duplicate ebook grant was applied")
	}

	// Consuming the copy does not reopen eligibility.
	if err := addons.UpdateFields(context.Background(), nil, lots[0].ID, map[string]any{"quantity": 0, "status": types.AddOnStatusUsed}); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	granted, err = svc.Grant(context.Background(), nil, user.ID, types.AddOnEbook, 1, 0)
	if err != nil {
		t.Fatalf("third grant: %v", err)
	}
	if granted {
		t.Fatalf("used ebook still counts as owned")
	}
}

func TestConsumeOneDrawsFromLargestLot(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	small := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnAI, Quantity: 1, Status: types.AddOnStatusActive, StartDate: time.Now().UTC()}
	big := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnAI, Quantity: 4, Status: types.AddOnStatusActive, StartDate: time.Now().UTC()}
	for _, lot := range []*types.AddOn{small, big} {
		if err := addons.Create(context.Background(), nil, lot); err != nil {
			t.Fatalf("seed lot: %v", err)
		}
	}

	remaining, err := svc.ConsumeOne(context.Background(), nil, user.ID, types.AddOnAI)
	if err != nil {
		t.Fatalf("ConsumeOne: %v", err)
	}
	if remaining != 4 {
		t.Fatalf("remaining: want=4 got=%d", remaining)
	}

	got, err := addons.GetByID(context.Background(), nil, big.ID)
	if err != nil {
		t.Fatalf("reload big lot: %v", err)
	}
	if got.Quantity != 3 {
		t.Fatalf("largest lot decremented: want=3 got=%d", got.Quantity)
	}
	if small2, _ := addons.GetByID(context.Background(), nil, small.ID); small2.Quantity != 1 {
		t.Fatalf("small lot touched: %+v", small2)
	}
}

func TestConsumeOneBreaksQuantityTiesByNewestLot(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	base := time.Now().UTC()
	older := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnZoom, Quantity: 2, Status: types.AddOnStatusActive, StartDate: base, CreatedAt: base.Add(-time.Hour)}
	newer := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnZoom, Quantity: 2, Status: types.AddOnStatusActive, StartDate: base, CreatedAt: base}
	for _, lot := range []*types.AddOn{older, newer} {
		if err := addons.Create(context.Background(), nil, lot); err != nil {
			t.Fatalf("seed lot: %v", err)
		}
	}

	if _, err := svc.ConsumeOne(context.Background(), nil, user.ID, types.AddOnZoom); err != nil {
		t.Fatalf("ConsumeOne: %v", err)
	}

	got, _ := addons.GetByID(context.Background(), nil, newer.ID)
	if got.Quantity != 1 {
		t.Fatalf("newest lot decremented: want=1 got=%d", got.Quantity)
	}
	if untouched, _ := addons.GetByID(context.Background(), nil, older.ID); untouched.Quantity != 2 {
		t.Fatalf("older lot touched: %+v", untouched)
	}
}

func TestConsumeOneFlipsDrainedLotToUsed(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	lot := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnZoom, Quantity: 1, Status: types.AddOnStatusActive, StartDate: time.Now().UTC()}
	if err := addons.Create(context.Background(), nil, lot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	remaining, err := svc.ConsumeOne(context.Background(), nil, user.ID, types.AddOnZoom)
	if err != nil {
		t.Fatalf("ConsumeOne: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("remaining: want=0 got=%d", remaining)
	}
	got, _ := addons.GetByID(context.Background(), nil, lot.ID)
	if got.Status != types.AddOnStatusUsed {
		t.Fatalf("drained lot status: want=used got=%s", got.Status)
	}

	if _, err := svc.ConsumeOne(context.Background(), nil, user.ID, types.AddOnZoom); !errors.Is(err, ErrNoEligibleLot) {
		t.Fatalf("want ErrNoEligibleLot, got %v", err)
	}
}

func TestRefreshSummaryRecomputesFromLiveRows(t *testing.T) {
	users, _, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	// A stale cache entry for a type with no live lots must disappear.
	if err := users.UpdateFields(context.Background(), nil, user.ID, map[string]any{"add_ons": datatypes.JSONMap{types.AddOnZoom: 9}}); err != nil {
		t.Fatalf("seed stale cache: %v", err)
	}
	lot := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnAI, Quantity: 2, Status: types.AddOnStatusActive, StartDate: time.Now().UTC()}
	if err := addons.Create(context.Background(), nil, lot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	summary, err := svc.RefreshSummary(context.Background(), nil, user.ID)
	if err != nil {
		t.Fatalf("RefreshSummary: %v", err)
	}
	if summary[types.AddOnAI] != 2 {
		t.Fatalf("summary ai: want=2 got=%d", summary[types.AddOnAI])
	}
	if _, ok := summary[types.AddOnZoom]; ok {
		t.Fatalf("stale zoom entry survived recompute")
	}

	fresh, _ := users.GetByID(context.Background(), nil, user.ID)
	if _, ok := fresh.AddOns[types.AddOnZoom]; ok {
		t.Fatalf("stale zoom entry survived on the user row")
	}
}

func TestSweepExpiredExpiresAndResyncs(t *testing.T) {
	users, subs, addons, svc := newEntitlementFixture(t)
	user := seedUser(t, users, types.RoleUser)

	past := time.Now().UTC().Add(-time.Hour)
	sub := &types.Subscription{
		ID:        uuid.New(),
		UserID:    user.ID,
		Plan:      types.PlanBasic,
		StartDate: past.Add(-30 * 24 * time.Hour),
		EndDate:   past,
		Status:    types.SubscriptionActive,
	}
	if err := subs.Create(context.Background(), nil, sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	if err := users.UpdateFields(context.Background(), nil, user.ID, map[string]any{"subscription_plan": types.PlanBasic}); err != nil {
		t.Fatalf("seed cached plan: %v", err)
	}
	lot := &types.AddOn{ID: uuid.New(), UserID: user.ID, AddonType: types.AddOnZoom, Quantity: 2, Status: types.AddOnStatusActive, StartDate: past, EndDate: &past}
	if err := addons.Create(context.Background(), nil, lot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	result, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if result.SubscriptionsExpired != 1 {
		t.Fatalf("subscriptions expired: want=1 got=%d", result.SubscriptionsExpired)
	}
	if result.AddOnsExpired != 1 {
		t.Fatalf("lots expired: want=1 got=%d", result.AddOnsExpired)
	}
	if result.UsersSynced != 1 {
		t.Fatalf("users synced: want=1 got=%d", result.UsersSynced)
	}

	fresh, _ := users.GetByID(context.Background(), nil, user.ID)
	if fresh.SubscriptionPlan != types.PlanNone {
		t.Fatalf("cached plan after sweep: want=none got=%s", fresh.SubscriptionPlan)
	}
	if _, ok := fresh.AddOns[types.AddOnZoom]; ok {
		t.Fatalf("expired lot still counted in summary")
	}
}
