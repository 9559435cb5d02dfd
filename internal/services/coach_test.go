package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type coachFixture struct {
	users        *fakeUserRepo
	profiles     *fakeProfileRepo
	subs         *fakeSubscriptionRepo
	addons       *fakeAddOnRepo
	training     *fakeTrainingRepo
	bookings     *fakeBookingRepo
	entitlements EntitlementService
	service      CoachService
}

func newCoachFixture(tb testing.TB) *coachFixture {
	tb.Helper()
	db := testTxDB(tb)
	log := testLogger(tb)
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	subs := newFakeSubscriptionRepo()
	addons := newFakeAddOnRepo()
	training := newFakeTrainingRepo()
	bookings := newFakeBookingRepo()

	subscriptions := NewSubscriptionService(db, users, subs, log)
	entitlements := NewEntitlementService(db, users, subs, addons, log)
	coach := NewCoachService(db, users, profiles, subscriptions, entitlements, training, bookings, log)
	entitlements.SetGrantHook(coach.EnsureWorkflowForLot)

	return &coachFixture{
		users:        users,
		profiles:     profiles,
		subs:         subs,
		addons:       addons,
		training:     training,
		bookings:     bookings,
		entitlements: entitlements,
		service:      coach,
	}
}

func TestCoachEndpointsRejectNonCoach(t *testing.T) {
	f := newCoachFixture(t)
	user := seedUser(t, f.users, types.RoleUser)

	if _, err := f.service.ListClients(context.Background(), user.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ListClients: want ErrForbidden, got %v", err)
	}
	if _, err := f.service.UpdateTraining(context.Background(), user.ID, uuid.New(), TrainingUpdate{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("UpdateTraining: want ErrForbidden, got %v", err)
	}
}

func TestListClientsAggregatesPlanAndSummary(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)
	other := seedUser(t, f.users, types.RoleUser)

	now := time.Now().UTC()
	sub := &types.Subscription{ID: uuid.New(), UserID: client.ID, Plan: types.PlanBasic, StartDate: now, EndDate: now.Add(time.Hour), Status: types.SubscriptionActive}
	if err := f.subs.Create(context.Background(), nil, sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	lot := &types.AddOn{ID: uuid.New(), UserID: client.ID, AddonType: types.AddOnAI, Quantity: 2, Status: types.AddOnStatusActive, StartDate: now}
	if err := f.addons.Create(context.Background(), nil, lot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	overviews, err := f.service.ListClients(context.Background(), coach.ID)
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(overviews) != 2 {
		t.Fatalf("roster size: want=2 got=%d", len(overviews))
	}

	byID := map[uuid.UUID]*ClientOverview{}
	for _, o := range overviews {
		byID[o.User.ID] = o
	}
	got := byID[client.ID]
	if got == nil || got.Plan != types.PlanBasic {
		t.Fatalf("client overview plan: %+v", got)
	}
	if got.AddOns[types.AddOnAI] != 2 {
		t.Fatalf("client overview summary: %+v", got.AddOns)
	}
	if byID[other.ID].Plan != types.PlanNone {
		t.Fatalf("bare client plan: want=none got=%s", byID[other.ID].Plan)
	}
}

func TestUpdateClientProfileCoachPlanGrantIsLong(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	age := 31
	plan := types.PlanAdvanced
	if _, err := f.service.UpdateClientProfile(context.Background(), coach.ID, client.ID, ClientProfileUpdate{Age: &age, Plan: &plan}); err != nil {
		t.Fatalf("UpdateClientProfile: %v", err)
	}

	profile, err := f.profiles.GetUserProfile(context.Background(), nil, client.ID)
	if err != nil {
		t.Fatalf("profile created on demand: %v", err)
	}
	if profile.Age != 31 {
		t.Fatalf("profile age: want=31 got=%d", profile.Age)
	}

	active, _ := f.subs.ListActiveByUser(context.Background(), nil, client.ID)
	if len(active) != 1 {
		t.Fatalf("active periods: want=1 got=%d", len(active))
	}
	if got := active[0].EndDate.Sub(active[0].StartDate); got != 365*24*time.Hour {
		t.Fatalf("coach grant duration: want=8760h got=%s", got)
	}

	none := types.PlanNone
	if _, err := f.service.UpdateClientProfile(context.Background(), coach.ID, client.ID, ClientProfileUpdate{Plan: &none}); err != nil {
		t.Fatalf("downgrade via coach: %v", err)
	}
	active, _ = f.subs.ListActiveByUser(context.Background(), nil, client.ID)
	if len(active) != 0 {
		t.Fatalf("active periods after downgrade: want=0 got=%d", len(active))
	}
}

func TestUpdateClientProfileSamePlanIsNoOp(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	plan := types.PlanAdvanced
	if _, err := f.service.UpdateClientProfile(context.Background(), coach.ID, client.ID, ClientProfileUpdate{Plan: &plan}); err != nil {
		t.Fatalf("first assignment: %v", err)
	}
	active, _ := f.subs.ListActiveByUser(context.Background(), nil, client.ID)
	if len(active) != 1 {
		t.Fatalf("active periods: want=1 got=%d", len(active))
	}
	firstID := active[0].ID

	// Re-submitting the current plan neither resets the period nor
	// appends history.
	if _, err := f.service.UpdateClientProfile(context.Background(), coach.ID, client.ID, ClientProfileUpdate{Plan: &plan}); err != nil {
		t.Fatalf("repeat assignment: %v", err)
	}
	active, _ = f.subs.ListActiveByUser(context.Background(), nil, client.ID)
	if len(active) != 1 || active[0].ID != firstID {
		t.Fatalf("period replaced by repeat assignment: %+v", active)
	}
	all, _ := f.subs.ListByUser(context.Background(), nil, client.ID)
	if len(all) != 1 {
		t.Fatalf("history rows: want=1 got=%d", len(all))
	}
}

func TestUpdateClientProfileRejectsCoachTarget(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	peer := seedUser(t, f.users, types.RoleCoach)

	age := 40
	if _, err := f.service.UpdateClientProfile(context.Background(), coach.ID, peer.ID, ClientProfileUpdate{Age: &age}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("want ErrInvalidTarget, got %v", err)
	}
}

func TestGrantHookCreatesWorkflowRows(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnAI, 2, 0); err != nil {
		t.Fatalf("grant ai: %v", err)
	}
	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnZoom, 1, 0); err != nil {
		t.Fatalf("grant zoom: %v", err)
	}
	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnEbook, 1, 0); err != nil {
		t.Fatalf("grant ebook: %v", err)
	}

	training, _ := f.training.ListByCoach(context.Background(), nil, coach.ID)
	if len(training) != 1 || training[0].Status != types.ProgressPending {
		t.Fatalf("training rows: %+v", training)
	}
	bookings, _ := f.bookings.ListByCoach(context.Background(), nil, coach.ID)
	if len(bookings) != 1 || bookings[0].Status != types.BookingPending {
		t.Fatalf("booking rows: %+v", bookings)
	}
}

func TestUpdateTrainingDoneConsumesOneUnit(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnAI, 2, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rows, _ := f.training.ListByCoach(context.Background(), nil, coach.ID)
	if len(rows) != 1 {
		t.Fatalf("workflow row missing")
	}
	progressID := rows[0].ID

	// First completion spends one unit; the row stays open.
	result, err := f.service.UpdateTraining(context.Background(), coach.ID, progressID, TrainingUpdate{Status: types.ProgressDone})
	if err != nil {
		t.Fatalf("first UpdateTraining: %v", err)
	}
	if result.RemainingQuantity != 1 {
		t.Fatalf("remaining: want=1 got=%d", result.RemainingQuantity)
	}
	if result.Row.Status != types.ProgressPending {
		t.Fatalf("row status with units left: want=Pending got=%s", result.Row.Status)
	}

	// Second completion drains the lot and closes the row.
	result, err = f.service.UpdateTraining(context.Background(), coach.ID, progressID, TrainingUpdate{Status: types.ProgressDone})
	if err != nil {
		t.Fatalf("second UpdateTraining: %v", err)
	}
	if result.RemainingQuantity != 0 {
		t.Fatalf("remaining: want=0 got=%d", result.RemainingQuantity)
	}
	if result.Row.Status != types.ProgressDone {
		t.Fatalf("row status when drained: want=Done got=%s", result.Row.Status)
	}

	// Re-marking a Done row must not try to consume again.
	result, err = f.service.UpdateTraining(context.Background(), coach.ID, progressID, TrainingUpdate{Status: types.ProgressDone})
	if err != nil {
		t.Fatalf("third UpdateTraining: %v", err)
	}
	if result.Row.Status != types.ProgressDone {
		t.Fatalf("row status: want=Done got=%s", result.Row.Status)
	}
}

func TestUpdateTrainingCannotReopenDoneRow(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnAI, 1, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rows, _ := f.training.ListByCoach(context.Background(), nil, coach.ID)
	if len(rows) != 1 {
		t.Fatalf("workflow row missing")
	}
	if _, err := f.service.UpdateTraining(context.Background(), coach.ID, rows[0].ID, TrainingUpdate{Status: types.ProgressDone}); err != nil {
		t.Fatalf("close row: %v", err)
	}

	if _, err := f.service.UpdateTraining(context.Background(), coach.ID, rows[0].ID, TrainingUpdate{Status: types.ProgressPending}); !errors.Is(err, ErrValidation) {
		t.Fatalf("reopen: want ErrValidation, got %v", err)
	}
	fresh, _ := f.training.GetByID(context.Background(), nil, rows[0].ID)
	if fresh.Status != types.ProgressDone {
		t.Fatalf("row status after rejected reopen: want=Done got=%s", fresh.Status)
	}
}

func TestUpdateBookingCannotReopenCompleted(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnZoom, 1, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rows, _ := f.bookings.ListByCoach(context.Background(), nil, coach.ID)
	if len(rows) != 1 {
		t.Fatalf("booking row missing")
	}
	if _, err := f.service.UpdateBooking(context.Background(), coach.ID, rows[0].ID, BookingUpdate{Status: types.BookingCompleted}); err != nil {
		t.Fatalf("complete booking: %v", err)
	}

	if _, err := f.service.UpdateBooking(context.Background(), coach.ID, rows[0].ID, BookingUpdate{Status: types.BookingPending}); !errors.Is(err, ErrValidation) {
		t.Fatalf("reopen: want ErrValidation, got %v", err)
	}
	fresh, _ := f.bookings.GetByID(context.Background(), nil, rows[0].ID)
	if fresh.Status != types.BookingCompleted {
		t.Fatalf("booking status after rejected reopen: want=Completed got=%s", fresh.Status)
	}
}

func TestUpdateTrainingOwnershipEnforced(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	intruder := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnAI, 1, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rows, _ := f.training.ListByCoach(context.Background(), nil, coach.ID)
	if len(rows) != 1 {
		t.Fatalf("workflow row missing")
	}

	if _, err := f.service.UpdateTraining(context.Background(), intruder.ID, rows[0].ID, TrainingUpdate{Status: types.ProgressDone}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestUpdateBookingCompletedConsumesZoomUnit(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnZoom, 1, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rows, _ := f.bookings.ListByCoach(context.Background(), nil, coach.ID)
	if len(rows) != 1 {
		t.Fatalf("booking row missing")
	}

	result, err := f.service.UpdateBooking(context.Background(), coach.ID, rows[0].ID, BookingUpdate{Status: types.BookingCompleted})
	if err != nil {
		t.Fatalf("UpdateBooking: %v", err)
	}
	if result.RemainingQuantity != 0 {
		t.Fatalf("remaining: want=0 got=%d", result.RemainingQuantity)
	}
	if result.Row.Status != types.BookingCompleted {
		t.Fatalf("row status: want=Completed got=%s", result.Row.Status)
	}
	if result.Row.CompletionDate == nil {
		t.Fatalf("completion date not stamped")
	}
}

func TestUpdateBookingScheduleOnlyDoesNotConsume(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if _, err := f.entitlements.Grant(context.Background(), nil, client.ID, types.AddOnZoom, 2, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rows, _ := f.bookings.ListByCoach(context.Background(), nil, coach.ID)
	when := time.Now().UTC().Add(48 * time.Hour)

	result, err := f.service.UpdateBooking(context.Background(), coach.ID, rows[0].ID, BookingUpdate{ScheduledDate: &when})
	if err != nil {
		t.Fatalf("UpdateBooking: %v", err)
	}
	if result.Row.ScheduledDate == nil || !result.Row.ScheduledDate.Equal(when) {
		t.Fatalf("scheduled date: %+v", result.Row.ScheduledDate)
	}

	summary, _ := f.entitlements.ActiveSummary(context.Background(), client.ID)
	if summary[types.AddOnZoom] != 2 {
		t.Fatalf("scheduling consumed a unit: %+v", summary)
	}
}

func TestDeleteClientRejectsCoachTarget(t *testing.T) {
	f := newCoachFixture(t)
	coach := seedUser(t, f.users, types.RoleCoach)
	peer := seedUser(t, f.users, types.RoleCoach)
	client := seedUser(t, f.users, types.RoleUser)

	if err := f.service.DeleteClient(context.Background(), coach.ID, peer.ID); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("want ErrInvalidTarget, got %v", err)
	}
	if err := f.service.DeleteClient(context.Background(), coach.ID, client.ID); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	if _, err := f.users.GetByID(context.Background(), nil, client.ID); err == nil {
		t.Fatalf("client row survived deletion")
	}
}
