package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

// testTxDB provides real BEGIN/COMMIT plumbing for services that open
// transactions. All rows live in the fakes, so no tables are migrated.
func testTxDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("unwrap sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*types.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*types.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cp := *user
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Unix(int64(r.seq), 0)
	}
	r.users[cp.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByAuth0ID(ctx context.Context, tx *gorm.DB, auth0ID string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Auth0ID == auth0ID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, tx *gorm.DB, role string) ([]*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.User
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "auth0_id":
			u.Auth0ID = v.(string)
		case "email":
			u.Email = v.(string)
		case "username":
			u.Username = v.(string)
		case "role":
			u.Role = v.(string)
		case "subscription_plan":
			u.SubscriptionPlan = v.(string)
		case "add_ons":
			u.AddOns = v.(datatypes.JSONMap)
		}
	}
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
	return nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs []*types.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo { return &fakeSubscriptionRepo{} }

func (r *fakeSubscriptionRepo) Create(ctx context.Context, tx *gorm.DB, sub *types.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Unix(int64(len(r.subs)+1), 0)
	}
	r.subs = append(r.subs, &cp)
	return nil
}

func (r *fakeSubscriptionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Subscription
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == types.SubscriptionActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeSubscriptionRepo) ExpireActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == types.SubscriptionActive {
			s.Status = types.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.subs {
		if s.Status == types.SubscriptionActive && s.EndDate.Before(now) {
			s.Status = types.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

type fakeAddOnRepo struct {
	mu   sync.Mutex
	lots []*types.AddOn
}

func newFakeAddOnRepo() *fakeAddOnRepo { return &fakeAddOnRepo{} }

func (r *fakeAddOnRepo) Create(ctx context.Context, tx *gorm.DB, lot *types.AddOn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *lot
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Unix(int64(len(r.lots)+1), 0)
	}
	r.lots = append(r.lots, &cp)
	return nil
}

func (r *fakeAddOnRepo) GetByID(ctx context.Context, tx *gorm.DB, lotID uuid.UUID) (*types.AddOn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lots {
		if l.ID == lotID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAddOnRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AddOn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.AddOn
	for _, l := range r.lots {
		if l.UserID == userID && l.Status == types.AddOnStatusActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAddOnRepo) ListConsumable(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string) ([]*types.AddOn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.AddOn
	for _, l := range r.lots {
		if l.UserID == userID && l.AddonType == addonType && l.Status == types.AddOnStatusActive && l.Quantity > 0 {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeAddOnRepo) ExistsByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string, statuses []string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lots {
		if l.UserID != userID || l.AddonType != addonType {
			continue
		}
		for _, st := range statuses {
			if l.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeAddOnRepo) UpdateFields(ctx context.Context, tx *gorm.DB, lotID uuid.UUID, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lots {
		if l.ID != lotID {
			continue
		}
		for k, v := range fields {
			switch k {
			case "quantity":
				l.Quantity = v.(int)
			case "status":
				l.Status = v.(string)
			}
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAddOnRepo) ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.lots {
		if l.Status == types.AddOnStatusActive && l.EndDate != nil && l.EndDate.Before(now) {
			l.Status = types.AddOnStatusExpired
			n++
		}
	}
	return n, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*types.UserProfile
	coaches  map[uuid.UUID]*types.CoachProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: map[uuid.UUID]*types.UserProfile{},
		coaches:  map[uuid.UUID]*types.CoachProfile{},
	}
}

func (r *fakeProfileRepo) GetUserProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) CreateUserProfile(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[cp.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) UpdateUserProfileFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "age":
			p.Age = v.(int)
		case "height_cm":
			p.HeightCm = v.(int)
		case "weight_kg":
			p.WeightKg = v.(float64)
		case "fitness_level":
			p.FitnessLevel = v.(string)
		case "primary_goal":
			p.PrimaryGoal = v.(string)
		case "workout_frequency":
			p.WorkoutFrequency = v.(string)
		case "daily_activity_level":
			p.DailyActivityLevel = v.(string)
		case "sleep_hours":
			p.SleepHours = v.(int)
		case "body_fat_percentage":
			f := v.(float64)
			p.BodyFatPercentage = &f
		case "body_type":
			p.BodyType = v.(string)
		}
	}
	return nil
}

func (r *fakeProfileRepo) GetCoachProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CoachProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.coaches[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) CreateCoachProfile(ctx context.Context, tx *gorm.DB, profile *types.CoachProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.coaches[cp.UserID] = &cp
	return nil
}

type fakeTrainingRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.CoachTrainingProgress
}

func newFakeTrainingRepo() *fakeTrainingRepo {
	return &fakeTrainingRepo{rows: map[uuid.UUID]*types.CoachTrainingProgress{}}
}

func (r *fakeTrainingRepo) Create(ctx context.Context, tx *gorm.DB, progress *types.CoachTrainingProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *progress
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeTrainingRepo) GetByID(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.CoachTrainingProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[progressID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeTrainingRepo) ListByCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) ([]*types.CoachTrainingProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CoachTrainingProgress
	for _, row := range r.rows {
		if row.CoachID == coachID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTrainingRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoachTrainingProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CoachTrainingProgress
	for _, row := range r.rows {
		if row.UserID == userID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTrainingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[progressID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			row.Status = v.(string)
		case "notes":
			row.Notes = v.(string)
		}
	}
	return nil
}

type fakeBookingRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.CoachBooking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{rows: map[uuid.UUID]*types.CoachBooking{}}
}

func (r *fakeBookingRepo) Create(ctx context.Context, tx *gorm.DB, booking *types.CoachBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *booking
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*types.CoachBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeBookingRepo) ListByCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) ([]*types.CoachBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CoachBooking
	for _, row := range r.rows {
		if row.CoachID == coachID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoachBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CoachBooking
	for _, row := range r.rows {
		if row.UserID == userID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			row.Status = v.(string)
		case "notes":
			row.Notes = v.(string)
		case "scheduled_date":
			t := v.(time.Time)
			row.ScheduledDate = &t
		case "completion_date":
			t := v.(time.Time)
			row.CompletionDate = &t
		}
	}
	return nil
}

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs []*types.AIProgram
}

func newFakeProgramRepo() *fakeProgramRepo { return &fakeProgramRepo{} }

func (r *fakeProgramRepo) Create(ctx context.Context, tx *gorm.DB, program *types.AIProgram) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *program
	r.programs = append(r.programs, &cp)
	return nil
}

func (r *fakeProgramRepo) DeactivateByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.programs {
		if p.UserID == userID && p.IsActive {
			p.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *fakeProgramRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AIProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.programs {
		if p.UserID == userID && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProgramRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AIProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.AIProgram
	for _, p := range r.programs {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeAI struct {
	text    string
	textErr error
	obj     map[string]any
	objErr  error
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return f.text, f.textErr
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user string, schema map[string]any) (map[string]any, error) {
	return f.obj, f.objErr
}

type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: map[string]bool{}} }

func (f *fakeDedup) MarkIfNew(ctx context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}
