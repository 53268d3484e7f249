package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"opd-queue/internal/data/entity"
	"opd-queue/internal/data/repository"
	"opd-queue/internal/dto/request"
	"opd-queue/internal/dto/response"
	"opd-queue/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakeDB is an in-memory stand-in for Postgres shared by the fake repositories.
type fakeDB struct {
	mu            sync.Mutex
	tokens        map[uuid.UUID]entity.Token
	phoneOTPs     map[string]entity.PhoneOTP
	consultOTPs   map[uuid.UUID]entity.ConsultationOTP
	doctors       map[uuid.UUID]entity.Doctor
	users         map[uuid.UUID]entity.User
	consultations []entity.Consultation
	sequences     map[string]int
	statsErr      error
	issueErr      error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		tokens:      map[uuid.UUID]entity.Token{},
		phoneOTPs:   map[string]entity.PhoneOTP{},
		consultOTPs: map[uuid.UUID]entity.ConsultationOTP{},
		doctors:     map[uuid.UUID]entity.Doctor{},
		users:       map[uuid.UUID]entity.User{},
		sequences:   map[string]int{},
	}
}

func (db *fakeDB) repository() *repository.Repository {
	return &repository.Repository{
		User:            fakeUserRepo{db},
		Doctor:          fakeDoctorRepo{db},
		Token:           fakeTokenRepo{db},
		PhoneOTP:        fakePhoneOTPRepo{db},
		ConsultationOTP: fakeConsultationOTPRepo{db},
		Consultation:    fakeConsultationRepo{db},
	}
}

type fakeTokenRepo struct{ db *fakeDB }

func (r fakeTokenRepo) CreateBooked(_ context.Context, token *entity.Token, phone string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	otp, ok := r.db.phoneOTPs[phone]
	if !ok || !otp.Consumable() {
		return repository.ErrPhoneOTPUnavailable
	}
	otp.UsedForBooking = true
	otp.UsedAt = &at
	r.db.phoneOTPs[phone] = otp

	key := token.DoctorID.String() + token.VisitDate.Format(dateLayout)
	r.db.sequences[key]++
	token.TokenNumber = r.db.sequences[key]
	r.db.tokens[token.ID] = *token
	return nil
}

func (r fakeTokenRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r fakeTokenRepo) active(doctorID uuid.UUID, day time.Time) []*entity.Token {
	var out []*entity.Token
	for _, t := range r.db.tokens {
		if t.DoctorID == doctorID && t.VisitDate.Equal(day) && t.Status.IsActive() {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r fakeTokenRepo) FindActiveByDoctorAndDate(_ context.Context, doctorID uuid.UUID, day time.Time) ([]*entity.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.active(doctorID, day), nil
}

func (r fakeTokenRepo) CountActiveByDoctorAndDate(_ context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.active(doctorID, day)), nil
}

func (r fakeTokenRepo) FindNextWaiting(_ context.Context, doctorID uuid.UUID, day time.Time, exclude uuid.UUID) (*entity.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.active(doctorID, day) {
		if t.Status == entity.TokenStatusWaiting && t.ID != exclude {
			return t, nil
		}
	}
	return nil, nil
}

func (r fakeTokenRepo) FindLatestByPatient(_ context.Context, patientID uuid.UUID) (*entity.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var latest *entity.Token
	for _, t := range r.db.tokens {
		if t.PatientID != nil && *t.PatientID == patientID && (latest == nil || t.CreatedAt.After(latest.CreatedAt)) {
			cp := t
			latest = &cp
		}
	}
	return latest, nil
}

func (r fakeTokenRepo) Update(_ context.Context, token *entity.Token) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tokens[token.ID]; !ok {
		return fmt.Errorf("token %s not found", token.ID)
	}
	r.db.tokens[token.ID] = *token
	return nil
}

type fakePhoneOTPRepo struct{ db *fakeDB }

func (r fakePhoneOTPRepo) FindByPhone(_ context.Context, phone string) (*entity.PhoneOTP, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	otp, ok := r.db.phoneOTPs[phone]
	if !ok {
		return nil, nil
	}
	return &otp, nil
}

func (r fakePhoneOTPRepo) Upsert(_ context.Context, otp *entity.PhoneOTP) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.phoneOTPs[otp.PhoneNumber] = *otp
	return nil
}

func (r fakePhoneOTPRepo) Update(_ context.Context, otp *entity.PhoneOTP) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.phoneOTPs[otp.PhoneNumber]
	if !ok {
		return fmt.Errorf("phone OTP for %s not found", otp.PhoneNumber)
	}
	stored.Attempts = otp.Attempts
	stored.Verified = otp.Verified
	stored.LockedUntil = otp.LockedUntil
	stored.UpdatedAt = otp.UpdatedAt
	r.db.phoneOTPs[otp.PhoneNumber] = stored
	return nil
}

type fakeConsultationOTPRepo struct{ db *fakeDB }

func (r fakeConsultationOTPRepo) FindByTokenID(_ context.Context, tokenID uuid.UUID) (*entity.ConsultationOTP, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	otp, ok := r.db.consultOTPs[tokenID]
	if !ok {
		return nil, nil
	}
	return &otp, nil
}

func (r fakeConsultationOTPRepo) Issue(_ context.Context, otp *entity.ConsultationOTP, token *entity.Token) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.issueErr != nil {
		return r.db.issueErr
	}
	if token != nil {
		if _, ok := r.db.tokens[token.ID]; !ok {
			return fmt.Errorf("token %s not found", token.ID)
		}
		r.db.tokens[token.ID] = *token
	}
	r.db.consultOTPs[otp.TokenID] = *otp
	return nil
}

func (r fakeConsultationOTPRepo) Update(_ context.Context, otp *entity.ConsultationOTP) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.consultOTPs[otp.TokenID]; !ok {
		return fmt.Errorf("consultation OTP for token %s not found", otp.TokenID)
	}
	r.db.consultOTPs[otp.TokenID] = *otp
	return nil
}

type fakeDoctorRepo struct{ db *fakeDB }

func (r fakeDoctorRepo) Create(_ context.Context, d *entity.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.doctors[d.ID] = *d
	return nil
}

func (r fakeDoctorRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Doctor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r fakeDoctorRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Doctor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, d := range r.db.doctors {
		if d.UserID != nil && *d.UserID == userID {
			cp := d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeDoctorRepo) sorted(keep func(entity.Doctor) bool) []*entity.Doctor {
	var out []*entity.Doctor
	for _, d := range r.db.doctors {
		if keep(d) {
			cp := d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r fakeDoctorRepo) FindAllActive(_ context.Context) ([]*entity.Doctor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.sorted(func(d entity.Doctor) bool { return d.Active }), nil
}

func (r fakeDoctorRepo) FindActiveByDepartment(_ context.Context, department string, exclude uuid.UUID) ([]*entity.Doctor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.sorted(func(d entity.Doctor) bool {
		return d.Active && d.Department == department && d.ID != exclude
	}), nil
}

func (r fakeDoctorRepo) Update(_ context.Context, d *entity.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.doctors[d.ID]; !ok {
		return fmt.Errorf("doctor %s not found", d.ID)
	}
	r.db.doctors[d.ID] = *d
	return nil
}

func (r fakeDoctorRepo) UpdateStats(_ context.Context, d *entity.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.statsErr != nil {
		return r.db.statsErr
	}
	stored := r.db.doctors[d.ID]
	stored.AvgConsultTime = d.AvgConsultTime
	stored.ConsultationHistory = d.ConsultationHistory
	r.db.doctors[d.ID] = stored
	return nil
}

type fakeUserRepo struct{ db *fakeDB }

func (r fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r fakeUserRepo) UpdateNoShow(_ context.Context, u *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[u.ID] = *u
	return nil
}

type fakeConsultationRepo struct{ db *fakeDB }

func (r fakeConsultationRepo) Complete(_ context.Context, token *entity.Token, c *entity.Consultation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tokens[token.ID] = *token
	r.db.consultations = append(r.db.consultations, *c)
	return nil
}

func (r fakeConsultationRepo) match(c entity.Consultation, f entity.ConsultationFilter) bool {
	if f.StartDate != nil && c.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && c.Date.After(*f.EndDate) {
		return false
	}
	return f.ProblemCategory == "" || c.ProblemCategory == f.ProblemCategory
}

func (r fakeConsultationRepo) filter(keep func(entity.Consultation) bool, f entity.ConsultationFilter) []*entity.ConsultationDetail {
	var out []*entity.ConsultationDetail
	for _, c := range r.db.consultations {
		if keep(c) && r.match(c, f) {
			out = append(out, &entity.ConsultationDetail{Consultation: c, DoctorName: r.db.doctors[c.DoctorID].Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r fakeConsultationRepo) FindByPatientID(_ context.Context, patientID uuid.UUID, f entity.ConsultationFilter) ([]*entity.ConsultationDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(func(c entity.Consultation) bool {
		return c.PatientID != nil && *c.PatientID == patientID
	}, f), nil
}

func (r fakeConsultationRepo) FindByDoctorID(_ context.Context, doctorID uuid.UUID, f entity.ConsultationFilter) ([]*entity.ConsultationDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.filter(func(c entity.Consultation) bool { return c.DoctorID == doctorID }, f)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r fakeConsultationRepo) CountByDoctorID(_ context.Context, doctorID uuid.UUID, f entity.ConsultationFilter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.filter(func(c entity.Consultation) bool { return c.DoctorID == doctorID }, f))), nil
}

type notification struct {
	userID   uuid.UUID
	message  string
	severity entity.NotificationSeverity
}

type publication struct {
	room, event string
	payload     any
}

type audit struct {
	action  string
	details map[string]any
}

// recorder captures every collaborator call. With fail set, each call errors.
type recorder struct {
	mu            sync.Mutex
	fail          bool
	notifications []notification
	published     []publication
	sms           map[string][]string
	audits        []audit
}

var errGatewayDown = errors.New("gateway down")

func (r *recorder) Notify(_ context.Context, userID uuid.UUID, message string, severity entity.NotificationSeverity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errGatewayDown
	}
	r.notifications = append(r.notifications, notification{userID, message, severity})
	return nil
}

func (r *recorder) Publish(_ context.Context, room, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errGatewayDown
	}
	r.published = append(r.published, publication{room, event, payload})
	return nil
}

// Send records the text even when failing so tests can still read codes.
func (r *recorder) Send(_ context.Context, phone, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sms == nil {
		r.sms = map[string][]string{}
	}
	r.sms[phone] = append(r.sms[phone], text)
	if r.fail {
		return errGatewayDown
	}
	return nil
}

func (r *recorder) Record(_ context.Context, action string, _ uuid.UUID, details map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errGatewayDown
	}
	r.audits = append(r.audits, audit{action, details})
	return nil
}

// lastCode extracts the trailing 6-digit code of the latest SMS to phone.
func (r *recorder) lastCode(t *testing.T, phone string) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.sms[phone]
	if len(msgs) == 0 {
		t.Fatalf("no sms sent to %s", phone)
	}
	last := msgs[len(msgs)-1]
	return last[strings.LastIndex(last, " ")+1:]
}

func (r *recorder) notificationsFor(userID uuid.UUID) []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification
	for _, n := range r.notifications {
		if n.userID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) auditActions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.audits))
	for i, a := range r.audits {
		out[i] = a.action
	}
	return out
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	db           *fakeDB
	gw           *recorder
	clock        *fakeClock
	config       *utils.Config
	phone        *phoneOTPService
	consultOTP   *consultationOTPService
	token        *tokenService
	consultation *consultationService
	doctor       *doctorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newFakeDB()
	gw := &recorder{}
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	cfg := utils.DefaultConfig()
	repo := db.repository()
	gateways := Gateways{Notifier: gw, Broadcaster: gw, SMS: gw, Audit: gw}
	log := zap.NewNop()

	env := &testEnv{
		db:           db,
		gw:           gw,
		clock:        clock,
		config:       cfg,
		phone:        NewPhoneOTPService(repo.PhoneOTP, gw, cfg.OTP, log).(*phoneOTPService),
		consultOTP:   NewConsultationOTPService(repo, gateways, cfg.OTP, log).(*consultationOTPService),
		token:        NewTokenService(repo, gateways, cfg.Queue, log).(*tokenService),
		consultation: NewConsultationService(repo, gateways, log).(*consultationService),
		doctor:       NewDoctorService(repo.Doctor, log).(*doctorService),
	}
	env.phone.now = clock.Now
	env.consultOTP.now = clock.Now
	env.token.now = clock.Now
	env.consultation.now = clock.Now
	env.doctor.now = clock.Now
	return env
}

func (e *testEnv) addDoctor(name, department string, avg float64) *entity.Doctor {
	d := entity.Doctor{
		Row:             entity.NewRow(e.clock.Now()),
		Name:            name,
		Department:      department,
		AvgConsultTime:  avg,
		ConsultationFee: 300,
		Active:          true,
	}
	e.clock.Advance(time.Millisecond)
	e.db.doctors[d.ID] = d
	return &d
}

func (e *testEnv) addPatient() *entity.User {
	u := entity.User{
		SoftDeletable: entity.SoftDeletable{ID: uuid.New(), CreatedAt: e.clock.Now(), UpdatedAt: e.clock.Now()},
		Name:          "Patient",
		Email:         "patient@example.com",
		Role:          entity.RolePatient,
		IsActive:      true,
	}
	e.db.users[u.ID] = u
	return &u
}

// verifiedPhone leaves phone with a verified, unconsumed OTP record.
func (e *testEnv) verifiedPhone(t *testing.T, phone string) {
	t.Helper()
	ctx := context.Background()
	if err := e.phone.Send(ctx, &request.SendOTPRequest{PhoneNumber: phone}); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	code := e.gw.lastCode(t, phone)
	if err := e.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: code}); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
}

// book verifies phone and books a NORMAL token for today.
func (e *testEnv) book(t *testing.T, doctor *entity.Doctor, patientID *uuid.UUID, phone string) *response.BookingResponse {
	t.Helper()
	return e.bookWith(t, doctor, patientID, phone, entity.PriorityNormal)
}

func (e *testEnv) bookWith(t *testing.T, doctor *entity.Doctor, patientID *uuid.UUID, phone string, priority entity.Priority) *response.BookingResponse {
	t.Helper()
	e.verifiedPhone(t, phone)
	resp, err := e.token.BookToken(context.Background(), patientID, &request.BookTokenRequest{
		DoctorID:      doctor.ID.String(),
		PatientName:   "Asha",
		PatientMobile: phone,
		Priority:      string(priority),
	})
	if err != nil {
		t.Fatalf("book token: %v", err)
	}
	e.clock.Advance(time.Second)
	return resp
}

func (e *testEnv) storedToken(t *testing.T, id string) entity.Token {
	t.Helper()
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	tok, ok := e.db.tokens[uuid.MustParse(id)]
	if !ok {
		t.Fatalf("token %s not stored", id)
	}
	return tok
}

// phoneFor returns a distinct valid 10-digit number.
func phoneFor(i int) string {
	return fmt.Sprintf("98765%05d", i)
}
