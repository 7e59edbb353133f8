package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"plantao/backend/config"
	"plantao/backend/internal/dto"
	"plantao/backend/internal/model"
	"plantao/backend/internal/repository"
)

// ── shared fixture ──

const (
	testClinicID    = "clinic-1"
	testClinicOwner = "clinic-owner"
	testClinicPhone = "+5511988887777"
	testCode        = "123456"
)

type testEnv struct {
	repo        *repository.Repository
	postings    *mockPostingRepo
	apps        *mockApplicationRepo
	pros        *mockProfessionalRepo
	clinics     *mockClinicRepo
	blocks      *mockScheduleBlockRepo
	attendance  *mockAttendanceRepo
	suspensions *mockSuspensionRepo
	toggleLogs  *mockAvailabilityLogRepo
	notifier    *mockNotifier
	cfg         *config.SubstitutionConfig
	loc         *time.Location
	now         time.Time
}

func testSubstitutionConfig() *config.SubstitutionConfig {
	return &config.SubstitutionConfig{
		ExpiryImmediate:    48 * time.Hour,
		ExpirySpecificDate: 7 * 24 * time.Hour,
		ExpiryDateRange:    14 * 24 * time.Hour,
		ExpiryDefault:      7 * 24 * time.Hour,
		CodeTTL:            24 * time.Hour,
		CodeHashCost:       bcrypt.MinCost,
		MaxCodeAttempts:    5,
		DeepLinkBaseURL:    "https://app.plantao.com.br",
		Timezone:           "America/Sao_Paulo",
		DailyToggleLimit:   2,
		LockoutThreshold:   3,
		LockoutBase:        24 * time.Hour,
		LockoutMax:         7 * 24 * time.Hour,
		SupportContact:     "suporte@plantao.com.br",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testSubstitutionConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("timezone: %v", err)
	}

	pros := newMockProfessionalRepo()
	env := &testEnv{
		postings:    newMockPostingRepo(),
		apps:        newMockApplicationRepo(pros),
		pros:        pros,
		clinics:     newMockClinicRepo(),
		blocks:      newMockScheduleBlockRepo(),
		attendance:  newMockAttendanceRepo(),
		suspensions: newMockSuspensionRepo(),
		toggleLogs:  &mockAvailabilityLogRepo{},
		notifier:    &mockNotifier{},
		cfg:         cfg,
		loc:         loc,
		now:         time.Date(2026, 3, 10, 9, 0, 0, 0, loc),
	}
	env.repo = &repository.Repository{
		Posting:         env.postings,
		Application:     env.apps,
		Professional:    env.pros,
		Clinic:          env.clinics,
		ScheduleBlock:   env.blocks,
		Attendance:      env.attendance,
		Suspension:      env.suspensions,
		AvailabilityLog: env.toggleLogs,
	}

	_ = env.clinics.Create(context.Background(), &model.Clinic{
		ClinicID:         testClinicID,
		OwnerID:          testClinicOwner,
		Name:             "Clínica Sorriso",
		Street:           "Rua Augusta",
		Number:           "100",
		District:         "Consolação",
		City:             "São Paulo",
		State:            "SP",
		ZipCode:          "01304-000",
		ResponsibleName:  "Dra. Ana",
		ResponsiblePhone: testClinicPhone,
	})
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func (e *testEnv) postingService() *postingService {
	svc := NewPostingService(e.cfg, e.repo, e.notifier, zap.NewNop()).(*postingService)
	svc.now = e.clock
	svc.codes = fixedCodeIssuer(testCode)
	return svc
}

func (e *testEnv) attendanceService() *attendanceService {
	svc := NewAttendanceService(e.repo, e.notifier, zap.NewNop()).(*attendanceService)
	svc.now = e.clock
	return svc
}

func (e *testEnv) availabilityService() *availabilityService {
	svc := NewAvailabilityService(e.cfg, e.repo, e.notifier, zap.NewNop()).(*availabilityService)
	svc.now = e.clock
	return svc
}

func (e *testEnv) sweepService() *sweepService {
	svc := NewSweepService(e.repo, e.notifier, zap.NewNop()).(*sweepService)
	svc.now = e.clock
	return svc
}

func (e *testEnv) calendarService() *calendarService {
	svc := NewCalendarService(e.cfg, e.repo, zap.NewNop()).(*calendarService)
	svc.now = e.clock
	return svc
}

func (e *testEnv) addProfessional(id string, mutate ...func(*model.Professional)) *model.Professional {
	rating := 4.8
	p := &model.Professional{
		ProfessionalID:     id,
		Name:               "Dr. " + id,
		Phone:              "+55119" + id,
		Specialty:          "Endodontia",
		GraduationYear:     2018,
		Rating:             &rating,
		AttendanceRate:     100,
		AvailabilityStatus: model.AvailabilityOffline,
	}
	for _, fn := range mutate {
		fn(p)
	}
	_ = e.pros.Create(context.Background(), p)
	return p
}

func (e *testEnv) professional(id string) *model.Professional {
	p, _ := e.pros.GetByID(context.Background(), id)
	return p
}

func (e *testEnv) posting(id string) *model.Posting {
	p, _ := e.postings.GetByID(context.Background(), id)
	return p
}

func immediateRequest(at time.Time) *dto.CreatePostingRequest {
	rate := 450.0
	patients := 12
	return &dto.CreatePostingRequest{
		CreatorType:        string(model.CreatorClinic),
		ClinicID:           testClinicID,
		Reason:             "Dentista titular afastado por doença",
		Specialty:          "Endodontia",
		TermsAccepted:      true,
		CompensationModel:  string(model.CompensationDailyRate),
		DailyRate:          &rate,
		PaymentMethod:      "PIX",
		Payer:              "Clínica",
		ScheduleMode:       string(model.ScheduleImmediate),
		ImmediateAt:        &at,
		StartTime:          "13:00",
		EndTime:            "19:00",
		AttendanceType:     "Urgência",
		ExpectedPatients:   &patients,
		ExpectedProcedures: "Tratamento de canal, curativos",
	}
}

// openPosting creates and publishes an IMMEDIATE posting owned by the clinic owner.
func (e *testEnv) openPosting(t *testing.T, svc *postingService) string {
	t.Helper()
	ctx := context.Background()
	resp, err := svc.Create(ctx, immediateRequest(e.now.Add(2*time.Hour)), testClinicOwner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Publish(ctx, resp.ID, testClinicOwner); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	return resp.ID
}

// awaitingPosting posting with professional "pro-a" chosen and a code sent.
func (e *testEnv) awaitingPosting(t *testing.T, svc *postingService, others ...string) (postingID, applicationID string) {
	t.Helper()
	ctx := context.Background()
	postingID = e.openPosting(t, svc)

	e.addProfessional("pro-a")
	app, err := svc.Apply(ctx, postingID, "pro-a", &dto.ApplyRequest{Message: "Disponível"})
	if err != nil {
		t.Fatalf("Apply pro-a: %v", err)
	}
	for _, id := range others {
		e.addProfessional(id)
		if _, err := svc.Apply(ctx, postingID, id, &dto.ApplyRequest{}); err != nil {
			t.Fatalf("Apply %s: %v", id, err)
		}
	}
	if _, err := svc.Choose(ctx, postingID, app.ID, testClinicOwner); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	return postingID, app.ID
}

// confirmedPosting posting approved by the clinic for "pro-a".
func (e *testEnv) confirmedPosting(t *testing.T, svc *postingService) string {
	t.Helper()
	postingID, _ := e.awaitingPosting(t, svc)
	approved := true
	if _, err := svc.Confirm(context.Background(), postingID, &dto.ConfirmRequest{Code: testCode, Approved: &approved}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	return postingID
}
