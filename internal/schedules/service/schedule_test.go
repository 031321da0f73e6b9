package service

import (
	"context"
	"testing"
	"time"

	scheduleserrors "github.com/KarolineKS/PetMatch-api/internal/schedules/errors"
	"github.com/KarolineKS/PetMatch-api/internal/schedules/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

const (
	testOngID = "507f1f77bcf86cd799439011"
)

type mockRuleRepository struct {
	upsertFunc               func(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error)
	findByIDFunc             func(ctx context.Context, id string) (*model.ScheduleRule, error)
	findByOngFunc            func(ctx context.Context, ongID string) ([]*model.ScheduleRule, error)
	findActiveForWeekdayFunc func(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error)
}

func (m *mockRuleRepository) Upsert(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, rule)
	}
	return rule, true, nil
}

func (m *mockRuleRepository) FindByID(ctx context.Context, id string) (*model.ScheduleRule, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, scheduleserrors.ErrNotFound
}

func (m *mockRuleRepository) FindByOng(ctx context.Context, ongID string) ([]*model.ScheduleRule, error) {
	if m.findByOngFunc != nil {
		return m.findByOngFunc(ctx, ongID)
	}
	return []*model.ScheduleRule{}, nil
}

func (m *mockRuleRepository) FindActiveForWeekday(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
	if m.findActiveForWeekdayFunc != nil {
		return m.findActiveForWeekdayFunc(ctx, ongID, weekday)
	}
	return nil, scheduleserrors.ErrNotFound
}

func (m *mockRuleRepository) DeleteByOng(ctx context.Context, ongID string) (int64, error) {
	return 0, nil
}

func (m *mockRuleRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

type mockExceptionRepository struct {
	createFunc           func(ctx context.Context, exception *model.ScheduleException) error
	findActiveOnDateFunc func(ctx context.Context, ongID string, day time.Time) (*model.ScheduleException, error)
}

func (m *mockExceptionRepository) Create(ctx context.Context, exception *model.ScheduleException) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, exception)
	}
	return nil
}

func (m *mockExceptionRepository) FindByOng(ctx context.Context, ongID string) ([]*model.ScheduleException, error) {
	return []*model.ScheduleException{}, nil
}

func (m *mockExceptionRepository) FindActiveOnDate(ctx context.Context, ongID string, day time.Time) (*model.ScheduleException, error) {
	if m.findActiveOnDateFunc != nil {
		return m.findActiveOnDateFunc(ctx, ongID, day)
	}
	return nil, scheduleserrors.ErrExceptionNotFound
}

func (m *mockExceptionRepository) DeleteByOng(ctx context.Context, ongID string) (int64, error) {
	return 0, nil
}

type mockShelterReader struct {
	existsFunc func(ctx context.Context, id string) (bool, error)
}

func (m *mockShelterReader) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, id)
	}
	return true, nil
}

type mockVisitReader struct {
	countAtSlotFunc   func(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error)
	occupancyRowsFunc func(ctx context.Context, ongID string, start, end time.Time, statuses []string) ([]*model.OccupancyRow, error)
}

func (m *mockVisitReader) CountAtSlot(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error) {
	if m.countAtSlotFunc != nil {
		return m.countAtSlotFunc(ctx, ongID, day, horario, statuses)
	}
	return 0, nil
}

func (m *mockVisitReader) OccupancyRows(ctx context.Context, ongID string, start, end time.Time, statuses []string) ([]*model.OccupancyRow, error) {
	if m.occupancyRowsFunc != nil {
		return m.occupancyRowsFunc(ctx, ongID, start, end, statuses)
	}
	return []*model.OccupancyRow{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		DefaultSlotMinutes:         30,
		DefaultMaxConcurrentVisits: 2,
	}
}

func newTestService(rules *mockRuleRepository, exceptions *mockExceptionRepository, shelters *mockShelterReader, visits *mockVisitReader) ScheduleService {
	cfg := testConfig()
	if rules == nil {
		rules = &mockRuleRepository{}
	}
	if exceptions == nil {
		exceptions = &mockExceptionRepository{}
	}
	if shelters == nil {
		shelters = &mockShelterReader{}
	}
	if visits == nil {
		visits = &mockVisitReader{}
	}
	return NewScheduleService(rules, exceptions, validator.NewScheduleValidator(cfg.Log), shelters, visits, cfg)
}

func thursdayRule() *model.ScheduleRule {
	return &model.ScheduleRule{
		ID:                    "507f1f77bcf86cd799439099",
		OngID:                 testOngID,
		DiaSemana:             4,
		HoraInicio:            "08:00",
		HoraFim:               "17:00",
		IntervaloMinutos:      30,
		MaxVisitasSimultaneas: 2,
		Ativo:                 model.BoolPtr(true),
	}
}

func TestAvailableSlots_ExceptionSuppressesEverySlot(t *testing.T) {
	// 2025-12-25 is a Thursday with a configured rule, but the holiday
	// exception must win.
	natal := time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)

	rules := &mockRuleRepository{
		findActiveForWeekdayFunc: func(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
			return thursdayRule(), nil
		},
	}
	exceptions := &mockExceptionRepository{
		findActiveOnDateFunc: func(ctx context.Context, ongID string, day time.Time) (*model.ScheduleException, error) {
			return &model.ScheduleException{
				OngID:  ongID,
				Data:   natal,
				Motivo: "Feriado de Natal",
			}, nil
		},
	}

	svc := newTestService(rules, exceptions, nil, nil)

	got, err := svc.AvailableSlots(context.Background(), testOngID, natal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Disponivel {
		t.Error("expected disponivel=false on an exception date")
	}
	if got.Motivo != "Feriado de Natal" {
		t.Errorf("expected exception motivo, got %q", got.Motivo)
	}
	if len(got.Horarios) != 0 {
		t.Errorf("expected no slots, got %d", len(got.Horarios))
	}
}

func TestAvailableSlots_NoRuleForWeekday(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)

	got, err := svc.AvailableSlots(context.Background(), testOngID, time.Date(2025, time.December, 21, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Disponivel {
		t.Error("expected disponivel=false without a weekday rule")
	}
	if got.Motivo == "" {
		t.Error("expected a closure motivo")
	}
}

func TestAvailableSlots_FiltersFullSlots(t *testing.T) {
	rule := thursdayRule()
	rule.HoraInicio = "08:00"
	rule.HoraFim = "10:00"

	occupancy := map[string]int64{
		"08:00": 2, // full
		"08:30": 1,
		"09:00": 0,
		"09:30": 2, // full
	}

	rules := &mockRuleRepository{
		findActiveForWeekdayFunc: func(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
			return rule, nil
		},
	}
	visits := &mockVisitReader{
		countAtSlotFunc: func(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error) {
			return occupancy[horario], nil
		},
	}

	svc := newTestService(rules, nil, nil, visits)

	got, err := svc.AvailableSlots(context.Background(), testOngID, time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Disponivel {
		t.Fatalf("expected disponivel=true, motivo=%q", got.Motivo)
	}

	want := []string{"08:30", "09:00"}
	if len(got.Horarios) != len(want) {
		t.Fatalf("expected %d available slots, got %d: %+v", len(want), len(got.Horarios), got.Horarios)
	}
	for i, slot := range got.Horarios {
		if slot.Horario != want[i] {
			t.Errorf("slot %d: expected %s, got %s", i, want[i], slot.Horario)
		}
		if !slot.Disponivel {
			t.Errorf("slot %s should be disponivel", slot.Horario)
		}
	}

	if got.Configuracao == nil || got.Configuracao.MaxSimultaneas != 2 {
		t.Errorf("expected configuracao echoing the rule, got %+v", got.Configuracao)
	}
}

func TestAvailableSlots_AllSlotsFullMeansUnavailable(t *testing.T) {
	rule := thursdayRule()
	rule.HoraInicio = "08:00"
	rule.HoraFim = "09:00"

	rules := &mockRuleRepository{
		findActiveForWeekdayFunc: func(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
			return rule, nil
		},
	}
	visits := &mockVisitReader{
		countAtSlotFunc: func(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error) {
			return int64(rule.MaxVisitasSimultaneas), nil
		},
	}

	svc := newTestService(rules, nil, nil, visits)

	got, err := svc.AvailableSlots(context.Background(), testOngID, time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Disponivel {
		t.Error("expected disponivel=false when every slot is at capacity")
	}
	if len(got.Horarios) != 0 {
		t.Errorf("expected no slots, got %d", len(got.Horarios))
	}
}

func TestCreateException_DefaultsToActive(t *testing.T) {
	var stored *model.ScheduleException
	exceptions := &mockExceptionRepository{
		createFunc: func(ctx context.Context, exception *model.ScheduleException) error {
			stored = exception
			return nil
		},
	}

	svc := newTestService(nil, exceptions, nil, nil)

	err := svc.CreateException(context.Background(), &model.ScheduleException{
		OngID:  testOngID,
		Data:   time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
		Motivo: "Feriado de Natal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected exception to be stored")
	}
	if stored.Ativo == nil || !*stored.Ativo {
		t.Error("expected ativo to default to true so the closure takes effect")
	}
}

func TestCreateException_KeepsExplicitInactive(t *testing.T) {
	var stored *model.ScheduleException
	exceptions := &mockExceptionRepository{
		createFunc: func(ctx context.Context, exception *model.ScheduleException) error {
			stored = exception
			return nil
		},
	}

	svc := newTestService(nil, exceptions, nil, nil)

	err := svc.CreateException(context.Background(), &model.ScheduleException{
		OngID:  testOngID,
		Data:   time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
		Motivo: "Feriado de Natal",
		Ativo:  model.BoolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.Ativo == nil || *stored.Ativo {
		t.Error("expected an explicit ativo=false to survive")
	}
}

func TestSlotAvailable(t *testing.T) {
	day := time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC) // Thursday

	tests := []struct {
		name    string
		horario string
		count   int64
		want    bool
	}{
		{name: "open slot with room", horario: "08:00", count: 1, want: true},
		{name: "slot at capacity", horario: "08:00", count: 2, want: false},
		{name: "off-grid time", horario: "08:15", count: 0, want: false},
		{name: "after closing", horario: "17:00", count: 0, want: false},
		{name: "last slot before closing", horario: "16:30", count: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := &mockRuleRepository{
				findActiveForWeekdayFunc: func(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
					return thursdayRule(), nil
				},
			}
			visits := &mockVisitReader{
				countAtSlotFunc: func(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error) {
					return tt.count, nil
				},
			}

			svc := newTestService(rules, nil, nil, visits)

			got, err := svc.SlotAvailable(context.Background(), testOngID, day, tt.horario)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SlotAvailable(%s, count=%d) = %v, want %v", tt.horario, tt.count, got, tt.want)
			}
		})
	}
}

func TestDateClosure_ExceptionWinsOverRule(t *testing.T) {
	day := time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)

	rules := &mockRuleRepository{
		findActiveForWeekdayFunc: func(ctx context.Context, ongID string, weekday int) (*model.ScheduleRule, error) {
			return thursdayRule(), nil
		},
	}
	exceptions := &mockExceptionRepository{
		findActiveOnDateFunc: func(ctx context.Context, ongID string, day time.Time) (*model.ScheduleException, error) {
			return &model.ScheduleException{OngID: ongID, Data: day, Motivo: "Mutirão de adoção"}, nil
		},
	}

	svc := newTestService(rules, exceptions, nil, nil)

	closed, motivo, err := svc.DateClosure(context.Background(), testOngID, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closed {
		t.Error("expected date to be closed")
	}
	if motivo != "Mutirão de adoção" {
		t.Errorf("expected exception motivo, got %q", motivo)
	}
}

func TestUpsertRule_AppliesDefaults(t *testing.T) {
	var captured *model.ScheduleRule
	rules := &mockRuleRepository{
		upsertFunc: func(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error) {
			captured = rule
			return rule, true, nil
		},
	}

	svc := newTestService(rules, nil, nil, nil)

	rule := &model.ScheduleRule{
		OngID:      testOngID,
		DiaSemana:  1,
		HoraInicio: "08:00",
		HoraFim:    "17:00",
	}

	stored, created, err := svc.UpsertRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if stored.IntervaloMinutos != 30 {
		t.Errorf("expected default intervalo 30, got %d", stored.IntervaloMinutos)
	}
	if stored.MaxVisitasSimultaneas != 2 {
		t.Errorf("expected default max 2, got %d", stored.MaxVisitasSimultaneas)
	}
	if captured.Ativo == nil || !*captured.Ativo {
		t.Error("expected ativo defaulted to true")
	}
}

func TestUpsertRule_UnknownOng(t *testing.T) {
	shelters := &mockShelterReader{
		existsFunc: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}

	svc := newTestService(nil, nil, shelters, nil)

	rule := &model.ScheduleRule{
		OngID:      testOngID,
		DiaSemana:  1,
		HoraInicio: "08:00",
		HoraFim:    "17:00",
	}

	_, _, err := svc.UpsertRule(context.Background(), rule)
	if err == nil {
		t.Fatal("expected error for unknown ONG")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpsertRule_RejectsInvertedRange(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)

	rule := &model.ScheduleRule{
		OngID:      testOngID,
		DiaSemana:  1,
		HoraInicio: "17:00",
		HoraFim:    "08:00",
	}

	_, _, err := svc.UpsertRule(context.Background(), rule)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestOccupancyReport_GroupsByDate(t *testing.T) {
	d18 := time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC)
	d19 := time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC)

	visits := &mockVisitReader{
		occupancyRowsFunc: func(ctx context.Context, ongID string, start, end time.Time, statuses []string) ([]*model.OccupancyRow, error) {
			return []*model.OccupancyRow{
				{Data: d18, Horario: "08:00", Status: model.VisitPendente, ClienteNome: "Ana", PetNome: "Rex"},
				{Data: d18, Horario: "09:00", Status: model.VisitConfirmada, ClienteNome: "Bruno", PetNome: "Mia"},
				{Data: d19, Horario: "10:00", Status: model.VisitConcluida, ClienteNome: "Carla", PetNome: "Thor"},
			}, nil
		},
	}

	svc := newTestService(nil, nil, nil, visits)

	report, err := svc.OccupancyReport(context.Background(), testOngID, d18, d19)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalVisitas != 3 {
		t.Errorf("expected 3 total visits, got %d", report.TotalVisitas)
	}
	if report.Periodo.Inicio != "2025-12-18" || report.Periodo.Fim != "2025-12-19" {
		t.Errorf("unexpected periodo: %+v", report.Periodo)
	}
	if len(report.VisitasPorDia["2025-12-18"]) != 2 {
		t.Errorf("expected 2 visits on 2025-12-18, got %d", len(report.VisitasPorDia["2025-12-18"]))
	}
	if len(report.VisitasPorDia["2025-12-19"]) != 1 {
		t.Errorf("expected 1 visit on 2025-12-19, got %d", len(report.VisitasPorDia["2025-12-19"]))
	}
}

func TestOccupancyReport_RejectsInvertedRange(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)

	_, err := svc.OccupancyReport(context.Background(),
		testOngID,
		time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC),
	)
	if err == nil {
		t.Fatal("expected error for end before start")
	}
}
