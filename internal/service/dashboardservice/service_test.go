package dashboardservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/cache"
	"psiagenda/internal/pkg/logger"
	"psiagenda/internal/service/dashboardservice"
)

// MockDashboardRepository é uma implementação mock da interface DashboardRepository
type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) CountPatients(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardRepository) CountAppointments(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardRepository) CountAppointmentsByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardRepository) SumPaymentsBetween(ctx context.Context, from, to time.Time) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDashboardRepository) SumPaymentsTotal(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDashboardRepository) CountAppointmentsByPsychologist(ctx context.Context) ([]domain.PsychologistCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PsychologistCount), args.Error(1)
}

func (m *MockDashboardRepository) RecentAppointments(ctx context.Context, limit int) ([]domain.AppointmentSummary, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AppointmentSummary), args.Error(1)
}

func (m *MockDashboardRepository) PendingPayments(ctx context.Context, status string, limit int) ([]domain.PendingPayment, error) {
	args := m.Called(ctx, status, limit)
	return args.Get(0).([]domain.PendingPayment), args.Error(1)
}

// MockCacheClient é o mock do cliente de cache.
type MockCacheClient struct {
	mock.Mock
}

func (m *MockCacheClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheClient) GetInt(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheClient) Incr(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheClient) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newColdCache() *MockCacheClient {
	mockCache := new(MockCacheClient)
	mockCache.On("Get", mock.Anything, mock.Anything).Return("", cache.ErrCacheMiss)
	mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return mockCache
}

// TestSummary_EmptyStore testa que uma base vazia resulta em contagens e
// faturamentos zerados e listas vazias, nunca em erro.
func TestSummary_EmptyStore(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := newColdCache()

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	mockRepo.On("CountPatients", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointments", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointmentsByStatus", mock.Anything, domain.AppointmentCompleted).Return(0, nil)
	mockRepo.On("SumPaymentsBetween", mock.Anything, mock.Anything, mock.Anything).Return(0.0, nil)
	mockRepo.On("SumPaymentsTotal", mock.Anything).Return(0.0, nil)
	mockRepo.On("CountAppointmentsByPsychologist", mock.Anything).Return([]domain.PsychologistCount{}, nil)
	mockRepo.On("RecentAppointments", mock.Anything, 5).Return([]domain.AppointmentSummary{}, nil)
	mockRepo.On("PendingPayments", mock.Anything, domain.PaymentPending, 5).Return([]domain.PendingPayment{}, nil)

	view, err := svc.Summary(context.Background(), "todos", "todos", "todos")

	assert.NoError(t, err)
	assert.Equal(t, 0, view.TotalPacientes)
	assert.Equal(t, 0, view.TotalConsultas)
	assert.Equal(t, 0, view.ConsultasConcluidas)
	assert.Equal(t, 0.0, view.FaturamentoDiario)
	assert.Equal(t, 0.0, view.FaturamentoMensal)
	assert.Equal(t, 0.0, view.FaturamentoAnual)
	assert.Empty(t, view.ConsultasPorPsicologo)
	assert.Empty(t, view.UltimosAgendamentos)
	assert.Empty(t, view.PagamentosPendentes)
	mockRepo.AssertExpectations(t)
}

// TestSummary_DayFilterWindow testa que dia+mês+ano resolvem uma janela de
// exatamente um dia por aritmética de calendário.
func TestSummary_DayFilterWindow(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := newColdCache()

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	dayFrom := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.Local)
	dayTo := dayFrom.AddDate(0, 0, 1)
	yearFrom := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local)
	yearTo := yearFrom.AddDate(1, 0, 0)

	mockRepo.On("CountPatients", mock.Anything).Return(3, nil)
	mockRepo.On("CountAppointments", mock.Anything).Return(7, nil)
	mockRepo.On("CountAppointmentsByStatus", mock.Anything, domain.AppointmentCompleted).Return(2, nil)
	mockRepo.On("SumPaymentsBetween", mock.Anything, dayFrom, dayTo).Return(150.5, nil).Once()
	mockRepo.On("SumPaymentsBetween", mock.Anything, yearFrom, yearTo).Return(1200.0, nil).Once()
	mockRepo.On("SumPaymentsTotal", mock.Anything).Return(5000.0, nil)
	mockRepo.On("CountAppointmentsByPsychologist", mock.Anything).Return([]domain.PsychologistCount{}, nil)
	mockRepo.On("RecentAppointments", mock.Anything, 5).Return([]domain.AppointmentSummary{}, nil)
	mockRepo.On("PendingPayments", mock.Anything, domain.PaymentPending, 5).Return([]domain.PendingPayment{}, nil)

	view, err := svc.Summary(context.Background(), "15", "3", "2025")

	assert.NoError(t, err)
	assert.Equal(t, 150.5, view.FaturamentoDiario)
	assert.Equal(t, 1200.0, view.FaturamentoMensal)
	assert.Equal(t, 5000.0, view.FaturamentoAnual)
	mockRepo.AssertExpectations(t)
}

// TestSummary_MonthFilterWindow testa que o filtro só de mês resolve a janela
// do mês inteiro, inclusive a virada de ano.
func TestSummary_MonthFilterWindow(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := newColdCache()

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	monthFrom := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.Local)
	monthTo := monthFrom.AddDate(0, 1, 0) // 1º de janeiro de 2026
	yearFrom := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local)
	yearTo := yearFrom.AddDate(1, 0, 0)

	mockRepo.On("CountPatients", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointments", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointmentsByStatus", mock.Anything, domain.AppointmentCompleted).Return(0, nil)
	mockRepo.On("SumPaymentsBetween", mock.Anything, monthFrom, monthTo).Return(320.0, nil).Once()
	mockRepo.On("SumPaymentsBetween", mock.Anything, yearFrom, yearTo).Return(900.0, nil).Once()
	mockRepo.On("SumPaymentsTotal", mock.Anything).Return(900.0, nil)
	mockRepo.On("CountAppointmentsByPsychologist", mock.Anything).Return([]domain.PsychologistCount{}, nil)
	mockRepo.On("RecentAppointments", mock.Anything, 5).Return([]domain.AppointmentSummary{}, nil)
	mockRepo.On("PendingPayments", mock.Anything, domain.PaymentPending, 5).Return([]domain.PendingPayment{}, nil)

	view, err := svc.Summary(context.Background(), "todos", "12", "2025")

	assert.NoError(t, err)
	assert.Equal(t, 320.0, view.FaturamentoDiario)
	assert.Equal(t, 2026, monthTo.Year())
	mockRepo.AssertExpectations(t)
}

// TestSummary_DayWithoutMonthUsesYearWindow testa que um filtro de dia sem mês
// não estreita a janela de faturamento: ambas as somas usam a janela do ano.
func TestSummary_DayWithoutMonthUsesYearWindow(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := newColdCache()

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	yearFrom := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local)
	yearTo := yearFrom.AddDate(1, 0, 0)

	mockRepo.On("CountPatients", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointments", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointmentsByStatus", mock.Anything, domain.AppointmentCompleted).Return(0, nil)
	mockRepo.On("SumPaymentsBetween", mock.Anything, yearFrom, yearTo).Return(700.0, nil).Twice()
	mockRepo.On("SumPaymentsTotal", mock.Anything).Return(700.0, nil)
	mockRepo.On("CountAppointmentsByPsychologist", mock.Anything).Return([]domain.PsychologistCount{}, nil)
	mockRepo.On("RecentAppointments", mock.Anything, 5).Return([]domain.AppointmentSummary{}, nil)
	mockRepo.On("PendingPayments", mock.Anything, domain.PaymentPending, 5).Return([]domain.PendingPayment{}, nil)

	view, err := svc.Summary(context.Background(), "15", "todos", "2025")

	assert.NoError(t, err)
	assert.Equal(t, 700.0, view.FaturamentoDiario)
	mockRepo.AssertExpectations(t)
}

// TestSummary_Fail_DayBeyondMonth testa a rejeição de um dia que não existe no
// mês filtrado, em vez da normalização silenciosa para o mês seguinte.
func TestSummary_Fail_DayBeyondMonth(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := new(MockCacheClient)

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	tests := []struct {
		name             string
		day, month, year string
	}{
		{"abril não tem dia 31", "31", "4", "2025"},
		{"fevereiro comum não tem dia 29", "29", "2", "2025"},
		{"fevereiro não tem dia 30", "30", "2", "2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Summary(context.Background(), tt.day, tt.month, tt.year)
			assert.Error(t, err)
			assert.IsType(t, &apperror.ValidationError{}, err)
		})
	}
	mockRepo.AssertNotCalled(t, "SumPaymentsBetween", mock.Anything, mock.Anything, mock.Anything)
}

// TestSummary_LeapDayFilter testa que 29/02 é aceito em ano bissexto e resolve
// a janela de exatamente um dia.
func TestSummary_LeapDayFilter(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := newColdCache()

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	dayFrom := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local)
	dayTo := dayFrom.AddDate(0, 0, 1)
	yearFrom := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	yearTo := yearFrom.AddDate(1, 0, 0)

	mockRepo.On("CountPatients", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointments", mock.Anything).Return(0, nil)
	mockRepo.On("CountAppointmentsByStatus", mock.Anything, domain.AppointmentCompleted).Return(0, nil)
	mockRepo.On("SumPaymentsBetween", mock.Anything, dayFrom, dayTo).Return(180.0, nil).Once()
	mockRepo.On("SumPaymentsBetween", mock.Anything, yearFrom, yearTo).Return(360.0, nil).Once()
	mockRepo.On("SumPaymentsTotal", mock.Anything).Return(360.0, nil)
	mockRepo.On("CountAppointmentsByPsychologist", mock.Anything).Return([]domain.PsychologistCount{}, nil)
	mockRepo.On("RecentAppointments", mock.Anything, 5).Return([]domain.AppointmentSummary{}, nil)
	mockRepo.On("PendingPayments", mock.Anything, domain.PaymentPending, 5).Return([]domain.PendingPayment{}, nil)

	view, err := svc.Summary(context.Background(), "29", "2", "2024")

	assert.NoError(t, err)
	assert.Equal(t, 180.0, view.FaturamentoDiario)
	mockRepo.AssertExpectations(t)
}

// TestSummary_Fail_InvalidFilter testa a rejeição de filtros fora dos limites.
func TestSummary_Fail_InvalidFilter(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := new(MockCacheClient)

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	tests := []struct {
		name            string
		day, month, year string
	}{
		{"dia fora do limite", "32", "todos", "todos"},
		{"mês fora do limite", "todos", "13", "todos"},
		{"dia não numérico", "abc", "todos", "todos"},
		{"ano fora do limite", "todos", "todos", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Summary(context.Background(), tt.day, tt.month, tt.year)
			assert.Error(t, err)
			assert.IsType(t, &apperror.ValidationError{}, err)
		})
	}
	mockRepo.AssertNotCalled(t, "CountPatients", mock.Anything)
}

// TestSummary_CacheHit testa que uma visão em cache é devolvida sem tocar no
// repositório.
func TestSummary_CacheHit(t *testing.T) {
	mockRepo := new(MockDashboardRepository)
	mockCache := new(MockCacheClient)

	svc := dashboardservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("debug"))

	cached := `{"totalPacientes":9,"totalConsultas":4,"consultasConcluidas":1,"faturamentoDiario":100,"faturamentoMensal":500,"faturamentoAnual":800,"consultasPorPsicologo":[],"ultimosAgendamentos":[],"pagamentosPendentes":[]}`
	mockCache.On("Get", mock.Anything, "dashboard:15-3-2025").Return(cached, nil)

	view, err := svc.Summary(context.Background(), "15", "3", "2025")

	assert.NoError(t, err)
	assert.Equal(t, 9, view.TotalPacientes)
	assert.Equal(t, 500.0, view.FaturamentoMensal)
	mockRepo.AssertNotCalled(t, "CountPatients", mock.Anything)
	mockCache.AssertExpectations(t)
}
