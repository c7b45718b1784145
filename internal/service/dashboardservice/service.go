package dashboardservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/cache"
	"psiagenda/internal/pkg/logger"
)

// Valor sentinela dos filtros de consulta: "todos" significa sem filtro no eixo.
const filterAll = "todos"

// Limite das listagens do painel (últimos agendamentos e pendências).
const listLimit = 5

// DashboardRepository define as consultas agregadas que o Serviço compõe.
type DashboardRepository interface {
	CountPatients(ctx context.Context) (int, error)
	CountAppointments(ctx context.Context) (int, error)
	CountAppointmentsByStatus(ctx context.Context, status string) (int, error)
	SumPaymentsBetween(ctx context.Context, from, to time.Time) (float64, error)
	SumPaymentsTotal(ctx context.Context) (float64, error)
	CountAppointmentsByPsychologist(ctx context.Context) ([]domain.PsychologistCount, error)
	RecentAppointments(ctx context.Context, limit int) ([]domain.AppointmentSummary, error)
	PendingPayments(ctx context.Context, status string, limit int) ([]domain.PendingPayment, error)
}

// Service compõe a visão agregada do painel a partir de consultas
// independentes de leitura, com um cache curto por filtro resolvido.
type Service struct {
	repo     DashboardRepository
	cache    cache.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço do Dashboard.
func NewService(repo DashboardRepository, cacheClient cache.Client, cacheTTL time.Duration, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Summary monta a visão do painel para os filtros de dia/mês/ano informados
// ("todos" ou vazio = sem filtro; ano sem filtro resolve para o ano corrente).
// Um filtro de dia sem mês não estreita a janela de faturamento: sem o mês a
// janela recai para o ano resolvido.
func (s *Service) Summary(ctx context.Context, dayStr, monthStr, yearStr string) (domain.DashboardView, error) {
	filter, err := resolveFilter(dayStr, monthStr, yearStr, time.Now())
	if err != nil {
		return domain.DashboardView{}, err
	}

	// Cache curto por filtro resolvido: o painel é consultado com frequência
	// e tolera alguns segundos de defasagem.
	key := fmt.Sprintf("dashboard:%d-%d-%d", filter.Day, filter.Month, filter.Year)
	if cached, cacheErr := s.cache.Get(ctx, key); cacheErr == nil {
		var view domain.DashboardView
		if json.Unmarshal([]byte(cached), &view) == nil {
			return view, nil
		}
	} else if cacheErr != cache.ErrCacheMiss {
		s.logger.Warn("Falha ao ler dashboard do cache.", map[string]interface{}{"error": cacheErr.Error()})
	}

	view, err := s.compose(ctx, filter)
	if err != nil {
		return domain.DashboardView{}, err
	}

	if viewJSON, marshalErr := json.Marshal(view); marshalErr == nil {
		s.cache.Set(ctx, key, viewJSON, s.cacheTTL)
	}

	return view, nil
}

// compose executa cada agregado de forma independente e monta a visão.
func (s *Service) compose(ctx context.Context, filter domain.DashboardFilter) (domain.DashboardView, error) {
	totalPatients, err := s.repo.CountPatients(ctx)
	if err != nil {
		s.logger.Error("Falha ao contar pacientes.", err)
		return domain.DashboardView{}, err
	}

	totalAppointments, err := s.repo.CountAppointments(ctx)
	if err != nil {
		s.logger.Error("Falha ao contar consultas.", err)
		return domain.DashboardView{}, err
	}

	completed, err := s.repo.CountAppointmentsByStatus(ctx, domain.AppointmentCompleted)
	if err != nil {
		s.logger.Error("Falha ao contar consultas concluídas.", err)
		return domain.DashboardView{}, err
	}

	windowFrom, windowTo := revenueWindow(filter)
	daily, err := s.repo.SumPaymentsBetween(ctx, windowFrom, windowTo)
	if err != nil {
		s.logger.Error("Falha ao somar faturamento do período.", err)
		return domain.DashboardView{}, err
	}

	yearFrom, yearTo := yearWindow(filter.Year)
	monthly, err := s.repo.SumPaymentsBetween(ctx, yearFrom, yearTo)
	if err != nil {
		s.logger.Error("Falha ao somar faturamento do ano.", err)
		return domain.DashboardView{}, err
	}

	annual, err := s.repo.SumPaymentsTotal(ctx)
	if err != nil {
		s.logger.Error("Falha ao somar faturamento total.", err)
		return domain.DashboardView{}, err
	}

	byPsychologist, err := s.repo.CountAppointmentsByPsychologist(ctx)
	if err != nil {
		s.logger.Error("Falha ao agrupar consultas por psicólogo.", err)
		return domain.DashboardView{}, err
	}

	recent, err := s.repo.RecentAppointments(ctx, listLimit)
	if err != nil {
		s.logger.Error("Falha ao buscar últimos agendamentos.", err)
		return domain.DashboardView{}, err
	}

	pending, err := s.repo.PendingPayments(ctx, domain.PaymentPending, listLimit)
	if err != nil {
		s.logger.Error("Falha ao buscar pagamentos pendentes.", err)
		return domain.DashboardView{}, err
	}

	return domain.DashboardView{
		TotalPacientes:        totalPatients,
		TotalConsultas:        totalAppointments,
		ConsultasConcluidas:   completed,
		FaturamentoDiario:     daily,
		FaturamentoMensal:     monthly,
		FaturamentoAnual:      annual,
		ConsultasPorPsicologo: byPsychologist,
		UltimosAgendamentos:   recent,
		PagamentosPendentes:   pending,
	}, nil
}

// resolveFilter interpreta os valores de query (dia/mes/ano). "todos" ou
// vazio significa sem filtro; o ano sem filtro resolve para o ano corrente.
func resolveFilter(dayStr, monthStr, yearStr string, now time.Time) (domain.DashboardFilter, error) {
	day, err := parseFilterValue(dayStr, "dia", 1, 31)
	if err != nil {
		return domain.DashboardFilter{}, err
	}
	month, err := parseFilterValue(monthStr, "mes", 1, 12)
	if err != nil {
		return domain.DashboardFilter{}, err
	}
	year, err := parseFilterValue(yearStr, "ano", 1900, 9999)
	if err != nil {
		return domain.DashboardFilter{}, err
	}

	if year == 0 {
		year = now.Year()
	}

	// Com dia e mês filtrados, o dia precisa existir no mês resolvido
	// (time.Date normalizaria 31/04 para 01/05 em silêncio).
	if day != 0 && month != 0 {
		lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.Local).Day()
		if day > lastDay {
			return domain.DashboardFilter{}, apperror.NewValidationError(fmt.Sprintf("O mês %d de %d não tem dia %d.", month, year, day))
		}
	}

	return domain.DashboardFilter{Day: day, Month: month, Year: year}, nil
}

// parseFilterValue interpreta um eixo do filtro; zero significa sem filtro.
func parseFilterValue(value, name string, min, max int) (int, error) {
	if value == "" || value == filterAll {
		return 0, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < min || parsed > max {
		return 0, apperror.NewValidationError(fmt.Sprintf("Valor de filtro inválido para %s: '%s'.", name, value))
	}
	return parsed, nil
}

// revenueWindow constrói a janela de faturamento do período resolvido com
// aritmética de calendário, nunca com concatenação de strings: o dia exato
// quando dia e mês estão filtrados, o mês quando só o mês está, senão o ano
// (um dia filtrado sem mês é ignorado pela janela).
func revenueWindow(filter domain.DashboardFilter) (time.Time, time.Time) {
	switch {
	case filter.Month != 0 && filter.Day != 0:
		from := time.Date(filter.Year, time.Month(filter.Month), filter.Day, 0, 0, 0, 0, time.Local)
		return from, from.AddDate(0, 0, 1)
	case filter.Month != 0:
		from := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.Local)
		return from, from.AddDate(0, 1, 0)
	default:
		return yearWindow(filter.Year)
	}
}

// yearWindow cobre de 1º de janeiro a 31 de dezembro do ano resolvido.
func yearWindow(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	return from, from.AddDate(1, 0, 0)
}
