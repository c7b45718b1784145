package dashboardrepo

import (
	"context"
	"database/sql"
	"time"

	"psiagenda/internal/domain"
	"psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// DashboardRepository executa as consultas agregadas (count, sum, group-by)
// que alimentam o painel. Todas são somente leitura.
type DashboardRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewDashboardRepository cria e retorna uma nova instância do Repositório do Dashboard.
func NewDashboardRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *DashboardRepository {
	return &DashboardRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CountPatients retorna o total de pacientes cadastrados.
func (r *DashboardRepository) CountPatients(ctx context.Context) (int, error) {
	return r.countQuery(ctx, `SELECT COUNT(*) FROM patients`)
}

// CountAppointments retorna o total de consultas.
func (r *DashboardRepository) CountAppointments(ctx context.Context) (int, error) {
	return r.countQuery(ctx, `SELECT COUNT(*) FROM appointments`)
}

// CountAppointmentsByStatus retorna o total de consultas com o status informado.
func (r *DashboardRepository) CountAppointmentsByStatus(ctx context.Context, status string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var count int
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM appointments WHERE status = $1`, status).Scan(&count)
	if err != nil {
		r.logger.Error("Falha ao contar consultas por status no DB.", err)
		return 0, errors.NewDBError("falha ao contar consultas por status", err)
	}
	return count, nil
}

// SumPaymentsBetween soma os valores de pagamento com vencimento dentro da
// janela [from, to). Conjunto vazio soma zero, nunca null — daí o COALESCE.
func (r *DashboardRepository) SumPaymentsBetween(ctx context.Context, from, to time.Time) (float64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total float64
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE due_date >= $1 AND due_date < $2`,
		from, to,
	).Scan(&total)
	if err != nil {
		r.logger.Error("Falha ao somar pagamentos por período no DB.", err)
		return 0, errors.NewDBError("falha ao somar pagamentos por período", err)
	}
	return total, nil
}

// SumPaymentsTotal soma todos os pagamentos, sem janela.
func (r *DashboardRepository) SumPaymentsTotal(ctx context.Context) (float64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total float64
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT COALESCE(SUM(amount), 0) FROM payments`).Scan(&total)
	if err != nil {
		r.logger.Error("Falha ao somar pagamentos no DB.", err)
		return 0, errors.NewDBError("falha ao somar pagamentos", err)
	}
	return total, nil
}

// CountAppointmentsByPsychologist agrupa o total de consultas por psicólogo.
func (r *DashboardRepository) CountAppointmentsByPsychologist(ctx context.Context) ([]domain.PsychologistCount, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT psychologist_id, COUNT(*)
		FROM appointments
		GROUP BY psychologist_id`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao agrupar consultas por psicólogo no DB.", err)
		return nil, errors.NewDBError("falha ao agrupar consultas por psicólogo", err)
	}
	defer rows.Close()

	counts := []domain.PsychologistCount{}
	for rows.Next() {
		var count domain.PsychologistCount
		if err := rows.Scan(&count.PsychologistID, &count.Total); err != nil {
			return nil, errors.NewDBError("falha ao mapear agrupamento", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer agrupamento", err)
	}

	return counts, nil
}

// RecentAppointments retorna as consultas mais recentes (data decrescente),
// com os nomes de paciente e psicólogo juntados.
func (r *DashboardRepository) RecentAppointments(ctx context.Context, limit int) ([]domain.AppointmentSummary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT a.id, a.date, a.status, p.name, u.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN users u ON u.id = a.psychologist_id
		ORDER BY a.date DESC
		LIMIT $1`

	rows, err := r.DB.QueryContext(ctxTimeout, query, limit)
	if err != nil {
		r.logger.Error("Falha ao buscar últimos agendamentos no DB.", err)
		return nil, errors.NewDBError("falha ao buscar últimos agendamentos", err)
	}
	defer rows.Close()

	summaries := []domain.AppointmentSummary{}
	for rows.Next() {
		var summary domain.AppointmentSummary
		if err := rows.Scan(&summary.ID, &summary.Date, &summary.Status, &summary.PatientName, &summary.PsychologistName); err != nil {
			return nil, errors.NewDBError("falha ao mapear agendamento", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer agendamentos", err)
	}

	return summaries, nil
}

// PendingPayments retorna os pagamentos com o status informado em ordem
// crescente de vencimento, com o nome do paciente juntado.
func (r *DashboardRepository) PendingPayments(ctx context.Context, status string, limit int) ([]domain.PendingPayment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT pay.id, p.name, pay.amount, pay.due_date
		FROM payments pay
		JOIN patients p ON p.id = pay.patient_id
		WHERE pay.status = $1
		ORDER BY pay.due_date ASC
		LIMIT $2`

	rows, err := r.DB.QueryContext(ctxTimeout, query, status, limit)
	if err != nil {
		r.logger.Error("Falha ao buscar pagamentos pendentes no DB.", err)
		return nil, errors.NewDBError("falha ao buscar pagamentos pendentes", err)
	}
	defer rows.Close()

	pending := []domain.PendingPayment{}
	for rows.Next() {
		var payment domain.PendingPayment
		var dueDate time.Time
		if err := rows.Scan(&payment.ID, &payment.PatientName, &payment.Amount, &dueDate); err != nil {
			return nil, errors.NewDBError("falha ao mapear pagamento pendente", err)
		}
		payment.DueDate = dueDate.Format("02/01/2006")
		pending = append(pending, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer pagamentos pendentes", err)
	}

	return pending, nil
}

// countQuery executa uma contagem simples sem parâmetros.
func (r *DashboardRepository) countQuery(ctx context.Context, query string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var count int
	if err := r.DB.QueryRowContext(ctxTimeout, query).Scan(&count); err != nil {
		r.logger.Error("Falha ao executar contagem no DB.", err)
		return 0, errors.NewDBError("falha ao executar contagem", err)
	}
	return count, nil
}
