package paymentrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"psiagenda/internal/domain"
	"psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// PaymentRepository persiste pagamentos avulsos no PostgreSQL.
// Os pagamentos atrelados ao ciclo de vida de uma consulta são gravados
// pelo appointmentrepo; aqui ficam as operações diretas sobre a tabela.
type PaymentRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPaymentRepository cria e retorna uma nova instância do Repositório de Pagamentos.
func NewPaymentRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PaymentRepository {
	return &PaymentRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindAll lista os pagamentos com o paciente juntado, em ordem crescente de vencimento.
func (r *PaymentRepository) FindAll(ctx context.Context) ([]domain.Payment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT pay.id, pay.patient_id, pay.appointment_id, pay.amount, pay.status, pay.due_date,
		       pay.created_at, pay.updated_at,
		       p.id, p.name, p.phone, p.address, p.birthdate, p.age, p.contact, p.created_at, p.updated_at
		FROM payments pay
		JOIN patients p ON p.id = pay.patient_id
		ORDER BY pay.due_date ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar pagamentos no DB.", err)
		return nil, errors.NewDBError("falha ao listar pagamentos", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var payment domain.Payment
		var appointmentID sql.NullString
		var patient domain.Patient
		var birthdate sql.NullTime
		var age sql.NullInt64
		if err := rows.Scan(
			&payment.ID,
			&payment.PatientID,
			&appointmentID,
			&payment.Amount,
			&payment.Status,
			&payment.DueDate,
			&payment.CreatedAt,
			&payment.UpdatedAt,
			&patient.ID,
			&patient.Name,
			&patient.Phone,
			&patient.Address,
			&birthdate,
			&age,
			&patient.Contact,
			&patient.CreatedAt,
			&patient.UpdatedAt,
		); err != nil {
			return nil, errors.NewDBError("falha ao mapear pagamento", err)
		}
		payment.AppointmentID = appointmentID.String
		if birthdate.Valid {
			value := birthdate.Time
			patient.Birthdate = &value
		}
		if age.Valid {
			value := int(age.Int64)
			patient.Age = &value
		}
		payment.Patient = &patient
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer pagamentos", err)
	}

	return payments, nil
}

// FindByID busca um pagamento pelo ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (domain.Payment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT id, patient_id, appointment_id, amount, status, due_date, created_at, updated_at
		FROM payments
		WHERE id = $1`

	var payment domain.Payment
	var appointmentID sql.NullString
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&payment.ID,
		&payment.PatientID,
		&appointmentID,
		&payment.Amount,
		&payment.Status,
		&payment.DueDate,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Payment{}, errors.NewNotFoundError(fmt.Sprintf("Pagamento com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pagamento no DB.", err)
		return domain.Payment{}, errors.NewDBError("falha ao buscar pagamento", err)
	}
	payment.AppointmentID = appointmentID.String

	return payment, nil
}

// Save insere um pagamento avulso.
func (r *PaymentRepository) Save(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	payment.ID = uuid.NewString()
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `
		INSERT INTO payments (id, patient_id, appointment_id, amount, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var appointmentID interface{}
	if payment.AppointmentID != "" {
		appointmentID = payment.AppointmentID
	}

	_, err := r.DB.ExecContext(ctxTimeout, query,
		payment.ID,
		payment.PatientID,
		appointmentID,
		payment.Amount,
		payment.Status,
		payment.DueDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pagamento no DB.", err)
		return domain.Payment{}, errors.NewDBError("falha ao inserir pagamento", err)
	}

	r.logger.Info("Pagamento salvo com sucesso.", map[string]interface{}{"payment_id": payment.ID})
	return payment, nil
}

// Update sobrescreve valor, status e vencimento de um pagamento.
func (r *PaymentRepository) Update(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	payment.UpdatedAt = time.Now()

	const query = `
		UPDATE payments
		SET amount = $1, status = $2, due_date = $3, updated_at = $4
		WHERE id = $5
		RETURNING id, patient_id, appointment_id, amount, status, due_date, created_at, updated_at`

	var updated domain.Payment
	var appointmentID sql.NullString
	err := r.DB.QueryRowContext(ctxTimeout, query,
		payment.Amount,
		payment.Status,
		payment.DueDate,
		payment.UpdatedAt,
		payment.ID,
	).Scan(
		&updated.ID,
		&updated.PatientID,
		&appointmentID,
		&updated.Amount,
		&updated.Status,
		&updated.DueDate,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Payment{}, errors.NewNotFoundError(fmt.Sprintf("Pagamento com ID %s não existe na base de dados.", payment.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar pagamento no DB.", err)
		return domain.Payment{}, errors.NewDBError("falha ao atualizar pagamento", err)
	}
	updated.AppointmentID = appointmentID.String

	return updated, nil
}

// Delete remove um pagamento.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir pagamento no DB.", err)
		return errors.NewDBError("falha ao excluir pagamento", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Pagamento com ID %s não existe na base de dados.", id))
	}

	return nil
}
