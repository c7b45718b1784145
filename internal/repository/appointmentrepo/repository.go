package appointmentrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"psiagenda/internal/domain"
	"psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// AppointmentRepository persiste consultas e seus pagamentos no PostgreSQL.
// Toda escrita que toca mais de um registro (consulta + pagamentos) roda
// dentro de uma única transação: ou tudo persiste, ou nada.
type AppointmentRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAppointmentRepository cria e retorna uma nova instância do Repositório de Consultas.
func NewAppointmentRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *AppointmentRepository {
	return &AppointmentRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByID busca uma consulta pelo ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (domain.Appointment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT id, patient_id, psychologist_id, date, status, type, link, description, created_at, updated_at
		FROM appointments
		WHERE id = $1`

	var appointment domain.Appointment
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.PsychologistID,
		&appointment.Date,
		&appointment.Status,
		&appointment.Type,
		&appointment.Link,
		&appointment.Description,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Appointment{}, errors.NewNotFoundError(fmt.Sprintf("Consulta com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar consulta no DB.", err)
		return domain.Appointment{}, errors.NewDBError("falha ao buscar consulta", err)
	}

	return appointment, nil
}

// FindAllByPsychologist lista as consultas do psicólogo em ordem crescente de
// data, com paciente e pagamentos juntados.
func (r *AppointmentRepository) FindAllByPsychologist(ctx context.Context, psychologistID string) ([]domain.Appointment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT a.id, a.patient_id, a.psychologist_id, a.date, a.status, a.type, a.link, a.description,
		       a.created_at, a.updated_at,
		       p.id, p.name, p.phone, p.address, p.birthdate, p.age, p.contact, p.created_at, p.updated_at
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.psychologist_id = $1
		ORDER BY a.date ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, psychologistID)
	if err != nil {
		r.logger.Error("Falha ao listar consultas no DB.", err)
		return nil, errors.NewDBError("falha ao listar consultas", err)
	}
	defer rows.Close()

	appointments := []domain.Appointment{}
	ids := []string{}
	for rows.Next() {
		var appointment domain.Appointment
		var patient domain.Patient
		var birthdate sql.NullTime
		var age sql.NullInt64
		if err := rows.Scan(
			&appointment.ID,
			&appointment.PatientID,
			&appointment.PsychologistID,
			&appointment.Date,
			&appointment.Status,
			&appointment.Type,
			&appointment.Link,
			&appointment.Description,
			&appointment.CreatedAt,
			&appointment.UpdatedAt,
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
			return nil, errors.NewDBError("falha ao mapear consulta", err)
		}
		if birthdate.Valid {
			value := birthdate.Time
			patient.Birthdate = &value
		}
		if age.Valid {
			value := int(age.Int64)
			patient.Age = &value
		}
		appointment.Patient = &patient
		appointments = append(appointments, appointment)
		ids = append(ids, appointment.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer consultas", err)
	}
	if len(appointments) == 0 {
		return appointments, nil
	}

	// Junta os pagamentos de todas as consultas em uma única query.
	payments, err := r.findPaymentsByAppointmentIDs(ctxTimeout, ids)
	if err != nil {
		return nil, err
	}
	for i := range appointments {
		appointments[i].Payments = payments[appointments[i].ID]
	}

	return appointments, nil
}

// findPaymentsByAppointmentIDs agrupa os pagamentos por ID de consulta.
func (r *AppointmentRepository) findPaymentsByAppointmentIDs(ctx context.Context, ids []string) (map[string][]domain.Payment, error) {
	const query = `
		SELECT id, patient_id, appointment_id, amount, status, due_date, created_at, updated_at
		FROM payments
		WHERE appointment_id = ANY($1)`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.logger.Error("Falha ao buscar pagamentos das consultas no DB.", err)
		return nil, errors.NewDBError("falha ao buscar pagamentos das consultas", err)
	}
	defer rows.Close()

	grouped := map[string][]domain.Payment{}
	for rows.Next() {
		var payment domain.Payment
		var appointmentID sql.NullString
		if err := rows.Scan(
			&payment.ID,
			&payment.PatientID,
			&appointmentID,
			&payment.Amount,
			&payment.Status,
			&payment.DueDate,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		); err != nil {
			return nil, errors.NewDBError("falha ao mapear pagamento", err)
		}
		payment.AppointmentID = appointmentID.String
		grouped[payment.AppointmentID] = append(grouped[payment.AppointmentID], payment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer pagamentos", err)
	}

	return grouped, nil
}

// CreateWithPayment persiste uma nova consulta e seu pagamento inicial em
// uma única transação.
func (r *AppointmentRepository) CreateWithPayment(ctx context.Context, appointment domain.Appointment, payment domain.Payment) (domain.Appointment, domain.Payment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Appointment{}, domain.Payment{}, errors.NewDBError("falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	appointment.ID = uuid.NewString()
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	const appointmentSQL = `
		INSERT INTO appointments (id, patient_id, psychologist_id, date, status, type, link, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.ExecContext(ctxTimeout, appointmentSQL,
		appointment.ID,
		appointment.PatientID,
		appointment.PsychologistID,
		appointment.Date,
		appointment.Status,
		appointment.Type,
		appointment.Link,
		appointment.Description,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir consulta no DB.", err)
		return domain.Appointment{}, domain.Payment{}, errors.NewDBError("falha ao inserir consulta", err)
	}

	payment.ID = uuid.NewString()
	payment.AppointmentID = appointment.ID
	payment.PatientID = appointment.PatientID
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const paymentSQL = `
		INSERT INTO payments (id, patient_id, appointment_id, amount, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.ExecContext(ctxTimeout, paymentSQL,
		payment.ID,
		payment.PatientID,
		payment.AppointmentID,
		payment.Amount,
		payment.Status,
		payment.DueDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pagamento da consulta no DB.", err)
		return domain.Appointment{}, domain.Payment{}, errors.NewDBError("falha ao inserir pagamento da consulta", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Appointment{}, domain.Payment{}, errors.NewDBError("falha ao commitar transação", err)
	}

	r.logger.Info("Consulta e pagamento criados com sucesso.", map[string]interface{}{
		"appointment_id": appointment.ID,
		"payment_id":     payment.ID,
	})
	return appointment, payment, nil
}

// UpdateWithPayments remarca uma consulta e alinha TODOS os pagamentos que a
// referenciam (valor e vencimento) na mesma transação.
func (r *AppointmentRepository) UpdateWithPayments(ctx context.Context, appointment domain.Appointment, amount float64) (domain.Appointment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Appointment{}, errors.NewDBError("falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	appointment.UpdatedAt = time.Now()

	const appointmentSQL = `
		UPDATE appointments
		SET patient_id = $1, date = $2, type = $3, link = $4, updated_at = $5
		WHERE id = $6`

	result, err := tx.ExecContext(ctxTimeout, appointmentSQL,
		appointment.PatientID,
		appointment.Date,
		appointment.Type,
		appointment.Link,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar consulta no DB.", err)
		return domain.Appointment{}, errors.NewDBError("falha ao atualizar consulta", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Appointment{}, errors.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Appointment{}, errors.NewNotFoundError(fmt.Sprintf("Consulta com ID %s não existe na base de dados.", appointment.ID))
	}

	// Atualização em lote: todos os pagamentos da consulta, não uma única linha.
	const paymentSQL = `
		UPDATE payments
		SET amount = $1, due_date = $2, updated_at = $3
		WHERE appointment_id = $4`

	if _, err := tx.ExecContext(ctxTimeout, paymentSQL, amount, appointment.Date, appointment.UpdatedAt, appointment.ID); err != nil {
		r.logger.Error("Falha ao atualizar pagamentos da consulta no DB.", err)
		return domain.Appointment{}, errors.NewDBError("falha ao atualizar pagamentos da consulta", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Appointment{}, errors.NewDBError("falha ao commitar transação", err)
	}

	r.logger.Info("Consulta remarcada e pagamentos alinhados.", map[string]interface{}{"appointment_id": appointment.ID})
	return appointment, nil
}

// UpdateDescription atualiza apenas a descrição da consulta, sem efeitos
// sobre pagamentos.
func (r *AppointmentRepository) UpdateDescription(ctx context.Context, id, description string) (domain.Appointment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		UPDATE appointments
		SET description = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, patient_id, psychologist_id, date, status, type, link, description, created_at, updated_at`

	var appointment domain.Appointment
	err := r.DB.QueryRowContext(ctxTimeout, query, description, time.Now(), id).Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.PsychologistID,
		&appointment.Date,
		&appointment.Status,
		&appointment.Type,
		&appointment.Link,
		&appointment.Description,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Appointment{}, errors.NewNotFoundError(fmt.Sprintf("Consulta com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar descrição da consulta no DB.", err)
		return domain.Appointment{}, errors.NewDBError("falha ao atualizar descrição da consulta", err)
	}

	return appointment, nil
}

// DeleteWithPayments remove os pagamentos da consulta e depois a própria
// consulta, na mesma transação. A ordem importa: pagamentos primeiro, para
// não deixar referência pendurada.
func (r *AppointmentRepository) DeleteWithPayments(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM payments WHERE appointment_id = $1`, id); err != nil {
		r.logger.Error("Falha ao excluir pagamentos da consulta no DB.", err)
		return errors.NewDBError("falha ao excluir pagamentos da consulta", err)
	}

	result, err := tx.ExecContext(ctxTimeout, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir consulta no DB.", err)
		return errors.NewDBError("falha ao excluir consulta", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Consulta com ID %s não existe na base de dados.", id))
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDBError("falha ao commitar transação", err)
	}

	r.logger.Info("Consulta e pagamentos excluídos com sucesso.", map[string]interface{}{"appointment_id": id})
	return nil
}
