package patientrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"psiagenda/internal/domain"
	"psiagenda/internal/errors"
	"psiagenda/internal/pkg/cache"
	"psiagenda/internal/pkg/logger"
)

// PatientRepository persiste pacientes no PostgreSQL, com cache-aside
// (Redis) na busca por ID.
type PatientRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewPatientRepository cria e retorna uma nova instância do Repositório de Pacientes.
func NewPatientRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *PatientRepository {
	return &PatientRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Chave de cache para pacientes.
const patientCacheKey = "patient:%s"

// Save insere um novo paciente no banco de dados.
func (r *PatientRepository) Save(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	patient.ID = uuid.NewString()
	now := time.Now()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	const query = `INSERT INTO patients (id, name, phone, address, birthdate, age, contact, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		patient.ID,
		patient.Name,
		patient.Phone,
		patient.Address,
		nullTime(patient.Birthdate),
		nullInt(patient.Age),
		patient.Contact,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir paciente no DB.", err)
		return domain.Patient{}, errors.NewDBError("falha ao inserir paciente", err)
	}

	r.logger.Info("Paciente salvo com sucesso.", map[string]interface{}{"patient_id": patient.ID})
	return patient, nil
}

// FindByID busca um paciente pelo ID, utilizando a estratégia Cache-Aside.
func (r *PatientRepository) FindByID(ctx context.Context, id string) (domain.Patient, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(patientCacheKey, id)
	var patient domain.Patient

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &patient) == nil {
			return patient, nil
		}
		// Desserialização falhou; segue para o DB.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (conexão perdida): logar e seguir para o DB.
		r.logger.Warn("Falha ao ler paciente do cache.", map[string]interface{}{"patient_id": id, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	const query = `
		SELECT id, name, phone, address, birthdate, age, contact, created_at, updated_at
		FROM patients
		WHERE id = $1`

	row := r.DB.QueryRowContext(ctxTimeout, query, id)

	var birthdate sql.NullTime
	var age sql.NullInt64
	err = row.Scan(
		&patient.ID,
		&patient.Name,
		&patient.Phone,
		&patient.Address,
		&birthdate,
		&age,
		&patient.Contact,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Patient{}, errors.NewNotFoundError(fmt.Sprintf("Paciente com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar paciente no DB.", err)
		return domain.Patient{}, errors.NewDBError("falha ao buscar paciente", err)
	}
	patient.Birthdate = timePtr(birthdate)
	patient.Age = intPtr(age)

	// 3. Popular o cache para futuras requisições.
	if patientJSON, marshalErr := json.Marshal(patient); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, patientJSON, r.CacheTTL)
	}

	return patient, nil
}

// FindAll retorna todos os pacientes ordenados por nome.
func (r *PatientRepository) FindAll(ctx context.Context) ([]domain.Patient, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT id, name, phone, address, birthdate, age, contact, created_at, updated_at
		FROM patients
		ORDER BY name ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar pacientes no DB.", err)
		return nil, errors.NewDBError("falha ao listar pacientes", err)
	}
	defer rows.Close()

	patients := []domain.Patient{}
	for rows.Next() {
		var patient domain.Patient
		var birthdate sql.NullTime
		var age sql.NullInt64
		if err := rows.Scan(
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
			return nil, errors.NewDBError("falha ao mapear paciente", err)
		}
		patient.Birthdate = timePtr(birthdate)
		patient.Age = intPtr(age)
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("falha ao percorrer pacientes", err)
	}

	return patients, nil
}

// Update sobrescreve os dados cadastrais de um paciente e invalida o cache.
func (r *PatientRepository) Update(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	patient.UpdatedAt = time.Now()

	const query = `
		UPDATE patients
		SET name = $1, phone = $2, address = $3, birthdate = $4, age = $5, contact = $6, updated_at = $7
		WHERE id = $8`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		patient.Name,
		patient.Phone,
		patient.Address,
		nullTime(patient.Birthdate),
		nullInt(patient.Age),
		patient.Contact,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar paciente no DB.", err)
		return domain.Patient{}, errors.NewDBError("falha ao atualizar paciente", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Patient{}, errors.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Patient{}, errors.NewNotFoundError(fmt.Sprintf("Paciente com ID %s não existe na base de dados.", patient.ID))
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(patientCacheKey, patient.ID))
	return patient, nil
}

// Delete remove um paciente do banco e do cache.
func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir paciente no DB.", err)
		return errors.NewDBError("falha ao excluir paciente", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Paciente com ID %s não existe na base de dados.", id))
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(patientCacheKey, id))
	return nil
}

// Conversões entre tipos anuláveis do database/sql e os ponteiros do domínio.

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}

func intPtr(i sql.NullInt64) *int {
	if !i.Valid {
		return nil
	}
	value := int(i.Int64)
	return &value
}
