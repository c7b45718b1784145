package patientservice

import (
	"context"
	"time"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// PatientRepository define o contrato que o Serviço de Pacientes espera da
// camada de Persistência.
type PatientRepository interface {
	Save(ctx context.Context, patient domain.Patient) (domain.Patient, error)
	FindByID(ctx context.Context, id string) (domain.Patient, error)
	FindAll(ctx context.Context) ([]domain.Patient, error)
	Update(ctx context.Context, patient domain.Patient) (domain.Patient, error)
	Delete(ctx context.Context, id string) error
}

// Service implementa a lógica de negócio de pacientes.
type Service struct {
	repo   PatientRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pacientes.
func NewService(repo PatientRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CalculateAge deriva a idade (em anos completos) a partir da data de
// nascimento e da data de referência. Retorna nil quando não há nascimento.
// Função pura: considera apenas os componentes de calendário, nunca a hora.
func CalculateAge(birthdate *time.Time, today time.Time) *int {
	if birthdate == nil {
		return nil
	}

	age := today.Year() - birthdate.Year()
	if today.Month() < birthdate.Month() ||
		(today.Month() == birthdate.Month() && today.Day() < birthdate.Day()) {
		age--
	}
	return &age
}

// CreatePatient valida o payload, deriva a idade e persiste o paciente.
func (s *Service) CreatePatient(ctx context.Context, req domain.PatientRequest) (domain.Patient, error) {
	s.logger.Debug("Iniciando criação de paciente no serviço.", map[string]interface{}{"name": req.Name})

	patient, err := s.buildPatient(req)
	if err != nil {
		return domain.Patient{}, err
	}

	created, err := s.repo.Save(ctx, patient)
	if err != nil {
		s.logger.Error("Falha ao criar paciente no repositório.", err)
		return domain.Patient{}, err
	}

	s.logger.Info("Paciente criado com sucesso.", map[string]interface{}{"patient_id": created.ID})
	return created, nil
}

// GetPatients lista todos os pacientes.
func (s *Service) GetPatients(ctx context.Context) ([]domain.Patient, error) {
	patients, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar pacientes no repositório.", err)
		return nil, err
	}
	return patients, nil
}

// UpdatePatient sobrescreve o cadastro e recalcula a idade derivada.
func (s *Service) UpdatePatient(ctx context.Context, id string, req domain.PatientRequest) (domain.Patient, error) {
	s.logger.Debug("Iniciando atualização de paciente no serviço.", map[string]interface{}{"patient_id": id})

	patient, err := s.buildPatient(req)
	if err != nil {
		return domain.Patient{}, err
	}
	patient.ID = id

	updated, err := s.repo.Update(ctx, patient)
	if err != nil {
		s.logger.Error("Falha ao atualizar paciente no repositório.", err)
		return domain.Patient{}, err
	}

	s.logger.Info("Paciente atualizado com sucesso.", map[string]interface{}{"patient_id": id})
	return updated, nil
}

// DeletePatient remove um paciente.
func (s *Service) DeletePatient(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao excluir paciente no repositório.", err)
		return err
	}
	s.logger.Info("Paciente excluído com sucesso.", map[string]interface{}{"patient_id": id})
	return nil
}

// buildPatient valida o payload e monta a entidade com a idade derivada.
func (s *Service) buildPatient(req domain.PatientRequest) (domain.Patient, error) {
	if req.Name == "" {
		return domain.Patient{}, apperror.NewValidationError("O nome do paciente é obrigatório.")
	}

	birthdate, err := parseBirthdate(req.Birthdate)
	if err != nil {
		return domain.Patient{}, err
	}

	return domain.Patient{
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		Birthdate: birthdate,
		Age:       CalculateAge(birthdate, time.Now()),
		Contact:   req.Contact,
	}, nil
}

// parseBirthdate interpreta a data de nascimento ("AAAA-MM-DD" ou RFC 3339).
// String vazia significa nascimento não informado.
func parseBirthdate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}
	return nil, apperror.NewValidationError("Formato de data de nascimento inválido.")
}
