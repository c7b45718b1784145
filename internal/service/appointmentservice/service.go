package appointmentservice

import (
	"context"
	"time"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
	"psiagenda/internal/pkg/whatsapp"
)

// AppointmentRepository define o contrato que o Serviço de Consultas espera
// da camada de Persistência. As operações multi-registro são transacionais.
type AppointmentRepository interface {
	FindByID(ctx context.Context, id string) (domain.Appointment, error)
	FindAllByPsychologist(ctx context.Context, psychologistID string) ([]domain.Appointment, error)
	CreateWithPayment(ctx context.Context, appointment domain.Appointment, payment domain.Payment) (domain.Appointment, domain.Payment, error)
	UpdateWithPayments(ctx context.Context, appointment domain.Appointment, amount float64) (domain.Appointment, error)
	UpdateDescription(ctx context.Context, id, description string) (domain.Appointment, error)
	DeleteWithPayments(ctx context.Context, id string) error
}

// PatientRepository é o recorte de persistência de pacientes usado aqui.
type PatientRepository interface {
	FindByID(ctx context.Context, id string) (domain.Patient, error)
}

// PractitionerResolver resolve (criando se preciso) o psicólogo padrão.
type PractitionerResolver interface {
	ResolvePractitioner(ctx context.Context) (domain.User, error)
}

// Service é o coordenador de consultas e pagamentos: toda criação, remarcação
// e exclusão de consulta mantém os pagamentos associados consistentes.
type Service struct {
	repo         AppointmentRepository
	patients     PatientRepository
	practitioner PractitionerResolver
	logger       logger.Logger

	// Política configurável: revalidar "data no passado" na remarcação.
	validatePastDateOnUpdate bool
}

// NewService cria e retorna uma nova instância do Serviço de Consultas.
func NewService(repo AppointmentRepository, patients PatientRepository, practitioner PractitionerResolver, validatePastDateOnUpdate bool, logger logger.Logger) *Service {
	return &Service{
		repo:                     repo,
		patients:                 patients,
		practitioner:             practitioner,
		validatePastDateOnUpdate: validatePastDateOnUpdate,
		logger:                   logger,
	}
}

// GetAppointments lista as consultas do psicólogo padrão em ordem crescente
// de data, com paciente e pagamentos juntados.
func (s *Service) GetAppointments(ctx context.Context) ([]domain.Appointment, error) {
	practitioner, err := s.practitioner.ResolvePractitioner(ctx)
	if err != nil {
		s.logger.Error("Falha ao resolver psicólogo padrão.", err)
		return nil, err
	}

	appointments, err := s.repo.FindAllByPsychologist(ctx, practitioner.ID)
	if err != nil {
		s.logger.Error("Falha ao listar consultas no repositório.", err)
		return nil, err
	}
	return appointments, nil
}

// CreateAppointment valida o payload, resolve paciente e psicólogo, e cria a
// consulta junto com seu pagamento inicial (status "A Pagar", vencimento na
// data da consulta) em uma única operação lógica. Retorna também a
// notificação de WhatsApp pronta para o cliente abrir.
func (s *Service) CreateAppointment(ctx context.Context, req domain.AppointmentRequest) (domain.Appointment, whatsapp.Notification, error) {
	s.logger.Debug("Iniciando agendamento de consulta no serviço.", map[string]interface{}{"patient_id": req.PatientID})

	date, amount, err := validateRequest(req)
	if err != nil {
		return domain.Appointment{}, whatsapp.Notification{}, err
	}
	if date.Before(time.Now()) {
		return domain.Appointment{}, whatsapp.Notification{}, apperror.NewValidationError("Data não pode ser no passado.")
	}

	patient, err := s.patients.FindByID(ctx, req.PatientID)
	if err != nil {
		return domain.Appointment{}, whatsapp.Notification{}, err
	}

	practitioner, err := s.practitioner.ResolvePractitioner(ctx)
	if err != nil {
		s.logger.Error("Falha ao resolver psicólogo padrão.", err)
		return domain.Appointment{}, whatsapp.Notification{}, err
	}

	appointment := domain.Appointment{
		PatientID:      patient.ID,
		PsychologistID: practitioner.ID,
		Date:           date,
		Status:         domain.AppointmentScheduled,
		Type:           req.Type,
		Link:           req.Link,
	}
	payment := domain.Payment{
		Amount:  amount,
		Status:  domain.PaymentToPay,
		DueDate: date,
	}

	created, _, err := s.repo.CreateWithPayment(ctx, appointment, payment)
	if err != nil {
		s.logger.Error("Falha ao criar consulta com pagamento no repositório.", err)
		return domain.Appointment{}, whatsapp.Notification{}, err
	}

	notification := whatsapp.Scheduled(patient.Name, patient.Phone, date, amount, req.Type, req.Link)

	s.logger.Info("Consulta agendada com sucesso.", map[string]interface{}{
		"appointment_id": created.ID,
		"patient_id":     patient.ID,
	})
	return created, notification, nil
}

// UpdateAppointment remarca uma consulta: sobrescreve paciente, data, tipo e
// link, e alinha valor e vencimento de TODOS os pagamentos que a referenciam.
func (s *Service) UpdateAppointment(ctx context.Context, id string, req domain.AppointmentRequest) (domain.Appointment, whatsapp.Notification, error) {
	s.logger.Debug("Iniciando remarcação de consulta no serviço.", map[string]interface{}{"appointment_id": id})

	date, amount, err := validateRequest(req)
	if err != nil {
		return domain.Appointment{}, whatsapp.Notification{}, err
	}
	if s.validatePastDateOnUpdate && date.Before(time.Now()) {
		return domain.Appointment{}, whatsapp.Notification{}, apperror.NewValidationError("Data não pode ser no passado.")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, whatsapp.Notification{}, err
	}

	patient, err := s.patients.FindByID(ctx, req.PatientID)
	if err != nil {
		return domain.Appointment{}, whatsapp.Notification{}, err
	}

	existing.PatientID = patient.ID
	existing.Date = date
	existing.Type = req.Type
	existing.Link = req.Link

	updated, err := s.repo.UpdateWithPayments(ctx, existing, amount)
	if err != nil {
		s.logger.Error("Falha ao remarcar consulta no repositório.", err)
		return domain.Appointment{}, whatsapp.Notification{}, err
	}

	notification := whatsapp.Rescheduled(patient.Name, patient.Phone, date, amount, req.Type, req.Link)

	s.logger.Info("Consulta remarcada com sucesso.", map[string]interface{}{"appointment_id": id})
	return updated, notification, nil
}

// UpdateDescription atualiza apenas a descrição da consulta.
func (s *Service) UpdateDescription(ctx context.Context, id, description string) (domain.Appointment, error) {
	updated, err := s.repo.UpdateDescription(ctx, id, description)
	if err != nil {
		s.logger.Error("Falha ao atualizar descrição da consulta no repositório.", err)
		return domain.Appointment{}, err
	}
	return updated, nil
}

// DeleteAppointment exclui a consulta e todos os seus pagamentos.
func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	if err := s.repo.DeleteWithPayments(ctx, id); err != nil {
		s.logger.Error("Falha ao excluir consulta no repositório.", err)
		return err
	}
	s.logger.Info("Consulta excluída com sucesso.", map[string]interface{}{"appointment_id": id})
	return nil
}

// validateRequest valida o payload de agendamento antes de qualquer acesso
// ao banco: campos obrigatórios, data interpretável e valor não negativo.
// Amount chega como json.Number, então número e string JSON são aceitos.
func validateRequest(req domain.AppointmentRequest) (time.Time, float64, error) {
	if req.PatientID == "" || req.Date == "" || req.Amount == "" {
		return time.Time{}, 0, apperror.NewValidationError("Os campos patientId, date e amount são obrigatórios.")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return time.Time{}, 0, err
	}

	amount, err := req.Amount.Float64()
	if err != nil || amount < 0 {
		return time.Time{}, 0, apperror.NewValidationError("O valor da consulta deve ser um decimal não negativo.")
	}

	return date, amount, nil
}

// parseDate interpreta a data/hora da consulta nos formatos aceitos pela API.
func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, apperror.NewValidationError("Formato de data inválido.")
}
