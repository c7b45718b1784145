package paymentservice

import (
	"context"
	"encoding/json"
	"time"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// PaymentRepository define o contrato que o Serviço de Pagamentos espera da
// camada de Persistência.
type PaymentRepository interface {
	FindAll(ctx context.Context) ([]domain.Payment, error)
	FindByID(ctx context.Context, id string) (domain.Payment, error)
	Save(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	Update(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	Delete(ctx context.Context, id string) error
}

// PatientRepository é o recorte de persistência de pacientes usado aqui.
type PatientRepository interface {
	FindByID(ctx context.Context, id string) (domain.Patient, error)
}

// AppointmentRepository é o recorte de persistência de consultas usado aqui.
type AppointmentRepository interface {
	FindByID(ctx context.Context, id string) (domain.Appointment, error)
}

// Service implementa as operações diretas sobre pagamentos (fora do ciclo
// de vida da consulta, que é responsabilidade do appointmentservice).
type Service struct {
	repo         PaymentRepository
	patients     PatientRepository
	appointments AppointmentRepository
	logger       logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pagamentos.
func NewService(repo PaymentRepository, patients PatientRepository, appointments AppointmentRepository, logger logger.Logger) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		appointments: appointments,
		logger:       logger,
	}
}

// GetPayments lista os pagamentos com paciente juntado, vencimento crescente.
func (s *Service) GetPayments(ctx context.Context) ([]domain.Payment, error) {
	payments, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar pagamentos no repositório.", err)
		return nil, err
	}
	return payments, nil
}

// CreatePayment cria um pagamento avulso, conferindo antes que o paciente
// (e a consulta, se informada) existem.
func (s *Service) CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.Payment, error) {
	s.logger.Debug("Iniciando criação de pagamento no serviço.", map[string]interface{}{"patient_id": req.PatientID})

	if req.PatientID == "" || req.Amount == "" || req.DueDate == "" {
		return domain.Payment{}, apperror.NewValidationError("Os campos patientId, amount e dueDate são obrigatórios.")
	}

	amount, dueDate, err := parseAmountAndDueDate(req.Amount, req.DueDate)
	if err != nil {
		return domain.Payment{}, err
	}

	if _, err := s.patients.FindByID(ctx, req.PatientID); err != nil {
		return domain.Payment{}, err
	}
	if req.AppointmentID != "" {
		if _, err := s.appointments.FindByID(ctx, req.AppointmentID); err != nil {
			return domain.Payment{}, err
		}
	}

	status := req.Status
	if status == "" {
		status = domain.PaymentToPay
	}

	payment := domain.Payment{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Amount:        amount,
		Status:        status,
		DueDate:       dueDate,
	}

	created, err := s.repo.Save(ctx, payment)
	if err != nil {
		s.logger.Error("Falha ao criar pagamento no repositório.", err)
		return domain.Payment{}, err
	}

	s.logger.Info("Pagamento criado com sucesso.", map[string]interface{}{"payment_id": created.ID})
	return created, nil
}

// UpdatePayment sobrescreve valor, status e vencimento de um pagamento.
func (s *Service) UpdatePayment(ctx context.Context, id string, req domain.PaymentRequest) (domain.Payment, error) {
	if req.Amount == "" || req.DueDate == "" {
		return domain.Payment{}, apperror.NewValidationError("Os campos amount e dueDate são obrigatórios.")
	}

	amount, dueDate, err := parseAmountAndDueDate(req.Amount, req.DueDate)
	if err != nil {
		return domain.Payment{}, err
	}

	updated, err := s.repo.Update(ctx, domain.Payment{
		ID:      id,
		Amount:  amount,
		Status:  req.Status,
		DueDate: dueDate,
	})
	if err != nil {
		s.logger.Error("Falha ao atualizar pagamento no repositório.", err)
		return domain.Payment{}, err
	}

	s.logger.Info("Pagamento atualizado com sucesso.", map[string]interface{}{"payment_id": id})
	return updated, nil
}

// DeletePayment remove um pagamento.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao excluir pagamento no repositório.", err)
		return err
	}
	s.logger.Info("Pagamento excluído com sucesso.", map[string]interface{}{"payment_id": id})
	return nil
}

// parseAmountAndDueDate valida e converte valor e vencimento do payload.
// Amount chega como json.Number, então número e string JSON são aceitos.
func parseAmountAndDueDate(amountNumber json.Number, dueDateStr string) (float64, time.Time, error) {
	amount, err := amountNumber.Float64()
	if err != nil || amount < 0 {
		return 0, time.Time{}, apperror.NewValidationError("O valor do pagamento deve ser um decimal não negativo.")
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if dueDate, parseErr := time.ParseInLocation(layout, dueDateStr, time.Local); parseErr == nil {
			return amount, dueDate, nil
		}
	}
	return 0, time.Time{}, apperror.NewValidationError("Formato de data de vencimento inválido.")
}
