package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
	"psiagenda/internal/pkg/whatsapp"
)

// AppointmentService define o contrato que o Handler espera da camada de Serviço.
type AppointmentService interface {
	GetAppointments(ctx context.Context) ([]domain.Appointment, error)
	CreateAppointment(ctx context.Context, req domain.AppointmentRequest) (domain.Appointment, whatsapp.Notification, error)
	UpdateAppointment(ctx context.Context, id string, req domain.AppointmentRequest) (domain.Appointment, whatsapp.Notification, error)
	UpdateDescription(ctx context.Context, id, description string) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler de consultas.
type Handler struct {
	Service AppointmentService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AppointmentService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// CollectionHandler lida com GET (listagem) e POST (agendamento) em /api/appointments.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listAppointments(w, r)
	case http.MethodPost:
		h.createAppointment(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com PUT/DELETE em /api/appointments/{id} e com
// PUT /api/appointments/{id}/description.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
	segments := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(segments) == 1 && segments[0] != "":
		id := segments[0]
		switch r.Method {
		case http.MethodPut:
			h.updateAppointment(w, r, id)
		case http.MethodDelete:
			h.deleteAppointment(w, r, id)
		default:
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		}
	case len(segments) == 2 && segments[1] == "description":
		if r.Method != http.MethodPut {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		h.updateDescription(w, r, segments[0])
	default:
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
	}
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.Service.GetAppointments(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, appointments, nil, http.StatusOK)
}

// createAppointment lida com POST /api/appointments.
// @Summary Agenda uma nova consulta
// @Description Cria a consulta e seu pagamento inicial, e retorna o deep link de WhatsApp para avisar o paciente.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body domain.AppointmentRequest true "Dados do agendamento"
// @Success 201 {object} map[string]interface{} "Consulta agendada e link de notificação"
// @Failure 400 {object} domain.ErrorResponse "Campos ausentes, data inválida ou data no passado"
// @Failure 404 {object} domain.ErrorResponse "Paciente não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /appointments [post]
func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req domain.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, notification, err := h.Service.CreateAppointment(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	response := map[string]interface{}{
		"appointment": created,
		"whatsappURL": notification.URL,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusCreated)
}

func (h *Handler) updateAppointment(w http.ResponseWriter, r *http.Request, id string) {
	var req domain.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, notification, err := h.Service.UpdateAppointment(r.Context(), id, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"updated":     updated,
		"whatsappURL": notification.URL,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}

func (h *Handler) updateDescription(w http.ResponseWriter, r *http.Request, id string) {
	var req domain.DescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdateDescription(r.Context(), id, req.Description)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

func (h *Handler) deleteAppointment(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Service.DeleteAppointment(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, map[string]string{"message": "Agendamento deletado com sucesso!"}, nil, http.StatusOK)
}
