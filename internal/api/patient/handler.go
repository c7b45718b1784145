package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// PatientService define o contrato que o Handler espera da camada de Serviço.
type PatientService interface {
	CreatePatient(ctx context.Context, req domain.PatientRequest) (domain.Patient, error)
	GetPatients(ctx context.Context) ([]domain.Patient, error)
	UpdatePatient(ctx context.Context, id string, req domain.PatientRequest) (domain.Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler de pacientes.
type Handler struct {
	Service PatientService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc PatientService, log logger.Logger) *Handler {
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

// CollectionHandler lida com GET (listagem) e POST (criação) em /api/patients.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPatients(w, r)
	case http.MethodPost:
		h.createPatient(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com PUT (atualização) e DELETE em /api/patients/{id}.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/patients/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updatePatient(w, r, id)
	case http.MethodDelete:
		h.deletePatient(w, r, id)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.Service.GetPatients(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, patients, nil, http.StatusOK)
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var req domain.PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreatePatient(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, created, nil, http.StatusCreated)
}

func (h *Handler) updatePatient(w http.ResponseWriter, r *http.Request, id string) {
	var req domain.PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdatePatient(r.Context(), id, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

func (h *Handler) deletePatient(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Service.DeletePatient(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, map[string]string{"message": "Paciente removido com sucesso."}, nil, http.StatusOK)
}
