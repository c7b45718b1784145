package payment

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

// PaymentService define o contrato que o Handler espera da camada de Serviço.
type PaymentService interface {
	GetPayments(ctx context.Context) ([]domain.Payment, error)
	CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.Payment, error)
	UpdatePayment(ctx context.Context, id string, req domain.PaymentRequest) (domain.Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler de pagamentos.
type Handler struct {
	Service PaymentService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc PaymentService, log logger.Logger) *Handler {
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

// CollectionHandler lida com GET (listagem) e POST (criação) em /api/payments.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPayments(w, r)
	case http.MethodPost:
		h.createPayment(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com PUT (atualização) e DELETE em /api/payments/{id}.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/payments/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updatePayment(w, r, id)
	case http.MethodDelete:
		h.deletePayment(w, r, id)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.GetPayments(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, payments, nil, http.StatusOK)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreatePayment(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, created, nil, http.StatusCreated)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request, id string) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdatePayment(r.Context(), id, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Service.DeletePayment(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, map[string]string{"message": "Pagamento removido"}, nil, http.StatusOK)
}
