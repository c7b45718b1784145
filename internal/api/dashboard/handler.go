package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
)

// DashboardService define o contrato que o Handler espera da camada de Serviço.
type DashboardService interface {
	Summary(ctx context.Context, day, month, year string) (domain.DashboardView, error)
}

// Handler agrupa os métodos de Handler do dashboard.
type Handler struct {
	Service DashboardService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc DashboardService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// SummaryHandler lida com GET /api/dashboard.
// Aceita os filtros opcionais de query string: dia, mes e ano ("todos" desativa o filtro).
// @Summary      Resumo do consultório
// @Description  Retorna contagens, faturamento e listas recentes, com filtros opcionais de período
// @Tags         dashboard
// @Produce      json
// @Param        dia  query  string  false  "Dia do mês (1-31) ou 'todos'"
// @Param        mes  query  string  false  "Mês (1-12) ou 'todos'"
// @Param        ano  query  string  false  "Ano (ex.: 2025) ou 'todos'"
// @Success      200  {object}  domain.DashboardView
// @Failure      400  {object}  domain.ErrorResponse
// @Failure      500  {object}  domain.ErrorResponse
// @Router       /api/dashboard [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	view, err := h.Service.Summary(r.Context(), query.Get("dia"), query.Get("mes"), query.Get("ano"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, view, nil, http.StatusOK)
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
