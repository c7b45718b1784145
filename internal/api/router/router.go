package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"psiagenda/internal/api/appointment"
	"psiagenda/internal/api/auth"
	"psiagenda/internal/api/dashboard"
	"psiagenda/internal/api/patient"
	"psiagenda/internal/api/payment"
	"psiagenda/internal/pkg/cache"
	"psiagenda/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	authHandler *auth.Handler,
	patientHandler *patient.Handler,
	appointmentHandler *appointment.Handler,
	paymentHandler *payment.Handler,
	dashboardHandler *dashboard.Handler,
	cacheClient cache.Client,
	rateLimitMax int,
	rateLimitPeriod time.Duration,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas de Autenticação ---
	mux.HandleFunc("/api/auth/register", authHandler.RegisterHandler)
	mux.HandleFunc("/api/auth/login", authHandler.LoginHandler)

	// --- 3. Rotas de Pacientes ---
	// GET (listagem) e POST (criação) na coleção; PUT e DELETE por id.
	mux.HandleFunc("/api/patients", patientHandler.CollectionHandler)
	mux.HandleFunc("/api/patients/", patientHandler.ItemHandler)

	// --- 4. Rotas de Agendamentos ---
	// O ItemHandler também resolve a sub-rota /api/appointments/{id}/description.
	mux.HandleFunc("/api/appointments", appointmentHandler.CollectionHandler)
	mux.HandleFunc("/api/appointments/", appointmentHandler.ItemHandler)

	// --- 5. Rotas de Pagamentos ---
	mux.HandleFunc("/api/payments", paymentHandler.CollectionHandler)
	mux.HandleFunc("/api/payments/", paymentHandler.ItemHandler)

	// --- 6. Dashboard ---
	mux.HandleFunc("/api/dashboard", dashboardHandler.SummaryHandler)

	// --- 7. Middlewares Globais ---
	// O rate limiter por IP envolve todas as rotas.
	rateLimited := middleware.RateLimiter(cacheClient, rateLimitMax, rateLimitPeriod)(mux)

	return rateLimited
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
