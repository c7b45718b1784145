package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"psiagenda/config"
	"psiagenda/internal/pkg/cache"
	"psiagenda/internal/pkg/database"
	"psiagenda/internal/pkg/logger"
	"psiagenda/internal/pkg/token"

	// Camadas do consultório para Injeção de Dependências
	"psiagenda/internal/api/appointment"
	"psiagenda/internal/api/auth"
	"psiagenda/internal/api/dashboard"
	"psiagenda/internal/api/patient"
	"psiagenda/internal/api/payment"
	"psiagenda/internal/api/router"
	"psiagenda/internal/repository/appointmentrepo"
	"psiagenda/internal/repository/dashboardrepo"
	"psiagenda/internal/repository/patientrepo"
	"psiagenda/internal/repository/paymentrepo"
	"psiagenda/internal/repository/userrepo"
	"psiagenda/internal/service/appointmentservice"
	"psiagenda/internal/service/dashboardservice"
	"psiagenda/internal/service/patientservice"
	"psiagenda/internal/service/paymentservice"
	"psiagenda/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	stdlog.Println("⚡ Inicializando serviço PsiAgenda...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos, mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	patientRepo := patientrepo.NewPatientRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	appointmentRepo := appointmentrepo.NewAppointmentRepository(db, cfg.DBTimeout, log)
	paymentRepo := paymentrepo.NewPaymentRepository(db, cfg.DBTimeout, log)
	dashboardRepo := dashboardrepo.NewDashboardRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	userSvc := userservice.NewService(userRepo, tokenSvc, cfg.PractitionerEmail, cfg.PractitionerName, log)
	patientSvc := patientservice.NewService(patientRepo, log)
	appointmentSvc := appointmentservice.NewService(appointmentRepo, patientRepo, userSvc, cfg.ValidatePastDateOnUpdate, log)
	paymentSvc := paymentservice.NewService(paymentRepo, patientRepo, appointmentRepo, log)
	dashboardSvc := dashboardservice.NewService(dashboardRepo, cacheClient, cfg.CacheTTL, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	authHandler := auth.NewHandler(userSvc, log)
	patientHandler := patient.NewHandler(patientSvc, log)
	appointmentHandler := appointment.NewHandler(appointmentSvc, log)
	paymentHandler := payment.NewHandler(paymentSvc, log)
	dashboardHandler := dashboard.NewHandler(dashboardSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// D. Garantir o psicólogo padrão antes de aceitar requisições.
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
	practitioner, err := userSvc.ResolvePractitioner(bootstrapCtx)
	bootstrapCancel()
	if err != nil {
		log.Fatal("Falha ao resolver o psicólogo padrão.", err)
	}
	log.Info("Psicólogo padrão disponível.", map[string]interface{}{"user_id": practitioner.ID})

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(
		authHandler,
		patientHandler,
		appointmentHandler,
		paymentHandler,
		dashboardHandler,
		cacheClient,
		cfg.RateLimitMaxRequests,
		cfg.RateLimitPeriod,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor PsiAgenda ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
