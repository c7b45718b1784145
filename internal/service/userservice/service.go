package userservice

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
	"psiagenda/internal/pkg/token"
)

// Credencial provisória do psicólogo criado pelo bootstrap; deve ser trocada
// no primeiro login real.
const placeholderPassword = "senha123"

// UserRepository define o contrato de persistência que este Serviço espera.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, userRole string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserService implementa registro, login e o bootstrap do psicólogo padrão.
type UserService struct {
	UserRepo UserRepository
	TokenSvc TokenService
	logger   logger.Logger

	practitionerEmail string
	practitionerName  string
}

// NewService cria uma nova instância do UserService.
// A identidade do psicólogo padrão vem da configuração, não de constante escondida.
func NewService(repo UserRepository, tokenSvc TokenService, practitionerEmail, practitionerName string, logger logger.Logger) *UserService {
	return &UserService{
		UserRepo:          repo,
		TokenSvc:          tokenSvc,
		logger:            logger,
		practitionerEmail: practitionerEmail,
		practitionerName:  practitionerName,
	}
}

// Register registra um novo usuário no sistema.
// Ele faz o hashing da senha e lida com validações básicas.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	if registration.Email == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	newUser := domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
	}

	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		// O repositório já traduz violação de unicidade em ConflictError (409).
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound vira Unauthorized (401) para não dar dicas a invasores.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return tokenString, nil
}

// ResolvePractitioner devolve o psicólogo padrão, criando-o na primeira
// chamada. A checagem find-then-create é só atalho: se duas chamadas
// concorrentes tentarem criar, o índice único de e-mail rejeita a perdedora
// e relemos o registro vencedor — chamadas repetidas convergem para um
// único psicólogo armazenado.
func (s *UserService) ResolvePractitioner(ctx context.Context) (domain.User, error) {
	practitioner, err := s.UserRepo.FindByEmail(ctx, s.practitionerEmail)
	if err == nil {
		return practitioner, nil
	}

	var notFoundErr *apperror.NotFoundError
	if !errors.As(err, &notFoundErr) {
		return domain.User{}, err
	}

	hashedPassword, hashErr := bcrypt.GenerateFromPassword([]byte(placeholderPassword), bcrypt.DefaultCost)
	if hashErr != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha padrão.", hashErr)
	}

	created, err := s.UserRepo.Save(ctx, domain.User{
		Name:         s.practitionerName,
		Email:        s.practitionerEmail,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		var conflictErr *apperror.ConflictError
		if errors.As(err, &conflictErr) {
			s.logger.Warn("Criação concorrente do psicólogo padrão detectada; relendo registro.", map[string]interface{}{"email": s.practitionerEmail})
			return s.UserRepo.FindByEmail(ctx, s.practitionerEmail)
		}
		return domain.User{}, err
	}

	s.logger.Info("Psicólogo padrão criado.", map[string]interface{}{"user_id": created.ID, "email": created.Email})
	return created, nil
}
