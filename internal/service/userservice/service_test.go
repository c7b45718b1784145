package userservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"psiagenda/internal/domain"
	apperror "psiagenda/internal/errors"
	"psiagenda/internal/pkg/logger"
	"psiagenda/internal/pkg/token"
	"psiagenda/internal/service/userservice"
)

const (
	practitionerEmail = "psicologo@email.com"
	practitionerName  = "Psicólogo Padrão"
)

// MockUserRepository é uma implementação mock da interface UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockTokenService é o mock da camada de tokens JWT.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string, userRole string) (string, error) {
	args := m.Called(userID, userRole)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	return args.Get(0).(*token.CustomClaims), args.Error(1)
}

func newTestService(mockRepo *MockUserRepository, mockToken *MockTokenService) *userservice.UserService {
	return userservice.NewService(mockRepo, mockToken, practitionerEmail, practitionerName, logger.NewLogger("debug"))
}

// TestRegister_Success testa o registro com hash de senha e papel padrão.
func TestRegister_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := newTestService(mockRepo, mockToken)

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		// A senha nunca pode ser persistida em claro.
		return u.Email == "maria@email.com" &&
			u.Role == domain.RoleUser &&
			u.PasswordHash != "segredo123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("segredo123")) == nil
	})).Return(domain.User{ID: uuid.NewString(), Email: "maria@email.com"}, nil)

	user, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Maria",
		Email:    "maria@email.com",
		Password: "segredo123",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	mockRepo.AssertExpectations(t)
}

// TestRegister_Fail_MissingCredentials testa o registro sem e-mail ou senha.
func TestRegister_Fail_MissingCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, new(MockTokenService))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Name: "Maria"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRegister_Fail_DuplicateEmail testa a propagação do conflito de e-mail.
func TestRegister_Fail_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, new(MockTokenService))

	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.User{}, apperror.NewConflictError("E-mail já registrado."))

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:    "maria@email.com",
		Password: "segredo123",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
}

// TestLogin_Success testa a autenticação com senha correta.
func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := newTestService(mockRepo, mockToken)

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.DefaultCost)
	assert.NoError(t, err)

	userID := uuid.NewString()
	mockRepo.On("FindByEmail", mock.Anything, "maria@email.com").Return(domain.User{
		ID:           userID,
		Email:        "maria@email.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}, nil)
	mockToken.On("GenerateToken", userID, string(domain.RoleUser)).Return("jwt-token", nil)

	tokenString, err := svc.Login(context.Background(), "maria@email.com", "segredo123")

	assert.NoError(t, err)
	assert.Equal(t, "jwt-token", tokenString)
	mockRepo.AssertExpectations(t)
	mockToken.AssertExpectations(t)
}

// TestLogin_Fail_WrongPassword testa que senha errada resulta em 401.
func TestLogin_Fail_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := newTestService(mockRepo, mockToken)

	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.DefaultCost)
	mockRepo.On("FindByEmail", mock.Anything, "maria@email.com").Return(domain.User{
		ID:           uuid.NewString(),
		PasswordHash: string(hash),
	}, nil)

	_, err := svc.Login(context.Background(), "maria@email.com", "senha-errada")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	mockToken.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
}

// TestLogin_Fail_UnknownEmail testa que e-mail desconhecido também resulta em
// 401, sem revelar se o cadastro existe.
func TestLogin_Fail_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, new(MockTokenService))

	mockRepo.On("FindByEmail", mock.Anything, "naoexiste@email.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))

	_, err := svc.Login(context.Background(), "naoexiste@email.com", "qualquer")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

// TestResolvePractitioner_Existing testa que o psicólogo já armazenado é
// devolvido sem nova escrita.
func TestResolvePractitioner_Existing(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, new(MockTokenService))

	stored := domain.User{ID: uuid.NewString(), Email: practitionerEmail, Role: domain.RoleAdmin}
	mockRepo.On("FindByEmail", mock.Anything, practitionerEmail).Return(stored, nil)

	practitioner, err := svc.ResolvePractitioner(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, stored, practitioner)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestResolvePractitioner_CreatesOnFirstCall testa o bootstrap: na primeira
// chamada o psicólogo padrão é criado com papel admin.
func TestResolvePractitioner_CreatesOnFirstCall(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, new(MockTokenService))

	mockRepo.On("FindByEmail", mock.Anything, practitionerEmail).
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")).Once()
	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == practitionerEmail &&
			u.Name == practitionerName &&
			u.Role == domain.RoleAdmin &&
			u.PasswordHash != ""
	})).Return(domain.User{ID: uuid.NewString(), Email: practitionerEmail, Role: domain.RoleAdmin}, nil)

	practitioner, err := svc.ResolvePractitioner(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, practitionerEmail, practitioner.Email)
	assert.Equal(t, domain.RoleAdmin, practitioner.Role)
	mockRepo.AssertExpectations(t)
}

// TestResolvePractitioner_ConcurrentCreation testa a corrida de bootstrap:
// quando o índice único rejeita a criação, o registro vencedor é relido e
// a chamada converge para o mesmo psicólogo.
func TestResolvePractitioner_ConcurrentCreation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, new(MockTokenService))

	winner := domain.User{ID: uuid.NewString(), Email: practitionerEmail, Role: domain.RoleAdmin}

	mockRepo.On("FindByEmail", mock.Anything, practitionerEmail).
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")).Once()
	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.User{}, apperror.NewConflictError("E-mail já registrado.")).Once()
	mockRepo.On("FindByEmail", mock.Anything, practitionerEmail).
		Return(winner, nil).Once()

	practitioner, err := svc.ResolvePractitioner(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, winner, practitioner)
	mockRepo.AssertExpectations(t)
}
