package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicadev/clinica-api/internal/application/auth"
	"github.com/clinicadev/clinica-api/internal/application/dto"
	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	pkgjwt "github.com/clinicadev/clinica-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fake en memoria del repositorio de usuarios
// ──────────────────────────────────────────────────────────────────────────────

type memUserRepo struct {
	users map[string]*entity.User // keyed por email
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entity.User)}
}

func (r *memUserRepo) Create(u *entity.User) error {
	if _, ok := r.users[u.Email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	cp := *u
	r.users[u.Email] = &cp
	return nil
}

func (r *memUserRepo) GetByID(id string) (*entity.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(email string) (*entity.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func testAuthUC(repo *memUserRepo) *auth.AuthUseCase {
	return auth.NewAuthUseCase(repo, auth.JWTConfig{
		Secret:     "secret-de-test",
		ExpMinutes: 60,
		Issuer:     "clinica-api-test",
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_CreaUsuarioConHashBcrypt(t *testing.T) {
	repo := newMemUserRepo()
	uc := testAuthUC(repo)

	out, err := uc.RegisterUser(dto.RegisterRequest{
		Email:    "quimica@clinica.co",
		Password: "s3cret-fuerte",
		Name:     "Química Farmacéutica",
		Role:     entity.RoleFarmaceutico,
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, entity.RoleFarmaceutico, out.Role)
	assert.Equal(t, "active", out.Status)

	stored := repo.users["quimica@clinica.co"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret-fuerte", stored.PasswordHash, "la password nunca se guarda en claro")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-fuerte")),
		"el hash debe verificar contra la password original")
}

func TestRegister_EmailDuplicadoRechazado(t *testing.T) {
	repo := newMemUserRepo()
	uc := testAuthUC(repo)

	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "a@clinica.co", Password: "12345678", Role: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.RegisterUser(dto.RegisterRequest{Email: "a@clinica.co", Password: "otrapass99", Role: entity.RoleMedico})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegister_RolDesconocidoRechazado(t *testing.T) {
	uc := testAuthUC(newMemUserRepo())
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "x@clinica.co", Password: "12345678", Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_RolPorDefectoEsFarmaceutico(t *testing.T) {
	uc := testAuthUC(newMemUserRepo())
	out, err := uc.RegisterUser(dto.RegisterRequest{Email: "x@clinica.co", Password: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleFarmaceutico, out.Role)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidasEmiteJWTConRol(t *testing.T) {
	repo := newMemUserRepo()
	uc := testAuthUC(repo)
	_, err := uc.RegisterUser(dto.RegisterRequest{
		Email: "medico@clinica.co", Password: "consulta123", Role: entity.RoleMedico,
	})
	require.NoError(t, err)

	out, err := uc.Login(dto.LoginRequest{Email: "medico@clinica.co", Password: "consulta123"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleMedico, out.User.Role)

	userID, role, err := pkgjwt.Parse("secret-de-test", out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID, "el token lleva el ID del usuario")
	assert.Equal(t, entity.RoleMedico, role, "el token lleva el rol para el RBAC")
}

func TestLogin_PasswordIncorrecta(t *testing.T) {
	repo := newMemUserRepo()
	uc := testAuthUC(repo)
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "a@clinica.co", Password: "correcta12", Role: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.Login(dto.LoginRequest{Email: "a@clinica.co", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc := testAuthUC(newMemUserRepo())
	_, err := uc.Login(dto.LoginRequest{Email: "nadie@clinica.co", Password: "loquesea"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLogin_CuentaInactivaBloqueada(t *testing.T) {
	repo := newMemUserRepo()
	uc := testAuthUC(repo)
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "ex@clinica.co", Password: "12345678", Role: entity.RoleMedico})
	require.NoError(t, err)
	repo.users["ex@clinica.co"].Status = "inactive"

	_, err = uc.Login(dto.LoginRequest{Email: "ex@clinica.co", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
