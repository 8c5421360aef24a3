package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/classifieds-api/internal/constants"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"github.com/yukikurage/classifieds-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateOrg    = errors.New("failed to create organization")
	ErrFailedToAddMember    = errors.New("failed to add user to organization")
)

// Credentials is a username and plain text password pair.
type Credentials struct {
	Username string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	User           *models.User
	Token          string
	TokenExpiresAt time.Time
}

// AuthService registers accounts and verifies logins.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *utils.TokenService
	now      func() time.Time
}

// NewAuthService creates a new AuthService. tokens may be nil when bearer tokens are disabled.
func NewAuthService(userRepo repository.UserRepository, tokens *utils.TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		now:      time.Now,
	}
}

// Signup creates an account together with the personal organization its listings and credits can belong to.
func (s *AuthService) Signup(creds Credentials) (*models.User, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(creds.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.userRepo.FindByUsername(username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	org, owner, err := s.personalOrganization(username)
	if err != nil {
		return nil, err
	}

	err = s.userRepo.CreateWithPersonalOrganization(user, org, owner)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, repository.ErrCreateUser):
		return nil, ErrFailedToCreateUser
	case errors.Is(err, repository.ErrCreateOrganization):
		return nil, ErrFailedToCreateOrg
	case errors.Is(err, repository.ErrCreateOrganizationMember):
		return nil, ErrFailedToAddMember
	default:
		return nil, fmt.Errorf("failed to complete signup: %w", err)
	}
}

func (s *AuthService) personalOrganization(username string) (*models.Organization, *models.OrganizationMember, error) {
	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, nil, ErrFailedToCreateOrg
	}
	org := &models.Organization{
		Name:       username + "'s organization",
		InviteCode: code,
	}
	owner := &models.OrganizationMember{Role: models.RoleOwner, JoinedAt: s.now()}
	return org, owner, nil
}

// Login checks the credentials and issues a bearer token when tokens are enabled.
func (s *AuthService) Login(creds Credentials) (*Session, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(creds.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	session := &Session{User: user}
	if s.tokens == nil {
		return session, nil
	}
	session.Token, session.TokenExpiresAt, err = s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return session, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
