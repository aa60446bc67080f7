package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

// UserService registers and lists user accounts.
type UserService struct {
	store  storage.Store
	logger Logger
}

func NewUserService(store storage.Store, logger Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// Register creates a user account. Emails are case-insensitive and stored
// lowercase; the password is bcrypt-hashed and never persisted in clear.
func (us *UserService) Register(email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, errors.Errorf("invalid email %q", email)
	}
	if password == "" {
		return models.User{}, errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}
	user, err := us.store.SaveUser(models.User{
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		us.logger.Errorf("Failed to register user '%s': %v", email, err)
		return models.User{}, err
	}
	us.logger.Infof("Registered user '%s' with ID %s", email, user.ID)
	return user, nil
}

// ListUsers returns all users ordered by email.
func (us *UserService) ListUsers() ([]models.User, error) {
	return us.store.ListUsers()
}

// GetUser retrieves a single user.
func (us *UserService) GetUser(id uuid.UUID) (models.User, error) {
	return us.store.GetUser(id)
}

// CreateGrowthTemplate records the acting user's growth self-assessment.
func (us *UserService) CreateGrowthTemplate(actorID uuid.UUID, coreCompetencies, developingSkills, recentAchievements, howToContribute string) (models.GrowthTemplate, error) {
	template, err := us.store.SaveGrowthTemplate(models.GrowthTemplate{
		UserID:             actorID,
		CoreCompetencies:   coreCompetencies,
		DevelopingSkills:   developingSkills,
		RecentAchievements: recentAchievements,
		HowToContribute:    howToContribute,
	})
	if err != nil {
		us.logger.Errorf("Failed to create growth template for user %s: %v", actorID, err)
		return models.GrowthTemplate{}, err
	}
	us.logger.Infof("Created growth template %s for user %s", template.ID, actorID)
	return template, nil
}
