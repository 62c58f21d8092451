package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/accounts/internal/models"
)

// Filter is the query shape accepted by the list endpoints: an equality
// where clause plus paging and ordering.
type Filter struct {
	Where map[string]interface{} `json:"where"`
	Limit int                    `json:"limit"`
	Skip  int                    `json:"skip"`
	Order string                 `json:"order"`
}

// userColumns is the set of columns queryable through a client-supplied
// filter. Anything outside it is silently dropped.
var userColumns = map[string]bool{
	"id":       true,
	"mobile":   true,
	"email":    true,
	"name":     true,
	"verified": true,
}

// UserStore is the persistence layer for users, credentials and the
// related sub-resources. Lookups that can legitimately miss return a nil
// record instead of an error.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user; storage assigns the id.
func (s *UserStore) Create(user *models.User) error {
	return s.db.Create(user).Error
}

// FindByID returns the user with the given id, or nil when absent.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByMobile returns the user registered with the mobile number, or
// nil when absent.
func (s *UserStore) FindByMobile(mobile string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "mobile = ?", mobile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Find returns users matching the filter.
func (s *UserStore) Find(filter Filter) ([]models.User, error) {
	query := s.db.Model(&models.User{})
	query = applyWhere(query, filter.Where)

	if filter.Order != "" && userColumns[filter.Order] {
		query = query.Order(filter.Order)
	} else {
		query = query.Order("created_at")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	users := []models.User{}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the where clause.
func (s *UserStore) Count(where map[string]interface{}) (int64, error) {
	var count int64
	query := applyWhere(s.db.Model(&models.User{}), where)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateAll applies the updates to every user matching the where clause
// and returns the number of affected rows.
func (s *UserStore) UpdateAll(updates map[string]interface{}, where map[string]interface{}) (int64, error) {
	query := applyWhere(s.db.Model(&models.User{}), where)
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

// UpdateByID applies a partial update to one user and reports whether a
// row matched.
func (s *UserStore) UpdateByID(id uuid.UUID, updates map[string]interface{}) (bool, error) {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected > 0, result.Error
}

// ReplaceByID overwrites every mutable column of one user.
func (s *UserStore) ReplaceByID(id uuid.UUID, user *models.User) (bool, error) {
	updates := map[string]interface{}{
		"mobile":     user.Mobile,
		"email":      user.Email,
		"name":       user.Name,
		"verified":   user.Verified,
		"updated_at": time.Now(),
	}
	result := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected > 0, result.Error
}

// DeleteByID removes one user and reports whether a row matched.
func (s *UserStore) DeleteByID(id uuid.UUID) (bool, error) {
	result := s.db.Delete(&models.User{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

// CreateCredential persists a credential linked to its user.
func (s *UserStore) CreateCredential(credential *models.Credential) error {
	return s.db.Create(credential).Error
}

// FindCredentialByUserID returns the user's credential, or nil when the
// user has none.
func (s *UserStore) FindCredentialByUserID(userID uuid.UUID) (*models.Credential, error) {
	var credential models.Credential
	if err := s.db.First(&credential, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credential, nil
}

// UpdateCredential persists changes to an existing credential.
func (s *UserStore) UpdateCredential(credential *models.Credential) error {
	return s.db.Model(credential).
		Updates(map[string]interface{}{
			"password":         credential.Password,
			"reset_token":      credential.ResetToken,
			"token_created_at": credential.TokenCreatedAt,
			"updated_at":       time.Now(),
		}).Error
}

// SetVerified flips the verified flag on one user.
func (s *UserStore) SetVerified(userID uuid.UUID, verified bool) error {
	return s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("verified", verified).Error
}

// CreateSession records a login event.
func (s *UserStore) CreateSession(session *models.Session) error {
	return s.db.Create(session).Error
}

// FindProfileByUserID returns the user's profile, or nil when absent.
func (s *UserStore) FindProfileByUserID(userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindSessionsByUserID returns the user's login history, newest first.
func (s *UserStore) FindSessionsByUserID(userID uuid.UUID) ([]models.Session, error) {
	sessions := []models.Session{}
	err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&sessions).Error
	return sessions, err
}

// FindRolesByUserID returns the roles joined to the user.
func (s *UserStore) FindRolesByUserID(userID uuid.UUID) ([]models.Role, error) {
	roles := []models.Role{}
	err := s.db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error
	return roles, err
}

// FindTracksByUserID returns the tracks joined to the user.
func (s *UserStore) FindTracksByUserID(userID uuid.UUID) ([]models.Track, error) {
	tracks := []models.Track{}
	err := s.db.Model(&models.Track{}).
		Joins("JOIN user_tracks ON user_tracks.track_id = tracks.id").
		Where("user_tracks.user_id = ?", userID).
		Find(&tracks).Error
	return tracks, err
}

// FindJournalsByUserID returns the user's journal entries.
func (s *UserStore) FindJournalsByUserID(userID uuid.UUID) ([]models.Journal, error) {
	journals := []models.Journal{}
	err := s.db.Where("user_id = ?", userID).Order("created_at").Find(&journals).Error
	return journals, err
}

func applyWhere(query *gorm.DB, where map[string]interface{}) *gorm.DB {
	for column, value := range where {
		if userColumns[column] {
			query = query.Where(column+" = ?", value)
		}
	}
	return query
}
