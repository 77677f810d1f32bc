package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	repo "github.com/oksasatya/go-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

type TokenManager interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (*helpers.Claims, error)
}

// TokenDenylist records revoked token ids until they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type VerificationNotifier interface {
	SendVerification(ctx context.Context, name, email string) error
}

type ObjectStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Service implements the user account operations. Denylist, Notifier and
// Storage are optional; a nil value disables the feature they back.
type Service struct {
	Repo     repo.UserRepository
	Hasher   PasswordHasher
	Tokens   TokenManager
	Denylist TokenDenylist
	Notifier VerificationNotifier
	Storage  ObjectStorage
	Logger   *logrus.Logger
}

func NewService(repo repo.UserRepository, hasher PasswordHasher, tokens TokenManager, logger *logrus.Logger) *Service {
	return &Service{
		Repo:   repo,
		Hasher: hasher,
		Tokens: tokens,
		Logger: logger,
	}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

// CreateUser hashes the password and inserts the user. A duplicate email is
// reported by the store's unique constraint.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Name: in.Name, Email: in.Email, Password: hash}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("user created")
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.Repo.FindAll(ctx)
}

// patch applies p to the user with id and maps the store outcomes.
func (s *Service) patch(ctx context.Context, id string, p entity.UserPatch) (*entity.User, error) {
	u, err := s.Repo.UpdateByID(ctx, id, p)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateUserInput carries the fields updateUser may change; nil means keep.
type UpdateUserInput struct {
	Name  *string
	Email *string
}

func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	return s.patch(ctx, id, entity.UserPatch{Name: in.Name, Email: in.Email})
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	ok, err := s.Repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", id).Info("user deleted")
	}
	return nil
}

// Login checks the password and issues a signed token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	ok, err := s.Hasher.Verify(password, u.Password)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	token, _, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Logout revokes token when a denylist is configured. It never fails: a
// missing or invalid token has nothing to revoke.
func (s *Service) Logout(ctx context.Context, token string) {
	if s.Denylist == nil || token == "" {
		return
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	if err := s.Denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", claims.UserID).Warn("token revocation failed")
	}
}

// VerifyToken validates token and rejects revoked ones.
func (s *Service) VerifyToken(ctx context.Context, token string) (*helpers.Claims, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.Denylist == nil || claims.ID == "" {
		return claims, nil
	}
	revoked, err := s.Denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// AuthorizeAccountAccess allows callerID to manage targetID's account when it
// is the caller's own or the caller is an admin who is not blocked.
func (s *Service) AuthorizeAccountAccess(ctx context.Context, callerID, targetID string) error {
	if callerID != "" && callerID == targetID {
		return nil
	}
	u, err := s.Repo.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if u == nil || !u.IsAdmin || u.IsBlocked {
		return ErrForbidden
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.Hasher.Verify(oldPassword, u.Password)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrIncorrectPassword
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.patch(ctx, id, entity.UserPatch{Password: &hash})
	return err
}

type UpdateProfileInput struct {
	Name           *string
	Email          *string
	ProfilePicture *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*entity.User, error) {
	return s.patch(ctx, id, entity.UserPatch{Name: in.Name, Email: in.Email, ProfilePicture: in.ProfilePicture})
}

func (s *Service) SetAdmin(ctx context.Context, id string, admin bool) (*entity.User, error) {
	u, err := s.patch(ctx, id, entity.UserPatch{IsAdmin: &admin})
	if err == nil && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": id, "is_admin": admin}).Info("admin flag changed")
	}
	return u, err
}

func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) (*entity.User, error) {
	u, err := s.patch(ctx, id, entity.UserPatch{IsBlocked: &blocked})
	if err == nil && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": id, "is_blocked": blocked}).Info("blocked flag changed")
	}
	return u, err
}

// SearchUsers matches q as a case-insensitive substring of name or email.
func (s *Service) SearchUsers(ctx context.Context, q string) ([]entity.User, error) {
	return s.Repo.SearchByNameOrEmail(ctx, q)
}

func (s *Service) FilterUsers(ctx context.Context, f entity.UserFilter) ([]entity.User, error) {
	return s.Repo.FindByFilter(ctx, f)
}

func (s *Service) findByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) VerifyEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	verified := true
	return s.patch(ctx, u.ID, entity.UserPatch{EmailVerified: &verified})
}

// ResendVerification queues a verification email when a notifier is
// configured; otherwise it only checks that one could be sent.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return ErrEmailAlreadyVerified
	}
	if s.Notifier == nil {
		return nil
	}
	if err := s.Notifier.SendVerification(ctx, u.Name, u.Email); err != nil {
		return fmt.Errorf("queue verification email: %w", err)
	}
	return nil
}

func (s *Service) UploadProfilePicture(ctx context.Context, id, picture string) (*entity.User, error) {
	return s.patch(ctx, id, entity.UserPatch{ProfilePicture: &picture})
}

// UploadProfilePictureFile stores r in object storage and points the user's
// profile picture at the resulting URL.
func (s *Service) UploadProfilePictureFile(ctx context.Context, id string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.Storage == nil {
		return nil, ErrStorageUnavailable
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	url, err := s.Storage.Upload(ctx, avatarObjectPath(id, filename), contentType, r)
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}
	return s.UploadProfilePicture(ctx, id, url)
}

func avatarObjectPath(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join("avatars", userID, uuid.NewString()+ext)
}
