package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-accounts/internal/application"
	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
	"github.com/oksasatya/go-user-accounts/pkg/response"
	"github.com/oksasatya/go-user-accounts/pkg/validation"
)

const msgInvalidPayload = "Invalid payload"

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userIDRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type updateUserRequest struct {
	UserID string  `json:"userId" binding:"required"`
	Name   *string `json:"name"`
	Email  *string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	UserID      string `json:"userId" binding:"required"`
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type updateProfileRequest struct {
	UserID         string  `json:"userId" binding:"required"`
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type uploadPictureRequest struct {
	UserID         string `json:"userId" binding:"required"`
	ProfilePicture string `json:"profilePicture" binding:"required"`
}

// bind decodes the JSON body into req and writes a 400 when it is unusable.
func (h *UserHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return false
	}
	return true
}

// fail maps service errors to responses. Unexpected errors are logged and
// reported with the generic message for the failed operation.
func (h *UserHandler) fail(c *gin.Context, err error, internalMsg string) {
	switch {
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, userapp.ErrUserExists):
		response.Error(c, http.StatusBadRequest, "User already exists", nil)
	case errors.Is(err, userapp.ErrInvalidCredentials):
		response.Error(c, http.StatusBadRequest, "Invalid credentials", nil)
	case errors.Is(err, userapp.ErrIncorrectPassword):
		response.Error(c, http.StatusBadRequest, "Incorrect current password", nil)
	case errors.Is(err, userapp.ErrEmailAlreadyVerified):
		response.Error(c, http.StatusBadRequest, "Email already verified", nil)
	case errors.Is(err, userapp.ErrForbidden):
		response.Error(c, http.StatusForbidden, "Access denied. You can only manage your own account.", nil)
	case errors.Is(err, userapp.ErrStorageUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "File uploads are not available", nil)
	default:
		helpers.LogError(h.Logger, internalMsg, err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
		response.Error(c, http.StatusInternalServerError, internalMsg, nil)
	}
}

// authorize checks that the authenticated caller may act on targetID. Routes
// outside the auth gate carry no caller and are not restricted.
func (h *UserHandler) authorize(c *gin.Context, targetID string) bool {
	caller := c.GetString(middleware.CtxUserIDKey)
	if caller == "" {
		return true
	}
	if err := h.Svc.AuthorizeAccountAccess(c.Request.Context(), caller, targetID); err != nil {
		h.fail(c, err, "Error authorizing request")
		return false
	}
	return true
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), userapp.CreateUserInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		h.fail(c, err, "Error creating user")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": u}, "User created successfully", nil)
}

func (h *UserHandler) ReadUser(c *gin.Context) {
	var req userIDRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.Svc.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		h.fail(c, err, "Error reading user")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u}, "User read successfully", nil)
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Error fetching users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users}, "All users fetched successfully", nil)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Error fetching user by ID")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u}, "User fetched by ID", nil)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.authorize(c, req.UserID) {
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), req.UserID, userapp.UpdateUserInput{Name: req.Name, Email: req.Email})
	if err != nil {
		h.fail(c, err, "Error updating user")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updatedUser": u}, "User updated successfully", nil)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	h.deleteByBody(c, "User deleted successfully", "Error deleting user")
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	h.deleteByBody(c, "Account deleted successfully", "Error deleting account")
}

func (h *UserHandler) deleteByBody(c *gin.Context, okMsg, internalMsg string) {
	var req userIDRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.authorize(c, req.UserID) {
		return
	}
	if err := h.Svc.DeleteUser(c.Request.Context(), req.UserID); err != nil {
		h.fail(c, err, internalMsg)
		return
	}
	response.Message(c, http.StatusOK, okMsg)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Error logging in")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"token": token}, "User login successful", nil)
}

// Logout revokes the presented token when revocation is configured.
func (h *UserHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), middleware.BearerToken(c))
	response.Message(c, http.StatusOK, "User logout successful")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.authorize(c, req.UserID) {
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), req.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(c, err, "Error changing password")
		return
	}
	response.Message(c, http.StatusOK, "Password changed successfully")
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.authorize(c, req.UserID) {
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), req.UserID, userapp.UpdateProfileInput{
		Name:           req.Name,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		h.fail(c, err, "Error updating profile")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updatedUser": u}, "User profile updated successfully", nil)
}

func (h *UserHandler) MakeAdmin(c *gin.Context) {
	h.setAdmin(c, true, "User made admin successfully", "Error making user admin")
}

func (h *UserHandler) RemoveAdmin(c *gin.Context) {
	h.setAdmin(c, false, "Admin role removed successfully", "Error removing admin role")
}

func (h *UserHandler) setAdmin(c *gin.Context, admin bool, okMsg, internalMsg string) {
	u, err := h.Svc.SetAdmin(c.Request.Context(), c.Param("id"), admin)
	if err != nil {
		h.fail(c, err, internalMsg)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updatedUser": u}, okMsg, nil)
}

func (h *UserHandler) BlockUser(c *gin.Context) {
	h.setBlocked(c, true, "User blocked successfully", "Error blocking user")
}

func (h *UserHandler) UnblockUser(c *gin.Context) {
	h.setBlocked(c, false, "User unblocked successfully", "Error unblocking user")
}

func (h *UserHandler) setBlocked(c *gin.Context, blocked bool, okMsg, internalMsg string) {
	u, err := h.Svc.SetBlocked(c.Request.Context(), c.Param("id"), blocked)
	if err != nil {
		h.fail(c, err, internalMsg)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updatedUser": u}, okMsg, nil)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	users, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.fail(c, err, "Error searching users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users}, "User search completed successfully", nil)
}

// queryFlag returns nil when key is absent; any value other than "true" is false.
func queryFlag(c *gin.Context, key string) *bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	b := v == "true"
	return &b
}

func (h *UserHandler) FilterUsers(c *gin.Context) {
	f := entity.UserFilter{IsAdmin: queryFlag(c, "isAdmin"), IsBlocked: queryFlag(c, "isBlocked")}
	users, err := h.Svc.FilterUsers(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, "Error filtering users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users}, "User filter completed successfully", nil)
}

func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req) {
		return
	}
	if _, err := h.Svc.VerifyEmail(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err, "Error verifying email")
		return
	}
	response.Message(c, http.StatusOK, "Email verified successfully")
}

func (h *UserHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err, "Error resending verification email")
		return
	}
	response.Message(c, http.StatusOK, "Verification email resent")
}

// UploadProfilePicture accepts either a JSON body with a picture URL or a
// multipart form with userId and a profilePicture file.
func (h *UserHandler) UploadProfilePicture(c *gin.Context) {
	const internalMsg = "Error uploading profile picture"
	var (
		u   *entity.User
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		u, err = h.uploadFile(c)
		if u == nil && err == nil {
			return
		}
	} else {
		var req uploadPictureRequest
		if !h.bind(c, &req) {
			return
		}
		if !h.authorize(c, req.UserID) {
			return
		}
		u, err = h.Svc.UploadProfilePicture(c.Request.Context(), req.UserID, req.ProfilePicture)
	}
	if err != nil {
		h.fail(c, err, internalMsg)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updatedUser": u}, "Profile picture uploaded successfully", nil)
}

// uploadFile returns nil, nil after it has already written a response.
func (h *UserHandler) uploadFile(c *gin.Context) (*entity.User, error) {
	userID := c.PostForm("userId")
	fh, ferr := c.FormFile("profilePicture")
	if userID == "" || ferr != nil {
		details := map[string]string{}
		if userID == "" {
			details["userId"] = "is required"
		}
		if ferr != nil {
			details["profilePicture"] = "is required"
		}
		response.Error(c, http.StatusBadRequest, msgInvalidPayload, details)
		return nil, nil
	}
	if !h.authorize(c, userID) {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.Svc.UploadProfilePictureFile(c.Request.Context(), userID, f, fh.Filename, contentType)
}
