package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-accounts/internal/interface/http"
)

// UserModule wires the user account routes under /users.
//
// With Protect set, every mutating route except create-user, login,
// verify-email and resend-verification goes through Auth, and the admin and
// block routes additionally through Admin. Otherwise no route is gated.
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
	Admin   gin.HandlerFunc
	Protect bool
}

func NewUserModule(h *handlers.UserHandler, auth, admin gin.HandlerFunc, protect bool) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Admin: admin, Protect: protect}
}

func (m *UserModule) authed(h gin.HandlerFunc) []gin.HandlerFunc {
	if !m.Protect {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{m.Auth, h}
}

func (m *UserModule) adminOnly(h gin.HandlerFunc) []gin.HandlerFunc {
	if !m.Protect {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{m.Auth, m.Admin, h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	h := m.Handler
	users := rg.Group("/users")

	// Public
	users.POST("/create-user", h.CreateUser)
	users.POST("/login", h.Login)
	users.POST("/verify-email", h.VerifyEmail)
	users.POST("/resend-verification", h.ResendVerification)
	users.GET("/read-user", h.ReadUser)
	users.GET("/all-users", h.GetAllUsers)
	users.GET("/user/:id", h.GetUserByID)
	users.GET("/search", h.SearchUsers)
	users.GET("/filter", h.FilterUsers)

	// Mutations
	users.PUT("/update-user", m.authed(h.UpdateUser)...)
	users.DELETE("/delete-user", m.authed(h.DeleteUser)...)
	users.POST("/logout", m.authed(h.Logout)...)
	users.PUT("/change-password", m.authed(h.ChangePassword)...)
	users.PUT("/update-profile", m.authed(h.UpdateProfile)...)
	users.POST("/upload-profile-picture", m.authed(h.UploadProfilePicture)...)
	users.DELETE("/delete-account", m.authed(h.DeleteAccount)...)

	// Admin management
	users.PUT("/make-admin/:id", m.adminOnly(h.MakeAdmin)...)
	users.PUT("/remove-admin/:id", m.adminOnly(h.RemoveAdmin)...)
	users.PATCH("/block-user/:id", m.adminOnly(h.BlockUser)...)
	users.PATCH("/unblock-user/:id", m.adminOnly(h.UnblockUser)...)
}
