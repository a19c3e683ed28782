package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-admin-api/internal/middleware"
	"github.com/noah-isme/college-admin-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth      *AuthHandler
	College   *CollegeHandler
	User      *UserHandler
	Admission *AdmissionHandler
	Fee       *FeeHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts the API on group. Every authenticated route is bound to the
// college carried by the caller's token.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	authn := middleware.JWT(tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)
	reviewers := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	student := middleware.RequireRoles(models.RoleStudent)
	member := middleware.RequireRoles(models.RolePriority...)

	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", authn, h.Auth.Logout)
	auth.GET("/me", authn, h.Auth.Me)

	colleges := group.Group("/colleges")
	colleges.GET("", h.College.List)
	colleges.POST("/register", h.College.Register)
	colleges.GET("/current", authn, member, h.College.Current)

	admissions := group.Group("/admissions")
	admissions.POST("", h.Admission.Submit)
	admissions.POST("/documents", h.Admission.UploadDocument)
	admissions.GET("/documents/:token", h.Admission.ServeDocument)
	review := admissions.Group("", authn, reviewers)
	review.GET("/pending", h.Admission.ListPending)
	review.GET("/pending/:id", h.Admission.GetPending)
	review.POST("/pending/:id/approve", h.Admission.Approve)
	review.POST("/pending/:id/reject", h.Admission.Reject)
	review.GET("/rejected", h.Admission.ListRejected)

	users := group.Group("/users", authn, admin)
	users.GET("", h.User.List)
	users.POST("", h.User.Create)
	users.DELETE("/:role/:id", h.User.Delete)
	users.PUT("/:id/role", h.User.AssignRole)
	users.GET("/:id/role", h.User.ResolveRole)

	profile := group.Group("/profile", authn, member)
	profile.GET("", h.User.GetProfile)
	profile.PUT("", h.User.UpdateProfile)

	fees := group.Group("/fees", authn)
	fees.GET("/me", student, h.Fee.MyStatement)
	staffFees := fees.Group("", reviewers)
	staffFees.GET("/summaries", h.Fee.Summaries)
	staffFees.GET("/export", h.Fee.Export)
	staffFees.POST("/transactions", h.Fee.CreateTransaction)
	staffFees.PUT("/transactions/:id", h.Fee.UpdateTransaction)
	staffFees.GET("/students/:studentID/transactions", h.Fee.StudentTransactions)

	metrics := group.Group("/metrics", authn, admin)
	metrics.GET("", h.Metrics.Prometheus)
	metrics.GET("/internal", h.Metrics.Internal)
}
