package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/galgamex/fuxiaochen/internal/middleware"
)

type RouterDeps struct {
	Auth         *AuthHandler
	Files        *FileHandler
	JWTSecret    []byte
	MailCooldown time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	mailGuard := middleware.RateLimit(deps.MailCooldown)

	api.POST("/auth/sign-up", mailGuard, deps.Auth.SignUp)
	api.POST("/auth/sign-in", deps.Auth.SignIn)
	api.POST("/auth/verify-email", deps.Auth.VerifyEmail)
	api.POST("/auth/resend-verification", mailGuard, deps.Auth.ResendVerification)
	api.POST("/auth/forgot-password", mailGuard, deps.Auth.ForgotPassword)
	api.POST("/auth/reset-password", deps.Auth.ResetPassword)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/files", deps.Files.List)
	authGroup.DELETE("/files", deps.Files.Delete)
	authGroup.GET("/download", deps.Files.DownloadURL)
	authGroup.POST("/upload", deps.Files.Upload)
	authGroup.GET("/upload", deps.Files.PresignUpload)
}
