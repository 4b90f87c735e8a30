package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/galgamex/fuxiaochen/internal/pkg/response"
	"github.com/galgamex/fuxiaochen/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		response.Error(c, http.StatusBadRequest, "email and password are required")
		return
	}
	if err := h.auth.SignUp(c.Request.Context(), strings.TrimSpace(req.Name), req.Email, req.Password); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "sign-up successful, a verification email has been sent")
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	user, token, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Code == "" {
		response.Error(c, http.StatusBadRequest, "email and code are required")
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "email verified")
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "verification email sent")
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "if the email is registered, a reset email has been sent")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		response.Error(c, http.StatusBadRequest, "email, code and newPassword are required")
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, "password reset successful")
}
