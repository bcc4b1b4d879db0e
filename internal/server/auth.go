package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/koverhq/kover/internal/auth/domain"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

type SocialLoginRequest struct {
	Provider   string `json:"provider"`
	Code       string `json:"code"`
	Token      string `json:"token"`
	DeviceName string `json:"device_name"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	CompanyID     *string    `json:"company_id,omitempty"`
	TeamID        *string    `json:"team_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(user *authdomain.User) userResponse {
	resp := userResponse{
		ID:            user.ID.String(),
		Name:          user.Name,
		Email:         user.Email,
		EmailVerified: user.HasVerifiedEmail(),
		CreatedAt:     user.CreatedAt,
		VerifiedAt:    user.EmailVerifiedAt,
	}
	if user.CompanyID != nil {
		id := user.CompanyID.String()
		resp.CompanyID = &id
	}
	if user.TeamID != nil {
		id := user.TeamID.String()
		resp.TeamID = &id
	}
	return resp
}

func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if s.loginLimiter.Enabled() {
		allowed, err := s.loginLimiter.Allow(c.Request.Context(), req.Email, c.ClientIP())
		if err != nil {
			// A broken limiter must not lock everyone out.
			s.log.Warn("login rate limiter unavailable", zap.Error(err))
		} else if !allowed.Allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		User:  toUserResponse(result.User),
		Token: result.RawToken,
	})
}

func (s *Server) SocialLogin(c *gin.Context) {
	var req SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Provider) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.SocialLogin(c.Request.Context(), authdomain.SocialLoginRequest{
		Provider:   req.Provider,
		Code:       req.Code,
		Token:      req.Token,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		User:  toUserResponse(result.User),
		Token: result.RawToken,
	})
}

func (s *Server) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), user, currentRawToken(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (s *Server) LogoutAll(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.LogoutAllDevices(c.Request.Context(), user); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out_all"})
}

func (s *Server) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	status, err := s.authsvc.SendPasswordResetLink(c.Request.Context(), req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Server) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	status, err := s.authsvc.ResetPassword(c.Request.Context(), authdomain.ResetPasswordRequest{
		Email:       req.Email,
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Server) UpdatePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.authsvc.UpdatePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !updated {
		AbortWithError(c, authdomain.ErrInvalidCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}

func (s *Server) VerifyEmail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.VerifyEmail(c.Request.Context(), user); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (s *Server) EnableMFA(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	secret, err := s.authsvc.EnableMFA(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret})
}

func (s *Server) RevokeToken(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	tokenID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, authdomain.ErrTokenNotFound)
		return
	}

	if err := s.authsvc.RevokeToken(c.Request.Context(), user, tokenID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

func (s *Server) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
