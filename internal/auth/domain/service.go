package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)


// Service orchestrates the credential and session lifecycle.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, user *User, rawToken string) error
	LogoutAllDevices(ctx context.Context, user *User) error
	SendPasswordResetLink(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error)
	UpdatePassword(ctx context.Context, user *User, currentPassword, newPassword string) (bool, error)
	VerifyEmail(ctx context.Context, user *User) error
	SocialLogin(ctx context.Context, req SocialLoginRequest) (*LoginResult, error)
	EnableMFA(ctx context.Context, user *User) (string, error)
	RevokeToken(ctx context.Context, user *User, tokenID snowflake.ID) error
	Authenticate(ctx context.Context, rawToken string) (*User, *Token, error)
}

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

type LoginRequest struct {
	Email      string
	Password   string
	DeviceName string
}

// LoginResult is returned by Login, SocialLogin, and registration flows that
// issue a session.
type LoginResult struct {
	User     *User
	RawToken string
	Token    *Token
}

type ResetPasswordRequest struct {
	Email       string
	Token       string
	NewPassword string
}

type SocialLoginRequest struct {
	Provider   string
	Code       string
	Token      string
	DeviceName string
}
