package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/apperr"
	"github.com/gioe/aiq-assessment/internal/auth"
	"github.com/gioe/aiq-assessment/internal/model"
)

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}

	user, pair, err := s.authService.Register(c.Request.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthYear: req.BirthYear,
		Education: model.EducationLevel(req.Education),
		Country:   req.Country,
		Region:    req.Region,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse{
		AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: pair.TokenType,
		User: toUserDTO(user),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}

	user, pair, err := s.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{
		AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: pair.TokenType,
		User: toUserDTO(user),
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		respondError(c, apperr.Authentication("missing_token", "authorization header required"))
		return
	}
	user, pair, err := s.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{
		AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: pair.TokenType,
		User: toUserDTO(user),
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	if err := s.authService.Logout(c.Request.Context(), claimsFromContext(c), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := s.authService.LogoutAll(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	if s.forensics != nil {
		s.forensics.Record("logout_all", claims.UserID, time.Now())
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRequestPasswordReset(c *gin.Context) {
	var req requestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}
	// Always 200 with a generic message, regardless of whether the email
	// matched an account, to preserve the anti-enumeration property.
	s.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, gin.H{"message": "if an account with that email exists, a reset link has been sent"})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}
	userID, err := s.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	if s.forensics != nil {
		s.forensics.Record("password_reset", userID, time.Now())
	}
	c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
}
