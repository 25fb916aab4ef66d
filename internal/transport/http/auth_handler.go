package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizforge-service/internal/app"
	"quizforge-service/internal/domain"
	"quizforge-service/internal/platform/logger"
)

// AuthHandler serves the account and OTP endpoints.
type AuthHandler struct {
	auth *app.AuthService
	otp  *app.OTPService
	log  *logger.Logger
}

func NewAuthHandler(auth *app.AuthService, otp *app.OTPService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp, log: log}
}

type emailRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type registerWithOTPRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

type scoreRequest struct {
	QuizID string `json:"quizId"`
	Score  *int   `json:"score"`
}

// SendOTP issues a registration code.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	h.issue(c, domain.PurposeRegister, false)
}

// ResendOTP replaces the live registration code with a fresh one.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	h.issue(c, domain.PurposeRegister, true)
}

// ForgotPassword issues a password-reset code.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	h.issue(c, domain.PurposeReset, false)
}

func (h *AuthHandler) issue(c *gin.Context, purpose domain.OTPPurpose, resend bool) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	email, err := h.otp.Issue(c.Request.Context(), req.Email, req.Name, purpose, resend)
	if err != nil {
		h.fail(c, "issue otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent", "email": email})
}

// RegisterWithOTP creates a verified account and returns a session token.
func (h *AuthHandler) RegisterWithOTP(c *gin.Context) {
	var req registerWithOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	tok, user, err := h.otp.RegisterWithOTP(c.Request.Context(), app.RegisterInput{
		Name: req.Name, Email: req.Email, Phone: req.Phone,
		Password: req.Password, Code: req.OTP,
	})
	if err != nil {
		h.fail(c, "register with otp", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": tok, "user": user})
}

// VerifyResetOTP exchanges a valid reset code for a reset token.
func (h *AuthHandler) VerifyResetOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	resetTok, err := h.otp.VerifyForReset(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(c, "verify reset otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resetToken": resetTok})
}

// ResetPassword sets a new password for the email inside the reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.otp.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		h.fail(c, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// Register is the legacy unverified registration endpoint.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	tok, user, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": tok, "user": user})
}

// Login authenticates and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	tok, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": user})
}

// Logout exists for client symmetry; sessions are stateless JWTs, so the
// client just discards its token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateScore records the latest score for a quiz.
func (h *AuthHandler) UpdateScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score is required"})
		return
	}
	attempt, err := h.auth.UpdateScore(c.Request.Context(), currentUserID(c), req.QuizID, *req.Score)
	if err != nil {
		h.fail(c, "update score", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attempt})
}

func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	h.log.Warn(op+" failed", "error", err)
	respondError(c, err)
}
