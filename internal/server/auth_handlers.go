package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kfarm/internal/middleware"
	"kfarm/internal/models"
	"kfarm/internal/session"
	"kfarm/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// resetTokenTTL bounds how long a password-reset link stays usable.
const resetTokenTTL = 5 * time.Minute

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

// Register creates a new account and logs it in.
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.ValidateName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if _, err := s.userRepo.GetByEmail(c.Context(), req.Email); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("An account with this email already exists"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	user := &models.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Password:      string(hash),
		Phone:         req.Phone,
		Language:      language,
		Notifications: models.NotificationPrefs{Email: true, Push: true},
	}

	if err := s.userRepo.Create(c.Context(), user); err != nil {
		// A concurrent registration can slip past the lookup above; the
		// unique index is the real arbiter.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("An account with this email already exists"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered",
		"user_id", user.ID)

	if err := s.startSession(c, user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by email and password and issues a session cookie.
// Unknown email and wrong password produce the same response.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid credentials"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Invalid credentials"))
	}

	if err := s.userRepo.TouchLastActive(c.Context(), user.ID); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to update last active",
			"user_id", user.ID, "error", err.Error())
	}

	if err := s.startSession(c, user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "user logged in",
		"user_id", user.ID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// startSession replaces any existing session with a fresh one for the user.
func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	if old := c.Cookies(session.CookieName); old != "" {
		_ = s.sessions.Destroy(c.Context(), old)
	}

	sid, rec, err := s.sessions.Create(c.Context(), user.ID, user.Email)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, sid, rec.ExpiresAt)
	return nil
}

// Logout destroys the current session, if any.
func (s *Server) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(session.CookieName); sid != "" {
		if err := s.sessions.Destroy(c.Context(), sid); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}
	s.clearSessionCookie(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}

// CurrentUser returns the authenticated user's account.
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", currentUserID(c)))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// UpdateSettings updates the authenticated user's profile. Sent as multipart
// so a new profile picture can ride along; the notifications field is a
// JSON-encoded sub-object. Name and email are required on every submission.
func (s *Server) UpdateSettings(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	name := c.FormValue("name")
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	if strings.TrimSpace(name) == "" || email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name and email are required"))
	}
	if err := validation.ValidateName(name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	user.Name = strings.TrimSpace(name)

	if email != user.Email {
		if _, err := s.userRepo.GetByEmail(c.Context(), email); err == nil {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("An account with this email already exists"))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		user.Email = email
	}

	if phone := c.FormValue("phone"); phone != "" {
		if err := validation.ValidatePhone(phone); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Phone = phone
	}
	if language := c.FormValue("language"); language != "" {
		user.Language = language
	}
	if rawPrefs := c.FormValue("notifications"); rawPrefs != "" {
		var prefs models.NotificationPrefs
		if err := json.Unmarshal([]byte(rawPrefs), &prefs); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationErrorWrap("Invalid notifications value", err))
		}
		user.Notifications = prefs
	}

	picture, err := s.saveUpload(c, "profile_picture")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if picture != "" {
		if user.ProfilePicture != "" {
			s.removeUploadFile(user.ProfilePicture)
		}
		user.ProfilePicture = picture
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("An account with this email already exists"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// generateResetToken signs a short-lived token with a per-user key derived
// from the app secret and the user's current password hash. Changing the
// password therefore invalidates every outstanding token.
func (s *Server) generateResetToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(resetTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AppSecret + user.Password))
}

// verifyResetToken checks the token against the same per-user key.
func (s *Server) verifyResetToken(user *models.User, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.AppSecret + user.Password), nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid or expired reset token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("invalid reset token claims")
	}
	if sub, _ := claims["sub"].(string); sub != fmt.Sprintf("%d", user.ID) {
		return fmt.Errorf("reset token subject mismatch")
	}
	return nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails a reset link. The response does not reveal whether
// the address has an account.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	genericResponse := fiber.Map{
		"message": "If that email has an account, a reset link has been sent",
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusOK).JSON(genericResponse)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if s.mail == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewExternalServiceError("Mail is not configured", nil))
	}

	token, err := s.generateResetToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	resetURL := fmt.Sprintf("%s/%d/%s", s.config.ResetURLBase, user.ID, token)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>A password reset was requested for your account. "+
			"The link below is valid for 5 minutes:</p><p><a href=%q>%s</a></p>"+
			"<p>If you did not request this, you can ignore this email.</p>",
		user.Name, resetURL, resetURL)

	if err := s.mail.Send(c.Context(), "password_reset", user.Email, "Password reset", body); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "password reset mail failed",
			"user_id", user.ID, "error", err.Error())
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewExternalServiceError("Failed to send reset email", err))
	}

	return c.Status(fiber.StatusOK).JSON(genericResponse)
}

type resetPasswordRequest struct {
	UserID   uint   `json:"user_id"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword sets a new password for a valid reset token.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if req.UserID == 0 || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("User ID and token are required"))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user, err := s.userRepo.GetByID(c.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid or expired reset token"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.verifyResetToken(user, req.Token); err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Invalid or expired reset token"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.userRepo.UpdatePassword(c.Context(), user.ID, string(hash)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "password reset completed",
		"user_id", user.ID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Password has been reset"})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Contact forwards a contact-form submission to the support inbox.
func (s *Server) Contact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if err := validation.ValidateName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(strings.TrimSpace(req.Email)); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if strings.TrimSpace(req.Message) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Message is required"))
	}

	if s.mail == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewExternalServiceError("Mail is not configured", nil))
	}

	body := fmt.Sprintf("<p>From: %s (%s)</p><p>%s</p>",
		req.Name, req.Email, req.Message)
	if err := s.mail.Send(c.Context(), "contact", s.config.ContactEmail, "Contact form message", body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewExternalServiceError("Failed to send message", err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Message sent"})
}
