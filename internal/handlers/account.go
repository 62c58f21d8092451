package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/accounts/internal/middleware"
	"github.com/example/accounts/internal/models"
	"github.com/example/accounts/internal/otp"
	"github.com/example/accounts/internal/store"
	"github.com/example/accounts/internal/token"
	"github.com/example/accounts/internal/utils"
)

// SMSGateway delivers one-time codes out of band.
type SMSGateway interface {
	Send(ctx context.Context, mobile, text, code string) error
}

// AccountHandler bundles dependencies for the account lifecycle
// endpoints: registration, login, OTP verification and refresh.
type AccountHandler struct {
	store  *store.UserStore
	tokens *token.Service
	otp    *otp.Service
	sms    SMSGateway
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(userStore *store.UserStore, tokens *token.Service, otpService *otp.Service, sms SMSGateway) *AccountHandler {
	return &AccountHandler{store: userStore, tokens: tokens, otp: otpService, sms: sms}
}

type registerRequest struct {
	Mobile   string `json:"mobile" form:"mobile"`
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// Register creates a new account: the user row, a best-effort OTP
// delivery, and the credential holding the password hash and the OTP
// issuance instant.
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Mobile == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	existing, err := h.store.FindByMobile(req.Mobile)
	if err != nil {
		return err
	}
	if existing != nil {
		return fiber.NewError(fiber.StatusBadRequest, "this mobile already exists")
	}

	user := models.User{
		Mobile: req.Mobile,
		Email:  req.Email,
		Name:   req.Name,
	}
	if err := h.store.Create(&user); err != nil {
		return err
	}

	code, issuedAt := h.otp.Issue()
	h.sendCode(c.Context(), req.Mobile, code)

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	credential := models.Credential{
		UserID:         user.ID,
		Password:       passwordHash,
		TokenCreatedAt: &issuedAt,
	}
	if err := h.store.CreateCredential(&credential); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type loginRequest struct {
	Mobile   string `json:"mobile" form:"mobile"`
	Password string `json:"password" form:"password"`
}

// Login authenticates an existing user and issues a session token.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.store.FindByMobile(req.Mobile)
	if err != nil {
		return err
	}
	if user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	credential, err := h.store.FindCredentialByUserID(user.ID)
	if err != nil {
		return err
	}
	if credential == nil || !utils.CheckPassword(credential.Password, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	session := models.Session{
		UserID:    user.ID,
		UserAgent: c.Get("User-Agent"),
		IP:        c.IP(),
	}
	if err := h.store.CreateSession(&session); err != nil {
		log.Printf("failed to record session for %s: %v", user.ID, err)
	}

	sessionToken, err := h.tokens.Generate(token.Profile{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Mobile: user.Mobile,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{"token": sessionToken})
}

// Me returns the authenticated caller's profile claims.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(profile)
}

type verifyRequest struct {
	OTP string `json:"otp" form:"otp"`
}

// VerifyOTP confirms mobile possession after registration. A successful
// check consumes the pending code and marks the user verified.
func (h *AccountHandler) VerifyOTP(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	credential, err := h.store.FindCredentialByUserID(profile.ID)
	if err != nil {
		return err
	}
	if credential == nil || credential.TokenCreatedAt == nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid otp")
	}

	if !h.otp.Verify(req.OTP, *credential.TokenCreatedAt) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid otp")
	}

	credential.TokenCreatedAt = nil
	if err := h.store.UpdateCredential(credential); err != nil {
		return err
	}
	if err := h.store.SetVerified(profile.ID, true); err != nil {
		return err
	}

	user, err := h.store.FindByID(profile.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(user)
}

// RefreshOTP issues a fresh code for the caller, replacing any pending
// one, and re-sends it by SMS.
func (h *AccountHandler) RefreshOTP(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	credential, err := h.store.FindCredentialByUserID(profile.ID)
	if err != nil {
		return err
	}
	if credential == nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing credential")
	}

	code, issuedAt := h.otp.Issue()
	credential.TokenCreatedAt = &issuedAt
	if err := h.store.UpdateCredential(credential); err != nil {
		return err
	}

	h.sendCode(c.Context(), profile.Mobile, code)

	return c.JSON(fiber.Map{"refresh": true})
}

// sendCode delivers an OTP best-effort: delivery failure never fails the
// request, the user can refresh the code later.
func (h *AccountHandler) sendCode(ctx context.Context, mobile, code string) {
	minutes := int(h.otp.Validity() / time.Minute)
	text := fmt.Sprintf("Your verification token is %s. Only valid for %d minute.", code, minutes)
	if err := h.sms.Send(ctx, mobile, text, code); err != nil {
		log.Printf("failed to send OTP to %s: %v", mobile, err)
	}
}
