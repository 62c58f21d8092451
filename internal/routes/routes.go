package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/accounts/internal/config"
	"github.com/example/accounts/internal/handlers"
	"github.com/example/accounts/internal/middleware"
	"github.com/example/accounts/internal/otp"
	"github.com/example/accounts/internal/services"
	"github.com/example/accounts/internal/store"
	"github.com/example/accounts/internal/token"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	userStore := store.NewUserStore(db)
	tokens := token.NewService(cfg.JWTSecret, cfg.TokenExpires, cfg.ResetExpires)
	otpService := otp.NewService(cfg.OTPSecret, cfg.OTPValidity)
	smsService := services.NewSMSService(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender)
	emailService := services.NewEmailService(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)

	accountHandler := handlers.NewAccountHandler(userStore, tokens, otpService, smsService)
	passwordHandler := handlers.NewPasswordHandler(userStore, tokens, emailService)
	userHandler := handlers.NewUserHandler(userStore)

	app.Post("/user", accountHandler.Register)
	app.Post("/user/login", accountHandler.Login)
	app.Get("/user/forget/:mobile", passwordHandler.ForgetPassword)
	app.Post("/user/forget", passwordHandler.SetNewPassword)

	// /user/count must come before the parameterized routes.
	app.Get("/user/count", userHandler.Count)
	app.Get("/user", userHandler.Find)
	app.Patch("/user", userHandler.UpdateAll)
	app.Get("/user/:id", userHandler.FindByID)
	app.Patch("/user/:id", userHandler.UpdateByID)
	app.Put("/user/:id", userHandler.ReplaceByID)
	app.Delete("/user/:id", userHandler.DeleteByID)

	app.Get("/user/:id/profile", userHandler.GetProfile)
	app.Get("/user/:id/sessions", userHandler.ListSessions)
	app.Get("/user/:id/roles", userHandler.ListRoles)
	app.Get("/user/:id/tracks", userHandler.ListTracks)
	app.Get("/user/:id/journals", userHandler.ListJournals)

	protected := app.Group("", middleware.AuthMiddleware(tokens))
	protected.Get("/me", accountHandler.Me)
	protected.Post("/user/verify", accountHandler.VerifyOTP)
	protected.Post("/user/otp/refresh", accountHandler.RefreshOTP)
}
