package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docauth/internal/http/middleware"
	"docauth/internal/service"
)

// Deps collects what the HTTP surface needs. DB may be nil for the memory backend.
type Deps struct {
	DB           *sql.DB
	Store        Pinger
	Documents    service.DocumentService
	Signing      service.SigningService
	Verification service.VerificationService
	Users        service.UserService
	Auth         service.AuthService
	Tokens       middleware.TokenParser
	Log          *zap.Logger

	MaxUploadBytes int
	PublicBaseURL  string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	var pingers []Pinger
	if d.Store != nil {
		pingers = append(pingers, d.Store)
	}
	app.Get("/health", HealthCheck(d.DB, pingers...))
	app.Get("/healthz", LivenessProbe())

	app.Post("/login/", Login(d.Auth, log))
	app.Post("/token/refresh/", RefreshToken(d.Auth, log))

	authed := middleware.RequireAuth(d.Tokens, unauthorized)
	admin := middleware.RequireAdmin(forbidden)

	app.Post("/create_signed_document/", authed, SignDocument(d.Signing, d.MaxUploadBytes, d.PublicBaseURL, log))
	app.Get("/documents/", authed, ListDocuments(d.Documents, d.PublicBaseURL, log))
	app.Get("/documents/:id/", authed, GetDocument(d.Documents, log))
	app.Get("/download/:id/", authed, DownloadDocument(d.Documents, log))
	app.Post("/verify/", authed, VerifyDocument(d.Verification, d.MaxUploadBytes, log))
	app.Get("/verify/", authed, CheckStoredDocument(d.Verification, log))

	app.Post("/create_user/", authed, admin, CreateUser(d.Users, log))
	app.Get("/users/", authed, admin, ListUsers(d.Users, log))
	app.Put("/users/:id/", authed, UpdateUser(d.Users, log))
}
