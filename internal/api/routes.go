package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postscheduler/internal/api/handlers"
	"github.com/maheshrc27/postscheduler/internal/api/middleware"
)

type Handlers struct {
	Post     *handlers.PostHandler
	Media    *handlers.MediaHandler
	Platform *handlers.PlatformHandler
}

// Register mounts the authenticated /api routes on app.
func Register(app *fiber.App, auth *middleware.AuthMiddleware, h Handlers) {
	api := app.Group("/api")
	api.Use(auth.AuthMiddleware())

	api.Post("/posts", h.Post.SavePost)
	api.Get("/posts", h.Post.ListPosts)
	api.Get("/posts/:id", h.Post.GetPost)
	api.Get("/posts/:id/attempts", h.Post.ListAttempts)
	api.Delete("/posts/:id", h.Post.RemovePost)

	api.Post("/media", h.Media.UploadMedia)

	api.Get("/accounts", h.Platform.ListSocialAccounts)
	api.Get("/accounts/:platform/connected", h.Platform.IsConnected)
	api.Post("/accounts/:platform", h.Platform.ConnectAccount)
	api.Delete("/accounts/:platform", h.Platform.DeleteSocialAccount)
}
