package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	deliverysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/delivery"
	moderationsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/moderation"
	overlaysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/overlay"
	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
	"github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/handlers"
)

type Dependencies struct {
	DeliveryService   *deliverysvc.Service
	ModerationService *moderationsvc.Service
	OverlayService    *overlaysvc.Service
	ViewCounter       handlers.ViewCounter
	SyncBus           *syncbus.Bus
	Tokens            *authsvc.JWTManager
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	galleryHandler := handlers.NewGalleryHandler(deps.DeliveryService, deps.ViewCounter)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	overlayHandler := handlers.NewOverlayHandler(deps.OverlayService)
	eventsHandler := handlers.NewEventsHandler(deps.SyncBus)

	authMW := AuthMiddleware(deps.Tokens, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.Tokens)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/gallery", func(r chi.Router) {
		r.Use(optionalAuthMW)
		r.Post("/sessions", galleryHandler.OpenSession)
		r.Delete("/sessions/{id}", galleryHandler.CloseSession)
		r.Put("/sessions/{id}/mode", galleryHandler.SetMode)
		r.Put("/sessions/{id}/filter", galleryHandler.SetFilter)
		r.Post("/sessions/{id}/next", galleryHandler.NextPage)
		r.Post("/items/{id}/view", galleryHandler.RecordView)
	})

	r.Route("/items", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/{id}/like", overlayHandler.ToggleLike)
		r.Post("/{id}/favorite", overlayHandler.ToggleFavorite)
	})
	r.With(authMW).Get("/me/overlay", overlayHandler.Mine)

	r.With(optionalAuthMW).Get("/events", eventsHandler.Stream)

	r.Route("/admin/moderation", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/items/{id}/exile", moderationHandler.Exile)
		r.Post("/items/{id}/recall", moderationHandler.Recall)
		r.Post("/batch/exile", moderationHandler.BatchExile)
		r.Post("/batch/recall", moderationHandler.BatchRecall)
		r.Get("/exiled", moderationHandler.ListExiled)
		r.Get("/audit", moderationHandler.AuditLog)
	})
}
