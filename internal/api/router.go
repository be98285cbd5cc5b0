package api

import (
	"net/http"
	"time"

	"cs-simulator/internal/config"
	"cs-simulator/internal/handlers"
	"cs-simulator/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// requestTimeout bounds every request context. The margin over the AI proxy
// budget keeps the context alive while the handler relays a reply that
// arrived just inside that budget.
const requestTimeout = services.AIRequestTimeout + 15*time.Second

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler         *handlers.AuthHandler
	ProjectHandler      *handlers.ProjectHandler
	ConversationHandler *handlers.ConversationHandler
	MessageHandler      *handlers.MessageHandler
	FileHandler         *handlers.FileHandler
	AIHandler           *handlers.AIHandler
	Config              *config.Config
}

// NewRouter creates and configures the main Chi router. Entity routes use
// optional authentication so the application works without an account; the
// account-bound routes require a valid access token.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// --- Auth Routes ---
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/refresh", deps.AuthHandler.HandleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))
				r.Post("/logout", deps.AuthHandler.HandleLogout)
				r.Get("/profile", deps.AuthHandler.HandleProfile)
				r.Get("/settings", deps.AuthHandler.HandleGetSettings)
				r.Put("/settings", deps.AuthHandler.HandleUpdateSettings)
			})
		})

		// --- Project Routes ---
		r.Route("/projects", func(r chi.Router) {
			r.With(JwtAuthMiddleware(deps.Config.JWTSecret)).
				Post("/migrate", deps.ProjectHandler.HandleMigrateProjects)

			r.Group(func(r chi.Router) {
				r.Use(OptionalAuthMiddleware(deps.Config.JWTSecret))
				r.Get("/", deps.ProjectHandler.HandleListProjects)
				r.Post("/", deps.ProjectHandler.HandleCreateProject)
				r.Get("/{projectID}", deps.ProjectHandler.HandleGetProject)
				r.Put("/{projectID}", deps.ProjectHandler.HandleUpdateProject)
				r.Delete("/{projectID}", deps.ProjectHandler.HandleDeleteProject)
			})
		})

		// --- Conversation Routes ---
		r.Route("/conversations", func(r chi.Router) {
			r.Use(OptionalAuthMiddleware(deps.Config.JWTSecret))
			r.Get("/", deps.ConversationHandler.HandleListConversations)
			r.Post("/", deps.ConversationHandler.HandleCreateConversation)
			r.Get("/{conversationID}", deps.ConversationHandler.HandleGetConversation)
			r.Put("/{conversationID}", deps.ConversationHandler.HandleUpdateConversation)
			r.Delete("/{conversationID}", deps.ConversationHandler.HandleDeleteConversation)
		})

		// --- Message Routes ---
		r.Route("/messages", func(r chi.Router) {
			r.Use(OptionalAuthMiddleware(deps.Config.JWTSecret))
			r.Get("/conversation/{conversationID}", deps.MessageHandler.HandleListMessages)
			r.Post("/", deps.MessageHandler.HandleCreateMessage)
			r.Post("/batch", deps.MessageHandler.HandleCreateMessagesBatch)
			r.Delete("/{messageID}", deps.MessageHandler.HandleDeleteMessage)
		})

		// --- File Routes ---
		r.Route("/files", func(r chi.Router) {
			r.Use(OptionalAuthMiddleware(deps.Config.JWTSecret))
			r.Get("/project/{projectID}", deps.FileHandler.HandleListFiles)
			r.Post("/", deps.FileHandler.HandleCreateFile)
			r.Post("/batch", deps.FileHandler.HandleCreateFilesBatch)
			r.Delete("/{fileID}", deps.FileHandler.HandleDeleteFile)
		})

		// --- AI Proxy Routes ---
		r.Route("/ai", func(r chi.Router) {
			r.Use(OptionalAuthMiddleware(deps.Config.JWTSecret))
			r.Post("/chat", deps.AIHandler.HandleChat)
			r.Post("/scenario", deps.AIHandler.HandleScenario)
			r.Post("/upload", deps.AIHandler.HandleUpload)
			r.Post("/search", deps.AIHandler.HandleSearch)
			r.Delete("/project/{projectID}/files", deps.AIHandler.HandleDeleteProjectFiles)
			r.Get("/health", deps.AIHandler.HandleHealth)
			r.Get("/models/ollama", deps.AIHandler.HandleOllamaModels)
		})
	})

	return r
}
