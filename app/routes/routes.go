package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"socialpost/app/controllers"
	"socialpost/app/middleware"
	"socialpost/app/repositories"
	"socialpost/app/services"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Posts      *services.PostService
	Scheduling *services.SchedulingService
	Generation *services.GenerationService
	Ledger     *services.CreditLedger
	Products   repositories.ProductRepository
	PageSize   int
	Log        logrus.FieldLogger
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Dependencies) *mux.Router {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.ContentTypeJSON)

	postController := controllers.NewPostController(deps.Posts, deps.Scheduling, deps.PageSize, log)
	scheduleController := controllers.NewScheduleController(deps.Scheduling, log)
	generationController := controllers.NewGenerationController(deps.Generation, deps.Ledger, log)
	productController := controllers.NewProductController(deps.Products, log)
	dashboardController := controllers.NewDashboardController(deps.Posts, deps.Ledger, log)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API routes
	api := router.PathPrefix("/api").Subrouter()

	// Posts API endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}", postController.Edit).Methods("PUT")
	posts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	posts.HandleFunc("/{id:[0-9]+}/schedule", postController.Schedule).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}/publish", postController.Publish).Methods("POST")

	// Scheduler endpoints
	api.HandleFunc("/schedule", scheduleController.Upcoming).Methods("GET")
	api.HandleFunc("/schedule", scheduleController.Create).Methods("POST")

	api.HandleFunc("/generate", generationController.Generate).Methods("POST")
	api.HandleFunc("/products", productController.Index).Methods("GET")
	api.HandleFunc("/stats", dashboardController.Stats).Methods("GET")

	router.NotFoundHandler = middleware.RequestID(jsonError(http.StatusNotFound, "not found"))
	router.MethodNotAllowedHandler = middleware.RequestID(jsonError(http.StatusMethodNotAllowed, "method not allowed"))

	return router
}

func jsonError(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":%q}`, message)
	})
}

// ShutdownTimeout bounds how long StartServer waits for open requests.
const ShutdownTimeout = 10 * time.Second

// StartServer serves router on addr until ctx is cancelled, then shuts the
// server down gracefully.
func StartServer(ctx context.Context, addr string, router http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	return <-errCh
}
