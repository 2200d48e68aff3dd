// Entry point of the library borrowing tracker. It loads configuration,
// connects to PostgreSQL, runs migrations, wires the services and handlers,
// sets up the HTTP router and middleware, and starts the server with
// graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/user/libtrack-go/analytics"
	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/auth"
	"github.com/user/libtrack-go/books"
	"github.com/user/libtrack-go/config"
	"github.com/user/libtrack-go/db"
	"github.com/user/libtrack-go/lending"
	"github.com/user/libtrack-go/users"
)

func main() {
	// Load .env in development; in production the environment is set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Services and handlers, wired by hand.
	authService := auth.NewAuthService(pool, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewUserService(pool)
	userHandlers := users.NewUserHandlers(userService)

	bookService := books.NewService(pool)
	bookHandlers := books.NewHandlers(bookService)

	lendingService := lending.NewService(pool, bookService)
	lendingHandlers := lending.NewHandlers(lendingService)

	analyticsService := analytics.NewService(pool)
	analyticsHandlers := analytics.NewHandlers(analyticsService)

	requireAuth := auth.JWTMiddleware(cfg.Auth)
	requireAdmin := auth.AdminOnly(authService.GetUserRole)

	r := chi.NewRouter()

	// Global middleware; chi requires these before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that answers in the standard error payload. This replaces
	// chi's Recoverer, whose plain-text 500 does not match the JSON contract.
	r.Use(recoverJSON)

	// User routes: open registration and login, admin management, and the
	// caller's own borrowing summary.
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me/borrowing", userHandlers.HandleBorrowingSummary())
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(requireAdmin)
			r.Get("/", userHandlers.HandleList())
			r.Get("/{id}", userHandlers.HandleGet())
			r.Put("/{id}/borrowing-limit", userHandlers.HandleUpdateBorrowingLimit())
			r.Delete("/{id}", userHandlers.HandleDelete())
		})
	})

	// Book routes: catalog browsing and lending for any authenticated user,
	// catalog management for admins.
	r.Route("/books", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", bookHandlers.HandleList())
		r.Post("/borrow", lendingHandlers.HandleBorrow())
		r.Post("/return", lendingHandlers.HandleReturn())
		r.Get("/borrowed", lendingHandlers.HandleBorrowedBooks())

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/admin", bookHandlers.HandleCreate())
			r.Put("/admin/{id}", bookHandlers.HandleUpdate())
			r.Delete("/admin/{id}", bookHandlers.HandleDelete())
		})
	})

	// Analytics routes.
	r.Route("/analytics", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/top-users", analyticsHandlers.HandleTopUsers())
		r.Get("/daily-borrows", analyticsHandlers.HandleDailyBorrows())
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// recoverJSON turns a handler panic into a 500 with the standard error
// payload.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if rvr := recover(); rvr != nil {
				log.Printf("Panic: %+v", rvr)
				writeError(ww, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

// writeError is a local helper for the panic recovery middleware, kept
// separate from the handler packages to avoid import cycles.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
