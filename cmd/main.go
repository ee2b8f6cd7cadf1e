package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/schooltransit/backend/internal/auth"
	"github.com/schooltransit/backend/internal/db"
	"github.com/schooltransit/backend/internal/handlers"
	"github.com/schooltransit/backend/internal/middleware"
	"github.com/schooltransit/backend/internal/models"
	"github.com/schooltransit/backend/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment")
	}
	log.SetFormatter(&log.JSONFormatter{})

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("connected to MongoDB")

	users, students, buses, routes, trips := db.Collections(client)

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("failed to create auth service")
	}

	var dispatcher notify.Dispatcher = notify.NoopDispatcher{}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		mqttDispatcher, err := notify.NewMQTTDispatcher(broker, "schooltransit-api")
		if err != nil {
			log.WithError(err).Fatal("failed to connect to MQTT broker")
		}
		dispatcher = mqttDispatcher
		log.WithField("broker", broker).Info("passenger event dispatch enabled")
	}
	defer dispatcher.Close()

	authHandler := handlers.NewAuthHandler(authService, users)
	studentHandler := handlers.NewStudentHandler(students)
	routeHandler := handlers.NewRouteHandler(routes, students)
	tripHandler := handlers.NewTripHandler(trips, students, dispatcher)
	reportHandler := handlers.NewReportHandler(trips)
	busHandler := handlers.NewBusHandler(buses)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.RateLimit(20, 60))
		r.Post("/api/auth/login", authHandler.Login)
		// Registration is open, but an admin token lets the request assign
		// non-parent roles.
		r.With(authMiddleware.AuthenticateOptional).Post("/api/auth/register", authHandler.Register)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/api/auth/me", authHandler.Me)

		r.With(authMiddleware.RequireRole(models.RoleDriver, models.RoleSupervisor, models.RoleParent)).
			Get("/api/students", studentHandler.ListStudents)
		r.With(authMiddleware.RequireRole(models.RoleDriver, models.RoleSupervisor, models.RoleParent)).
			Get("/api/students/{id}", studentHandler.GetStudent)
		adminOnly := authMiddleware.RequireRole(models.RoleAdmin)
		r.With(adminOnly).Post("/api/students", studentHandler.CreateStudent)
		r.With(adminOnly).Put("/api/students/{id}", studentHandler.UpdateStudent)
		r.With(adminOnly).Delete("/api/students/{id}", studentHandler.DeleteStudent)

		r.With(authMiddleware.RequireRole(models.RoleDriver, models.RoleSupervisor)).
			Get("/api/routes", routeHandler.ListRoutes)
		r.With(adminOnly).Post("/api/routes", routeHandler.CreateRoute)
		r.With(adminOnly).Post("/api/routes/optimize", routeHandler.Optimize)
		r.With(authMiddleware.RequireRole(models.RoleDriver, models.RoleSupervisor)).
			Get("/api/routes/{id}/plan", routeHandler.Plan)

		r.With(authMiddleware.RequireRole(models.RoleDriver, models.RoleSupervisor)).
			Get("/api/buses", busHandler.ListBuses)
		r.With(authMiddleware.RequireRole(models.RoleDriver, models.RoleSupervisor)).
			Get("/api/buses/{id}", busHandler.GetBus)
		r.With(adminOnly).Post("/api/buses", busHandler.CreateBus)
		r.With(adminOnly).Put("/api/buses/{id}", busHandler.UpdateBus)
		r.With(adminOnly).Delete("/api/buses/{id}", busHandler.DeleteBus)

		r.Get("/api/trips", tripHandler.ListTrips)
		r.Get("/api/trips/{id}", tripHandler.GetTrip)
		r.With(authMiddleware.RequirePermission("create_trip")).Post("/api/trips", tripHandler.CreateTrip)
		r.With(authMiddleware.RequirePermission("start_trip")).Put("/api/trips/{id}/status", tripHandler.UpdateTripStatus)
		r.With(authMiddleware.RequirePermission("update_passenger_status")).
			Post("/api/trips/{id}/passengers/{studentID}/status", tripHandler.UpdatePassengerStatus)
		r.With(adminOnly).Post("/api/trips/{id}/counts/resync", tripHandler.ResyncCounts)

		r.With(authMiddleware.RequirePermission("view_reports")).
			Get("/api/reports/trips.csv", reportHandler.TripAttendanceCSV)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("port", port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
