package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bloomcart/storefront-api/api"
	"github.com/bloomcart/storefront-api/config"
	"github.com/bloomcart/storefront-api/databases"
	"github.com/bloomcart/storefront-api/mailer"
	"github.com/bloomcart/storefront-api/models"
	"github.com/bloomcart/storefront-api/verification"
)

// App stores the router, flow, and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Flow     *verification.Flow
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.SessionAuth{JWTSecret: []byte(a.Config.JWTSecret)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	userDB := databases.NewUserDatabase(a.dbHelper)
	sender := mailer.NewSendgrid(&a.Config)

	a.Flow = verification.NewFlow(verification.Config{
		Users:  databases.NewAccountStore(userDB),
		Sender: sender,
	})

	auth := Auth{Flow: a.Flow, Mailer: sender, JWTSecret: a.Config.JWTSecret}
	u := User{DB: userDB}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/register/verify", http.HandlerFunc(auth.VerifyRegistrationHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/login/verify", http.HandlerFunc(auth.VerifyLoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/resend-code", http.HandlerFunc(auth.ResendCodeHandler)).Methods("POST")

	apiCreate.Handle("/user/check-email", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UpdateUserHandler))).Methods("PUT")

	apiCreate.Handle("/metrics", api.Middleware(http.HandlerFunc(MetricsSummaryHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("storefront-api has connected to the database")

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
