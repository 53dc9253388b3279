package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/hlog"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/realtime"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

// Pinger reports whether the Record Store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the gateways the HTTP surface dispatches to.
type Services struct {
	Customers     *service.CustomerService
	Accounts      *service.AccountsService
	RTO           *service.RTOService
	Bookings      *service.ServiceBookingService
	Admin         *service.AdminService
	Notifications *service.NotificationService
	Auth          *service.AuthService
}

// RouterConfig holds the HTTP surface options.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	svc           Services
	authenticator *auth.Authenticator
	hub           *realtime.Hub
	db            Pinger
	log           *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(svc Services, authenticator *auth.Authenticator, hub *realtime.Hub, db Pinger, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:           svc,
		authenticator: authenticator,
		hub:           hub,
		db:            db,
		log:           log,
	}
}

// Routes builds the router.
func (h *HTTPHandler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(h.log.Logger))
	r.Use(requestID)
	r.Use(accessLog())
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	// The socket outlives the request timeout.
	r.With(h.wsAuthenticate).Get("/ws/notifications", h.NotificationSocket)

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/auth/login", h.Login)

		r.Route("/customers", func(r chi.Router) {
			sales := r.With(h.authenticate, requireRoles(repository.RoleSales))
			salesOrAdmin := r.With(h.authenticate, requireRoles(repository.RoleSales, repository.RoleAdmin))

			sales.Post("/", h.CreateCustomer)
			salesOrAdmin.Get("/", h.ListCustomers)
			r.Get("/{id}", h.GetCustomer)
			r.Put("/{id}", h.UpdateCustomer)
			salesOrAdmin.Get("/{id}/images/{kind}", h.CustomerImage)
			sales.Put("/{id}/verify", h.VerifyCustomer)
			sales.Put("/{id}/payments", h.AddPayment)
			sales.Put("/{id}/delivered", h.MarkDelivered)
			sales.Delete("/{id}", h.DeleteCustomer)
		})

		r.Route("/accounts/customers", func(r chi.Router) {
			r.Use(h.authenticate, requireRoles(repository.RoleAccounts))
			r.Get("/", h.AccountsCustomers)
			r.Put("/{id}/verify", h.AccountsVerify)
			r.Put("/{id}/finance", h.AccountsFinance)
			r.Put("/{id}/payment", h.AccountsPayment)
		})

		r.Route("/rto/customers", func(r chi.Router) {
			r.Use(h.authenticate, requireRoles(repository.RoleRTO))
			r.Get("/", h.RTOCustomers)
			r.Get("/chassis/{number}", h.RTOByChassis)
			r.Put("/{id}/verify", h.RTOVerify)
			r.Put("/{id}/chassis", h.RTOChassis)
			r.Get("/{id}/chassis-image", h.RTOChassisImage)
		})

		r.Route("/service/bookings", func(r chi.Router) {
			r.Use(h.authenticate, requireRoles(repository.RoleService))
			r.Get("/", h.ListBookings)
			r.Put("/{id}/status", h.UpdateBookingStatus)
			r.Get("/{id}/history", h.BookingHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authenticate, requireRoles(repository.RoleAdmin))
			r.Post("/branches", h.CreateBranch)
			r.Get("/branches", h.ListBranches)
			r.Put("/branches/{id}", h.RenameBranch)
			r.Delete("/branches/{id}", h.DeleteBranch)
			r.Post("/employees", h.CreateEmployee)
			r.Get("/employees", h.ListEmployees)
			r.Get("/employees/{id}", h.GetEmployee)
			r.Put("/employees/{id}", h.UpdateEmployee)
			r.Delete("/employees/{id}", h.DeleteEmployee)
			r.Post("/service-bookings", h.CreateBooking)
			r.Get("/analytics", h.Analytics)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.authenticate)
			r.With(requireRoles(repository.RoleAdmin)).Post("/send", h.SendNotification)
			r.Get("/employee/{id}", h.EmployeeNotifications)
			r.Get("/unread-count/{id}", h.UnreadCount)
			r.Put("/{id}/read", h.MarkNotificationRead)
		})
	})

	return r
}

// Health pings the database.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Login handles login HTTP requests
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
