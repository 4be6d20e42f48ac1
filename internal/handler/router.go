package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/storefront-system/internal/middleware"
	"github.com/mmeshcher/storefront-system/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware интернет-магазина.
func (h *Handler) SetupRouter(sink custommiddleware.LogSink) *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.RequestLogger(h.logger, sink))

	auth := h.authMiddleware

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Get("/verify-email/{token}", h.VerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Get("/verify", h.Verify)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/password", h.ChangePassword)

			r.Get("/addresses", h.ListAddresses)
			r.Post("/addresses", h.AddAddress)
			r.Put("/addresses/{id}", h.UpdateAddress)
			r.Delete("/addresses/{id}", h.DeleteAddress)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/stats/user", h.GetUserOrderStats)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/cancel", h.CancelOrder)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", h.CreateTicket)
			r.Get("/", h.ListTickets)
			r.Get("/stats/user", h.GetUserTicketStats)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleAdmin, model.RoleManager))

				r.Get("/admin/all", h.ListAllTickets)
				r.Get("/admin/stats", h.GetAllTicketStats)
				r.Put("/{id}/status", h.UpdateTicketStatus)
				r.Put("/{id}/assign", h.AssignTicket)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleAdmin))
				r.Post("/{id}/reply", h.ReplyToTicket)
			})

			r.Get("/{id}", h.GetTicket)
			r.Get("/{id}/messages", h.GetTicketMessages)
			r.Post("/{id}/messages", h.AddTicketMessage)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/products", h.ListProducts)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Use(auth.RequireRole(model.RoleAdmin, model.RoleManager))

				r.Get("/users", h.ListUsers)
				r.Get("/orders", h.ListAllOrders)
				r.Get("/stats", h.GetAdminStats)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(model.RoleAdmin))

					r.Put("/users/{id}/role", h.UpdateUserRole)
					r.Put("/users/{id}/status", h.UpdateUserStatus)
					r.Delete("/users/{id}", h.DeleteUser)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequirePermission("manage_products"))

					r.Post("/products", h.CreateProduct)
					r.Put("/products/{id}", h.UpdateProduct)
					r.Delete("/products/{id}", h.DeleteProduct)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequirePermission("manage_orders"))
					r.Put("/orders/{id}/status", h.UpdateOrderStatus)
				})
			})
		})

		r.Route("/logs", func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireRole(model.RoleAdmin, model.RoleManager))

			r.Get("/", h.ListLogs)
			r.Get("/stats", h.GetLogStats)
			r.Get("/export/csv", h.ExportLogs)
			r.Delete("/cleanup", h.CleanupLogs)
			r.Get("/{id}", h.GetLog)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
