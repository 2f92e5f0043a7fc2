package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/payments-engine/internal/batch"
)

// RegisterRunRoutes wires batch run endpoints.
func RegisterRunRoutes(r fiber.Router, h *batch.Handler) {
	r.Post("/runs", h.Create)
}
