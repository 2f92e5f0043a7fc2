package batch

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/payments-engine/internal/ledger"
	"github.com/congo-pay/payments-engine/internal/report"
)

// Handler exposes run endpoints.
type Handler struct {
	runner *Runner
}

// NewHandler constructs a run handler.
func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

// Create processes the CSV request body as one isolated run.
func (h *Handler) Create(c *fiber.Ctx) error {
	format := report.FormatJSON
	if q := c.Query("format"); q != "" {
		f, err := report.ParseFormat(q)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		format = f
	}
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "request body must contain csv input")
	}

	res, err := h.runner.Run(c.UserContext(), bytes.NewReader(c.Body()))
	if err != nil {
		switch {
		case errors.Is(err, ErrSinkFailed):
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error":  err.Error(),
				"run_id": res.RunID,
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return fiber.NewError(http.StatusServiceUnavailable, "run cancelled: "+err.Error())
		case errors.Is(err, ledger.ErrSourceFailed):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	c.Set("X-Run-ID", res.RunID.String())
	if format == report.FormatJSON {
		return c.Status(http.StatusCreated).JSON(res)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, res.Accounts); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Status(http.StatusCreated).Send(buf.Bytes())
}
