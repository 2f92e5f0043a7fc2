package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/payments-engine/internal/logging"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFrom(c.UserContext()))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	id := resp.Header.Get(requestIDHeader)
	if len(id) != 36 {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if body.String() != id {
		t.Fatalf("context id %q does not match header %q", body.String(), id)
	}
}

func TestRequestIDKeepsValidAndReplacesInvalid(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return nil })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, _ := app.Test(req)
	if got := resp.Header.Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected client id to be kept, got %q", got)
	}

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	resp, _ = app.Test(req)
	if got := resp.Header.Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected oversized id to be replaced, got %q", got)
	}
}

func TestAuditLogsRunRequests(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logging.NewWithWriter(&buf, "info")))
	app.Post("/runs", func(c *fiber.Ctx) error {
		c.Set("X-Run-ID", "run-7")
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Post("/bad", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "bad input")
	})

	if _, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/runs", strings.NewReader("abcd"))); err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if _, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/bad", nil)); err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %s", len(lines), buf.String())
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if first["run_id"] != "run-7" || first["bytes_in"] != float64(4) || first["status"] != float64(201) {
		t.Fatalf("unexpected audit entry: %v", first)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if second["level"] != "ERROR" || second["status"] != float64(422) {
		t.Fatalf("unexpected audit entry for failure: %v", second)
	}
}

func TestRunRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Use(RunRateLimit(cache, 2))
	app.Post("/runs", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/runs", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] != 201 || statuses[1] != 201 || statuses[2] != fiber.StatusTooManyRequests {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}

func TestRunRateLimitDisabledWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Use(RunRateLimit(nil, 1))
	app.Post("/runs", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest(fiber.MethodPost, "/runs", nil))
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected pass-through, got %d", resp.StatusCode)
		}
	}
}
