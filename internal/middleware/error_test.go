package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Level: "error", Env: "test"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(RequestID())
	app.Get("/test", handler)
	return app
}

func decodeErrorResponse(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestErrorHandler_DomainError(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return domain.NewUsageLimitError(5)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	envelope := decodeErrorResponse(t, resp)
	assert.Equal(t, string(domain.CodeUsageLimitReached), envelope.Code)
	assert.Equal(t, http.StatusPaymentRequired, envelope.Status)
	assert.NotEmpty(t, envelope.Message)
}

func TestErrorHandler_DomainErrorWithDetails(t *testing.T) {
	details := []domain.ErrorDetail{
		{Path: "questions[0].answer", Message: "must equal one of options"},
		{Path: "questions[1].prompt", Message: "is required"},
		{Path: "questions[2].type", Message: "unknown type"},
		{Path: "questions[3].type", Message: "unknown type"},
	}
	app := newTestApp(func(c *fiber.Ctx) error {
		return domain.NewError(domain.CodeQuizValidationFailed, "generated quiz failed validation", nil).
			WithDetails(details)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	envelope := decodeErrorResponse(t, resp)
	assert.Len(t, envelope.Details, domain.MaxErrorDetails)
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return domain.ValidationErrors{
			domain.NewMissingFieldError("notes_text"),
		}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	envelope := decodeErrorResponse(t, resp)
	assert.Equal(t, string(domain.CodeValidation), envelope.Code)
	require.Len(t, envelope.Details, 1)
	assert.Equal(t, "notes_text", envelope.Details[0].Path)
}

func TestErrorHandler_FiberError(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return fiber.ErrMethodNotAllowed
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "HTTP_ERROR", decodeErrorResponse(t, resp).Code)
}

func TestErrorHandler_UnknownError(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	envelope := decodeErrorResponse(t, resp)
	assert.Equal(t, string(domain.CodeServerError), envelope.Code)
	assert.Equal(t, "Internal server error", envelope.Message)
}

func TestRequestID_AssignedAndEchoed(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromCtx(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.NotEmpty(t, string(body))
	assert.Equal(t, string(body), resp.Header.Get(RequestIDHeader))
}

func TestRequestID_AdoptsCallerID(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromCtx(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "caller-supplied-id", string(body))
}
