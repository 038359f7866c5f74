package middleware

import (
	"errors"
	"net/http"

	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the centralized error handling middleware. Every handler
// error funnels through here and leaves as the uniform envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get()
		requestID := RequestIDFromCtx(c)

		// Field-level validation failures from the validators.
		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			log.Warn("Request validation failed",
				zap.String("path", c.Path()),
				zap.String("request_id", requestID),
				zap.Int("error_count", len(validationErrs)),
			)
			details := make([]domain.ErrorDetail, 0, len(validationErrs))
			for _, ve := range validationErrs {
				details = append(details, domain.ErrorDetail{Path: ve.Field, Message: ve.Message})
			}
			if len(details) > domain.MaxErrorDetails {
				details = details[:domain.MaxErrorDetails]
			}
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    string(domain.CodeValidation),
				Message: "Request validation failed",
				Status:  http.StatusBadRequest,
				Details: details,
			})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			log.Error("Domain error occurred",
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", domainErr.Status),
				zap.String("path", c.Path()),
				zap.String("request_id", requestID),
				zap.Error(domainErr.Cause),
			)
			return c.Status(domainErr.Status).JSON(dto.ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Status:  domainErr.Status,
				Details: domainErr.Details,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("HTTP error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
				zap.String("request_id", requestID),
			)
			return c.Status(fiberErr.Code).JSON(dto.ErrorResponse{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
				Status:  fiberErr.Code,
			})
		}

		log.Error("Unknown error occurred",
			zap.String("path", c.Path()),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return c.Status(http.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code:    string(domain.CodeServerError),
			Message: "Internal server error",
			Status:  http.StatusInternalServerError,
		})
	}
}
