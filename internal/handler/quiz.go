package handler

import (
	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/logger"
	"notequiz/internal/middleware"
	"notequiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DebugTimingsHeader opts a generation request into the debug timing block.
const DebugTimingsHeader = "X-Debug-Timings"

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	generation service.GenerationService
	grading    service.GradingService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(generation service.GenerationService, grading service.GradingService) *QuizHandler {
	return &QuizHandler{
		generation: generation,
		grading:    grading,
	}
}

// GenerateQuiz godoc
// @Summary Generate a quiz from notes
// @Description Turns free-text notes into a validated quiz via the model router
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Generation Request"
// @Success 200 {object} dto.GenerateQuizResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	userID := middleware.UserIDFromCtx(c)
	if userID == "" {
		return domain.NewError(domain.CodeUnauthorized, "authentication required", nil)
	}

	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Get().Warn("Failed to parse generation request body", zap.Error(err))
		return domain.NewBadRequestError("request body is not valid JSON")
	}

	debug := c.Get(DebugTimingsHeader) == "1"
	resp, err := h.generation.GenerateQuiz(c.Context(), userID, &req, debug)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetQuiz godoc
// @Summary Get an owned quiz
// @Tags quiz
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	userID := middleware.UserIDFromCtx(c)
	if userID == "" {
		return domain.NewError(domain.CodeUnauthorized, "authentication required", nil)
	}

	quizID := c.Params("id")
	resp, err := h.grading.GetQuiz(c.Context(), userID, quizID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// StartAttempt godoc
// @Summary Start an in-progress attempt for a quiz
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body dto.StartAttemptRequest true "Start Attempt Request"
// @Success 200 {object} dto.StartAttemptResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts [post]
func (h *QuizHandler) StartAttempt(c *fiber.Ctx) error {
	userID := middleware.UserIDFromCtx(c)
	if userID == "" {
		return domain.NewError(domain.CodeUnauthorized, "authentication required", nil)
	}

	var req dto.StartAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("request body is not valid JSON")
	}

	resp, err := h.grading.StartAttempt(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Grade godoc
// @Summary Grade a quiz attempt
// @Description Grades by attempt id (resume) or quiz id (instant)
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body dto.GradeRequest true "Grade Request"
// @Success 200 {object} dto.GradeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/grade [post]
func (h *QuizHandler) Grade(c *fiber.Ctx) error {
	userID := middleware.UserIDFromCtx(c)
	if userID == "" {
		return domain.NewError(domain.CodeUnauthorized, "authentication required", nil)
	}

	var req dto.GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("request body is not valid JSON")
	}

	resp, err := h.grading.Grade(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
