package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notequiz/internal/cache"
	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/logger"
	"notequiz/internal/util"
	"notequiz/internal/validation"

	"go.uber.org/zap"
)

const quizCacheTTL = 30 * time.Minute

// GradingService resolves a scoring context, runs the rubric and persists
// the graded attempt. Grading makes no model call.
type GradingService interface {
	Grade(ctx context.Context, userID string, req *dto.GradeRequest) (*dto.GradeResponse, error)
	StartAttempt(ctx context.Context, userID string, req *dto.StartAttemptRequest) (*dto.StartAttemptResponse, error)
	GetQuiz(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error)
}

type gradingService struct {
	quizRepo    domain.QuizRepository
	attemptRepo domain.AttemptRepository
	analytics   domain.AnalyticsRecorder
	cache       domain.Cache
	cfg         *config.Config
	validator   *validation.Validator
}

// NewGradingService creates a new instance of gradingService.
func NewGradingService(
	quizRepo domain.QuizRepository,
	attemptRepo domain.AttemptRepository,
	analytics domain.AnalyticsRecorder,
	cacheAdapter domain.Cache,
	cfg *config.Config,
) GradingService {
	return &gradingService{
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		analytics:   analytics,
		cache:       cacheAdapter,
		cfg:         cfg,
		validator:   validation.NewValidator(),
	}
}

// Grade dispatches between the two entry flows. An attempt id resumes an
// in-progress attempt; a bare quiz id grades instantly in demo mode,
// creating the attempt row already submitted.
func (s *gradingService) Grade(ctx context.Context, userID string, req *dto.GradeRequest) (*dto.GradeResponse, error) {
	if errs := s.validator.ValidateGradeRequest(req); len(errs) > 0 {
		details := make([]domain.ErrorDetail, 0, len(errs))
		for _, e := range errs {
			details = append(details, domain.ErrorDetail{Path: e.Field, Message: e.Message})
		}
		return nil, domain.NewError(domain.CodeSchemaInvalid, "request failed validation", nil).WithDetails(details)
	}

	if req.AttemptID != "" {
		return s.gradeResume(ctx, userID, req)
	}
	return s.gradeInstant(ctx, userID, req)
}

// gradeResume is flow A: load the attempt, require ownership and
// in_progress status, grade against its quiz.
func (s *gradingService) gradeResume(ctx context.Context, userID string, req *dto.GradeRequest) (*dto.GradeResponse, error) {
	attempt, err := s.attemptRepo.GetAttemptByID(ctx, req.AttemptID)
	if err != nil {
		return nil, domain.NewServerError("failed to load attempt", err)
	}
	if attempt == nil || attempt.OwnerID != userID {
		return nil, domain.NewNotFoundError("attempt not found")
	}
	if attempt.Status != domain.AttemptInProgress {
		return nil, domain.NewBadRequestError("attempt has already been submitted")
	}

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, domain.NewNotFoundError("quiz not found")
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.NewError(domain.CodeEmptyQuiz, "quiz has no questions to grade", nil)
	}

	result := scoreResponses(quiz.Questions, req.Responses)

	submittedAt := time.Now()
	update := &domain.AttemptUpdate{
		Responses:    req.Responses,
		Score:        result.fraction,
		Grading:      result.breakdown,
		SubmittedAt:  submittedAt,
		DurationMS:   submittedAt.Sub(attempt.StartedAt).Milliseconds(),
		GradingModel: GradingModelMarker,
		Metrics:      gradingMetrics(),
	}
	updated, err := s.attemptRepo.UpdateSubmitted(ctx, attempt.ID, userID, update)
	if err != nil {
		return nil, domain.NewServerError("failed to save graded attempt", err)
	}
	if !updated {
		// Row vanished or changed owners between load and write.
		return nil, domain.NewNotFoundError("attempt not found")
	}

	s.recordGraded(userID, quiz, attempt.ID, result)
	return gradeResponse(attempt.ID, result), nil
}

// gradeInstant is flow B: demo grading against the quiz directly. The
// attempt row is created already submitted; there is no in_progress phase,
// so duration reflects grading latency only.
func (s *gradingService) gradeInstant(ctx context.Context, userID string, req *dto.GradeRequest) (*dto.GradeResponse, error) {
	if !s.cfg.Quota.DemoInstantGrade {
		return nil, domain.NewBadRequestError("instant grading is not enabled")
	}

	start := time.Now()
	quiz, err := s.loadQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil || quiz.OwnerID != userID {
		return nil, domain.NewNotFoundError("quiz not found")
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.NewError(domain.CodeEmptyQuiz, "quiz has no questions to grade", nil)
	}

	result := scoreResponses(quiz.Questions, req.Responses)

	now := time.Now()
	attempt := &domain.QuizAttempt{
		ID:           util.NewULID(),
		QuizID:       quiz.ID,
		OwnerID:      userID,
		Status:       domain.AttemptSubmitted,
		Responses:    req.Responses,
		Score:        result.fraction,
		Grading:      result.breakdown,
		StartedAt:    now,
		SubmittedAt:  now,
		DurationMS:   now.Sub(start).Milliseconds(),
		GradingModel: GradingModelMarker,
		Metrics:      gradingMetrics(),
	}
	if err := s.attemptRepo.CreateAttempt(ctx, attempt); err != nil {
		return nil, domain.NewServerError("failed to save graded attempt", err)
	}

	s.recordGraded(userID, quiz, attempt.ID, result)
	return gradeResponse(attempt.ID, result), nil
}

// StartAttempt opens an in_progress attempt for an owned quiz.
func (s *gradingService) StartAttempt(ctx context.Context, userID string, req *dto.StartAttemptRequest) (*dto.StartAttemptResponse, error) {
	if errs := s.validator.ValidateStartAttemptRequest(req); len(errs) > 0 {
		details := make([]domain.ErrorDetail, 0, len(errs))
		for _, e := range errs {
			details = append(details, domain.ErrorDetail{Path: e.Field, Message: e.Message})
		}
		return nil, domain.NewError(domain.CodeSchemaInvalid, "request failed validation", nil).WithDetails(details)
	}

	quiz, err := s.loadQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil || quiz.OwnerID != userID {
		return nil, domain.NewNotFoundError("quiz not found")
	}

	attempt := &domain.QuizAttempt{
		ID:        util.NewULID(),
		QuizID:    quiz.ID,
		OwnerID:   userID,
		Status:    domain.AttemptInProgress,
		StartedAt: time.Now(),
	}
	if err := s.attemptRepo.CreateAttempt(ctx, attempt); err != nil {
		return nil, domain.NewServerError("failed to start attempt", err)
	}

	return &dto.StartAttemptResponse{
		AttemptID: attempt.ID,
		QuizID:    quiz.ID,
		StartedAt: attempt.StartedAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetQuiz returns an owned quiz for taking.
func (s *gradingService) GetQuiz(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil || quiz.OwnerID != userID {
		return nil, domain.NewNotFoundError("quiz not found")
	}
	return &dto.QuizResponse{
		ID:        quiz.ID,
		Title:     quiz.Title,
		Subject:   quiz.Subject,
		ClassID:   quiz.ClassID,
		Questions: quiz.Questions,
		Config:    quiz.Config,
	}, nil
}

// loadQuiz reads a quiz through the cache. Quizzes are immutable after
// creation, so a cached copy never goes stale.
func (s *gradingService) loadQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	key := cache.GenerateCacheKey("grading", "quiz", quizID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			var quiz domain.Quiz
			if uerr := json.Unmarshal([]byte(cached), &quiz); uerr == nil {
				return &quiz, nil
			}
			logger.Get().Warn("Discarding undecodable cached quiz", zap.String("quiz_id", quizID))
		} else if err != nil && err != domain.ErrCacheMiss {
			logger.Get().Warn("Quiz cache read failed", zap.Error(err), zap.String("quiz_id", quizID))
		}
	}

	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewServerError("failed to load quiz", err)
	}
	if quiz == nil {
		return nil, nil
	}

	if s.cache != nil {
		if data, merr := json.Marshal(quiz); merr == nil {
			if err := s.cache.Set(ctx, key, string(data), quizCacheTTL); err != nil {
				logger.Get().Warn("Quiz cache write failed", zap.Error(err), zap.String("quiz_id", quizID))
			}
		}
	}
	return quiz, nil
}

// scoreResult aggregates one rubric run.
type scoreResult struct {
	breakdown []domain.QuestionGrade
	correct   int
	total     int
	percent   int
	fraction  float64
	letter    string
}

// scoreResponses runs the rubric over every question. Missing responses
// grade as empty submissions.
func scoreResponses(questions []domain.Question, responses map[string]string) scoreResult {
	result := scoreResult{
		breakdown: make([]domain.QuestionGrade, 0, len(questions)),
		total:     len(questions),
	}
	for _, q := range questions {
		grade := gradeQuestion(q, responses[q.ID])
		if grade.Correct {
			result.correct++
		}
		result.breakdown = append(result.breakdown, grade)
	}
	result.percent = scorePercent(result.correct, result.total)
	result.fraction = float64(result.correct) / float64(result.total)
	result.letter = letterGrade(result.percent)
	return result
}

// gradingMetrics is the RouterMetrics-shaped record attached to graded
// attempts even though no model call occurred.
func gradingMetrics() domain.RouterMetrics {
	return domain.RouterMetrics{
		RequestID:           util.NewULID(),
		ModelUsed:           GradingModelMarker,
		ModelFamily:         "none",
		ModelDecisionReason: "deterministic",
	}
}

// recordGraded emits grading analytics fire-and-forget with a per-type
// correctness breakdown and the rubric version.
func (s *gradingService) recordGraded(userID string, quiz *domain.Quiz, attemptID string, result scoreResult) {
	typeCounts := make(map[string]int)
	for _, q := range quiz.Questions {
		typeCounts[string(q.Type)]++
	}
	s.analytics.Record(&domain.QuizEvent{
		ID:        util.NewULID(),
		EventType: EventQuizGraded,
		UserID:    userID,
		QuizID:    quiz.ID,
		AttemptID: attemptID,
		Payload: map[string]any{
			"metrics":        gradingMetrics(),
			"rubric_version": RubricVersion,
			"score_percent":  result.percent,
			"letter":         result.letter,
			"correct_count":  result.correct,
			"total_count":    result.total,
			"type_counts":    typeCounts,
		},
	})
}

func gradeResponse(attemptID string, result scoreResult) *dto.GradeResponse {
	return &dto.GradeResponse{
		AttemptID: attemptID,
		Score:     result.percent,
		Letter:    result.letter,
		Summary:   fmt.Sprintf("%d of %d correct", result.correct, result.total),
		Breakdown: result.breakdown,
	}
}
