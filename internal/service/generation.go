package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"notequiz/internal/cache"
	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/logger"
	"notequiz/internal/util"
	"notequiz/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const tierCacheTTL = 10 * time.Minute

// GenerationService drives the quiz-creation pipeline.
type GenerationService interface {
	GenerateQuiz(ctx context.Context, userID string, req *dto.GenerateQuizRequest, debug bool) (*dto.GenerateQuizResponse, error)
}

type generationService struct {
	quizRepo  domain.QuizRepository
	userRepo  domain.UserRepository
	classRepo domain.ClassRepository
	router    domain.ModelRouter
	analytics domain.AnalyticsRecorder
	cache     domain.Cache
	cfg       *config.Config
	validator *validation.Validator
	titleFunc TitleFunc

	// Collapses concurrent same-user quota counts. The check-then-insert
	// sequence stays non-atomic; this only narrows the window.
	quotaGroup singleflight.Group
}

// NewGenerationService creates a new instance of generationService.
func NewGenerationService(
	quizRepo domain.QuizRepository,
	userRepo domain.UserRepository,
	classRepo domain.ClassRepository,
	router domain.ModelRouter,
	analytics domain.AnalyticsRecorder,
	cacheAdapter domain.Cache,
	cfg *config.Config,
) GenerationService {
	return &generationService{
		quizRepo:  quizRepo,
		userRepo:  userRepo,
		classRepo: classRepo,
		router:    router,
		analytics: analytics,
		cache:     cacheAdapter,
		cfg:       cfg,
		validator: validation.NewValidator(),
		titleFunc: deriveTitleSubject,
	}
}

// generatedPayload is the shape the model is instructed to return.
type generatedPayload struct {
	Questions []generatedQuestion `json:"questions"`
}

type generatedQuestion struct {
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// GenerateQuiz runs the linear pipeline: validate, check AI config,
// normalize config, resolve class, enforce quota, build prompt, invoke the
// router (one transparent retry on transient failure), parse, validate,
// persist, record analytics. Each stage short-circuits with a DomainError.
func (s *generationService) GenerateQuiz(ctx context.Context, userID string, req *dto.GenerateQuizRequest, debug bool) (*dto.GenerateQuizResponse, error) {
	totalStart := time.Now()
	var timings dto.DebugTimings

	// 1. Shape validation.
	stageStart := time.Now()
	if errs := s.validator.ValidateGenerateRequest(req); len(errs) > 0 {
		details := make([]domain.ErrorDetail, 0, len(errs))
		for _, e := range errs {
			details = append(details, domain.ErrorDetail{Path: e.Field, Message: e.Message})
		}
		return nil, domain.NewError(domain.CodeSchemaInvalid, "request failed validation", nil).WithDetails(details)
	}

	// 2. AI subsystem configured. Logged without user detail.
	if !s.cfg.AIConfigured() {
		logger.Get().Error("Quiz generation requested but AI subsystem is not configured")
		return nil, domain.NewServerError("quiz generation is unavailable", nil)
	}

	// 3. Config normalization, hybrid-sum invariant included.
	quizConfig := domain.DefaultQuizConfig()
	if req.Config != nil {
		normalized, err := req.Config.Normalize()
		if err != nil {
			return nil, err
		}
		quizConfig = normalized
	}

	// 4. Class resolution and ownership.
	var className string
	if req.ClassID != "" {
		class, err := s.classRepo.GetClassByID(ctx, req.ClassID)
		if err != nil {
			return nil, domain.NewServerError("failed to resolve class", err)
		}
		if class == nil || class.OwnerID != userID {
			return nil, domain.NewNotFoundError("class not found")
		}
		className = class.Name
	}

	// 5. Free-tier quota, checked before any model call.
	if err := s.enforceQuota(ctx, userID); err != nil {
		return nil, err
	}
	timings.ValidationMS = time.Since(stageStart).Milliseconds()

	// 6. Prompt construction.
	stageStart = time.Now()
	notes := strings.TrimSpace(req.NotesText)
	prompt := buildQuizPrompt(quizConfig, notes)
	timings.PromptBuildMS = time.Since(stageStart).Milliseconds()

	// 7. Router invocation with one transparent retry on transient failure.
	// The retry is a second Invoke, so it carries a fresh request id.
	stageStart = time.Now()
	content, metrics, err := s.router.Invoke(ctx, domain.TaskQuizGeneration, prompt)
	if err != nil {
		var derr *domain.DomainError
		if errors.As(err, &derr) && domain.IsTransientModelError(derr) && s.cfg.AI.RetryEnabled {
			logger.Get().Warn("Retrying quiz generation after transient model failure",
				zap.String("user_id", userID),
				zap.String("first_request_id", metrics.RequestID),
				zap.String("cause", string(derr.Code)))
			firstAttempts := metrics.AttemptCount
			content, metrics, err = s.router.Invoke(ctx, domain.TaskQuizGeneration, prompt)
			metrics.AttemptCount += firstAttempts
		}
	}
	timings.OpenAIMS = time.Since(stageStart).Milliseconds()

	if err != nil {
		s.recordFailure(userID, req.ClassID, quizConfig, metrics, err)
		var derr *domain.DomainError
		if errors.As(err, &derr) {
			if domain.IsTransientModelError(derr) {
				return nil, domain.NewError(domain.CodeModelInvalidOutput, "model did not produce usable output", derr)
			}
			return nil, derr
		}
		return nil, domain.NewError(domain.CodeOpenAIError, "model invocation failed", err)
	}

	// 8. Parse. The router already guaranteed JSON, so a failure here is
	// defensive and diagnostic-logged.
	questions, perr := parseGeneratedQuestions(content)
	if perr != nil {
		logger.Get().Error("Router-approved output failed to parse",
			zap.Error(perr),
			zap.String("request_id", metrics.RequestID),
			zap.Int("content_length", len(content)))
		s.recordFailure(userID, req.ClassID, quizConfig, metrics, perr)
		return nil, domain.NewError(domain.CodeModelInvalidOutput, "model output did not match the expected structure", perr)
	}

	// 9. Strict structural validation, up to three diagnostics returned.
	if issues := domain.ValidateQuestions(questions); len(issues) > 0 {
		logger.Get().Error("Generated questions failed validation",
			zap.String("request_id", metrics.RequestID),
			zap.Int("issue_count", len(issues)))
		s.recordFailure(userID, req.ClassID, quizConfig, metrics, fmt.Errorf("question validation failed"))
		return nil, domain.NewError(domain.CodeQuizValidationFailed, "generated quiz failed validation", nil).
			WithDetails(issues)
	}

	// 10. Title and subject heuristic.
	title, subject := s.titleFunc(notes, className, len(questions))

	// 11. Persist.
	stageStart = time.Now()
	quiz := &domain.Quiz{
		ID:        util.NewULID(),
		OwnerID:   userID,
		ClassID:   req.ClassID,
		Title:     title,
		Subject:   subject,
		Questions: questions,
		Config:    quizConfig,
		CreatedAt: time.Now(),
	}
	if err := s.quizRepo.CreateQuiz(ctx, quiz); err != nil {
		logger.Get().Error("Failed to persist quiz", zap.Error(err), zap.String("quiz_id", quiz.ID))
		return nil, domain.NewServerError("failed to save quiz", err)
	}
	timings.DBInsertMS = time.Since(stageStart).Milliseconds()

	// 12. Success analytics, fire-and-forget.
	s.analytics.Record(&domain.QuizEvent{
		ID:        util.NewULID(),
		EventType: EventQuizGenerated,
		UserID:    userID,
		QuizID:    quiz.ID,
		Payload: map[string]any{
			"metrics":        metrics,
			"config":         quizConfig,
			"question_count": len(questions),
			"class_id":       req.ClassID,
		},
	})

	// 13. Result. Fewer questions than requested is legitimate.
	timings.TotalMS = time.Since(totalStart).Milliseconds()
	timings.OverheadMS = timings.TotalMS - timings.ValidationMS - timings.PromptBuildMS - timings.OpenAIMS - timings.DBInsertMS

	resp := &dto.GenerateQuizResponse{
		QuizID:              quiz.ID,
		Config:              quizConfig,
		ActualQuestionCount: len(questions),
	}
	if debug {
		resp.Debug = &dto.DebugInfo{
			Timings:           timings,
			ModelUsed:         metrics.ModelUsed,
			FallbackTriggered: metrics.FallbackTriggered,
			TokensTotal:       metrics.TotalTokens,
		}
	}
	return resp, nil
}

// enforceQuota fails free-tier users at the configured quiz limit. Not
// transactional against concurrent submissions; see the concurrency notes.
func (s *generationService) enforceQuota(ctx context.Context, userID string) error {
	tier, err := s.lookupTier(ctx, userID)
	if err != nil {
		return domain.NewServerError("failed to resolve user", err)
	}
	if tier != domain.TierFree {
		return nil
	}

	limit := s.cfg.Quota.EffectiveFreeQuizLimit()
	countAny, err, _ := s.quotaGroup.Do("quiz_count:"+userID, func() (any, error) {
		return s.quizRepo.CountByOwner(ctx, userID)
	})
	if err != nil {
		return domain.NewServerError("failed to check quota", err)
	}
	if countAny.(int) >= limit {
		return domain.NewUsageLimitError(limit)
	}
	return nil
}

// lookupTier reads the user tier through the cache; misses fall through to
// the repository and backfill.
func (s *generationService) lookupTier(ctx context.Context, userID string) (domain.UserTier, error) {
	key := cache.GenerateCacheKey("generation", "user_tier", userID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			return domain.UserTier(cached), nil
		} else if err != nil && err != domain.ErrCacheMiss {
			logger.Get().Warn("Tier cache read failed", zap.Error(err), zap.String("user_id", userID))
		}
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", userID)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, string(user.Tier), tierCacheTTL); err != nil {
			logger.Get().Warn("Tier cache write failed", zap.Error(err), zap.String("user_id", userID))
		}
	}
	return user.Tier, nil
}

// recordFailure emits failure analytics fire-and-forget before the pipeline
// raises its error.
func (s *generationService) recordFailure(userID, classID string, cfg domain.QuizConfig, metrics domain.RouterMetrics, cause error) {
	s.analytics.Record(&domain.QuizEvent{
		ID:        util.NewULID(),
		EventType: EventQuizGenerationFailed,
		UserID:    userID,
		Payload: map[string]any{
			"metrics":  metrics,
			"config":   cfg,
			"class_id": classID,
			"error":    cause.Error(),
		},
	})
}

// parseGeneratedQuestions decodes the router-approved JSON document into
// validated-ready domain questions, assigning ids.
func parseGeneratedQuestions(content string) ([]domain.Question, error) {
	var payload generatedPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode generation payload: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("generation payload contains no questions")
	}

	questions := make([]domain.Question, 0, len(payload.Questions))
	for _, gq := range payload.Questions {
		q := domain.Question{
			ID:     util.NewULID(),
			Type:   domain.QuestionType(strings.TrimSpace(gq.Type)),
			Prompt: strings.TrimSpace(gq.Prompt),
			Answer: strings.TrimSpace(gq.Answer),
		}
		if len(gq.Options) > 0 {
			q.Options = make([]string, 0, len(gq.Options))
			for _, opt := range gq.Options {
				q.Options = append(q.Options, strings.TrimSpace(opt))
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}
