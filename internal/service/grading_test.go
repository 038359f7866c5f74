package service

import (
	"context"
	"testing"
	"time"

	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/util"
	"notequiz/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestGradingService(
	quizRepo *MockQuizRepository,
	attemptRepo *MockAttemptRepository,
	recorder *capturingRecorder,
	cfg *config.Config,
) *gradingService {
	return &gradingService{
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		analytics:   recorder,
		cfg:         cfg,
		validator:   validation.NewValidator(),
	}
}

func testGradingConfig() *config.Config {
	return &config.Config{Quota: config.QuotaConfig{DemoInstantGrade: true}}
}

func fourQuestionMCQQuiz(ownerID string) *domain.Quiz {
	questions := make([]domain.Question, 4)
	answers := []string{"red", "blue", "green", "yellow"}
	for i, ans := range answers {
		questions[i] = domain.Question{
			ID:      util.NewULID(),
			Type:    domain.QuestionKindMCQ,
			Prompt:  "Pick the color",
			Options: []string{"red", "blue", "green", "yellow"},
			Answer:  ans,
		}
	}
	return &domain.Quiz{
		ID:        util.NewULID(),
		OwnerID:   ownerID,
		Title:     "Colors - 4 Question Quiz",
		Questions: questions,
		Config:    domain.DefaultQuizConfig(),
		CreatedAt: time.Now(),
	}
}

func TestGrade_ResumeFlow_HalfCorrectScoresFifty(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	recorder := &capturingRecorder{}
	userID := util.NewULID()

	quiz := fourQuestionMCQQuiz(userID)
	attempt := &domain.QuizAttempt{
		ID:        util.NewULID(),
		QuizID:    quiz.ID,
		OwnerID:   userID,
		Status:    domain.AttemptInProgress,
		StartedAt: time.Now().Add(-time.Minute),
	}

	attemptRepo.On("GetAttemptByID", mock.Anything, attempt.ID).Return(attempt, nil)
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	var update *domain.AttemptUpdate
	attemptRepo.On("UpdateSubmitted", mock.Anything, attempt.ID, userID, mock.Anything).
		Run(func(args mock.Arguments) { update = args.Get(3).(*domain.AttemptUpdate) }).
		Return(true, nil)

	// Two of four correct; answers are case-sensitive so "Blue" misses.
	responses := map[string]string{
		quiz.Questions[0].ID: "red",
		quiz.Questions[1].ID: "Blue",
		quiz.Questions[2].ID: "green",
		quiz.Questions[3].ID: "wrong",
	}

	svc := newTestGradingService(quizRepo, attemptRepo, recorder, testGradingConfig())
	resp, err := svc.Grade(context.Background(), userID,
		&dto.GradeRequest{AttemptID: attempt.ID, Responses: responses})

	require.NoError(t, err)
	assert.Equal(t, attempt.ID, resp.AttemptID)
	assert.Equal(t, 50, resp.Score)
	assert.Equal(t, "F", resp.Letter)
	assert.Equal(t, "2 of 4 correct", resp.Summary)
	require.Len(t, resp.Breakdown, 4)
	assert.True(t, resp.Breakdown[0].Correct)
	assert.False(t, resp.Breakdown[1].Correct)

	require.NotNil(t, update)
	assert.InDelta(t, 0.5, update.Score, 1e-9)
	assert.Equal(t, GradingModelMarker, update.GradingModel)
	assert.GreaterOrEqual(t, update.DurationMS, int64(60000))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventQuizGraded, events[0].EventType)
	assert.Equal(t, RubricVersion, events[0].Payload["rubric_version"])
}

func TestGrade_ResumeFlow_AttemptNotOwned(t *testing.T) {
	attemptRepo := new(MockAttemptRepository)
	attemptID := util.NewULID()

	attemptRepo.On("GetAttemptByID", mock.Anything, attemptID).
		Return(&domain.QuizAttempt{ID: attemptID, OwnerID: util.NewULID(), Status: domain.AttemptInProgress}, nil)

	svc := newTestGradingService(new(MockQuizRepository), attemptRepo, &capturingRecorder{}, testGradingConfig())
	_, err := svc.Grade(context.Background(), util.NewULID(),
		&dto.GradeRequest{AttemptID: attemptID, Responses: map[string]string{}})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeNotFound, derr.Code)
	assert.Equal(t, 404, derr.Status)
}

func TestGrade_ResumeFlow_AlreadySubmitted(t *testing.T) {
	attemptRepo := new(MockAttemptRepository)
	userID := util.NewULID()
	attemptID := util.NewULID()

	attemptRepo.On("GetAttemptByID", mock.Anything, attemptID).
		Return(&domain.QuizAttempt{ID: attemptID, OwnerID: userID, Status: domain.AttemptSubmitted}, nil)

	svc := newTestGradingService(new(MockQuizRepository), attemptRepo, &capturingRecorder{}, testGradingConfig())
	_, err := svc.Grade(context.Background(), userID,
		&dto.GradeRequest{AttemptID: attemptID, Responses: map[string]string{}})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeBadRequest, derr.Code)
	assert.Equal(t, 400, derr.Status)
}

func TestGrade_ResumeFlow_ConditionalUpdateMiss(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	userID := util.NewULID()

	quiz := fourQuestionMCQQuiz(userID)
	attempt := &domain.QuizAttempt{
		ID: util.NewULID(), QuizID: quiz.ID, OwnerID: userID,
		Status: domain.AttemptInProgress, StartedAt: time.Now(),
	}
	attemptRepo.On("GetAttemptByID", mock.Anything, attempt.ID).Return(attempt, nil)
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	attemptRepo.On("UpdateSubmitted", mock.Anything, attempt.ID, userID, mock.Anything).Return(false, nil)

	svc := newTestGradingService(quizRepo, attemptRepo, &capturingRecorder{}, testGradingConfig())
	_, err := svc.Grade(context.Background(), userID,
		&dto.GradeRequest{AttemptID: attempt.ID, Responses: map[string]string{}})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeNotFound, derr.Code)
}

func TestGrade_InstantFlow_CreatesSubmittedAttempt(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	recorder := &capturingRecorder{}
	userID := util.NewULID()

	quiz := fourQuestionMCQQuiz(userID)
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	var created *domain.QuizAttempt
	attemptRepo.On("CreateAttempt", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.QuizAttempt) }).
		Return(nil)

	responses := map[string]string{
		quiz.Questions[0].ID: "red",
		quiz.Questions[1].ID: "blue",
		quiz.Questions[2].ID: "green",
		quiz.Questions[3].ID: "yellow",
	}

	svc := newTestGradingService(quizRepo, attemptRepo, recorder, testGradingConfig())
	resp, err := svc.Grade(context.Background(), userID,
		&dto.GradeRequest{QuizID: quiz.ID, Responses: responses})

	require.NoError(t, err)
	assert.Equal(t, 100, resp.Score)
	assert.Equal(t, "A", resp.Letter)

	require.NotNil(t, created)
	assert.Equal(t, domain.AttemptSubmitted, created.Status)
	assert.Equal(t, created.StartedAt, created.SubmittedAt)
	assert.InDelta(t, 1.0, created.Score, 1e-9)
	assert.Equal(t, GradingModelMarker, created.GradingModel)
	attemptRepo.AssertNotCalled(t, "UpdateSubmitted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGrade_InstantFlow_DisabledByConfig(t *testing.T) {
	cfg := testGradingConfig()
	cfg.Quota.DemoInstantGrade = false

	svc := newTestGradingService(new(MockQuizRepository), new(MockAttemptRepository), &capturingRecorder{}, cfg)
	_, err := svc.Grade(context.Background(), util.NewULID(),
		&dto.GradeRequest{QuizID: util.NewULID(), Responses: map[string]string{}})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeBadRequest, derr.Code)
}

func TestGrade_EmptyQuiz(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	userID := util.NewULID()

	quiz := &domain.Quiz{ID: util.NewULID(), OwnerID: userID}
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	svc := newTestGradingService(quizRepo, new(MockAttemptRepository), &capturingRecorder{}, testGradingConfig())
	_, err := svc.Grade(context.Background(), userID,
		&dto.GradeRequest{QuizID: quiz.ID, Responses: map[string]string{}})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeEmptyQuiz, derr.Code)
	assert.Equal(t, 400, derr.Status)
}

func TestGrade_MissingIdentifiers(t *testing.T) {
	svc := newTestGradingService(new(MockQuizRepository), new(MockAttemptRepository), &capturingRecorder{}, testGradingConfig())
	_, err := svc.Grade(context.Background(), util.NewULID(),
		&dto.GradeRequest{Responses: map[string]string{}})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeSchemaInvalid, derr.Code)
}

func TestStartAttempt(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	userID := util.NewULID()

	quiz := fourQuestionMCQQuiz(userID)
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	var created *domain.QuizAttempt
	attemptRepo.On("CreateAttempt", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.QuizAttempt) }).
		Return(nil)

	svc := newTestGradingService(quizRepo, attemptRepo, &capturingRecorder{}, testGradingConfig())
	resp, err := svc.StartAttempt(context.Background(), userID, &dto.StartAttemptRequest{QuizID: quiz.ID})

	require.NoError(t, err)
	assert.Equal(t, quiz.ID, resp.QuizID)
	require.NotNil(t, created)
	assert.Equal(t, domain.AttemptInProgress, created.Status)
	assert.Equal(t, userID, created.OwnerID)
}

func TestStartAttempt_QuizNotOwned(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quiz := fourQuestionMCQQuiz(util.NewULID())
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	svc := newTestGradingService(quizRepo, new(MockAttemptRepository), &capturingRecorder{}, testGradingConfig())
	_, err := svc.StartAttempt(context.Background(), util.NewULID(), &dto.StartAttemptRequest{QuizID: quiz.ID})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeNotFound, derr.Code)
}

func TestGetQuiz(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	userID := util.NewULID()
	quiz := fourQuestionMCQQuiz(userID)
	quizRepo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	svc := newTestGradingService(quizRepo, new(MockAttemptRepository), &capturingRecorder{}, testGradingConfig())
	resp, err := svc.GetQuiz(context.Background(), userID, quiz.ID)

	require.NoError(t, err)
	assert.Equal(t, quiz.ID, resp.ID)
	assert.Len(t, resp.Questions, 4)
}
