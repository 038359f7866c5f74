package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/logger"

	"github.com/stretchr/testify/mock"
)

// TestMain initializes the logger for all tests in this package.
func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Level: "error", Env: "test"}); err != nil {
		panic("Failed to initialize logger for tests: " + err.Error())
	}

	exitVal := m.Run()

	_ = logger.Sync()
	os.Exit(exitVal)
}

// --- MockQuizRepository ---

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

// --- MockAttemptRepository ---

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) UpdateSubmitted(ctx context.Context, attemptID, ownerID string, update *domain.AttemptUpdate) (bool, error) {
	args := m.Called(ctx, attemptID, ownerID, update)
	return args.Bool(0), args.Error(1)
}

// --- MockUserRepository ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- MockClassRepository ---

type MockClassRepository struct {
	mock.Mock
}

func (m *MockClassRepository) GetClassByID(ctx context.Context, id string) (*domain.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Class), args.Error(1)
}

// --- MockModelRouter ---

type MockModelRouter struct {
	mock.Mock
}

func (m *MockModelRouter) Invoke(ctx context.Context, task string, prompt string) (string, domain.RouterMetrics, error) {
	args := m.Called(ctx, task, prompt)
	return args.String(0), args.Get(1).(domain.RouterMetrics), args.Error(2)
}

// --- MockCache ---

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- capturingRecorder ---

// capturingRecorder records events synchronously so tests can assert on
// analytics without sleeping.
type capturingRecorder struct {
	mu     sync.Mutex
	events []*domain.QuizEvent
}

func (r *capturingRecorder) Record(event *domain.QuizEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *capturingRecorder) Events() []*domain.QuizEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.QuizEvent, len(r.events))
	copy(out, r.events)
	return out
}
