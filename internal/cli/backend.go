package cli

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/amqp"
	"quiz-engine/internal/infra/memory"
	"quiz-engine/internal/infra/postgres"
	infraredis "quiz-engine/internal/infra/redis"
	"quiz-engine/internal/scoring"
)

// quizStore is the system of record for quizzes.
type quizStore interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	RecordAttemptStats(ctx context.Context, quizID string, percentage, timeSpent int) error
}

// backend holds the stores picked from config: Postgres when a URL is set,
// otherwise in-memory stores seeded with a demo quiz. Redis, when set,
// fronts quiz reads and mirrors live sessions.
type backend struct {
	cfg        config.Config
	pool       *pgxpool.Pool
	redis      *redis.Client
	quizzes    quizStore
	attempts   app.AttemptStore
	quizCache  app.QuizRepository
	redisCache *infraredis.QuizRepository
	publisher  *amqp.Publisher
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{cfg: cfg}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.pool = pool
		b.quizzes = postgres.NewQuizStore(pool)
		b.attempts = postgres.NewAttemptStore(pool)
	} else {
		b.quizzes = memory.NewQuizStore(demoQuiz())
		b.attempts = memory.NewAttemptStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.redisCache = infraredis.NewQuizRepository(b.redis, b.quizzes, quizTTL)
		b.quizCache = b.redisCache
	} else {
		b.quizCache = memory.NewQuizRepository(b.quizzes, quizTTL)
	}

	publisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.publisher = publisher
	return b, nil
}

// sessionStore returns the Redis-mirrored store when Redis is configured.
func (b *backend) sessionStore() app.SessionRepository {
	if b.redis != nil {
		return infraredis.NewSessionStore(b.redis, config.TTLDuration(b.cfg.Redis.TTL, 30*time.Minute))
	}
	return memory.NewSessionStore()
}

func (b *backend) service(sessions app.SessionRepository) *app.AssessmentService {
	return app.NewAssessmentService(b.quizCache, b.quizzes, b.attempts, sessions,
		app.WithEngine(scoring.NewEngine(scoring.WithPolicy(b.cfg.ScoringPolicy()))),
		app.WithPublisher(b.publisher),
	)
}

// invalidate drops a cached quiz after it was rewritten.
func (b *backend) invalidate(ctx context.Context, quizID string) {
	if b.redisCache != nil {
		if err := b.redisCache.Invalidate(ctx, quizID); err != nil {
			log.Printf("invalidate cached quiz %s: %v", quizID, err)
		}
	}
}

func (b *backend) Close() {
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			log.Printf("close publisher: %v", err)
		}
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

// loadConfig reads the config file. A missing file yields the zero config,
// which runs everything in memory.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using in-memory defaults", path)
		cfg.AMQP.Exchange = "quiz.events"
		return cfg, nil
	}
	return cfg, err
}

func withBackend(ctx context.Context, configPath string, fn func(*backend) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}
