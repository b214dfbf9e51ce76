// Package teacherlink is a client for the TeacherLink candidate endpoints.
package teacherlink

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	userAgent = "spigell/teacherlink-search"

	DefaultCandidatesPath = "/candidates"
	DefaultApprovalsPath  = "/candidates/approvals"
	DefaultFavoritesPath  = "/candidates/favorites"
	// DefaultCandidatesExpression locates the candidate list in the {"data": [[...]]} envelope.
	DefaultCandidatesExpression = "data[0]"

	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 5
)

// Config describes where the endpoints live and how hard the client may hit them.
type Config struct {
	BaseURL              string        `mapstructure:"base-url" validate:"required,url"`
	CandidatesPath       string        `mapstructure:"candidates-path"`
	ApprovalsPath        string        `mapstructure:"approvals-path"`
	FavoritesPath        string        `mapstructure:"favorites-path"`
	CandidatesExpression string        `mapstructure:"candidates-expression"`
	UserUID              string        `mapstructure:"user-uid"`
	UserAgent            string        `mapstructure:"user-agent"`
	Timeout              time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RequestsPerSecond    float64       `mapstructure:"requests-per-second" validate:"gte=0"`
	Breaker              BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker shared by all endpoints.
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max-requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min-requests"`
	FailureThreshold float64       `mapstructure:"failure-threshold" validate:"gte=0,lte=1"`
}

type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string

	candidatesPath string
	approvalsPath  string
	favoritesPath  string
	userUID        string

	expression *jmespath.JMESPath
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// New builds a client. apiKey may be empty; it is sent as x-api-key otherwise.
func New(cfg *Config, apiKey string, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("teacherlink config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	expr := orDefault(cfg.CandidatesExpression, DefaultCandidatesExpression)
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling candidates expression %q: %w", expr, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = defaultRequestsPerSecond
	}

	return &Client{
		apiKey: apiKey,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent:      orDefault(cfg.UserAgent, userAgent),
		APIURL:         strings.TrimRight(cfg.BaseURL, "/"),
		candidatesPath: orDefault(cfg.CandidatesPath, DefaultCandidatesPath),
		approvalsPath:  orDefault(cfg.ApprovalsPath, DefaultApprovalsPath),
		favoritesPath:  orDefault(cfg.FavoritesPath, DefaultFavoritesPath),
		userUID:        strings.TrimSpace(cfg.UserUID),
		expression:     compiled,
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		breaker:        newBreaker(cfg.Breaker, logger),
	}, nil
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 0.6
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "teacherlink-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
