package trails

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tinytrails/tinytrails/base52"
	"github.com/tinytrails/tinytrails/internal/errx"
	"github.com/tinytrails/tinytrails/internal/tokengen"
)

// PaveRequest represents the parameters for paving a new trail.
type PaveRequest struct {
	URL      string
	Lifetime int // whole hours; 0 means DefaultLifetime
}

// PavedTrail is what a caller needs to use and later delete a trail.
type PavedTrail struct {
	TrailID string
	Token   string
}

// Service defines the client-facing trail operations.
type Service interface {
	Pave(ctx context.Context, req PaveRequest) (PavedTrail, error)
	Traverse(ctx context.Context, trailID, callerAddr string) (string, error)
	Peek(ctx context.Context, trailID string) (string, error)
	Info(ctx context.Context, trailID string) (TrailInfo, error)
	Delete(ctx context.Context, trailID, presentedToken string) error
}

type service struct {
	repo   Repository
	tokens tokengen.Generator
	now    func() time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	TokenGenerator tokengen.Generator
	Now            func() time.Time // reference clock, UTC; defaults to time.Now
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	tokens := config.TokenGenerator
	if tokens == nil {
		tokens = tokengen.New(tokengen.WithLength(TokenLength))
	}

	now := config.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &service{
		repo:   repo,
		tokens: tokens,
		now:    now,
	}
}

func (s *service) Pave(ctx context.Context, req PaveRequest) (PavedTrail, error) {
	const op = "trails.service.Pave"

	if err := validateURL(req.URL); err != nil {
		return PavedTrail{}, errx.E(op, errx.Invalid, err)
	}

	lifetime := req.Lifetime
	if lifetime == 0 {
		lifetime = DefaultLifetime
	}
	if lifetime < MinLifetime || lifetime > MaxLifetime {
		return PavedTrail{}, errx.E(op, errx.Invalid,
			fmt.Errorf("lifetime must be between %d and %d hours", MinLifetime, MaxLifetime))
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return PavedTrail{}, errx.E(op, errx.Unavailable, err)
	}

	trail, err := s.repo.Pave(ctx, req.URL, lifetime, token)
	if err != nil {
		return PavedTrail{}, errx.E(op, errx.KindOf(err), err)
	}

	return PavedTrail{TrailID: trail.TrailID, Token: trail.Token}, nil
}

func (s *service) Traverse(ctx context.Context, trailID, callerAddr string) (string, error) {
	const op = "trails.service.Traverse"

	if err := checkTrailID(op, trailID); err != nil {
		return "", err
	}

	var hashedIP string
	if callerAddr != "" {
		hashedIP = HashAddr(callerAddr)
	}

	trail, err := s.repo.Traverse(ctx, trailID, hashedIP, s.now())
	if err != nil {
		return "", errx.E(op, errx.KindOf(err), err)
	}
	return trail.URL, nil
}

func (s *service) Peek(ctx context.Context, trailID string) (string, error) {
	const op = "trails.service.Peek"

	if err := checkTrailID(op, trailID); err != nil {
		return "", err
	}

	trail, err := s.repo.Peek(ctx, trailID, s.now())
	if err != nil {
		return "", errx.E(op, errx.KindOf(err), err)
	}
	return trail.URL, nil
}

func (s *service) Info(ctx context.Context, trailID string) (TrailInfo, error) {
	const op = "trails.service.Info"

	if err := checkTrailID(op, trailID); err != nil {
		return TrailInfo{}, err
	}

	trail, stats, err := s.repo.Info(ctx, trailID, s.now())
	if err != nil {
		return TrailInfo{}, errx.E(op, errx.KindOf(err), err)
	}

	return TrailInfo{
		ID:        trail.TrailID,
		URL:       trail.URL,
		CreatedAt: trail.CreatedAt,
		Lifetime:  trail.Lifetime,
		Visits:    stats,
	}, nil
}

func (s *service) Delete(ctx context.Context, trailID, presentedToken string) error {
	const op = "trails.service.Delete"

	if err := checkTrailID(op, trailID); err != nil {
		return err
	}

	// An absent token is an authorization failure; the repository treats
	// it like any mismatch. Deletion without proof of ownership is never
	// allowed.
	if err := s.repo.Delete(ctx, trailID, presentedToken, s.now()); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	return nil
}

// checkTrailID rejects identifiers outside the base52 alphabet before
// they reach storage. A malformed identifier is indistinguishable from
// an unknown one.
func checkTrailID(op, trailID string) error {
	if _, err := base52.Decode(trailID); err != nil {
		return errx.E(op, errx.NotFound, err)
	}
	return nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("url too long (max %d characters)", MaxURLLength)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must include scheme (http or https)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
