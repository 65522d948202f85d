package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"confsite/internal/registration/metrics"
	"confsite/internal/registration/models"
	"confsite/internal/registration/store"
	dErrors "confsite/pkg/domain-errors"
	request "confsite/pkg/platform/middleware/request"
	"confsite/pkg/platform/middleware/requesttime"
)

// Store persists registrations.
// Error Contract:
// - Create returns store.ErrDuplicateEmail when the email is already registered
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
}

// Notifier tells the organisers about a new registration.
type Notifier interface {
	Notify(ctx context.Context, sub *models.Submission) error
}

// Mailer confirms a registration to the registrant.
type Mailer interface {
	SendConfirmation(ctx context.Context, sub *models.Submission) error
}

type Option func(*Service)

// WithNotifier enables the organiser webhook.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithMailer enables confirmation emails.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSideEffectTimeout bounds each notification and confirmation email.
func WithSideEffectTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sideEffectTimeout = d
		}
	}
}

const defaultSideEffectTimeout = 10 * time.Second

// Service runs the registration pipeline: preference check, persistence,
// then best-effort notification and confirmation.
type Service struct {
	store             Store
	notifier          Notifier
	mailer            Mailer
	logger            *slog.Logger
	metrics           *metrics.Metrics
	sideEffectTimeout time.Duration
}

func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:             store,
		logger:            logger,
		sideEffectTimeout: defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the workshop ranking, stores sub and dispatches the
// notifications. The returned submission carries the assigned ID.
//
// Side effects run only after a successful create and never change the
// result: a failed webhook or email is logged and counted.
func (s *Service) Register(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRegisterDuration(time.Since(start).Seconds()) }()

	if !sub.WorkshopPreferences.Distinct() {
		s.metrics.IncRegistration(metrics.OutcomeDuplicatePreference)
		return nil, dErrors.New(dErrors.CodeDuplicatePreference, "each workshop must have a different rank")
	}

	sub.ID = models.IDForEmail(sub.Email)
	sub.SubmittedAt = requesttime.Now(ctx)

	if err := s.store.Create(ctx, sub); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			s.metrics.IncRegistration(metrics.OutcomeDuplicateEmail)
			return nil, dErrors.New(dErrors.CodeEmailAlreadyRegistered, "this email address is already registered")
		}
		s.metrics.IncRegistration(metrics.OutcomeFailed)
		return nil, dErrors.Wrap(err, dErrors.CodeRegistrationFailed, "registration could not be saved")
	}
	s.metrics.IncRegistration(metrics.OutcomeCreated)

	s.dispatch(ctx, sub)
	return sub, nil
}

// dispatch runs the side effects on a context that survives the client
// going away, so a stored registration is still announced.
func (s *Service) dispatch(ctx context.Context, sub *models.Submission) {
	requestID := request.GetRequestID(ctx)
	detached := context.WithoutCancel(ctx)

	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(detached, s.sideEffectTimeout)
		err := s.notifier.Notify(nctx, sub)
		cancel()
		s.metrics.IncNotification("webhook", err)
		if err != nil {
			s.logger.WarnContext(ctx, "registration webhook failed",
				"error", err,
				"registration_id", sub.ID,
				"request_id", requestID,
			)
		}
	}

	if s.mailer != nil {
		mctx, cancel := context.WithTimeout(detached, s.sideEffectTimeout)
		err := s.mailer.SendConfirmation(mctx, sub)
		cancel()
		s.metrics.IncNotification("email", err)
		if err != nil {
			s.logger.WarnContext(ctx, "registration confirmation email failed",
				"error", err,
				"registration_id", sub.ID,
				"request_id", requestID,
			)
		}
	}
}
