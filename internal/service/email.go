package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/validate"
)

// Ingestion sources used as metric labels.
const (
	SourceAPI     = "api"
	SourceMailbox = "mailbox"
)

// DefaultIngestTimeout bounds one ingestion transaction.
const DefaultIngestTimeout = 15 * time.Second

// EmailService classifies and stores emails and serves email queries.
type EmailService struct {
	store         EmailStore
	classifier    Classifier
	metrics       metrics.Recorder
	logger        *slog.Logger
	ingestTimeout time.Duration
}

// NewEmailService creates a new EmailService.
func NewEmailService(store EmailStore, classifier Classifier, recorder metrics.Recorder, logger *slog.Logger, ingestTimeout time.Duration) *EmailService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ingestTimeout <= 0 {
		ingestTimeout = DefaultIngestTimeout
	}
	return &EmailService{
		store:         store,
		classifier:    classifier,
		metrics:       recorder,
		logger:        logger.With("component", "email_service"),
		ingestTimeout: ingestTimeout,
	}
}

// Ingest validates and sanitizes an email, classifies it and stores it
// with its suggested tasks in one transaction. Nothing is stored when
// classification fails.
//
// The store step is detached from ctx cancellation: once classification
// succeeded the transaction runs to commit or rollback within the ingest
// timeout even if the caller goes away.
func (s *EmailService) Ingest(ctx context.Context, source string, in model.NewEmail) (*model.Email, error) {
	if in.TenantID == "" {
		return nil, apperr.ErrTenantHeaderMissing
	}

	in, err := normalizeEmail(in)
	if err != nil {
		return nil, err
	}

	classification, err := s.classifier.Classify(ctx, in)
	if err != nil {
		s.metrics.IncIngestFailed(source)
		if apperr.KindOf(err) == apperr.ClassificationUnavailable {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.ClassificationUnavailable, err)
	}

	c := normalizeClassification(*classification)

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ingestTimeout)
	defer cancel()

	email, err := s.store.CreateEmailWithTasks(storeCtx, in, c)
	if err != nil {
		s.metrics.IncIngestFailed(source)
		s.logger.Error("ingestion failed",
			"tenant_id", in.TenantID,
			"source", source,
			"suggested_tasks", len(c.SuggestedTasks),
			"error", err,
		)
		return nil, apperr.Wrap(apperr.IngestionFailed, err)
	}

	s.metrics.IncEmailIngested(source)
	s.metrics.AddTasksCreated(len(email.Tasks))
	s.logger.Info("email ingested",
		"tenant_id", email.TenantID,
		"email_id", email.ID,
		"source", source,
		"priority", email.Priority,
		"category", email.Category,
		"tasks", len(email.Tasks),
	)
	return email, nil
}

func normalizeEmail(in model.NewEmail) (model.NewEmail, error) {
	in.Subject = validate.StripHTML(in.Subject)
	in.Body = validate.SanitizeBody(in.Body)
	in.Sender = strings.TrimSpace(in.Sender)
	in.Recipient = strings.TrimSpace(in.Recipient)

	var errs validate.Errors
	errs.Add("subject", validate.Text(in.Subject, validate.MaxSubjectLength, true))
	errs.Add("body", validate.Text(in.Body, validate.MaxBodyLength, false))
	_, err := validate.Address(in.Sender)
	errs.Add("sender", err)
	_, err = validate.OptionalAddress(in.Recipient)
	errs.Add("recipient", err)
	if err := errs.Err(); err != nil {
		return in, apperr.Wrapf(apperr.ValidationFailed, err, err.Error())
	}
	return in, nil
}

// normalizeClassification drops suggested tasks without a title, caps
// titles at the stored limit and gives tasks without a priority the
// email's priority.
func normalizeClassification(c model.Classification) model.Classification {
	if len(c.SuggestedTasks) == 0 {
		return c
	}
	tasks := make([]model.SuggestedTask, 0, len(c.SuggestedTasks))
	for _, st := range c.SuggestedTasks {
		st.Title = truncateRunes(strings.TrimSpace(st.Title), validate.MaxTaskTitleLength)
		if st.Title == "" {
			continue
		}
		st.Priority = strings.TrimSpace(st.Priority)
		if st.Priority == "" {
			st.Priority = c.Priority
		}
		tasks = append(tasks, st)
	}
	c.SuggestedTasks = tasks
	return c
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// ListEmails returns the tenant's emails matching filter, newest first.
func (s *EmailService) ListEmails(ctx context.Context, filter model.EmailFilter) ([]*model.Email, error) {
	if filter.TenantID == "" {
		return nil, apperr.ErrTenantHeaderMissing
	}
	emails, err := s.store.ListEmails(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}
	if emails == nil {
		emails = []*model.Email{}
	}
	return emails, nil
}

// GetEmail returns one of the tenant's emails.
func (s *EmailService) GetEmail(ctx context.Context, tenantID, id string) (*model.Email, error) {
	if tenantID == "" {
		return nil, apperr.ErrTenantHeaderMissing
	}
	email, err := s.store.GetEmail(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrEmailNotFound) {
			return nil, apperr.Wrapf(apperr.NotFound, err, "Email not found")
		}
		return nil, apperr.Wrap(apperr.InternalError, err)
	}
	return email, nil
}
