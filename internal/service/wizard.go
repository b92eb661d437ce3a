// Package service contains the business logic layer.
//
// This file implements server-side wizard sessions.
package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/session"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// WizardService hosts wizard sessions. Every mutation is a wizard command
// reduced against the persisted state.
type WizardService interface {
	// Create starts a session. embed comes from the host page.
	Create(ctx context.Context, embed bool) (*WizardView, error)

	// Get returns the current view of a session.
	// Returns domain.ENOTFOUND for unknown or expired sessions.
	Get(ctx context.Context, id uuid.UUID) (*WizardView, error)

	// Dispatch applies one command and returns the resulting view.
	// Returns domain.EINVALID for malformed commands or when the command
	// would move past a step whose requirements are not met, and
	// domain.ECONFLICT when concurrent updates could not be serialized.
	Dispatch(ctx context.Context, id uuid.UUID, cmd wizard.Command) (*WizardView, error)

	// Delete drops a session.
	Delete(ctx context.Context, id uuid.UUID) error
}

// WizardView is what a client needs to render the wizard. Savings are
// derived from the state on every read.
type WizardView struct {
	SessionID uuid.UUID            `json:"sessionId"`
	State     wizard.State         `json:"state"`
	Gates     []wizard.Gate        `json:"validation"`
	Savings   domain.SavingsReport `json:"savings"`
}

// sessionStore is the part of session.Store the wizard service uses.
type sessionStore interface {
	Create(ctx context.Context, embed bool) (*session.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Update(ctx context.Context, id uuid.UUID, fn session.UpdateFunc) (*session.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// categoryLister supplies the category list cached into new sessions.
type categoryLister interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// =============================================================================
// Implementation
// =============================================================================

type wizardService struct {
	sessions   sessionStore
	catalog    wizard.CatalogLookup
	categories categoryLister
	logger     *slog.Logger
}

// NewWizardService creates a new WizardService.
func NewWizardService(sessions sessionStore, catalog CatalogService, logger *slog.Logger) WizardService {
	return &wizardService{
		sessions:   sessions,
		catalog:    catalog,
		categories: catalog,
		logger:     logger,
	}
}

// Create starts a session with the category list already cached.
func (s *wizardService) Create(ctx context.Context, embed bool) (*WizardView, error) {
	sess, err := s.sessions.Create(ctx, embed)
	if err != nil {
		return nil, err
	}
	metrics.WizardSessionsCreated.Inc()

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		// The client can still fetch the catalog itself.
		s.logger.Warn("failed to prime session categories", "session_id", sess.ID, "error", err)
		return view(sess), nil
	}

	primed, err := s.sessions.Update(ctx, sess.ID, func(ss *session.Session) error {
		ss.State = wizard.Reduce(ss.State, wizard.CacheCategories{Categories: categories})
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to prime session categories", "session_id", sess.ID, "error", err)
		return view(sess), nil
	}

	s.logger.Info("wizard session created", "session_id", sess.ID, "embed", embed)
	return view(primed), nil
}

// Get returns the current view of a session.
func (s *wizardService) Get(ctx context.Context, id uuid.UUID) (*WizardView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

// Dispatch applies one command.
func (s *wizardService) Dispatch(ctx context.Context, id uuid.UUID, cmd wizard.Command) (*WizardView, error) {
	const op = "wizard.dispatch"

	sess, err := s.sessions.Update(ctx, id, func(ss *session.Session) error {
		actions, err := cmd.Resolve(ctx, ss.State, s.catalog)
		if err != nil {
			return err
		}

		store := wizard.NewStoreFrom(ss.State)
		for _, a := range actions {
			store.Dispatch(a)
		}
		if cmd.Type == wizard.ActionReset {
			// Embed mode belongs to the host page, not to the visitor.
			store.Dispatch(wizard.SetEmbedMode{Embed: ss.Embed})
		}

		next := store.State()
		if next.Step > ss.State.Step {
			if blocked := next.FirstBlockedStep(next.Step); blocked != 0 {
				return domain.NewValidationError(op, "step", next.ValidationMessage(blocked))
			}
		}

		ss.State = next
		return nil
	})
	metrics.CommandResult(string(cmd.Type), err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("wizard command applied", "session_id", id, "type", cmd.Type, "step", sess.State.Step)
	return view(sess), nil
}

// Delete drops a session.
func (s *wizardService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("wizard session deleted", "session_id", id)
	return nil
}

func view(sess *session.Session) *WizardView {
	return &WizardView{
		SessionID: sess.ID,
		State:     sess.State,
		Gates:     sess.State.Gates(),
		Savings:   sess.State.Savings(),
	}
}
