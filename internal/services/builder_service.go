package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/utils"
)

// IBuilderService reconciles builder save events with the template store.
// A draft lives in memory between the builder's save event and an explicit
// commit or discard; nothing is durable until commit.
type IBuilderService interface {
	HandleBuilderSave(ctx context.Context, accountID utils.SixID, event models.BuilderSaveEvent) (*models.PendingTemplateDraft, error)
	PendingDraft(accountID utils.SixID) (*models.PendingTemplateDraft, bool)
	Commit(ctx context.Context, accountID utils.SixID) (*models.Template, error)
	Discard(accountID utils.SixID) error
}

// Session state is a tagged variant, so "detail present but no draft" and
// similar illegal combinations cannot be represented.
type sessionState interface {
	isSessionState()
}

type stateIdle struct{}

type stateFetchingDetail struct {
	externalID string
}

type statePendingCommit struct {
	draft models.PendingTemplateDraft
}

func (stateIdle) isSessionState()           {}
func (stateFetchingDetail) isSessionState() {}
func (statePendingCommit) isSessionState()  {}

// draftSession is one account's builder session. The generation counter
// implements last-write-wins: a newer save event bumps it, and results of
// older fetches are dropped whole rather than merged.
type draftSession struct {
	generation uint64
	state      sessionState
}

// builderService implements IBuilderService.
type builderService struct {
	docuseal        docuseal.IDocusealClient
	templateService ITemplateService

	mu       sync.Mutex
	sessions map[utils.SixID]*draftSession
}

// NewBuilderService creates a new BuilderService.
func NewBuilderService(client docuseal.IDocusealClient, templateService ITemplateService) IBuilderService {
	return &builderService{
		docuseal:        client,
		templateService: templateService,
		sessions:        make(map[utils.SixID]*draftSession),
	}
}

func (s *builderService) session(accountID utils.SixID) *draftSession {
	sess, ok := s.sessions[accountID]
	if !ok {
		sess = &draftSession{state: stateIdle{}}
		s.sessions[accountID] = sess
	}
	return sess
}

// HandleBuilderSave processes a builder "save" event: it fetches the
// authoritative detail for the draft from DocuSeal and holds the merged
// result awaiting an explicit commit. A save event arriving while another
// draft is in flight or pending supersedes it entirely.
func (s *builderService) HandleBuilderSave(ctx context.Context, accountID utils.SixID, event models.BuilderSaveEvent) (*models.PendingTemplateDraft, error) {
	if event.ExternalID == "" {
		return nil, fmt.Errorf("builder save event missing template identifier")
	}

	s.mu.Lock()
	sess := s.session(accountID)
	sess.generation++
	gen := sess.generation
	sess.state = stateFetchingDetail{externalID: event.ExternalID}
	s.mu.Unlock()

	detail, fetchErr := s.docuseal.FetchTemplateDetail(ctx, event.ExternalID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.generation != gen {
		// A newer save event took over while the fetch was outstanding.
		// Its fetch owns the session now; this result is dropped whole.
		return nil, ErrDraftSuperseded
	}

	if fetchErr != nil {
		// Back to idle with nothing retained.
		sess.state = stateIdle{}
		return nil, fetchErr
	}

	name := event.Name
	if name == "" {
		name = detail.Name
	}
	draft := models.PendingTemplateDraft{
		ExternalID: event.ExternalID,
		Name:       name,
		PdfURL:     detail.PdfURL,
		PreviewURL: detail.PreviewURL,
		Definition: detail.Definition,
	}
	sess.state = statePendingCommit{draft: draft}

	out := draft
	return &out, nil
}

// PendingDraft returns the draft currently awaiting commit, if any.
func (s *builderService) PendingDraft(accountID utils.SixID) (*models.PendingTemplateDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[accountID]
	if !ok {
		return nil, false
	}
	pending, ok := sess.state.(statePendingCommit)
	if !ok {
		return nil, false
	}
	draft := pending.draft
	return &draft, true
}

// Commit persists the pending draft through the template store. On success
// the draft is cleared; on a store failure the draft stays pending so the
// user can retry or discard explicitly.
func (s *builderService) Commit(ctx context.Context, accountID utils.SixID) (*models.Template, error) {
	s.mu.Lock()
	sess, ok := s.sessions[accountID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoPendingDraft
	}
	pending, ok := sess.state.(statePendingCommit)
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoPendingDraft
	}
	gen := sess.generation
	draft := pending.draft
	s.mu.Unlock()

	// The store call happens outside the lock; a concurrent save event may
	// supersede the draft meanwhile, in which case the newer draft wins the
	// session and this commit's cleanup leaves it alone.
	tpl, err := s.templateService.Save(ctx, &draft, accountID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if sess.generation == gen {
		sess.state = stateIdle{}
	} else {
		log.Printf("builder session for %s superseded during commit; newer draft kept", accountID.String())
	}
	s.mu.Unlock()

	return tpl, nil
}

// Discard drops the pending draft without touching the store.
func (s *builderService) Discard(accountID utils.SixID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[accountID]
	if !ok {
		return ErrNoPendingDraft
	}
	if _, pending := sess.state.(statePendingCommit); !pending {
		return ErrNoPendingDraft
	}
	sess.state = stateIdle{}
	return nil
}
