package services

import (
	"context"
	"sync"
	"time"

	"journal-management-api/models"
	"journal-management-api/repository"
)

// Shared fixtures for the engine tests: in-memory stores, a recording
// notification gateway, and a pinned clock.

var fixtureBase = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type sentNotice struct {
	Recipient string
	Kind      TemplateKind
	Data      TemplateData
}

// recordingGateway captures sends instead of delivering them. Recipients
// listed in failFor error out, for failure-isolation tests.
type recordingGateway struct {
	mu      sync.Mutex
	sent    []sentNotice
	failFor map[string]error
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{failFor: make(map[string]error)}
}

func (g *recordingGateway) Send(ctx context.Context, recipient string, kind TemplateKind, data TemplateData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failFor[recipient]; ok {
		return err
	}
	g.sent = append(g.sent, sentNotice{Recipient: recipient, Kind: kind, Data: data})
	return nil
}

func (g *recordingGateway) byKind(kind TemplateKind) []sentNotice {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []sentNotice
	for _, notice := range g.sent {
		if notice.Kind == kind {
			out = append(out, notice)
		}
	}
	return out
}

const (
	fixtureAuthorID   = uint(1)
	fixtureReviewerID = uint(2)
	fixtureEditorID   = uint(3)
	fixtureReviewer2  = uint(5)
	fixtureReviewer3  = uint(6)
)

type engineFixture struct {
	manuscripts *repository.MemoryManuscriptRepository
	invitations *repository.MemoryInvitationRepository
	decisions   *repository.MemoryDecisionRepository
	users       *repository.MemoryUserRepository
	gateway     *recordingGateway
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		manuscripts: repository.NewMemoryManuscriptRepository(),
		invitations: repository.NewMemoryInvitationRepository(),
		decisions:   repository.NewMemoryDecisionRepository(),
		users:       repository.NewMemoryUserRepository(),
		gateway:     newRecordingGateway(),
	}
	f.users.Add(models.User{UserID: fixtureAuthorID, UserFname: "Ana", UserLname: "Moreira", Email: "ana.moreira@example.edu", RoleID: models.RoleAuthor})
	f.users.Add(models.User{UserID: fixtureReviewerID, UserFname: "Rafael", UserLname: "Costa", Email: "rafael.costa@example.edu", RoleID: models.RoleReviewer})
	f.users.Add(models.User{UserID: fixtureEditorID, UserFname: "Elena", UserLname: "Vargas", Email: "elena.vargas@example.edu", RoleID: models.RoleEditor})
	f.users.Add(models.User{UserID: fixtureReviewer2, UserFname: "Mei", UserLname: "Tanaka", Email: "mei.tanaka@example.edu", RoleID: models.RoleReviewer})
	f.users.Add(models.User{UserID: fixtureReviewer3, UserFname: "Jonas", UserLname: "Weber", Email: "jonas.weber@example.edu", RoleID: models.RoleReviewer})
	return f
}

func (f *engineFixture) addManuscript(status models.ManuscriptStatus) uint {
	return f.manuscripts.Add(models.Manuscript{
		ManuscriptNumber: "JMS-2026-0042",
		Title:            "Adaptive Sampling for Sparse Sensor Networks",
		Abstract:         "We present an adaptive sampling strategy for sparse sensor deployments.",
		AuthorID:         fixtureAuthorID,
		Status:           status,
		CreatedAt:        fixtureBase.Add(-30 * 24 * time.Hour),
		UpdatedAt:        fixtureBase.Add(-time.Hour),
	})
}

func (f *engineFixture) invitationService(now time.Time) *InvitationService {
	svc := NewInvitationServiceWithStores(f.manuscripts, f.invitations, f.users, f.gateway)
	svc.SetClock(fixedClock(now))
	return svc
}

func (f *engineFixture) stateService(now time.Time) *ManuscriptStateService {
	svc := NewManuscriptStateServiceWithStores(f.manuscripts, f.invitations, f.users, f.gateway)
	svc.SetClock(fixedClock(now))
	return svc
}

func (f *engineFixture) decisionService(now time.Time) *DecisionService {
	svc := NewDecisionServiceWithStores(f.stateService(now), f.decisions, f.users, f.gateway)
	svc.SetClock(fixedClock(now))
	return svc
}

func (f *engineFixture) sweepService(now time.Time) *DeadlineSweepJobService {
	svc := NewDeadlineSweepJobServiceWithStores(f.manuscripts, f.invitations, f.users, f.gateway)
	svc.SetClock(fixedClock(now))
	return svc
}
