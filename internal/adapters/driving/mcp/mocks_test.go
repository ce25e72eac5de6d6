package mcp

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.Answer
	err     error
	lastReq driving.AskRequest
}

func (m *mockQueryService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.lastReq = req
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report  *domain.IndexReport
	err     error
	lastReq driving.IndexRequest
}

func (m *mockIngestService) Index(_ context.Context, req driving.IndexRequest) (*domain.IndexReport, error) {
	m.lastReq = req
	return m.report, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	infos   []domain.SessionInfo
	session *domain.Session
	err     error
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return m.infos, m.err
}

func (m *mockSessionService) Get(_ context.Context, _ string) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.session == nil {
		return nil, domain.ErrNotFound
	}
	return m.session, nil
}
