package service

import (
	"context"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/stretchr/testify/mock"
)

// MockSegmentOrchestrator is a testify mock of SegmentOrchestrator.
type MockSegmentOrchestrator struct {
	mock.Mock
}

func NewMockSegmentOrchestrator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSegmentOrchestrator {
	m := &MockSegmentOrchestrator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockSegmentOrchestrator) StartBatch(ctx context.Context, req dto.BatchRequest) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}

func (m *MockSegmentOrchestrator) Views() []dto.SegmentView {
	args := m.Called()

	views, _ := args.Get(0).([]dto.SegmentView)

	return views
}

func (m *MockSegmentOrchestrator) RevealMore(index int) (dto.SegmentView, error) {
	args := m.Called(index)

	return args.Get(0).(dto.SegmentView), args.Error(1)
}

func (m *MockSegmentOrchestrator) BatchID() string {
	args := m.Called()

	return args.String(0)
}
