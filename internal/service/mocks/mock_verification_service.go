package mocks

import (
	"context"

	"docauth/internal/model"
	"docauth/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Verify(ctx context.Context, req service.VerifyRequest) (*model.Verdict, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}

func (m *MockVerificationService) CheckStored(ctx context.Context, id string) (*model.Verdict, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}
