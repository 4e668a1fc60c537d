package mocks

import (
	"context"

	"docauth/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockSigningService struct {
	mock.Mock
}

func (m *MockSigningService) Sign(ctx context.Context, req service.SignRequest) (*service.SignResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignResult), args.Error(1)
}
