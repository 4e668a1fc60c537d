package mocks

import (
	"context"

	"docauth/internal/ocr"

	"github.com/stretchr/testify/mock"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, in ocr.Input) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}
