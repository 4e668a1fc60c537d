package service

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"docauth/internal/model"
	"docauth/internal/repository"
	repoMocks "docauth/internal/repository/mocks"
	"docauth/internal/storage"
	storeMocks "docauth/internal/storage/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		page       int
		pageSize   int
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantSize   int
	}{
		{
			name: "default page size",
			page: 1,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: "1"}}, Total: 1}, nil)
			},
			wantSize: 10,
		},
		{
			name:     "offset from page",
			page:     3,
			pageSize: 5,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 5, Offset: 10}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: "11"}}, Total: 11}, nil)
			},
			wantSize: 5,
		},
		{
			name:     "page size capped",
			page:     1,
			pageSize: 1000,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 50, Offset: 0}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 0}, nil)
			},
			wantSize: 50,
		},
		{
			name:    "page zero",
			page:    0,
			wantErr: ErrInvalidInput,
		},
		{
			name: "past the end",
			page: 4,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 30}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 23}, nil)
			},
			wantErr: ErrPageOutOfRange,
		},
		{
			name:     "offset would overflow",
			page:     math.MaxInt/10 + 2,
			pageSize: 10,
			wantErr:  ErrPageOutOfRange,
		},
		{
			name: "repository error",
			page: 1,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(mRepo)
			}
			svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, 10, 50)

			res, err := svc.List(ctx, tt.page, tt.pageSize)

			if tt.wantErr != nil {
				assert.Error(t, err)
				if errors.Is(tt.wantErr, ErrInvalidInput) || errors.Is(tt.wantErr, ErrPageOutOfRange) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.page, res.Page)
				assert.Equal(t, tt.wantSize, res.PageSize)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentPage_Links(t *testing.T) {
	p := &DocumentPage{Count: 23, Page: 2, PageSize: 10}
	assert.True(t, p.HasNext())
	assert.True(t, p.HasPrevious())

	p.Page = 3
	assert.False(t, p.HasNext())

	p = &DocumentPage{Count: 20, Page: 2, PageSize: 10}
	assert.False(t, p.HasNext())
	p.Page = 1
	assert.False(t, p.HasPrevious())

	p = &DocumentPage{Count: 3, Page: math.MaxInt/10 + 1, PageSize: 10}
	assert.False(t, p.HasNext())
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	t.Run("found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindByID", ctx, id).Return(&model.Document{ID: id}, nil)

		doc, err := NewDocumentService(nil, mRepo, 10, 10).Get(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound)

		_, err := NewDocumentService(nil, mRepo, 10, 10).Get(ctx, id)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed id never reaches the repository", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)

		_, err := NewDocumentService(nil, mRepo, 10, 10).Get(ctx, "../../etc/passwd")

		assert.ErrorIs(t, err, ErrNotFound)
		mRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := NewDocumentService(nil, nil, 10, 10).Get(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDocumentService_Open(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	doc := &model.Document{ID: id, StoragePath: "documents/" + id + ".pdf"}

	t.Run("streams stored bytes", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("FindByID", ctx, id).Return(doc, nil)
		mStore.On("Get", ctx, doc.StoragePath).Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{}, nil)

		got, rc, err := NewDocumentService(mStore, mRepo, 10, 10).Open(ctx, id)

		require.NoError(t, err)
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		assert.Equal(t, "%PDF", string(body))
		assert.Equal(t, id, got.ID)
	})

	t.Run("storage error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("FindByID", ctx, id).Return(doc, nil)
		mStore.On("Get", ctx, doc.StoragePath).Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, _, err := NewDocumentService(mStore, mRepo, 10, 10).Open(ctx, id)

		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}
