package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"docauth/internal/model"
	"docauth/internal/repository"
	"docauth/internal/storage"
)

// DocumentPage is one page of the signed-document catalog.
type DocumentPage struct {
	Items    []model.Document
	Count    int
	Page     int
	PageSize int
}

func (p *DocumentPage) HasNext() bool {
	return p.PageSize > 0 && p.Page < (p.Count+p.PageSize-1)/p.PageSize
}

func (p *DocumentPage) HasPrevious() bool { return p.Page > 1 }

// DocumentService exposes read access to signed documents.
type DocumentService interface {
	// List returns the 1-based page of documents, oldest first. pageSize <= 0 selects
	// the configured default; larger values are capped at the configured maximum.
	List(ctx context.Context, page, pageSize int) (*DocumentPage, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Open returns the document record and a stream of its stored bytes.
	// The caller must close the stream.
	Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error)
}

type documentService struct {
	store       storage.Storage
	repo        repository.DocumentRepository
	pageSize    int
	maxPageSize int
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, pageSize, maxPageSize int) DocumentService {
	if pageSize <= 0 {
		pageSize = 10
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &documentService{store: store, repo: repo, pageSize: pageSize, maxPageSize: maxPageSize}
}

func (s *documentService) List(ctx context.Context, page, pageSize int) (*DocumentPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be a positive integer", ErrInvalidInput)
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	pageSize = min(pageSize, s.maxPageSize)
	// No catalog is large enough to reach an offset past MaxInt.
	if page-1 > math.MaxInt/pageSize {
		return nil, ErrPageOutOfRange
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: pageSize, Offset: (page - 1) * pageSize})
	if err != nil {
		return nil, err
	}
	if page > 1 && len(res.Items) == 0 {
		return nil, ErrPageOutOfRange
	}
	return &DocumentPage{Items: res.Items, Count: res.Total, Page: page, PageSize: pageSize}, nil
}

// Get returns a document by ID. Malformed IDs are reported as not found.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", doc.StoragePath, err)
	}
	return doc, rc, nil
}
