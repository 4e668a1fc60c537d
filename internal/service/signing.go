package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docauth/internal/filetype"
	"docauth/internal/fingerprint"
	"docauth/internal/metrics"
	"docauth/internal/model"
	"docauth/internal/repository"
	"docauth/internal/storage"
)

// SignRequest is a validated upload to be signed.
type SignRequest struct {
	OwnerID  string
	Name     string
	Filename string
	Content  []byte
}

// SignResult is what a successful signing returns to the caller.
type SignResult struct {
	Document *model.Document
	Message  string
}

// SigningService turns uploads into signed, immutable documents.
type SigningService interface {
	// Sign fingerprints and seals the content, stores the bytes, then records the document.
	// Identical content signed twice yields two documents. On failure nothing is left visible.
	Sign(ctx context.Context, req SignRequest) (*SignResult, error)
}

type signingService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	inspector *filetype.Inspector
	sealer    *fingerprint.Sealer
	metrics   *metrics.Recorder
	log       *zap.Logger
	now       func() time.Time
}

// NewSigningService constructs a new SigningService.
func NewSigningService(
	store storage.Storage,
	repo repository.DocumentRepository,
	inspector *filetype.Inspector,
	sealer *fingerprint.Sealer,
	rec *metrics.Recorder,
	log *zap.Logger,
) SigningService {
	if log == nil {
		log = zap.NewNop()
	}
	return &signingService{
		store:     store,
		repo:      repo,
		inspector: inspector,
		sealer:    sealer,
		metrics:   rec,
		log:       log.With(zap.String("component", "signing")),
		now:       time.Now,
	}
}

func (s *signingService) Sign(ctx context.Context, req SignRequest) (*SignResult, error) {
	if req.OwnerID == "" {
		return nil, ErrUnauthorized
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: document file is required", ErrInvalidInput)
	}
	info, err := s.inspector.Inspect(req.Filename, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	fp := fingerprint.Sum(req.Content)
	seal, err := s.sealer.Seal(fp)
	if err != nil {
		return nil, fmt.Errorf("seal document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	key := "documents/" + id + "." + info.Ext

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(req.Content), storage.PutObjectOptions{
		Size:        int64(len(req.Content)),
		ContentType: info.ContentType,
		Metadata: map[string]string{
			"document-id":       id,
			"original-filename": req.Filename,
			"fingerprint":       fp,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:          id,
		Name:        name,
		Filename:    req.Filename,
		StoragePath: objInfo.Key,
		ContentType: info.ContentType,
		Size:        int64(len(req.Content)),
		PageCount:   info.PageCount,
		Fingerprint: fp,
		Signature:   seal.Signature,
		PublicKey:   seal.PublicKey,
		OwnerID:     req.OwnerID,
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// The object must not outlive a failed insert, even if the caller has gone away.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if delErr := s.store.Delete(cleanupCtx, key); delErr != nil {
			s.log.Error("signing_rollback_failed", zap.String("document_id", id), zap.String("storage_key", key), zap.Error(delErr))
			return nil, fmt.Errorf("db save failed: %w; rollback delete failed: %v", err, delErr)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.metrics.DocumentSigned()
	s.log.Info("document_signed",
		zap.String("document_id", stored.ID),
		zap.String("owner_id", stored.OwnerID),
		zap.String("content_type", stored.ContentType),
		zap.Int64("size", stored.Size),
		zap.Int("page_count", stored.PageCount),
	)

	return &SignResult{
		Document: stored,
		Message:  fmt.Sprintf("Document %q signed successfully.", stored.Name),
	}, nil
}
