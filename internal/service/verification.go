package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docauth/internal/fingerprint"
	"docauth/internal/metrics"
	"docauth/internal/model"
	"docauth/internal/ocr"
	"docauth/internal/repository"
	"docauth/internal/storage"
)

// VerifyRequest is a presented file to be checked against a signed document.
type VerifyRequest struct {
	DocumentID string
	Filename   string
	Content    []byte
	UseOCR     bool
}

// VerificationService adjudicates presented files against signed documents.
type VerificationService interface {
	// Verify returns a verdict for every fully or partially evaluated request, including
	// NotFound and OCR failures. An error means the request was invalid or the stores failed.
	Verify(ctx context.Context, req VerifyRequest) (*model.Verdict, error)

	// CheckStored re-hashes the stored bytes of document id and checks them against
	// the recorded fingerprint and seal. It answers whether the signed record itself
	// is still intact; no file is presented.
	CheckStored(ctx context.Context, id string) (*model.Verdict, error)
}

type verificationService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	normalizer *ocr.Normalizer
	metrics    *metrics.Recorder
	log        *zap.Logger
}

// NewVerificationService constructs a new VerificationService.
func NewVerificationService(
	store storage.Storage,
	repo repository.DocumentRepository,
	normalizer *ocr.Normalizer,
	rec *metrics.Recorder,
	log *zap.Logger,
) VerificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &verificationService{
		store:      store,
		repo:       repo,
		normalizer: normalizer,
		metrics:    rec,
		log:        log.With(zap.String("component", "verification")),
	}
}

var verdictMessages = map[model.Reason]string{
	model.ReasonExactMatch:       "The document is authentic: its content matches the signed original.",
	model.ReasonOCRMatch:         "The document is authentic: its text matches the signed original.",
	model.ReasonContentDiffers:   "The document does not match the signed original.",
	model.ReasonTextDiffers:      "The document text does not match the signed original.",
	model.ReasonNoTextExtracted:  "No text could be extracted for comparison.",
	model.ReasonSignatureInvalid: "The stored signature for this document does not verify.",
	model.ReasonOCRUnavailable:   "Text comparison could not be evaluated: the OCR backend is unavailable.",
	model.ReasonOCRDecodeError:   "Text comparison could not be evaluated: the OCR backend could not read the document.",
	model.ReasonDocumentNotFound: "document not found",
	model.ReasonStoredIntact:     "The stored document is intact and its signature verifies.",
	model.ReasonStoredAltered:    "The stored document no longer matches its recorded fingerprint.",
}

func verdict(id string, outcome model.Outcome, reason model.Reason) *model.Verdict {
	return &model.Verdict{DocumentID: id, Outcome: outcome, Reason: reason, Message: verdictMessages[reason]}
}

func (s *verificationService) Verify(ctx context.Context, req VerifyRequest) (*model.Verdict, error) {
	if req.DocumentID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: document file is required", ErrInvalidInput)
	}

	start := time.Now()
	v, err := s.decide(ctx, req)
	if err != nil {
		return nil, err
	}

	s.metrics.Verdict(*v)
	s.log.Info("document_verified",
		zap.String("document_id", v.DocumentID),
		zap.Bool("use_ocr", req.UseOCR),
		zap.String("verdict", string(v.Outcome)),
		zap.String("reason", string(v.Reason)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return v, nil
}

func (s *verificationService) decide(ctx context.Context, req VerifyRequest) (*model.Verdict, error) {
	id := req.DocumentID
	if _, err := uuid.Parse(id); err != nil {
		return verdict(id, model.OutcomeNotFound, model.ReasonDocumentNotFound), nil
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return verdict(id, model.OutcomeNotFound, model.ReasonDocumentNotFound), nil
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	fp := fingerprint.Sum(req.Content)
	if fingerprint.Equal(fp, doc.Fingerprint) {
		if err := fingerprint.Verify(fp, fingerprint.Seal{Signature: doc.Signature, PublicKey: doc.PublicKey}); err != nil {
			s.log.Warn("seal_verification_failed", zap.String("document_id", id), zap.Error(err))
			return verdict(id, model.OutcomeMismatch, model.ReasonSignatureInvalid), nil
		}
		return verdict(id, model.OutcomeAuthentic, model.ReasonExactMatch), nil
	}
	if !req.UseOCR {
		return verdict(id, model.OutcomeMismatch, model.ReasonContentDiffers), nil
	}

	storedText, presentedText, err := s.extractBoth(ctx, doc, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case errors.Is(err, ocr.ErrDecode):
			return verdict(id, model.OutcomeMismatch, model.ReasonOCRDecodeError), nil
		case errors.Is(err, ocr.ErrUnavailable):
			s.log.Warn("ocr_unavailable", zap.String("document_id", id), zap.Error(err))
			return verdict(id, model.OutcomeMismatch, model.ReasonOCRUnavailable), nil
		default:
			return nil, err
		}
	}

	switch {
	case storedText == "" || presentedText == "":
		return verdict(id, model.OutcomeMismatch, model.ReasonNoTextExtracted), nil
	case storedText == presentedText:
		return verdict(id, model.OutcomeAuthentic, model.ReasonOCRMatch), nil
	default:
		return verdict(id, model.OutcomeMismatch, model.ReasonTextDiffers), nil
	}
}

func (s *verificationService) CheckStored(ctx context.Context, id string) (*model.Verdict, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	v, err := s.checkStored(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.Verdict(*v)
	s.log.Info("document_integrity_checked",
		zap.String("document_id", id),
		zap.String("verdict", string(v.Outcome)),
		zap.String("reason", string(v.Reason)),
	)
	return v, nil
}

func (s *verificationService) checkStored(ctx context.Context, id string) (*model.Verdict, error) {
	if _, err := uuid.Parse(id); err != nil {
		return verdict(id, model.OutcomeNotFound, model.ReasonDocumentNotFound), nil
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return verdict(id, model.OutcomeNotFound, model.ReasonDocumentNotFound), nil
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Warn("stored_object_missing", zap.String("document_id", id), zap.String("key", doc.StoragePath))
			return verdict(id, model.OutcomeMismatch, model.ReasonStoredAltered), nil
		}
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	defer rc.Close()

	fp, n, err := fingerprint.SumReader(rc)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	if n != doc.Size || !fingerprint.Equal(fp, doc.Fingerprint) {
		s.log.Warn("stored_object_altered", zap.String("document_id", id), zap.Int64("size", n), zap.Int64("recorded_size", doc.Size))
		return verdict(id, model.OutcomeMismatch, model.ReasonStoredAltered), nil
	}
	if err := fingerprint.Verify(fp, fingerprint.Seal{Signature: doc.Signature, PublicKey: doc.PublicKey}); err != nil {
		s.log.Warn("seal_verification_failed", zap.String("document_id", id), zap.Error(err))
		return verdict(id, model.OutcomeMismatch, model.ReasonSignatureInvalid), nil
	}
	return verdict(id, model.OutcomeAuthentic, model.ReasonStoredIntact), nil
}

// extractBoth runs OCR over the stored and presented bytes concurrently.
// The first failure cancels the other extraction.
func (s *verificationService) extractBoth(ctx context.Context, doc *model.Document, req VerifyRequest) (string, string, error) {
	var storedText, presentedText string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		content, err := s.readStored(gctx, doc.StoragePath)
		if err != nil {
			return err
		}
		storedText, err = s.extract(gctx, ocr.Input{Filename: doc.Filename, ContentType: doc.ContentType, Content: content})
		return err
	})
	g.Go(func() error {
		var err error
		presentedText, err = s.extract(gctx, ocr.Input{Filename: req.Filename, Content: req.Content})
		return err
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return storedText, presentedText, nil
}

func (s *verificationService) readStored(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	return b, nil
}

func (s *verificationService) extract(ctx context.Context, in ocr.Input) (string, error) {
	start := time.Now()
	text, err := s.normalizer.ExtractText(ctx, in)
	switch {
	case err == nil:
		s.metrics.OCR("ok", time.Since(start))
	case errors.Is(err, ocr.ErrDecode):
		s.metrics.OCR("decode_error", time.Since(start))
	case errors.Is(err, ocr.ErrUnavailable):
		s.metrics.OCR("unavailable", time.Since(start))
	}
	return text, err
}
