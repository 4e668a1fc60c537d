package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docauth/internal/http/middleware"
	"docauth/internal/model"
	"docauth/internal/service"
)

type signResponse struct {
	Message         string `json:"message"`
	DocumentID      string `json:"document_id"`
	DocumentName    string `json:"document_name"`
	Fingerprint     string `json:"fingerprint"`
	VerificationURL string `json:"verification_url"`
}

type documentItem struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	DownloadURL  string `json:"download_url"`
}

type documentListResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []documentItem `json:"results"`
}

type verifyResponse struct {
	Verified   bool          `json:"verified"`
	Verdict    model.Outcome `json:"verdict"`
	Reason     model.Reason  `json:"reason"`
	Message    string        `json:"message"`
	DocumentID string        `json:"document_id"`
}

var errFileTooLarge = errors.New("file too large")

// readFormFile reads the named multipart file fully, refusing anything above maxBytes.
func readFormFile(fh *multipart.FileHeader, maxBytes int) ([]byte, error) {
	if maxBytes > 0 && fh.Size > int64(maxBytes) {
		return nil, errFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, int64(maxBytes)+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && len(b) > maxBytes {
		return nil, errFileTooLarge
	}
	return b, nil
}

// formDocument pulls the "document" file out of the request and writes the error
// response itself when it cannot.
func formDocument(c *fiber.Ctx, maxBytes int) (*multipart.FileHeader, []byte, error) {
	fh, err := c.FormFile("document")
	if err != nil {
		return nil, nil, writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "document file is required")
	}
	content, err := readFormFile(fh, maxBytes)
	switch {
	case errors.Is(err, errFileTooLarge):
		return nil, nil, writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", fmt.Sprintf("document exceeds %d bytes", maxBytes))
	case err != nil:
		return nil, nil, writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	return fh, content, nil
}

// SignDocument handles create_signed_document/.
//
// @Summary Sign a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param document formData file true "Document (pdf, png, jpg)"
// @Param document_name formData string true "Display name"
// @Success 201 {object} signResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Router /create_signed_document/ [post]
func SignDocument(svc service.SigningService, maxBytes int, baseURL string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := middleware.PrincipalFrom(c)
		if p == nil {
			return unauthorized(c)
		}
		name := strings.TrimSpace(c.FormValue("document_name"))
		if name == "" {
			return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "document_name is required")
		}
		fh, content, err := formDocument(c, maxBytes)
		if fh == nil {
			return err
		}

		res, err := svc.Sign(c.UserContext(), service.SignRequest{
			OwnerID:  p.UserID,
			Name:     name,
			Filename: fh.Filename,
			Content:  content,
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(signResponse{
			Message:         res.Message,
			DocumentID:      res.Document.ID,
			DocumentName:    res.Document.Name,
			Fingerprint:     res.Document.Fingerprint,
			VerificationURL: publicBase(c, baseURL) + "/verify/?" + url.Values{"id": {res.Document.ID}}.Encode(),
		})
	}
}

// ListDocuments handles documents/?page=N[&page_size=M].
//
// @Summary List signed documents
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param page query int false "1-based page number"
// @Param page_size query int false "Items per page"
// @Success 200 {object} documentListResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/ [get]
func ListDocuments(svc service.DocumentService, baseURL string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		pageSize := 0
		if raw := c.Query("page_size"); raw != "" {
			if pageSize, err = strconv.Atoi(raw); err != nil || pageSize <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
			}
		}

		res, err := svc.List(c.UserContext(), page, pageSize)
		if err != nil {
			return writeServiceError(c, log, err)
		}

		base := publicBase(c, baseURL)
		out := documentListResponse{Count: res.Count, Results: make([]documentItem, 0, len(res.Items))}
		for _, d := range res.Items {
			out.Results = append(out.Results, documentItem{
				DocumentID:   d.ID,
				DocumentName: d.Name,
				DownloadURL:  base + "/download/" + d.ID + "/",
			})
		}
		if res.HasNext() {
			out.Next = pageLink(base, res.Page+1, pageSize)
		}
		if res.HasPrevious() {
			out.Previous = pageLink(base, res.Page-1, pageSize)
		}
		return c.JSON(out)
	}
}

// publicBase is the configured external base URL, or the request's own when unset.
func publicBase(c *fiber.Ctx, baseURL string) string {
	if base := strings.TrimRight(baseURL, "/"); base != "" {
		return base
	}
	return c.BaseURL()
}

func pageLink(base string, page, pageSize int) *string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	s := base + "/documents/?" + q.Encode()
	return &s
}

// GetDocument returns the metadata of one signed document.
//
// @Summary Get document metadata
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/ [get]
func GetDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if errors.Is(err, service.ErrNotFound) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument handles download/{id}/.
//
// @Summary Download a signed document
// @Tags documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /download/{id}/ [get]
func DownloadDocument(svc service.DocumentService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, rc, err := svc.Open(c.UserContext(), id)
		if errors.Is(err, service.ErrNotFound) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		if err != nil {
			return writeServiceError(c, log, err)
		}

		c.Attachment(downloadName(doc))
		c.Set(fiber.HeaderContentType, doc.ContentType)
		return c.SendStream(rc, int(doc.Size))
	}
}

// downloadName is the display name carrying the original extension.
func downloadName(doc *model.Document) string {
	ext := filepath.Ext(doc.Filename)
	if ext == "" || strings.EqualFold(filepath.Ext(doc.Name), ext) {
		return doc.Name
	}
	return doc.Name + strings.ToLower(ext)
}

// VerifyDocument handles verify/.
//
// @Summary Verify a document against a signed original
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id formData string true "Document ID"
// @Param document formData file true "Presented file"
// @Param use_ocr formData bool false "Fall back to OCR text comparison"
// @Success 200 {object} verifyResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} verifyResponse
// @Failure 422 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /verify/ [post]
func VerifyDocument(svc service.VerificationService, maxBytes int, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.FormValue("id"))
		if id == "" {
			return writeError(c, fiber.StatusBadRequest, "ID_REQUIRED", "id is required")
		}
		useOCR := false
		if raw := c.FormValue("use_ocr"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_USE_OCR", "use_ocr must be true or false")
			}
			useOCR = v
		}
		fh, content, err := formDocument(c, maxBytes)
		if fh == nil {
			return err
		}

		v, err := svc.Verify(c.UserContext(), service.VerifyRequest{
			DocumentID: id,
			Filename:   fh.Filename,
			Content:    content,
			UseOCR:     useOCR,
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}

		switch v.Reason {
		case model.ReasonOCRUnavailable:
			return writeError(c, fiber.StatusServiceUnavailable, "OCR_UNAVAILABLE", v.Message)
		case model.ReasonOCRDecodeError:
			return writeError(c, fiber.StatusUnprocessableEntity, "OCR_DECODE_ERROR", v.Message)
		}

		status := fiber.StatusOK
		if v.Outcome == model.OutcomeNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(verifyResponse{
			Verified:   v.Authentic(),
			Verdict:    v.Outcome,
			Reason:     v.Reason,
			Message:    v.Message,
			DocumentID: v.DocumentID,
		})
	}
}

// CheckStoredDocument handles GET verify/: it re-checks the stored copy of a signed
// document against its recorded fingerprint and seal.
//
// @Summary Check the integrity of a stored document
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id query string true "Document ID"
// @Success 200 {object} verifyResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 404 {object} verifyResponse
// @Router /verify/ [get]
func CheckStoredDocument(svc service.VerificationService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Query("id"))
		if id == "" {
			return writeError(c, fiber.StatusBadRequest, "ID_REQUIRED", "id is required")
		}
		v, err := svc.CheckStored(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, log, err)
		}

		status := fiber.StatusOK
		if v.Outcome == model.OutcomeNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(verifyResponse{
			Verified:   v.Authentic(),
			Verdict:    v.Outcome,
			Reason:     v.Reason,
			Message:    v.Message,
			DocumentID: v.DocumentID,
		})
	}
}
