package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docauth/internal/model"
	"docauth/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentCols = []string{
	"id", "name", "filename", "storage_path", "content_type", "size", "page_count",
	"fingerprint", "signature", "public_key", "owner_id", "created_at",
}

func sampleDocument() *model.Document {
	return &model.Document{
		ID:          "doc-1",
		Name:        "Invoice 42",
		Filename:    "invoice.pdf",
		StoragePath: "documents/doc-1.pdf",
		ContentType: "application/pdf",
		Size:        1234,
		PageCount:   2,
		Fingerprint: "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		Signature:   []byte{0x01, 0x02},
		PublicKey:   []byte("-----BEGIN PUBLIC KEY-----"),
		OwnerID:     "user-1",
		CreatedAt:   time.Now().UTC(),
	}
}

func documentRow(rows *sqlmock.Rows, d *model.Document) *sqlmock.Rows {
	return rows.AddRow(d.ID, d.Name, d.Filename, d.StoragePath, d.ContentType, d.Size, d.PageCount,
		d.Fingerprint, d.Signature, d.PublicKey, d.OwnerID, d.CreatedAt)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := sampleDocument()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.Name, doc.Filename, doc.StoragePath, doc.ContentType, doc.Size, doc.PageCount,
				doc.Fingerprint, doc.Signature, doc.PublicKey, doc.OwnerID, doc.CreatedAt).
			WillReturnRows(documentRow(sqlmock.NewRows(documentCols), doc))

		result, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, doc.ID, result.ID)
		assert.Equal(t, doc.Fingerprint, result.Fingerprint)
		assert.Equal(t, doc.Signature, result.Signature)
	})

	t.Run("duplicate id", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

		result, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.Nil(t, result)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := sampleDocument()
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("doc-1").
			WillReturnRows(documentRow(sqlmock.NewRows(documentCols), doc))

		got, err := repo.FindByID(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, "doc-1", got.ID)
		assert.Equal(t, "Invoice 42", got.Name)
		assert.Equal(t, 2, got.PageCount)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("driver error passes through", func(t *testing.T) {
		boom := errors.New("connection reset")
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("doc-2").
			WillReturnError(boom)

		_, err := repo.FindByID(ctx, "doc-2")

		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

		first := sampleDocument()
		second := sampleDocument()
		second.ID = "doc-2"
		rows := documentRow(documentRow(sqlmock.NewRows(documentCols), first), second)

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY seq ASC").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		require.NoError(t, err)
		assert.Equal(t, 11, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "doc-1", res.Items[0].ID)
		assert.Equal(t, "doc-2", res.Items[1].ID)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnError(errors.New("db down"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
