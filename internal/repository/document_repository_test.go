package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/draftsign/draftsign-api/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestDocumentRepository_Transition(t *testing.T) {
	t.Run("commit applies update and event together", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "documents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO "events"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		event := &models.Event{
			EventType:  models.EventSent,
			FromStatus: models.StatusDraft,
			ToStatus:   models.StatusSent,
			ActorType:  models.ActorOperator,
		}
		err := repo.Transition(context.Background(), 7, 0, map[string]interface{}{
			"status": models.StatusSent,
		}, event)

		require.NoError(t, err)
		assert.Equal(t, uint(7), event.DocumentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale lock version rolls back without an event", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectBegin()
		// Another transition already bumped lock_version: zero rows match.
		mock.ExpectExec(`UPDATE "documents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Transition(context.Background(), 7, 3, map[string]interface{}{
			"status": models.StatusViewed,
		}, &models.Event{EventType: models.EventViewed})

		assert.ErrorIs(t, err, ErrStaleDocument)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("event insert failure rolls back the status change", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "documents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO "events"`).
			WillReturnError(gorm.ErrInvalidData)
		mock.ExpectRollback()

		err := repo.Transition(context.Background(), 7, 0, map[string]interface{}{
			"status": models.StatusSent,
		}, &models.Event{EventType: models.EventSent})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentRepository_UpdateArtifactPath(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectExec(`UPDATE "documents" SET "artifact_path"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateArtifactPath(context.Background(), 7, "contracts/2026/08/abc.pdf")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
