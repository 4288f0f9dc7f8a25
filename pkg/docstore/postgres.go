package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/database"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// fieldColumns maps tracked field names to their table columns. Field names
// are validated against this map before ever reaching SQL text.
var fieldColumns = map[string]string{
	models.FieldUserPrompt:      "user_prompt",
	models.FieldQuery:           "query",
	models.FieldAssistantPrompt: "assistant_prompt",
}

const docColumns = `id, user_prompt, query, assistant_prompt,
	user_prompt_vector, query_vector, assistant_prompt_vector,
	extract(epoch from updated_at)::bigint`

// PostgresStore persists feedback documents in a single table partitioned by
// a container column.
type PostgresStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPostgresStore creates a document store backed by the given pool.
func NewPostgresStore(db *database.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) ListPage(ctx context.Context, container containers.Container, page, pageSize int) ([]*models.FeedbackDocument, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be 1-based", apperrors.ErrValidation)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be positive", apperrors.ErrValidation)
	}

	sql := `SELECT ` + docColumns + `
		FROM feedback_documents
		WHERE container = $1
		ORDER BY updated_at DESC, id DESC
		OFFSET $2 LIMIT $3`

	rows, err := s.db.Query(ctx, sql, string(container), (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", container, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context, container containers.Container) ([]*models.FeedbackDocument, error) {
	sql := `SELECT ` + docColumns + `
		FROM feedback_documents
		WHERE container = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, sql, string(container), MaxListAll)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", container, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *PostgresStore) Search(ctx context.Context, container containers.Container, term, field string) ([]*models.FeedbackDocument, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", apperrors.ErrValidation)
	}
	column, ok := fieldColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidField, field)
	}

	sql := `SELECT ` + docColumns + `
		FROM feedback_documents
		WHERE container = $1 AND ` + column + ` ILIKE '%' || $2 || '%'
		ORDER BY updated_at DESC, id DESC`

	rows, err := s.db.Query(ctx, sql, string(container), escapeLike(term))
	if err != nil {
		return nil, fmt.Errorf("failed to search %s in %s: %w", field, container, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *PostgresStore) GetByID(ctx context.Context, container containers.Container, id string) (*models.FeedbackDocument, error) {
	sql := `SELECT ` + docColumns + `
		FROM feedback_documents
		WHERE container = $1 AND id = $2`

	row := s.db.QueryRow(ctx, sql, string(container), id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s in %s: %w", id, container, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s in %s: %w", id, container, err)
	}
	return doc, nil
}

func (s *PostgresStore) Create(ctx context.Context, container containers.Container, doc *models.FeedbackDocument) (*models.FeedbackDocument, error) {
	created := *doc
	created.ID = uuid.NewString()

	sql := `INSERT INTO feedback_documents (
			container, id, user_prompt, query, assistant_prompt,
			user_prompt_vector, query_vector, assistant_prompt_vector,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING extract(epoch from updated_at)::bigint`

	err := s.db.QueryRow(ctx, sql,
		string(container), created.ID, created.UserPrompt, created.Query, created.AssistantPrompt,
		created.UserPromptVector, created.QueryVector, created.AssistantPromptVector,
	).Scan(&created.TS)
	if err != nil {
		return nil, fmt.Errorf("failed to create document in %s: %w", container, err)
	}

	s.logger.Debug("Created document",
		zap.String("container", string(container)),
		zap.String("id", created.ID))
	return &created, nil
}

func (s *PostgresStore) Update(ctx context.Context, container containers.Container, id string, doc *models.FeedbackDocument) (*models.FeedbackDocument, error) {
	existing, err := s.GetByID(ctx, container, id)
	if err != nil {
		return nil, err
	}

	updated := *doc
	updated.ID = id
	reconcileVectors(existing, &updated)

	sql := `UPDATE feedback_documents SET
			user_prompt = $3, query = $4, assistant_prompt = $5,
			user_prompt_vector = $6, query_vector = $7, assistant_prompt_vector = $8,
			updated_at = now()
		WHERE container = $1 AND id = $2
		RETURNING extract(epoch from updated_at)::bigint`

	err = s.db.QueryRow(ctx, sql,
		string(container), id, updated.UserPrompt, updated.Query, updated.AssistantPrompt,
		updated.UserPromptVector, updated.QueryVector, updated.AssistantPromptVector,
	).Scan(&updated.TS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s in %s: %w", id, container, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document %s in %s: %w", id, container, err)
	}

	return &updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, container containers.Container, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM feedback_documents WHERE container = $1 AND id = $2`,
		string(container), id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s in %s: %w", id, container, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s in %s: %w", id, container, apperrors.ErrNotFound)
	}

	s.logger.Debug("Deleted document",
		zap.String("container", string(container)),
		zap.String("id", id))
	return nil
}

func scanDocuments(rows pgx.Rows) ([]*models.FeedbackDocument, error) {
	docs := make([]*models.FeedbackDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

func scanDocument(row pgx.Row) (*models.FeedbackDocument, error) {
	var doc models.FeedbackDocument
	err := row.Scan(
		&doc.ID, &doc.UserPrompt, &doc.Query, &doc.AssistantPrompt,
		&doc.UserPromptVector, &doc.QueryVector, &doc.AssistantPromptVector,
		&doc.TS,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
