package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// Database-backed behaviour is covered by the shared store contract via the
// sqlite and memory backends; these tests cover the pure mapping logic.

func TestTableFor(t *testing.T) {
	table, err := tableFor(domain.CollectionDocuments)
	assert.NoError(t, err)
	assert.Equal(t, "rag_documents", table)

	table, err = tableFor(domain.CollectionFacts)
	assert.NoError(t, err)
	assert.Equal(t, "rag_facts", table)

	_, err = tableFor(domain.Collection("bogus"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "rag_documents_content_hash_key"}
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", unique)))

	notNull := &pgconn.PgError{Code: "23502"}
	assert.False(t, isUniqueViolation(notNull))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}
