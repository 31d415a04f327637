package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"farmbooks/internal/core/entity"
	"farmbooks/internal/core/id"
)

type mockDocument struct {
	entity.BaseDocument
	Number string    `db:"number" json:"number"`
	Date   time.Time `db:"issue_date" json:"issueDate"`
	Lines  []string  `db:"-" json:"lines"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	expected := []string{
		"id", "tenant_id", "version",
		"created_at", "updated_at", "created_by", "updated_by",
		"number", "issue_date",
	}

	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expected))
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	tenantID := id.New()
	doc := mockDocument{
		BaseDocument: entity.NewBaseDocument(tenantID),
		Number:       "INV-7",
		Date:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:        []string{"ignored"},
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, tenantID, m["tenant_id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "INV-7", m["number"])
	assert.Equal(t, doc.Date, m["issue_date"])
	_, hasLines := m["lines"]
	assert.False(t, hasLines)
}
