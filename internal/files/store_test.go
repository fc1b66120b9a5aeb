package files

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/JaimeStill/intake/pkg/pagination"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(Filters{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	status := StatusRequested
	where, args = whereClause(Filters{Status: &status})
	assert.Equal(t, " WHERE status = $1", where)
	assert.Equal(t, []any{"REQUESTED"}, args)
}

func TestPageQuery(t *testing.T) {
	status := StatusError
	where, args := whereClause(Filters{Status: &status})

	q, out := pageQuery(where, args, pagination.PageRequest{Page: 3, PageSize: 10})
	assert.Contains(t, q, "WHERE status = $1")
	assert.Contains(t, q, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []any{"ERROR", 10, 20}, out)

	q, out = pageQuery("", nil, pagination.PageRequest{Page: 1, PageSize: 5})
	assert.Contains(t, q, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{5, 0}, out)
}

func TestUpsertUpdate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pages := 4

	u := upsertUpdate(Registration{
		FileID:          "f-1",
		FileName:        "scan.pdf",
		FileType:        "pdf",
		StorageLocation: "scan-1-2.pdf",
		ContentType:     "application/pdf",
		SizeBytes:       99,
		PageCount:       &pages,
	}, now)

	set := u["$set"].(bson.M)
	assert.Equal(t, StatusRequested, set["status"])
	assert.Equal(t, "scan-1-2.pdf", set["fileLocation"])
	assert.Equal(t, 4, set["pageCount"])
	assert.Equal(t, now, set["updatedAt"])

	unset := u["$unset"].(bson.M)
	assert.Contains(t, unset, "errorReason")
	assert.Contains(t, unset, "uploadedAt")
	assert.NotContains(t, unset, "pageCount")

	assert.Equal(t, bson.M{"createdAt": now}, u["$setOnInsert"])

	u = upsertUpdate(Registration{FileID: "f-2"}, now)
	assert.Contains(t, u["$unset"].(bson.M), "pageCount")
}

func TestSettleFilter(t *testing.T) {
	assert.Equal(t, bson.M{
		"fileId":       "f-1",
		"fileLocation": "loc",
		"status":       StatusRequested,
	}, settleFilter("f-1", "loc"))
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, listFilter(Filters{}))

	done := StatusDone
	assert.Equal(t, bson.M{"status": StatusDone}, listFilter(Filters{Status: &done}))
}
