package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOTFDiffs(t *testing.T) {
	diffs := &OTFDiffs{Diffs: []DiffProperties{
		{Name: "delta", DisplayName: "Delta Lake", Description: "Delta Lake table diff"},
		{Name: "iceberg", DisplayName: "Iceberg"},
	}}
	assert.Equal(t, []string{"delta", "iceberg"}, diffs.Names())
	assert.True(t, diffs.Supports("DELTA"))
	assert.False(t, diffs.Supports("hudi"))

	table := diffs.PrettyTable()
	assert.Contains(t, table, "display_name")
	assert.Contains(t, table, "Delta Lake")
	assert.Contains(t, table, "iceberg")

	assert.Equal(t, "[]", (&OTFDiffs{}).PrettyTable())
	assert.Empty(t, (&OTFDiffs{}).Names())
}

func TestOtfDiffListPrettyTable(t *testing.T) {
	empty := &OtfDiffList{}
	assert.True(t, empty.Empty())
	assert.Equal(t, "unknown: <no changes>", empty.PrettyTable())

	list := &OtfDiffList{
		DiffType: DiffTypeChanged,
		Results: []OtfDiffEntry{{
			Id:               "3",
			Timestamp:        1700000000,
			Operation:        "WRITE",
			OperationContent: map[string]any{"mode": "Append"},
			OperationType:    OperationTypeUpdate,
		}},
	}
	assert.False(t, list.Empty())
	table := list.PrettyTable()
	assert.Contains(t, table, "changed:\n")
	assert.Contains(t, table, "WRITE")
	assert.Contains(t, table, "1700000000")
}

func TestCompactContent(t *testing.T) {
	assert.Equal(t, "", compactContent(nil))
	assert.Equal(t, `{"a":1,"b":"x"}`, compactContent(map[string]any{"b": "x", "a": 1}))
	// Values JSON cannot encode fall back to the sorted keys.
	assert.Equal(t, "a,b", compactContent(map[string]any{"b": make(chan int), "a": 1}))
}

func TestError(t *testing.T) {
	var err error = &Error{Message: "not found"}
	assert.EqualError(t, err, "not found")
}
