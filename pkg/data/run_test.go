package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRun_NilDB(t *testing.T) {
	assert.Error(t, SaveRun(nil, &Run{}))
}

func TestSaveRun_Nil(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveRun(db, nil))
}

func TestSaveAndListRuns(t *testing.T) {
	db := setupTestDB(t)

	year := 2023
	r1 := &Run{
		CreatedAt: "2025-01-01T00:00:00Z",
		Rows:      3,
		K:         3,
		Classes:   []int{0, 1, 2},
		Accuracy:  0.5,
		Matrix:    [][]int{{1, 0, 0}, {0, 1, 0}, {0, 1, 0}},
	}
	r2 := &Run{
		CreatedAt: "2025-02-01T00:00:00Z",
		Year:      &year,
		Rows:      10,
		K:         5,
		Classes:   []int{0, 1},
		Accuracy:  1,
		Matrix:    [][]int{{5, 0}, {0, 5}},
	}
	require.NoError(t, SaveRun(db, r1))
	require.NoError(t, SaveRun(db, r2))
	assert.NotEmpty(t, r1.ID)
	assert.NotEqual(t, r1.ID, r2.ID)

	list, err := ListRuns(db, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, r2.ID, list[0].ID)
	require.NotNil(t, list[0].Year)
	assert.Equal(t, 2023, *list[0].Year)
	assert.Nil(t, list[1].Year)
	assert.Equal(t, r1.Matrix, list[1].Matrix)
	assert.Equal(t, r1.Classes, list[1].Classes)

	list, err = ListRuns(db, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
