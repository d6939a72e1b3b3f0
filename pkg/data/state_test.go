package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataState_NilDB(t *testing.T) {
	_, err := GetDataState(nil)
	assert.Error(t, err)
}

func TestGetDataState(t *testing.T) {
	db := setupTestDB(t)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state["record"])

	_, err = SaveRecords(db, "x.xlsx", "PDDE", testRecords())
	require.NoError(t, err)

	state, err = GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state["record"])
	assert.Equal(t, int64(2), state["municipality"])
	assert.Equal(t, int64(2), state["year"])
	assert.Equal(t, int64(1), state["import"])
	assert.Equal(t, int64(0), state["run"])
}
