package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorsTableDDL_UsesConfiguredDimension(t *testing.T) {
	assert.Contains(t, vectorsTableDDL(1536), "vector(1536)")
	assert.Contains(t, vectorsTableDDL(768), "vector(768)")
}

func TestPgvectorStore_CheckDimension(t *testing.T) {
	store := &PgvectorStore{dimension: 3}

	require.NoError(t, store.checkDimension([]float32{0.1, 0.2, 0.3}))

	err := store.checkDimension([]float32{0.1, 0.2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 dimensions")
	assert.Contains(t, err.Error(), "configured for 3")
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[0.1,0.25,-1]", vectorLiteral([]float32{0.1, 0.25, -1}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}
