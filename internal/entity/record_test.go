package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsInsertionOrder(t *testing.T) {
	r := NewRecord()
	r.Set("zeta", "1")
	r.Set("alpha", "2")
	r.Set("mid", "3")
	r.Set("zeta", "4")

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Keys())
	v, ok := r.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, "4", v)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"4","alpha":"2","mid":"3"}`, string(b))
}

func TestRecordCopiesShareFields(t *testing.T) {
	r := RecordOf(Field{Name: "a", Value: 1})
	recs := []Record{r}
	for _, rec := range recs {
		rec.Set("file_name", "bucket/key")
	}
	v, ok := r.Get("file_name")
	require.True(t, ok)
	assert.Equal(t, "bucket/key", v)
}

func TestZeroRecord(t *testing.T) {
	var r Record
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestFileReferenceFileName(t *testing.T) {
	ref := FileReference{Container: "bucket", Key: "data/a.csv"}
	assert.Equal(t, "bucket/data/a.csv", ref.FileName())
}
