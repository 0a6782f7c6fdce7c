package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

type fields = []entity.Field

func f(name string, value any) entity.Field { return entity.Field{Name: name, Value: value} }

func assertRecords(t *testing.T, want []fields, got []entity.Record) {
	t.Helper()
	gotFields := make([]fields, 0, len(got))
	for _, r := range got {
		gotFields = append(gotFields, r.Fields())
	}
	if want == nil {
		want = []fields{}
	}
	if diff := cmp.Diff(want, gotFields); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}
