package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ziwei/errors"
)

func TestFind(t *testing.T) {
	lib := &Library{Rules: []Rule{
		{ID: "L-01", Description: "命宮有地空", Result: Result{Text: "想法獨特"}},
		{ID: "T-02", Description: "遷移宮天馬", Result: Result{Text: "利於 遠行 發展"}},
		{ID: "FH-20001", Description: "命宮宮干飛化權入兄弟宮", Result: Result{Text: "我對兄弟展現企圖心"}},
	}}

	tests := []struct {
		query string
		want  []string
	}{
		{"命宮", []string{"L-01", "FH-20001"}},
		{"命宮 地空", []string{"L-01"}},
		{`"利於 遠行"`, []string{"T-02"}},
		{"遠行 發展", []string{"T-02"}},
		{"fh-2", []string{"FH-20001"}},
		{"紫微", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := Find(lib, tt.query)
			require.NoError(t, err)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFindBadQuery(t *testing.T) {
	lib := &Library{}

	_, err := Find(lib, `"unterminated`)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = Find(lib, "   ")
	assert.True(t, errors.IsInvalidRequestError(err))
}
