package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Pagination
		wantNext bool
		wantPrev bool
	}{
		{"first of two", Pagination{Page: 1, Pages: 2}, true, false},
		{"last of two", Pagination{Page: 2, Pages: 2}, false, true},
		{"middle", Pagination{Page: 2, Pages: 3}, true, true},
		{"single page", Pagination{Page: 1, Pages: 1}, false, false},
		{"empty", Pagination{}, false, false},
		{"flags kept", Pagination{Page: 1, Pages: 1, HasNext: true}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantNext, p.HasNext)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
		})
	}
}
