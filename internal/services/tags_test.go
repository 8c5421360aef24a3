package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr error
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "normalizes and dedupes", raw: "Go, go , #GoLang,c++", want: []string{"go", "golang", "c"}},
		{name: "skips blank entries", raw: " , ,rust,,", want: []string{"rust"}},
		{name: "eight tags allowed", raw: "a,b,c,d,e,f,g,h", want: []string{"a", "b", "c", "d", "e", "f", "g", "h"}},
		{name: "nine tags rejected", raw: "a,b,c,d,e,f,g,h,i", wantErr: ErrTooManyTags},
		{name: "duplicates do not count twice", raw: "a,b,c,d,e,f,g,h,A", want: []string{"a", "b", "c", "d", "e", "f", "g", "h"}},
		{name: "too long", raw: "abcdefghijklmnopqrstuvwxyzabcde", wantErr: ErrInvalidTag},
		{name: "multibyte tags count characters", raw: strings.Repeat("ß", 30), want: []string{strings.Repeat("ß", 30)}},
		{name: "multibyte tag too long", raw: strings.Repeat("ß", 31), wantErr: ErrInvalidTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTagList(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
