package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "empty means all", input: "", want: nil},
		{name: "single page", input: "3", want: []int{3}},
		{name: "range", input: "1-4", want: []int{1, 2, 3, 4}},
		{name: "list", input: "1,3,5", want: []int{1, 3, 5}},
		{name: "mixed", input: "1-2, 5", want: []int{1, 2, 5}},
		{name: "reversed range", input: "4-1", wantErr: true},
		{name: "zero page", input: "0", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "malformed range", input: "1-2-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExtractedName(t *testing.T) {
	tests := []struct {
		filename  string
		wantPage  int
		wantIndex int
		wantOK    bool
	}{
		{"cards_1_2.png", 1, 2, true},
		{"sheet_12_3.jpg", 12, 3, true},
		{"page_7.png", 7, 0, true},
		{"readme.txt", 0, 0, false},
		{"thumb.png", 0, 0, false},
	}

	for _, tt := range tests {
		page, index, ok := parseExtractedName(tt.filename)
		assert.Equal(t, tt.wantOK, ok, tt.filename)
		if tt.wantOK {
			assert.Equal(t, tt.wantPage, page, tt.filename)
			assert.Equal(t, tt.wantIndex, index, tt.filename)
		}
	}
}

func TestExtractPageImagesRejectsBadRange(t *testing.T) {
	_, err := ExtractPageImages("cards.pdf", "5-2")
	require.Error(t, err)
}
