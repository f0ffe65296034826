package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHistoryWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "days:7", want: 7},
		{in: "DAYS:14", want: 14},
		{in: "weeks:1", wantErr: true},
		{in: "days:0", wantErr: true},
		{in: "days:x", wantErr: true},
		{in: "7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHistoryWindow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoolFlag(t *testing.T) {
	assert.Nil(t, parseBoolFlag(""))

	for in, want := range map[string]bool{"true": true, "True": true, "false": false, "yes": false} {
		got := parseBoolFlag(in)
		require.NotNil(t, got, in)
		assert.Equal(t, want, *got, in)
	}
}
