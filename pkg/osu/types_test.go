package osu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		in     string
		want   UserID
		wantOK bool
	}{
		{in: "", wantOK: false},
		{in: "124493", want: UserID{ID: 124493}, wantOK: true},
		{in: "2 trailing words", want: UserID{ID: 2}, wantOK: true},
		{in: "cookiezi", want: UserID{Name: "cookiezi"}, wantOK: true},
		{in: "mrekk the goat", want: UserID{Name: "mrekk the goat"}, wantOK: true},
		{in: "99999999999", want: UserID{Name: "99999999999"}, wantOK: true},
		{in: "-5", want: UserID{Name: "-5"}, wantOK: true},
	}

	for _, tt := range tests {
		got, ok := ParseUserID(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestUserIDString(t *testing.T) {
	assert.Equal(t, "7", UserID{ID: 7}.String())
	assert.Equal(t, "peppy", UserID{Name: "peppy"}.String())
}

func TestModsString(t *testing.T) {
	assert.Equal(t, "NM", Mods(nil).String())
	assert.Equal(t, "HDDT", Mods{"HD", "DT"}.String())
	assert.False(t, Mods{"HD"}.Has("HR"))
}
