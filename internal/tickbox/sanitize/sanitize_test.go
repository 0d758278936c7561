package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlank(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain", "Buy milk", false},
		{"comparison", "x<y and y>z", false},
		{"angle brackets in prose", "use <div> tags", false},
		{"ampersand", "Milk & eggs", false},
		{"formatted text", "<b>bold</b>", false},
		{"empty", "", true},
		{"whitespace", " \t\n", true},
		{"empty element", "<p></p>", true},
		{"script only", "<script>alert(1)</script>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Blank(tt.in))
		})
	}
}
