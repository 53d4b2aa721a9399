package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "paragraphs",
			input: "<p>Hello</p><p>World</p>",
			want:  "Hello\nWorld",
		},
		{
			name:  "table row cells stay on one line",
			input: "<table><tr><td>Check-in</td><td>Fri, Mar 13, 2026</td></tr><tr><td>Checkout</td><td>Mon, Mar 16, 2026</td></tr></table>",
			want:  "Check-in Fri, Mar 13, 2026\nCheckout Mon, Mar 16, 2026",
		},
		{
			name:  "scripts styles and comments removed",
			input: "<html><head><title>x</title><style>p{}</style></head><body><!-- hidden --><script>alert(1)</script><div>Visible</div></body></html>",
			want:  "Visible",
		},
		{
			name:  "entities decoded",
			input: "<div>Tom &amp; Jerry&nbsp;&nbsp;arrive</div>",
			want:  "Tom & Jerry arrive",
		},
		{
			name:  "line breaks",
			input: "Guest: Eric<br>Guests: 2<br/>",
			want:  "Guest: Eric\nGuests: 2",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToText(tt.input))
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Reservation confirmed", Title("<html><head><title> Reservation confirmed </title></head></html>"))
	assert.Equal(t, "A & B", Title("<title>A &amp; B</title>"))
	assert.Empty(t, Title("<p>no title</p>"))
}
