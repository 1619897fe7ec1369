package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"paragraphs", "First.\n\nSecond.", "<p>First.</p>\n<p>Second.</p>"},
		{"line break", "Hi,\nthere", "<p>Hi,<br>there</p>"},
		{"bold", "This is **important**.", "<p>This is <strong>important</strong>.</p>"},
		{"bullets", "- one\n* two", "<ul><li>one</li><li>two</li></ul>"},
		{"mixed block", "Next steps:\n- ship", "<p>Next steps:</p>\n<ul><li>ship</li></ul>"},
		{"escapes html", "a < b & <script>", "<p>a &lt; b &amp; &lt;script&gt;</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarkdownToHTML(tt.in))
		})
	}
}
