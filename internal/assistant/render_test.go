package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML_Formatting(t *testing.T) {
	t.Parallel()

	out, err := RenderHTML("**Gîte du lac**\nà 2 km")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Gîte du lac</strong>")
	assert.Contains(t, out, "<br")
}

func TestRenderHTML_NoMarkupInjection(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`<script>alert(1)</script>`,
		`hello <img src=x onerror=alert(1)>`,
		"<div>\n<script>steal()</script>\n</div>",
		`[click](javascript:alert(1))`,
	}
	for _, in := range inputs {
		out, err := RenderHTML(in)
		require.NoError(t, err)
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "onerror", in)
		assert.NotContains(t, out, "javascript:", in)
	}
}
