package bengalerrors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayFormatsPointerAndContext(t *testing.T) {
	err := New(TemplateUndefinedVar, "'pge' is undefined").Build()
	src := SourceContext{
		Lines:          []string{"{% block body %}", "{{ pge.title }}", "{% endblock %}"},
		FaultLine:      2,
		FaultColumn:    4,
		InclusionChain: []string{"base.html", "page.html"},
	}
	out := Display(err, RenderClassUndefined, src, []string{"page", "params", "pages"})

	assert.Contains(t, out, "Undefined Variable")
	assert.Contains(t, out, "pge.title")
	assert.True(t, strings.Contains(out, "^"))
	assert.Contains(t, out, "base.html -> page.html")
	assert.Contains(t, out, "did you mean")
	assert.Contains(t, out, "page")
}

func TestDidYouMeanOrdersByDistance(t *testing.T) {
	got := didYouMean("pge", []string{"page", "pages", "unrelated"}, 3)
	assert.Equal(t, []string{"page", "pages"}, got)
}
