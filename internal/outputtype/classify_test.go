package outputtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNamedPatterns(t *testing.T) {
	assert.Equal(t, AggregateFeed, Classify("public/sitemap.xml", false))
	assert.Equal(t, AggregateIndex, Classify("public/index.json", false))
	assert.Equal(t, AggregateText, Classify("public/llm-full.txt", false))
	assert.Equal(t, Static, Classify("public/favicon.ico", false))
}

func TestClassifyGeneratedFlag(t *testing.T) {
	assert.Equal(t, GeneratedPage, Classify("public/tags/python/index.html", true))
}

func TestClassifyHTMLDefault(t *testing.T) {
	assert.Equal(t, ContentPage, Classify("public/docs/index.html", false))
}

func TestClassifyAssetDir(t *testing.T) {
	assert.Equal(t, Asset, Classify("public/assets/theme.css", false))
	assert.Equal(t, Asset, Classify("public/static/logo.png", false))
}

func TestClassifyAssetExtension(t *testing.T) {
	assert.Equal(t, Asset, Classify("public/main.js", false))
	assert.Equal(t, Asset, Classify("public/font.woff2", false))
}

func TestClassifyFallsBackToStatic(t *testing.T) {
	assert.Equal(t, Static, Classify("public/CNAME", false))
	assert.Equal(t, Static, Classify("public/unknown.bin", false))
}

func TestIsAggregateAndIsContent(t *testing.T) {
	assert.True(t, IsAggregate(AggregateFeed))
	assert.False(t, IsAggregate(ContentPage))
	assert.True(t, IsContent(GeneratedPage))
	assert.False(t, IsContent(Asset))
}
