package linkextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityURLs(t *testing.T) {
	entities := []Entity{
		{Type: "bold"},
		{Type: "text_link", URL: "https://redd.it/abc"},
		{Type: "url"},
		{Type: "text_link", URL: "i.redd.it/x.jpg"},
		{Type: "text_link", URL: "//cdn.example.com/a.gif"},
		{Type: "text_link", URL: "tg://user?id=1"},
		{Type: "text_link", URL: "  "},
		{Type: "text_link", URL: "https://redd.it/abc"},
	}

	assert.Equal(t, []string{
		"https://redd.it/abc",
		"https://i.redd.it/x.jpg",
		"https://cdn.example.com/a.gif",
		"https://redd.it/abc",
	}, EntityURLs(entities))
}

func TestEntityURLsEmpty(t *testing.T) {
	assert.Nil(t, EntityURLs(nil))
	assert.Nil(t, EntityURLs([]Entity{{Type: "mention"}}))
}
