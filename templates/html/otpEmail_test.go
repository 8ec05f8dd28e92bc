package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	templates "github.com/aerogenv/aero-club-api/templates/html"
)

func TestRenderCode(t *testing.T) {
	html := templates.RenderCode("Test Pilot", "123456")
	assert.Contains(t, html, "Test Pilot")
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "Aero GenV")
}

func TestRenderCodeWithoutName(t *testing.T) {
	html := templates.RenderCode("", "654321")
	assert.Contains(t, html, "654321")
}

func TestRenderGenericEmail(t *testing.T) {
	html := templates.RenderGenericEmail("Build Night", "<p>See you Friday</p>")
	assert.Contains(t, html, "Build Night")
	assert.Contains(t, html, "See you Friday")
}
