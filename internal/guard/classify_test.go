package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClassifier() *Classifier {
	return NewClassifier(
		[]string{"/_next/", "/assets/", "/favicon.ico", "/session/"},
		[]string{"/", "/pricing", "/about"},
		[]string{"/auth/login", "/auth/register"},
	)
}

func TestClassify(t *testing.T) {
	cl := testClassifier()

	tests := []struct {
		path string
		want PathClass
	}{
		{"/_next/static/chunk.js", ClassInternal},
		{"/assets/logo.svg", ClassInternal},
		{"/favicon.ico", ClassInternal},
		{"/session/events", ClassInternal},
		{"/", ClassPublic},
		{"/pricing", ClassPublic},
		{"/pricing/enterprise", ClassPublic},
		{"/auth/login", ClassGuest},
		{"/auth/login/help", ClassGuest},
		{"/auth/register", ClassGuest},
		{"/dashboard", ClassProtected},
		{"/orders/42", ClassProtected},
		{"/pricing-internal", ClassProtected},
		{"/auth/settings", ClassProtected},
		{"", ClassPublic}, // normalized to "/"
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cl.Classify(tt.path), "path %q", tt.path)
	}
}

func TestClassifyRootDoesNotSwallowChildren(t *testing.T) {
	cl := testClassifier()

	// "/" must match only exactly; every other path gets its own class.
	assert.Equal(t, ClassPublic, cl.Classify("/"))
	assert.Equal(t, ClassProtected, cl.Classify("/invoices"))
}
