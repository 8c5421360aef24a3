package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplates_RenderNoOrganization(t *testing.T) {
	tmpl := Templates()
	require.NotNil(t, tmpl.Lookup(PartnershipsPage))

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, PartnershipsPage, map[string]interface{}{
		"Level":         "gold",
		"Cost":          6000,
		"State":         "no_organization",
		"Organizations": nil,
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Create an organization")
}
