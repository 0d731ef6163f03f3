package render

import (
	"embed"
	"io"

	"github.com/google/safehtml/template"
	"github.com/rotisserie/eris"
)

//go:embed templates/*
var templateFS embed.FS

// HTMLRenderer renders facility pages
type HTMLRenderer struct {
	facility *template.Template
}

// NewHTMLRenderer parses the embedded templates
func NewHTMLRenderer() (*HTMLRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	facility, err := template.New("facility.html").ParseFS(trustedFS, "templates/facility.html")
	if err != nil {
		return nil, eris.Wrap(err, "render: parse facility template")
	}
	return &HTMLRenderer{facility: facility}, nil
}

// Facility renders a facility view to w
func (r *HTMLRenderer) Facility(w io.Writer, v FacilityView) error {
	return r.facility.Execute(w, v)
}
