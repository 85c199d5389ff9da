package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/learn.html.tmpl"))

type pageData struct {
	Modules []ModuleView
	Error   string
}

// Page writes the learning page for the given views.
func Page(w io.Writer, views []ModuleView) error {
	return errors.WithStack(pageTemplate.Execute(w, pageData{Modules: views}))
}

// ErrorPage writes the learning page with a message in place of the modules.
func ErrorPage(w io.Writer, message string) error {
	return errors.WithStack(pageTemplate.Execute(w, pageData{Error: message}))
}
