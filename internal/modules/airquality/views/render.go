package views

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"text/tabwriter"
)

// Renderer draws the two views of a report. Both implementations write the
// same models.
type Renderer interface {
	RenderWidget(w io.Writer, m WidgetModel) error
	RenderTable(w io.Writer, m TableModel) error
}

var pageTmpl *template.Template

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	t, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	pageTmpl = t
	return nil
}

// LoadTemplates loads embedded page templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type HTMLRenderer struct{}

func (HTMLRenderer) RenderWidget(w io.Writer, m WidgetModel) error {
	if pageTmpl == nil {
		return errors.New("widget template not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "widget.html", m)
}

func (HTMLRenderer) RenderTable(w io.Writer, m TableModel) error {
	if pageTmpl == nil {
		return errors.New("table template not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "table.html", m)
}

// TextRenderer writes the views for a terminal.
type TextRenderer struct{}

func (TextRenderer) RenderWidget(w io.Writer, m WidgetModel) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n%s\n", m.Title, m.AQI, m.Category, m.Concentration)
	return err
}

func (TextRenderer) RenderTable(w io.Writer, m TableModel) error {
	if _, err := fmt.Fprintln(w, m.Header); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range m.Rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r.Label, r.AQI); err != nil {
			return err
		}
	}
	return tw.Flush()
}
