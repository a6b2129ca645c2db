package admin

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

// NewViews returns the template engine for the admin pages. Templates are
// compiled into the binary.
func NewViews() *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("comma", func(n int) string { return humanize.Comma(int64(n)) })
	engine.AddFunc("ago", Ago)
	return engine
}

// Ago renders a stored created_at value as "3 days ago". Unparseable input
// is returned unchanged.
func Ago(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
