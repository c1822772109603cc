package echoapi

import (
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tutorcraft/tutorcraft/core/page"
	appfs "github.com/tutorcraft/tutorcraft/fs"
)

const shellTemplate = "shell"

type (
	templateRenderer struct {
		templates *template.Template
	}

	shellData struct {
		AppName string
		APIBase string
		Page    page.Descriptor
	}
)

func newTemplateRenderer() (*templateRenderer, error) {
	tmpl, err := template.ParseFS(appfs.FS, "templates/web/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing web templates")
	}
	return &templateRenderer{templates: tmpl}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

func registerPages(app *echo.Echo, api *echo.Group, appName string) {
	// the metadata of a page is resolved per response; nothing is kept between requests
	app.GET("/app", func(ctx echo.Context) error { return shell(ctx, appName, "/") })
	app.GET("/app/*", func(ctx echo.Context) error { return shell(ctx, appName, "/"+ctx.Param("*")) })

	api.GET("/pages", func(ctx echo.Context) error {
		routes := page.Routes()
		descriptors := make([]page.Descriptor, 0, len(routes))
		for _, route := range routes {
			descriptors = append(descriptors, page.Metadata(route))
		}
		return ctx.JSON(http.StatusOK, descriptors)
	})
	api.GET("/pages/:route", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, page.Metadata(page.Route(ctx.Param("route"))))
	})
}

func shell(ctx echo.Context, appName, path string) error {
	route := page.Resolve(path)
	code := http.StatusOK
	if route == page.NotFound {
		code = http.StatusNotFound
	}
	return ctx.Render(code, shellTemplate, shellData{
		AppName: appName,
		APIBase: "/api",
		Page:    page.Metadata(route),
	})
}
