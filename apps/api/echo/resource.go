package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/table"
	"github.com/tutorcraft/tutorcraft/core/user"
)

var errResNotFoundInCtx = errors.New("resource object not found in echo.Context")

type resourceApi struct {
	svc      resource.Service
	usrSvc   user.Service
	store    core.FileStore
	recent   *search.RecentStore
	validate *validator.Validate
	logger   core.Logger
}

func registerResourceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	deps Deps,
	maxUploadSize int64,
) {
	api := resourceApi{
		svc:      deps.ResourceSvc,
		usrSvc:   deps.UserSvc,
		store:    deps.Store,
		recent:   deps.Recent,
		validate: deps.Validate,
		logger:   deps.Logger,
	}
	active := activeUserMiddleware(deps.UserSvc)

	rg := g.Group("/resources", jwt, active)
	rg.GET("", api.query)
	rg.GET("/filters", api.filters)
	rg.GET("/recent-searches", api.recentSearches)
	rg.POST("", api.upload, uploadLimit(maxUploadSize))
	rg.POST("/export", api.export)
	rg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := rg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)

	g.POST("/resource/get-signed-url", api.signedURL, jwt, active)
}

// registerFileServer serves stored files to holders of a valid signed URL.
func registerFileServer(app *echo.Echo, store core.FileStore) {
	app.GET("/files/*", func(ctx echo.Context) error {
		p := ctx.Param("*")
		expires, err := strconv.ParseInt(ctx.QueryParam("expires"), 10, 64)
		if err != nil {
			return errInvalidSignature
		}
		if err = store.Verify(p, expires, ctx.QueryParam("signature")); err != nil {
			return err
		}

		rc, info, err := store.Open(ctx.Request().Context(), p)
		if err != nil {
			return errors.Wrap(err, "opening file")
		}
		defer func() { _ = rc.Close() }()

		ctx.Response().Header().Set("Cache-Control", "private, max-age="+strconv.FormatInt(expires-time.Now().Unix(), 10))
		http.ServeContent(ctx.Response(), ctx.Request(), info.Path, info.ModTime, rc)
		return nil
	})
}

// uploadLimit caps the request body of uploads, leaving room for the form fields.
func uploadLimit(maxUploadSize int64) echo.MiddlewareFunc {
	if maxUploadSize <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.BodyLimit(strconv.FormatInt(maxUploadSize+1<<20, 10) + "B")
}

func resourceTable(rows []resource.Resource) tableSpec[resource.Resource] {
	return tableSpec[resource.Resource]{
		Columns:      resource.Columns(),
		Fields:       resource.SearchFields(),
		Filters:      resource.Filters(rows),
		Selectable:   true,
		Exportable:   true,
		EmptyTitle:   "No resources",
		EmptyMessage: "Upload a worksheet, lesson plan or video to start your library.",
	}
}

// objectMiddleware loads the resource of the :id param.
func (api *resourceApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		res, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == resource.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding resource by ID")
		}
		ctx.Set("object", res)
		return next(ctx)
	}
}

// Handlers

func (api *resourceApi) table(ctx echo.Context) (*table.Controller[resource.Resource], *search.Engine[resource.Resource], error) {
	resources, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying resources")
	}
	spec := resourceTable(resources)
	var q TableQuery
	q.Bind(ctx, spec.filterKeys()...)

	ctrl, engine, err := buildTable(spec, resources, q)
	return ctrl, engine, errors.Wrap(err, "building resources table")
}

func (api *resourceApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ctrl, engine, err := api.table(ctx)
	if err != nil {
		return err
	}

	var recent []string
	if engine.Query() != "" {
		recent = api.recent.Add(ctxUsr.ID, engine.Query())
	} else {
		recent = api.recent.List(ctxUsr.ID)
	}
	return ctx.JSON(http.StatusOK, tableResponse(ctrl, engine, recent))
}

func (api *resourceApi) filters(ctx echo.Context) error {
	resources, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}
	filters := resource.Filters(resources)
	views := make([]FilterView, 0, len(filters))
	for _, f := range filters {
		opts := f.Options
		if opts == nil {
			opts = []search.Option{}
		}
		views = append(views, FilterView{Key: f.Key, Label: f.Label, Options: opts})
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *resourceApi) recentSearches(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, api.recent.List(ctxUsr.ID))
}

func (api *resourceApi) upload(ctx echo.Context) error {
	var data resource.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var file *resource.File
	fh, err := ctx.FormFile("file")
	switch {
	case err == nil:
		src, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer func() { _ = src.Close() }()
		file = &resource.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Content:     src,
		}
	case errors.Cause(err) != http.ErrMissingFile && errors.Cause(err) != http.ErrNotMultipart:
		return errors.Wrap(err, "reading uploaded file")
	}

	res, err := api.svc.Upload(ctx.Request().Context(), ctxUsr.ID, data, file)
	if err != nil {
		return errors.Wrap(err, "uploading resource")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *resourceApi) export(ctx echo.Context) error {
	ctrl, _, err := api.table(ctx)
	if err != nil {
		return err
	}
	rows, err := ctrl.Export()
	if err != nil {
		return errors.Wrap(err, "exporting resources")
	}

	var buf bytes.Buffer
	if err = table.WriteCSV(&buf, ctrl.Columns(), rows); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	name := fmt.Sprintf("resources-%s.csv", time.Now().UTC().Format("20060102-150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (api *resourceApi) retrieve(ctx echo.Context) error {
	res, ok := ctx.Get("object").(resource.Resource)
	if !ok {
		return errors.Wrap(errResNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, res)
}

// destroy deletes a resource; only its uploader or an admin may do so.
func (api *resourceApi) destroy(ctx echo.Context) error {
	res, ok := ctx.Get("object").(resource.Resource)
	if !ok {
		return errors.Wrap(errResNotFoundInCtx, "retrieving object from context")
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && !(res.UploadedBy.Valid && res.UploadedBy.String == ctxUsr.ID) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), res.ID); err != nil {
		return errors.Wrap(err, "deleting resource")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *resourceApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting resources")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// signedURL always answers {signedUrl} or {error}, whatever went wrong.
func (api *resourceApi) signedURL(ctx echo.Context) error {
	var data SignedURLRequest
	if err := ctx.Bind(&data); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	signed, err := api.svc.SignedURL(ctx.Request().Context(), data.StoragePath)
	if err != nil {
		var verr *core.ValidationError
		switch {
		case errors.As(err, &verr):
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Error()})
		case errors.Cause(err) == resource.ErrNotFound:
			return ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
		default:
			api.logger.Error("signing url", errors.Wrap(err, "signing url"))
			return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not sign url"})
		}
	}
	return ctx.JSON(http.StatusOK, SignedURLResponse{SignedURL: signed})
}

type (
	SignedURLRequest struct {
		StoragePath string `json:"storage_path"`
	}

	SignedURLResponse struct {
		SignedURL string `json:"signedUrl"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)
