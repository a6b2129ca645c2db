package admin

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
	"github.com/wichananm65/pet-shop-admin/internal/media"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

// ErrUpload blocks a submission whose image could not be stored.
var ErrUpload = errors.New("image upload failed")

// Cell is one table cell. Image wins over HTML, HTML over Text.
type Cell struct {
	Text  string
	Image string
	HTML  template.HTML
}

type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Field is one form input. Type is text, textarea, number, url, select,
// checkbox or file.
type Field struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Checked  bool
	Required bool
	Help     string
	Options  []Option
}

// ImageSlot describes the optional file input of a page.
type ImageSlot[T any] struct {
	Field  string
	Attach func(rec T, url string) T
}

// Descriptor binds a record type to its table and form.
//
// Decode reads the posted form on top of base, the stored row for edits or
// the zero value for creates. On error it still returns what it read so the
// form can be shown again.
type Descriptor[T resource.Record[T]] struct {
	Path     string
	Title    string
	Singular string
	Columns  []string
	Row      func(rec T) []Cell
	Label    func(rec T) string
	Fields   func(ctx context.Context, rec T) ([]Field, error)
	Decode   func(c *fiber.Ctx, base T) (T, error)
	Image    *ImageSlot[T]
}

// Page serves /admin/<path> for one resource.
type Page[T resource.Record[T]] struct {
	svc      *resource.Service[T]
	desc     Descriptor[T]
	uploader media.Uploader
}

func NewPage[T resource.Record[T]](svc *resource.Service[T], desc Descriptor[T], uploader media.Uploader) *Page[T] {
	return &Page[T]{svc: svc, desc: desc, uploader: uploader}
}

func (p *Page[T]) Path() string  { return "/admin/" + p.desc.Path }
func (p *Page[T]) Title() string { return p.desc.Title }

// Count reports the number of rows, going through the shared cache.
func (p *Page[T]) Count(ctx context.Context) (int, error) {
	rows, err := p.svc.List(ctx)
	return len(rows), err
}

func (p *Page[T]) Register(r fiber.Router) {
	base := "/" + p.desc.Path
	r.Get(base, p.index)
	r.Post(base, p.create)
	r.Post(base+"/:id", p.update)
	r.Post(base+"/:id/delete", p.delete)
}

type row struct {
	ID      string
	Version int
	Cells   []Cell
}

type formView struct {
	Action    string
	Editing   bool
	ID        string
	Version   int
	Fields    []Field
	Multipart bool
}

type pageView struct {
	Title    string
	Path     string
	Singular string
	Query    string
	Notice   string
	Error    string
	Columns  []string
	Rows     []row
	Shown    int
	Total    int
	Form     *formView
}

func (p *Page[T]) index(c *fiber.Ctx) error {
	var (
		form Form
		rec  T
		err  error
	)
	switch {
	case c.Query("new") != "":
		form, err = form.Open()
	case c.Query("edit") != "":
		id := c.Query("edit")
		if rec, err = p.svc.Get(c.UserContext(), id); err != nil {
			return p.render(c, resource.StatusFor(err), form, rec, p.message(err))
		}
		form, err = form.Edit(id)
	}
	if err != nil {
		return err
	}
	return p.render(c, fiber.StatusOK, form, rec, c.Query("error"))
}

func (p *Page[T]) create(c *fiber.Ctx) error {
	form, err := submitting(Form{}.Open())
	if err != nil {
		return err
	}

	var zero T
	rec, err := p.desc.Decode(c, zero)
	if err != nil {
		return p.fail(c, form, rec, err)
	}
	rec, asset, err := p.attach(c, rec)
	if err != nil {
		return p.fail(c, form, rec, err)
	}
	created, err := p.svc.Create(c.UserContext(), rec)
	if err != nil {
		p.discard(c, asset)
		return p.fail(c, form, rec, err)
	}

	logger.Audit(c, p.action("create"), logrus.Fields{"id": created.RecordID(), "via": "admin"})
	return p.succeed(c, form, fmt.Sprintf("%s %q created", p.desc.Singular, p.desc.Label(created)))
}

func (p *Page[T]) update(c *fiber.Ctx) error {
	id := c.Params("id")
	current, err := p.svc.Get(c.UserContext(), id)
	if err != nil {
		return p.done(c, "error", p.message(err))
	}

	form, err := submitting(Form{}.Edit(id))
	if err != nil {
		return err
	}

	ifVersion, _ := resource.WholeNumber(c.FormValue("version"))
	rec, err := p.desc.Decode(c, current)
	rec = rec.WithID(id)
	if ifVersion > 0 {
		rec = rec.WithVersion(ifVersion)
	}
	if err != nil {
		return p.fail(c, form, rec, err)
	}
	rec, asset, err := p.attach(c, rec)
	if err != nil {
		return p.fail(c, form, rec, err)
	}
	updated, err := p.svc.Update(c.UserContext(), rec, ifVersion)
	if err != nil {
		p.discard(c, asset)
		return p.fail(c, form, rec, err)
	}

	logger.Audit(c, p.action("update"), logrus.Fields{"id": id, "version": updated.RecordVersion(), "via": "admin"})
	return p.succeed(c, form, fmt.Sprintf("%s %q saved", p.desc.Singular, p.desc.Label(updated)))
}

func (p *Page[T]) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	rec, err := p.svc.Get(c.UserContext(), id)
	if err != nil {
		return p.done(c, "error", p.message(err))
	}

	if c.FormValue("confirm") != "yes" {
		return c.Render("confirm", fiber.Map{
			"Title":    "Delete " + p.desc.Singular,
			"Path":     p.Path(),
			"Singular": p.desc.Singular,
			"ID":       id,
			"Label":    p.desc.Label(rec),
		}, "layout")
	}

	if err := p.svc.Delete(c.UserContext(), id); err != nil {
		logger.WithRequest(c).WithError(err).WithField("id", id).Warn("admin delete failed")
		return p.done(c, "error", p.message(err))
	}
	logger.Audit(c, p.action("delete"), logrus.Fields{"id": id, "via": "admin"})
	return p.done(c, "notice", fmt.Sprintf("%s %q deleted", p.desc.Singular, p.desc.Label(rec)))
}

// action names audit entries, e.g. "pet_type.update".
func (p *Page[T]) action(verb string) string {
	return strings.ReplaceAll(p.desc.Singular, " ", "_") + "." + verb
}

// attach uploads the posted image, if any, and stores its URL on rec.
func (p *Page[T]) attach(c *fiber.Ctx, rec T) (T, *media.Asset, error) {
	slot := p.desc.Image
	if slot == nil || p.uploader == nil {
		return rec, nil, nil
	}
	fh, err := c.FormFile(slot.Field)
	if err != nil || fh.Size == 0 {
		return rec, nil, nil
	}
	if err := media.CheckImageName(fh.Filename); err != nil {
		return rec, nil, resource.Invalid(slot.Field, err.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return rec, nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer f.Close()

	asset, err := p.uploader.Upload(c.UserContext(), f, fh.Filename)
	if err != nil {
		logger.WithRequest(c).WithError(err).Error("admin image upload failed")
		return rec, nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return slot.Attach(rec, asset.URL), &asset, nil
}

// discard removes an uploaded asset whose record was never saved.
func (p *Page[T]) discard(c *fiber.Ctx, asset *media.Asset) {
	if asset == nil {
		return
	}
	if err := p.uploader.Delete(context.WithoutCancel(c.UserContext()), asset.PublicID); err != nil {
		logger.WithRequest(c).WithError(err).WithField("public_id", asset.PublicID).Warn("orphaned upload not removed")
	}
}

func (p *Page[T]) fail(c *fiber.Ctx, form Form, rec T, err error) error {
	form, ferr := form.Fail(p.message(err))
	if ferr != nil {
		return ferr
	}
	status := resource.StatusFor(err)
	if errors.Is(err, ErrUpload) {
		status = fiber.StatusBadGateway
	}
	if status >= fiber.StatusInternalServerError {
		logger.WithRequest(c).WithError(err).Error("admin submit failed")
	}
	return p.render(c, status, form, rec, form.Notice)
}

// submitting moves an opened form on to Submitting.
func submitting(form Form, err error) (Form, error) {
	if err != nil {
		return form, err
	}
	return form.Submit()
}

// succeed closes the form and redirects so the list is fetched again.
func (p *Page[T]) succeed(c *fiber.Ctx, form Form, notice string) error {
	if _, err := form.Succeed(); err != nil {
		return err
	}
	return p.done(c, "notice", notice)
}

func (p *Page[T]) done(c *fiber.Ctx, key, msg string) error {
	return c.Redirect(p.Path()+"?"+url.Values{key: {msg}}.Encode(), fiber.StatusSeeOther)
}

func (p *Page[T]) message(err error) string {
	var verr *resource.ValidationError
	switch {
	case errors.As(err, &verr):
		return strings.TrimPrefix(verr.Error(), "validation failed: ")
	case errors.Is(err, resource.ErrNotFound):
		return p.desc.Singular + " not found"
	case errors.Is(err, resource.ErrConflict):
		return "this " + p.desc.Singular + " was changed by someone else, reload and try again"
	case errors.Is(err, resource.ErrInUse):
		return "this " + p.desc.Singular + " is still used by products"
	case errors.Is(err, resource.ErrDuplicate):
		return "a " + p.desc.Singular + " with that name already exists"
	case errors.Is(err, ErrUpload):
		return "the image could not be uploaded"
	}
	return "something went wrong, try again"
}

func (p *Page[T]) render(c *fiber.Ctx, status int, form Form, rec T, errMsg string) error {
	ctx := c.UserContext()
	view := pageView{
		Title:    p.desc.Title,
		Path:     p.Path(),
		Singular: p.desc.Singular,
		Query:    c.Query("q"),
		Notice:   c.Query("notice"),
		Error:    errMsg,
		Columns:  p.desc.Columns,
	}

	rows, err := p.svc.List(ctx)
	if err != nil {
		logger.WithRequest(c).WithError(err).Error("admin list failed")
		view.Error = "could not load " + strings.ToLower(p.desc.Title)
		status = fiber.StatusInternalServerError
	}
	view.Total = len(rows)
	needle := strings.ToLower(strings.TrimSpace(view.Query))
	for _, r := range rows {
		if needle != "" && !strings.Contains(strings.ToLower(p.desc.Label(r)), needle) {
			continue
		}
		view.Rows = append(view.Rows, row{ID: r.RecordID(), Version: r.RecordVersion(), Cells: p.desc.Row(r)})
	}
	view.Shown = len(view.Rows)

	if form.IsOpen() {
		fields, err := p.desc.Fields(ctx, rec)
		if err != nil {
			return err
		}
		fv := &formView{Action: p.Path(), Fields: fields, Multipart: p.desc.Image != nil}
		if form.State == Editing {
			fv.Editing = true
			fv.ID = form.ID
			fv.Version = rec.RecordVersion()
			fv.Action = p.Path() + "/" + url.PathEscape(form.ID)
		}
		view.Form = fv
	}
	return c.Status(status).Render("resource", view, "layout")
}
