package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
)

// Names controls routes and response envelopes for one resource.
type Names struct {
	Path     string // URL segment, e.g. "pet-types"
	Plural   string // list key, e.g. "pet_types"
	Singular string // item key, e.g. "pet_type"
	ErrorKey string // "error" unless overridden
	BareList bool   // list responds with a bare array
}

type Handler[T Record[T]] struct {
	service *Service[T]
	names   Names
}

func NewHandler[T Record[T]](service *Service[T], names Names) *Handler[T] {
	if names.ErrorKey == "" {
		names.ErrorKey = "error"
	}
	return &Handler[T]{service: service, names: names}
}

func (h *Handler[T]) RegisterPublicRoutes(r fiber.Router) {
	base := "/" + h.names.Path
	r.Get(base, h.list)
	r.Get(base+"/:id", h.getByPath)
}

func (h *Handler[T]) RegisterProtectedRoutes(r fiber.Router, guards ...fiber.Handler) {
	base := "/" + h.names.Path
	r.Post(base, chain(guards, h.create)...)
	r.Put(base, chain(guards, h.update)...)
	r.Put(base+"/:id", chain(guards, h.update)...)
	r.Delete(base, chain(guards, h.delete)...)
	r.Delete(base+"/:id", chain(guards, h.delete)...)
}

// RegisterAllProtected puts reads behind the guards too.
func (h *Handler[T]) RegisterAllProtected(r fiber.Router, guards ...fiber.Handler) {
	base := "/" + h.names.Path
	r.Get(base, chain(guards, h.list)...)
	r.Get(base+"/:id", chain(guards, h.getByPath)...)
	h.RegisterProtectedRoutes(r, guards...)
}

func chain(guards []fiber.Handler, last fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, last)
}

func (h *Handler[T]) list(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		return h.getOne(c, id, true)
	}
	rows, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	if h.names.BareList {
		return c.JSON(rows)
	}
	return c.JSON(fiber.Map{h.names.Plural: rows})
}

func (h *Handler[T]) getByPath(c *fiber.Ctx) error {
	return h.getOne(c, c.Params("id"), false)
}

func (h *Handler[T]) getOne(c *fiber.Ctx, id string, wrap bool) error {
	rec, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderETag, ETag(rec.RecordVersion()))
	return h.respond(c, fiber.StatusOK, rec, wrap)
}

func (h *Handler[T]) create(c *fiber.Ctx) error {
	var rec T
	if err := c.BodyParser(&rec); err != nil {
		return h.badBody(c, err)
	}
	created, err := h.service.Create(c.UserContext(), rec)
	if err != nil {
		return h.fail(c, err)
	}
	logger.Audit(c, h.names.Singular+".create", logrus.Fields{"id": created.RecordID()})
	return h.respond(c, fiber.StatusCreated, created, true)
}

func (h *Handler[T]) update(c *fiber.Ctx) error {
	var rec T
	if err := c.BodyParser(&rec); err != nil {
		return h.badBody(c, err)
	}
	id := c.Params("id")
	if id != "" {
		rec = rec.WithID(id)
	}

	ifVersion, err := ParseIfMatch(c.Get(fiber.HeaderIfMatch))
	if err != nil {
		return h.fail(c, err)
	}
	if ifVersion == 0 {
		ifVersion = rec.RecordVersion()
	}

	updated, err := h.service.Update(c.UserContext(), rec, ifVersion)
	if err != nil {
		return h.fail(c, err)
	}
	logger.Audit(c, h.names.Singular+".update", logrus.Fields{"id": updated.RecordID(), "version": updated.RecordVersion()})
	c.Set(fiber.HeaderETag, ETag(updated.RecordVersion()))
	return h.respond(c, fiber.StatusOK, updated, id == "")
}

func (h *Handler[T]) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" && len(c.Body()) > 0 {
		var body struct {
			ID string `json:"id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return h.badBody(c, err)
		}
		id = body.ID
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	logger.Audit(c, h.names.Singular+".delete", logrus.Fields{"id": id})
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler[T]) respond(c *fiber.Ctx, status int, rec T, wrap bool) error {
	if wrap {
		return c.Status(status).JSON(fiber.Map{h.names.Singular: rec})
	}
	return c.Status(status).JSON(rec)
}

func (h *Handler[T]) badBody(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{h.names.ErrorKey: "invalid request body: " + err.Error()})
}

func (h *Handler[T]) fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	body := fiber.Map{h.names.ErrorKey: err.Error()}

	var verr *ValidationError
	if errors.As(err, &verr) {
		body[h.names.ErrorKey] = "validation failed"
		body["fields"] = verr.Fields
	}
	if status == fiber.StatusInternalServerError {
		logger.WithRequest(c).WithError(err).Errorf("%s request failed", h.names.Singular)
		body[h.names.ErrorKey] = "internal server error"
	}
	return c.Status(status).JSON(body)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInUse), errors.Is(err, ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalid):
		return fiber.StatusBadRequest
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

func ETag(version int) string {
	return fmt.Sprintf("%q", strconv.Itoa(version))
}

// ParseIfMatch reads a version from `"3"`, `W/"3"` or `3`. Empty and `*` mean no condition.
func ParseIfMatch(header string) (int, error) {
	v := strings.TrimSpace(header)
	if v == "" || v == "*" {
		return 0, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, Invalid("If-Match", "must be a record version")
	}
	return n, nil
}
