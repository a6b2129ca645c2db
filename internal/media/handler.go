package media

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
)

type Handler struct {
	uploader Uploader
}

func NewHandler(uploader Uploader) *Handler {
	return &Handler{uploader: uploader}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, guards...), h.upload)
	r.Post("/uploads", handlers...)
}

func (h *Handler) upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read file"})
	}
	defer f.Close()

	asset, err := h.uploader.Upload(c.UserContext(), f, fh.Filename)
	if errors.Is(err, ErrUnsupportedType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRequest(c).WithError(err).Error("upload failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upload failed"})
	}
	logger.Audit(c, "media.upload", logrus.Fields{"public_id": asset.PublicID})
	return c.Status(fiber.StatusCreated).JSON(asset)
}
