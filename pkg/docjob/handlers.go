package docjob

import (
	"errors"
	"io"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// RegisterRoutes mounts /api/v1/documents
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	docs := router.Group("/api/v1/documents")
	docs.Post("/", h.upload)
	docs.Get("/", h.list)
	docs.Get("/:id", h.get)
	docs.Get("/:id/result", h.result)
}

// upload expects multipart field "file" plus optional "language" and
// "outputKind"
func (h *Handlers) upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return docjobErrors.New(ErrMissingFile)
	}
	f, err := header.Open()
	if err != nil {
		return docjobErrors.NewWithCause(ErrMissingFile, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return docjobErrors.NewWithCause(ErrMissingFile, err)
	}

	doc, err := h.svc.Submit(c.UserContext(), SubmitRequest{
		Filename:   header.Filename,
		Data:       data,
		Language:   c.FormValue("language"),
		OutputKind: c.FormValue("outputKind"),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(doc)
}

func (h *Handlers) list(c *fiber.Ctx) error {
	page, err := h.svc.List(c.UserContext(), kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	status, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *Handlers) result(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	data, err := h.svc.Result(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func parseID(c *fiber.Ctx) (kernel.DocumentID, error) {
	id, err := kernel.ParseDocumentID(c.Params("id"))
	if err != nil {
		return "", docjobErrors.NewWithCause(ErrInvalidRequest, err).WithDetail("id", c.Params("id"))
	}
	return id, nil
}

// ErrorHandler renders errx errors as JSON with their HTTP status
func ErrorHandler(c *fiber.Ctx, err error) error {
	requestID := c.Get("X-Request-ID")

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":      fe.Message,
			"code":       "HTTP_ERROR",
			"status":     fe.Code,
			"request_id": requestID,
		})
	}

	var e *errx.Error
	if errx.As(err, &e) {
		log := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": requestID,
			"code":       e.Code,
		})
		if e.HTTPStatus >= fiber.StatusInternalServerError {
			log.WithError(err).Error("request failed")
		} else {
			log.Debug("request rejected")
		}

		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": requestID,
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": requestID,
	}).WithError(err).Error("request failed")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"code":       "INTERNAL_ERROR",
		"type":       "INTERNAL",
		"request_id": requestID,
	})
}
