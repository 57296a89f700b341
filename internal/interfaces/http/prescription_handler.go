package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/clinicadev/clinica-api/internal/application/dto"
	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain"
)

// PrescriptionHandler maneja prescripciones y su dispensación (protegido).
type PrescriptionHandler struct {
	uc *pharmacy.PrescriptionUseCase
}

// NewPrescriptionHandler construye el handler.
func NewPrescriptionHandler(uc *pharmacy.PrescriptionUseCase) *PrescriptionHandler {
	return &PrescriptionHandler{uc: uc}
}

// Create godoc
// @Summary      Crear prescripción
// @Tags         prescriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePrescriptionRequest  true  "patient_id, medication_id, quantity, instructions"
// @Success      201   {object}  dto.PrescriptionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/prescriptions [post]
func (h *PrescriptionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePrescriptionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListPending godoc
// @Summary      Prescripciones pendientes de dispensar
// @Tags         prescriptions
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo por página (default 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.PrescriptionResponse
// @Router       /api/prescriptions/pending [get]
func (h *PrescriptionHandler) ListPending(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListPending(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(list)
}

// Update godoc
// @Summary      Editar prescripción pendiente
// @Tags         prescriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la prescripción"
// @Param        body  body  dto.UpdatePrescriptionRequest  true  "quantity, instructions"
// @Success      200   {object}  dto.PrescriptionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/prescriptions/{id} [put]
func (h *PrescriptionHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePrescriptionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_PENDING", Message: "solo las prescripciones pendientes pueden editarse"})
		}
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// Deliver godoc
// @Summary      Dispensar prescripción
// @Description  Marca la entrega y descuenta el stock en una sola unidad
//
//	atómica. Si el stock no alcanza, descuenta lo disponible (hasta cero) y
//	el ledger registra la salida real.
//
// @Tags         prescriptions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la prescripción"
// @Success      200  {object}  dto.PrescriptionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/prescriptions/{id}/deliver [post]
func (h *PrescriptionHandler) Deliver(c *fiber.Ctx) error {
	out, err := h.uc.Deliver(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_PENDING", Message: "la prescripción ya fue dispensada o cancelada"})
		}
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar prescripción pendiente
// @Tags         prescriptions
// @Security     Bearer
// @Param        id  path  string  true  "ID de la prescripción"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/prescriptions/{id}/cancel [post]
func (h *PrescriptionHandler) Cancel(c *fiber.Ctx) error {
	if err := h.uc.Cancel(c.Context(), GetUserID(c), c.Params("id")); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_PENDING", Message: "solo las prescripciones pendientes pueden cancelarse"})
		}
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
