package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/application/dto"
	"github.com/jhoicas/distribucion-api/internal/domain"
	domainalloc "github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// AllocationHandler asignaciones raíz, sub-asignaciones y su ciclo de vida (protegido).
type AllocationHandler struct {
	engine    *allocation.AllocationEngine
	lifecycle *allocation.UnitLifecycle
	log       *logger.Logger
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(engine *allocation.AllocationEngine, lifecycle *allocation.UnitLifecycle, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{engine: engine, lifecycle: lifecycle, log: log}
}

func actorFrom(c *fiber.Ctx) domainalloc.Actor {
	return domainalloc.Actor{ID: GetActorID(c), Role: GetRole(c)}
}

// authorizeRoot carga la raíz y aplica la regla de acceso del actor.
// Distribuidor y receptor no cambian tras la creación.
func (h *AllocationHandler) authorizeRoot(c *fiber.Ctx, rootID string, rule func(domainalloc.Actor, *entity.RootAllocation) error) error {
	root, _, err := h.engine.GetRootAllocation(c.UserContext(), rootID)
	if err != nil {
		return err
	}
	return rule(actorFrom(c), root)
}

// authorizeChild carga la sub-asignación con su raíz y aplica la regla de acceso.
func (h *AllocationHandler) authorizeChild(c *fiber.Ctx, childID string, rule func(domainalloc.Actor, *entity.RootAllocation, *entity.ChildAllocation) error) error {
	child, err := h.engine.GetChildAllocation(c.UserContext(), childID)
	if err != nil {
		return err
	}
	root, _, err := h.engine.GetRootAllocation(c.UserContext(), child.ParentID)
	if err != nil {
		return err
	}
	return rule(actorFrom(c), root, child)
}

func retractRule(a domainalloc.Actor, root *entity.RootAllocation, _ *entity.ChildAllocation) error {
	return domainalloc.AuthorizeRootRecipient(a, root)
}

// CreateRoot godoc
// @Summary      Crear asignación raíz (distribuidor → asociación)
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRootAllocationRequest  true  "resource_kind, quantity, recipient_id"
// @Success      201   {object}  dto.RootAllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/allocations [post]
func (h *AllocationHandler) CreateRoot(c *fiber.Ctx) error {
	var in dto.CreateRootAllocationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	qty, err := quantity.New(in.Quantity)
	if err != nil {
		return writeError(c, h.log, domain.ErrInvalidInput)
	}
	root, err := h.engine.CreateRootAllocation(c.UserContext(), allocation.CreateRootInput{
		ResourceKind:  in.ResourceKind,
		Quantity:      qty,
		DistributorID: GetActorID(c),
		RecipientID:   in.RecipientID,
		Remarks:       in.Remarks,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RootFromEntity(root))
}

// List godoc
// @Summary      Listar asignaciones raíz por distribuidor o receptor
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        distributor_id  query  string  false  "Distribuidor; por defecto el actor si es distribuidor"
// @Param        recipient_id    query  string  false  "Asociación receptora"
// @Param        limit           query  int     false  "Límite"
// @Param        offset          query  int     false  "Offset"
// @Success      200  {object}  dto.Page[dto.RootAllocationResponse]
// @Router       /api/allocations [get]
func (h *AllocationHandler) List(c *fiber.Ctx) error {
	page, ok, err := parsePage(c)
	if !ok {
		return err
	}

	distributorID := c.Query("distributor_id")
	recipientID := c.Query("recipient_id")
	if distributorID == "" && recipientID == "" {
		switch GetRole(c) {
		case entity.RoleDistributor:
			distributorID = GetActorID(c)
		case entity.RoleAssociation:
			recipientID = GetActorID(c)
		}
	}

	list, err := h.engine.ListRootAllocations(c.UserContext(), distributorID, recipientID, page.FetchLimit(), page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MapPage(list, page, dto.RootFromEntity))
}

// GetByID godoc
// @Summary      Obtener asignación raíz con sus sub-asignaciones
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.RootAllocationDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id} [get]
func (h *AllocationHandler) GetByID(c *fiber.Ctx) error {
	root, children, err := h.engine.GetRootAllocation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.RootAllocationDetailResponse{
		RootAllocationResponse: dto.RootFromEntity(root),
		Children:               make([]dto.ChildAllocationResponse, 0, len(children)),
	}
	for _, ch := range children {
		out.Children = append(out.Children, dto.ChildFromEntity(ch))
	}
	return c.JSON(out)
}

// UpdateRemarks godoc
// @Summary      Actualizar observaciones (único campo editable)
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la asignación"
// @Param        body  body  dto.UpdateRemarksRequest   true  "remarks"
// @Success      200   {object}  dto.RootAllocationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id} [patch]
func (h *AllocationHandler) UpdateRemarks(c *fiber.Ctx) error {
	var in dto.UpdateRemarksRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if err := h.authorizeRoot(c, c.Params("id"), domainalloc.AuthorizeRootOwner); err != nil {
		return writeError(c, h.log, err)
	}
	root, err := h.engine.UpdateRootRemarks(c.UserContext(), c.Params("id"), in.Remarks)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RootFromEntity(root))
}

// Cancel godoc
// @Summary      Cancelar asignación raíz sin sub-asignaciones
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.RootAllocationResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id}/cancel [post]
func (h *AllocationHandler) Cancel(c *fiber.Ctx) error {
	if err := h.authorizeRoot(c, c.Params("id"), domainalloc.AuthorizeRootOwner); err != nil {
		return writeError(c, h.log, err)
	}
	root, err := h.engine.CancelRootAllocation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RootFromEntity(root))
}

// Delete godoc
// @Summary      Eliminar asignación raíz sin sub-asignaciones
// @Tags         allocations
// @Security     Bearer
// @Param        id   path  string  true  "ID de la asignación"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id} [delete]
func (h *AllocationHandler) Delete(c *fiber.Ctx) error {
	if err := h.authorizeRoot(c, c.Params("id"), domainalloc.AuthorizeRootOwner); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.engine.DeleteRootAllocation(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateChild godoc
// @Summary      Sub-asignar a un agricultor
// @Description  Falla con 409 EXCEEDS_ALLOCATION y "remaining" si supera la capacidad restante.
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                            true  "ID de la asignación raíz"
// @Param        body  body  dto.CreateChildAllocationRequest  true  "recipient_id, quantity"
// @Success      201   {object}  dto.ChildCreatedResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id}/children [post]
func (h *AllocationHandler) CreateChild(c *fiber.Ctx) error {
	var in dto.CreateChildAllocationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	qty, err := quantity.New(in.Quantity)
	if err != nil {
		return writeError(c, h.log, domain.ErrInvalidInput)
	}
	if err := h.authorizeRoot(c, c.Params("id"), domainalloc.AuthorizeRootRecipient); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.engine.CreateChildAllocation(c.UserContext(), c.Params("id"), in.RecipientID, qty)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ChildCreatedResponse{
		Child:             dto.ChildFromEntity(res.Child),
		RootStatus:        res.Parent.Status,
		RemainingCapacity: res.RemainingCapacity,
	})
}

// GetChild godoc
// @Summary      Obtener sub-asignación
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sub-asignación"
// @Success      200  {object}  dto.ChildAllocationResponse
// @Router       /api/children/{id} [get]
func (h *AllocationHandler) GetChild(c *fiber.Ctx) error {
	child, err := h.engine.GetChildAllocation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ChildFromEntity(child))
}

// DeleteChild godoc
// @Summary      Retirar sub-asignación (solo DISTRIBUTED)
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sub-asignación"
// @Success      200  {object}  dto.RootAllocationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/children/{id} [delete]
func (h *AllocationHandler) DeleteChild(c *fiber.Ctx) error {
	if err := h.authorizeChild(c, c.Params("id"), retractRule); err != nil {
		return writeError(c, h.log, err)
	}
	root, err := h.engine.DeleteChildAllocation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RootFromEntity(root))
}

// MarkPlanted godoc
// @Summary      Registrar siembra con evidencias
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la sub-asignación"
// @Param        body  body  dto.EvidenceRequest  true  "date, location, proof_uris"
// @Success      200   {object}  dto.ChildAllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/children/{id}/planted [post]
func (h *AllocationHandler) MarkPlanted(c *fiber.Ctx) error {
	var in dto.EvidenceRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if err := h.authorizeChild(c, c.Params("id"), domainalloc.AuthorizeChildOutcome); err != nil {
		return writeError(c, h.log, err)
	}
	child, err := h.lifecycle.MarkChildPlanted(c.UserContext(), c.Params("id"), in.ToEntity())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ChildFromEntity(child))
}

// MarkOutcome godoc
// @Summary      Registrar resultado (DAMAGED, LOST, REPLANTED, OTHER)
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la sub-asignación"
// @Param        body  body  dto.EvidenceRequest  true  "state + evidencias"
// @Success      200   {object}  dto.ChildAllocationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/children/{id}/outcome [post]
func (h *AllocationHandler) MarkOutcome(c *fiber.Ctx) error {
	var in dto.EvidenceRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if in.State == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "'state' es requerido"})
	}
	if err := h.authorizeChild(c, c.Params("id"), domainalloc.AuthorizeChildOutcome); err != nil {
		return writeError(c, h.log, err)
	}
	child, err := h.lifecycle.MarkChildOutcome(c.UserContext(), c.Params("id"), in.State, in.ToEntity())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ChildFromEntity(child))
}
