package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fieldserv-crm/internal/http/middleware"
	"github.com/nurpe/fieldserv-crm/internal/model"
	"github.com/nurpe/fieldserv-crm/internal/service"
)

type Handler struct {
	bids      *service.BidService
	bidTypes  *service.BidTypeService
	equipment *service.EquipmentService
	roles     *service.RoleService
	log       zerolog.Logger
}

func NewHandler(bids *service.BidService, bidTypes *service.BidTypeService, equipment *service.EquipmentService, roles *service.RoleService, log zerolog.Logger) *Handler {
	return &Handler{
		bids:      bids,
		bidTypes:  bidTypes,
		equipment: equipment,
		roles:     roles,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/bids", h.createBid)
	protected.POST("/bids/:id/transition", h.transitionBid)
	protected.GET("/bids/:id/work-order", h.bidWorkOrder)
	protected.POST("/bids/:id/equipment", h.assignEquipment)
	protected.DELETE("/bids/:id/equipment", h.releaseEquipment)

	protected.GET("/equipment/available", h.listAvailableEquipment)
	protected.POST("/equipment/receive", h.receiveEquipment)
	protected.POST("/equipment/import", h.importEquipment)
	protected.GET("/equipment/export", h.exportEquipment)

	protected.POST("/bid-types", h.createBidType)
	protected.PUT("/bid-types/:id", h.updateBidType)
	protected.GET("/bid-types/:id", h.getBidType)

	protected.POST("/roles", h.createRole)
	protected.PUT("/roles/:id", h.updateRole)
	protected.DELETE("/roles/:id", h.deleteRole)
}

type createBidRequest struct {
	ClientID               string  `json:"client_id" binding:"required"`
	ClientObjectID         *string `json:"client_object_id"`
	BidTypeID              string  `json:"bid_type_id" binding:"required"`
	Description            string  `json:"description"`
	PlannedResolutionDate  *string `json:"planned_resolution_date"`
	PlannedDurationMinutes int     `json:"planned_duration_minutes"`
	ParentID               *string `json:"parent_id"`
	Amount                 float64 `json:"amount"`
}

func (h *Handler) createBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientID, err := uuid.Parse(strings.TrimSpace(req.ClientID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
		return
	}
	bidTypeID, err := uuid.Parse(strings.TrimSpace(req.BidTypeID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid_type_id"})
		return
	}
	clientObjectID, err := parseOptionalID(req.ClientObjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_object_id"})
		return
	}
	parentID, err := parseOptionalID(req.ParentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
		return
	}

	var plannedResolution *time.Time
	if req.PlannedResolutionDate != nil {
		parsed, err := parseDate(*req.PlannedResolutionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid planned_resolution_date"})
			return
		}
		plannedResolution = &parsed
	}

	bid, err := h.bids.Create(c.Request.Context(), service.CreateBidInput{
		ClientID:               clientID,
		ClientObjectID:         clientObjectID,
		BidTypeID:              bidTypeID,
		Description:            req.Description,
		PlannedResolutionDate:  plannedResolution,
		PlannedDurationMinutes: req.PlannedDurationMinutes,
		ParentID:               parentID,
		Amount:                 req.Amount,
		Principal:              principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

type transitionBidRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) transitionBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid id"})
		return
	}

	var req transitionBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.bids.Transition(c.Request.Context(), bidID, req.Status, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (h *Handler) bidWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid id"})
		return
	}

	result, err := h.bids.WorkOrder(c.Request.Context(), bidID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type equipmentBatchRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required"`
}

func (h *Handler) assignEquipment(c *gin.Context) {
	h.mutateAllocation(c, h.equipment.Assign)
}

func (h *Handler) releaseEquipment(c *gin.Context) {
	h.mutateAllocation(c, h.equipment.Release)
}

func (h *Handler) mutateAllocation(
	c *gin.Context,
	op func(ctx context.Context, bidID uuid.UUID, itemIDs []uuid.UUID, principal model.Principal) ([]model.EquipmentItemDetail, error),
) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid id"})
		return
	}

	var req equipmentBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id: " + raw})
			return
		}
		itemIDs = append(itemIDs, id)
	}

	items, err := op(c.Request.Context(), bidID, itemIDs, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) listAvailableEquipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var catalogID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("catalog_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalog_id"})
			return
		}
		catalogID = &id
	}

	items, err := h.equipment.ListAvailable(c.Request.Context(), catalogID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type receiveEquipmentRequest struct {
	CatalogID   string `json:"catalog_id" binding:"required"`
	SupplierID  string `json:"supplier_id" binding:"required"`
	WarehouseID string `json:"warehouse_id" binding:"required"`
	Units       []struct {
		IMEI          *string `json:"imei"`
		PurchasePrice float64 `json:"purchase_price"`
	} `json:"units" binding:"required"`
}

func (h *Handler) receiveEquipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req receiveEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	catalogID, err := uuid.Parse(strings.TrimSpace(req.CatalogID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalog_id"})
		return
	}
	supplierID, err := uuid.Parse(strings.TrimSpace(req.SupplierID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier_id"})
		return
	}
	warehouseID, err := uuid.Parse(strings.TrimSpace(req.WarehouseID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid warehouse_id"})
		return
	}

	units := make([]model.IntakeUnit, 0, len(req.Units))
	for _, unit := range req.Units {
		units = append(units, model.IntakeUnit{IMEI: unit.IMEI, PurchasePrice: unit.PurchasePrice})
	}

	items, err := h.equipment.Receive(c.Request.Context(), service.ReceiveInput{
		CatalogID:   catalogID,
		SupplierID:  supplierID,
		WarehouseID: warehouseID,
		Units:       units,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": items})
}

func (h *Handler) importEquipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	supplierID, err := uuid.Parse(strings.TrimSpace(c.PostForm("supplier_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier_id"})
		return
	}
	warehouseID, err := uuid.Parse(strings.TrimSpace(c.PostForm("warehouse_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid warehouse_id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	items, err := h.equipment.Import(c.Request.Context(), supplierID, warehouseID, file, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": items})
}

func (h *Handler) exportEquipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.equipment.Export(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

type statusPayload struct {
	ID                int      `json:"id"`
	Name              string   `json:"name" binding:"required"`
	Position          int      `json:"position" binding:"required"`
	Color             string   `json:"color"`
	Actions           []string `json:"actions"`
	ResponsibleRoleID *string  `json:"responsible_role_id"`
	ResponsibleUserID *string  `json:"responsible_user_id"`
}

type transitionPayload struct {
	From int `json:"from" binding:"required"`
	To   int `json:"to" binding:"required"`
}

type bidTypeRequest struct {
	Name                   string              `json:"name" binding:"required"`
	Description            string              `json:"description"`
	PlannedReactionMinutes int                 `json:"planned_reaction_minutes"`
	PlannedDurationMinutes int                 `json:"planned_duration_minutes"`
	Statuses               []statusPayload     `json:"statuses" binding:"required"`
	Transitions            []transitionPayload `json:"transitions"`
}

func (req *bidTypeRequest) toInput(principal model.Principal) (service.BidTypeInput, error) {
	statuses := make([]model.Status, 0, len(req.Statuses))
	for _, payload := range req.Statuses {
		roleID, err := parseOptionalID(payload.ResponsibleRoleID)
		if err != nil {
			return service.BidTypeInput{}, errors.New("invalid responsible_role_id")
		}
		userID, err := parseOptionalID(payload.ResponsibleUserID)
		if err != nil {
			return service.BidTypeInput{}, errors.New("invalid responsible_user_id")
		}
		statuses = append(statuses, model.Status{
			ID:                payload.ID,
			Name:              payload.Name,
			Position:          payload.Position,
			Color:             payload.Color,
			Actions:           payload.Actions,
			ResponsibleRoleID: roleID,
			ResponsibleUserID: userID,
		})
	}
	transitions := make([]model.Transition, 0, len(req.Transitions))
	for _, payload := range req.Transitions {
		transitions = append(transitions, model.Transition{From: payload.From, To: payload.To})
	}
	return service.BidTypeInput{
		Name:                   req.Name,
		Description:            req.Description,
		PlannedReactionMinutes: req.PlannedReactionMinutes,
		PlannedDurationMinutes: req.PlannedDurationMinutes,
		Statuses:               statuses,
		Transitions:            transitions,
		Principal:              principal,
	}, nil
}

func (h *Handler) createBidType(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req bidTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput(principal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bidType, err := h.bidTypes.Create(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bidType)
}

func (h *Handler) updateBidType(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid type id"})
		return
	}

	var req bidTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput(principal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bidType, err := h.bidTypes.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, bidType)
}

func (h *Handler) getBidType(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid type id"})
		return
	}

	bidType, err := h.bidTypes.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, bidType)
}

type roleRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Permissions map[string]bool `json:"permissions"`
}

func (h *Handler) createRole(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.roles.Create(c.Request.Context(), service.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *Handler) updateRole(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.roles.Update(c.Request.Context(), id, service.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *Handler) deleteRole(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}

	if err := h.roles.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyAllocated), errors.Is(err, service.ErrNotAllocated):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConfiguration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseOptionalID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
