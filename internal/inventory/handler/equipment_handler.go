package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/eam/internal/inventory/repository"
	"github.com/bitfantasy/eam/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	svc *service.EquipmentService
}

func NewEquipmentHandler(svc *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{svc: svc}
}

// List GET /equipments
//
// 带 search_type 参数时走条件检索（不分页，与旧版检索页一致），
// 否则返回分页列表。
func (h *EquipmentHandler) List(c *gin.Context) {
	searchType := c.Query("search_type")
	if searchType != "" {
		views, err := h.svc.Search(c.Request.Context(), searchType, c.Query("location"), c.Query("name"))
		if err != nil {
			InternalError(c, err.Error())
			return
		}
		Success(c, ListResponse{Items: views})
		return
	}

	page, pageSize := ParsePagination(c)
	views, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	Success(c, ListResponse{
		Items: views,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Get GET /equipments/:id
func (h *EquipmentHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "设备ID格式错误")
		return
	}
	view, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "设备不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, view)
}

// Create POST /equipments
func (h *EquipmentHandler) Create(c *gin.Context) {
	var input service.CreateEquipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateNumber) {
			Conflict(c, "管理编号冲突，请重试")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Created(c, view)
}

// Update PUT /equipments/:id
func (h *EquipmentHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "设备ID格式错误")
		return
	}
	var input service.UpdateEquipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.Update(c.Request.Context(), id, &input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "设备不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, view)
}

// UpdateLocation PUT /equipments/:id/location
func (h *EquipmentHandler) UpdateLocation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "设备ID格式错误")
		return
	}
	var input struct {
		LocationCode string `json:"location_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.svc.UpdateLocation(c.Request.Context(), id, input.LocationCode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "设备不存在")
			return
		}
		if errors.Is(err, service.ErrUnknownLocation) {
			BadRequest(c, "位置编码不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}

// Delete DELETE /equipments/:id
func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "设备ID格式错误")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, "设备删除失败: "+err.Error())
		return
	}
	Success(c, nil)
}

// DeleteBatch POST /equipments/batch-delete
func (h *EquipmentHandler) DeleteBatch(c *gin.Context) {
	var input struct {
		IDs []int `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.svc.DeleteBatch(c.Request.Context(), input.IDs); err != nil {
		InternalError(c, "设备批量删除失败: "+err.Error())
		return
	}
	Success(c, gin.H{"deleted": len(input.IDs)})
}
