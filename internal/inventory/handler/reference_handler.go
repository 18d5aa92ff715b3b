package handler

import (
	"strconv"

	"github.com/bitfantasy/eam/internal/inventory/repository"
	"github.com/gin-gonic/gin"
)

// ReferenceHandler 参照数据查询（表单下拉用）
type ReferenceHandler struct {
	categoryRepo    *repository.CategoryRepository
	subcategoryRepo *repository.SubcategoryRepository
	locationRepo    *repository.LocationRepository
}

func NewReferenceHandler(repos *repository.Repositories) *ReferenceHandler {
	return &ReferenceHandler{
		categoryRepo:    repos.Category,
		subcategoryRepo: repos.Subcategory,
		locationRepo:    repos.Location,
	}
}

// ListCategories GET /categories
func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	items, err := h.categoryRepo.ListAll(c.Request.Context())
	if err != nil {
		InternalError(c, "类别列表查询失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items})
}

// ListSubcategories GET /categories/:id/subcategories
func (h *ReferenceHandler) ListSubcategories(c *gin.Context) {
	categoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "类别ID格式错误")
		return
	}
	items, err := h.subcategoryRepo.ListByCategoryID(c.Request.Context(), categoryID)
	if err != nil {
		InternalError(c, "小类列表查询失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items})
}

// ListLocations GET /locations
func (h *ReferenceHandler) ListLocations(c *gin.Context) {
	items, err := h.locationRepo.ListAll(c.Request.Context())
	if err != nil {
		InternalError(c, "位置列表查询失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items})
}
