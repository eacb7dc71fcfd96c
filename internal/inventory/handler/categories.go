package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vendora-system/internal/database/models"
)

// Categories are a shared tree, not tenant-scoped; products reference them
// per tenant.

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
}

func (h *InventoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name is required"))
		return
	}

	if req.ParentID != nil {
		var parent models.Category
		if err := h.db.First(&parent, *req.ParentID).Error; err != nil {
			c.JSON(http.StatusNotFound, errorResponse("Parent category not found"))
			return
		}
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
	}
	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create category"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Category created", gin.H{"category_id": category.ID}))
}

func (h *InventoryHandler) ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := h.db.Preload("Children").Order("name").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list categories"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Categories retrieved", categories))
}

func (h *InventoryHandler) GetCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid category ID"))
		return
	}

	var category models.Category
	if err := h.db.Preload("Children").First(&category, id).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Category not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Category retrieved", category))
}

type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
}

func (h *InventoryHandler) UpdateCategory(c *gin.Context) {
	var category models.Category
	if err := h.db.First(&category, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Category not found"))
		return
	}

	var req CategoryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ParentID != nil {
		if *req.ParentID == category.ID {
			c.JSON(http.StatusBadRequest, errorResponse("Category cannot be its own parent"))
			return
		}
		updates["parent_id"] = *req.ParentID
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No fields to update"))
		return
	}

	if err := h.db.Model(&category).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update category"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Category updated", nil))
}

// DeleteCategory refuses while subcategories or products still reference the
// category.
func (h *InventoryHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid category ID"))
		return
	}

	var category models.Category
	if err := h.db.First(&category, id).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Category not found"))
		return
	}

	var children int64
	h.db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&children)
	if children > 0 {
		c.JSON(http.StatusConflict, errorResponse("Category has subcategories, remove them first"))
		return
	}

	var products int64
	h.db.Model(&models.Product{}).Where("category_id = ?", id).Count(&products)
	if products > 0 {
		c.JSON(http.StatusConflict, errorResponse("Category has products, reassign them first"))
		return
	}

	if err := h.db.Delete(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete category"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Category deleted", nil))
}
