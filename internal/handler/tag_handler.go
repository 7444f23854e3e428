package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// TagHandler handles tag endpoints.
type TagHandler struct {
	tags service.TagService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(tags service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// TagRequest carries the writable tag fields.
type TagRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,max=20"`
}

// List godoc
// @Summary List the couple's tags
// @Description In creation order.
// @Tags tags
// @Produce json
// @Success 200 {array} model.Tag
// @Security BearerAuth
// @Router /tags [get]
func (h *TagHandler) List(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	tags, err := h.tags.ListTags(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tags)
}

// Create godoc
// @Summary Create a tag
// @Description The name must not collide (case-sensitively) with an existing tag of the same owner.
// @Tags tags
// @Accept json
// @Produce json
// @Param request body TagRequest true "Tag data"
// @Success 201 {object} model.Tag
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tags [post]
func (h *TagHandler) Create(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.tags.CreateTag(c.Request().Context(), identityID, req.Name, req.Color)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, tag)
}

// Update godoc
// @Summary Update a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path string true "Tag ID"
// @Param request body TagRequest true "Tag data"
// @Success 200 {object} model.Tag
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tags/{id} [put]
func (h *TagHandler) Update(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.tags.UpdateTag(c.Request().Context(), identityID, tagID, req.Name, req.Color)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tag)
}

// Delete godoc
// @Summary Delete a tag
// @Description Removes the tag from every recipe that carries it.
// @Tags tags
// @Produce json
// @Param id path string true "Tag ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tags/{id} [delete]
func (h *TagHandler) Delete(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.tags.DeleteTag(c.Request().Context(), identityID, tagID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "tag deleted"})
}
