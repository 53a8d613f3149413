package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"iconforge/internal/common"
	"iconforge/internal/models"
	"iconforge/internal/services"

	"github.com/labstack/echo/v4"
)

// ImageHandlers handles HTTP requests for image generation and listings
type ImageHandlers struct {
	imageService services.ImageService
}

// NewImageHandlers creates a new image handlers instance
func NewImageHandlers(imageService services.ImageService) *ImageHandlers {
	return &ImageHandlers{imageService: imageService}
}

// CreateImage handles POST /images
func (h *ImageHandlers) CreateImage(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	image, err := h.imageService.Generate(ctx, userID, req.Prompt)
	if err != nil {
		return h.mapImageError(c, err)
	}
	return c.JSON(http.StatusCreated, image)
}

// ListPublicImages handles GET /images
func (h *ImageHandlers) ListPublicImages(c echo.Context) error {
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return common.SendValidationError(c, "limit", "limit must be an integer")
		}
		limit = parsed
	}

	images, err := h.imageService.ListPublic(c.Request().Context(), limit)
	if err != nil {
		return common.SendServerError(c, "Failed to list images")
	}
	if images == nil {
		images = []*models.Image{}
	}
	return c.JSON(http.StatusOK, images)
}

// ListUserImages handles GET /me/images
func (h *ImageHandlers) ListUserImages(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	images, err := h.imageService.ListByOwner(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to list images")
	}
	if images == nil {
		images = []*models.Image{}
	}
	return c.JSON(http.StatusOK, images)
}

// LatestUserImage handles GET /me/images/latest
func (h *ImageHandlers) LatestUserImage(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	image, err := h.imageService.LatestByOwner(ctx, userID)
	if err != nil {
		return h.mapImageError(c, err)
	}
	return c.JSON(http.StatusOK, image)
}

// ShowImage handles POST /images/:id/show
func (h *ImageHandlers) ShowImage(c echo.Context) error {
	return h.setHidden(c, false)
}

// HideImage handles POST /images/:id/hide
func (h *ImageHandlers) HideImage(c echo.Context) error {
	return h.setHidden(c, true)
}

func (h *ImageHandlers) setHidden(c echo.Context, hidden bool) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	image, err := h.imageService.SetHidden(ctx, userID, id, hidden)
	if err != nil {
		return h.mapImageError(c, err)
	}
	return c.JSON(http.StatusOK, image)
}

// DeleteImage handles DELETE /images/:id
func (h *ImageHandlers) DeleteImage(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.imageService.Delete(ctx, userID, id); err != nil {
		return h.mapImageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ImageHandlers) mapImageError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrEmptyPrompt):
		return common.SendValidationError(c, "prompt", "Prompt cannot be empty")
	case errors.Is(err, common.ErrEmptyID):
		return common.SendValidationError(c, "id", "id cannot be empty")
	case errors.Is(err, common.ErrInsufficientCredits):
		return common.SendInsufficientCreditsError(c)
	case errors.Is(err, common.ErrGenerationFailed):
		return common.SendGenerationFailedError(c)
	case errors.Is(err, common.ErrNotFound):
		return common.SendNotFoundError(c, "Image")
	case errors.Is(err, common.ErrNotOwner):
		return common.SendForbiddenError(c, "You do not own this image")
	default:
		return common.SendServerError(c, "Operation could not be completed")
	}
}
