package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cartpod/internal/errors"
	"cartpod/internal/middleware"
	"cartpod/internal/model"
	"cartpod/internal/service"
	"cartpod/internal/storage"
)

// FoodCartHandler serves the food cart endpoints.
type FoodCartHandler struct {
	carts  service.FoodCartService
	images storage.ImageUploader
}

// NewFoodCartHandler creates a new food cart handler. images may be nil, in
// which case uploads answer 503.
func NewFoodCartHandler(carts service.FoodCartService, images storage.ImageUploader) *FoodCartHandler {
	return &FoodCartHandler{carts: carts, images: images}
}

// FoodCartRequest represents a new food cart.
type FoodCartRequest struct {
	Name             string          `json:"name" validate:"required"`
	Location         *model.Location `json:"location" validate:"required"`
	CartPodID        string          `json:"cart_pod_id"`
	PodLocationImage string          `json:"pod_location_image" validate:"omitempty,url"`
	CartImage        string          `json:"cart_image" validate:"omitempty,url"`
	MenuImages       []string        `json:"menu_images" validate:"omitempty,dive,url"`
}

func (r FoodCartRequest) input() service.FoodCartInput {
	// An unparsable pod id stays uuid.Nil and is rejected by the service.
	podID, _ := uuid.Parse(r.CartPodID)
	return service.FoodCartInput{
		Name:             r.Name,
		Location:         *r.Location,
		CartPodID:        podID,
		PodLocationImage: r.PodLocationImage,
		CartImage:        r.CartImage,
		MenuImages:       r.MenuImages,
	}
}

// UpdateFoodCartRequest holds the food cart fields to change.
type UpdateFoodCartRequest struct {
	Name             *string         `json:"name,omitempty"`
	Location         *model.Location `json:"location,omitempty"`
	PodLocationImage *string         `json:"pod_location_image,omitempty" validate:"omitempty,url"`
	CartImage        *string         `json:"cart_image,omitempty" validate:"omitempty,url"`
	MenuImages       []string        `json:"menu_images,omitempty" validate:"omitempty,dive,url"`
}

// ReviewRequest is a rating for a food cart.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// UploadResponse carries the public URL of an uploaded image.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// ListFoodCarts godoc
// @Summary List food carts
// @Tags foodcarts
// @Produce json
// @Success 200 {array} model.FoodCart
// @Router /foodcarts [get]
func (h *FoodCartHandler) ListFoodCarts(c echo.Context) error {
	carts, err := h.carts.List(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, nonNil(carts))
}

// GetFoodCart godoc
// @Summary Get a food cart with its reviews
// @Tags foodcarts
// @Produce json
// @Param id path string true "Food cart ID"
// @Success 200 {object} model.FoodCart
// @Failure 404 {object} errors.ErrorResponse
// @Router /foodcarts/{id} [get]
func (h *FoodCartHandler) GetFoodCart(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrFoodCartNotFound)
	if err != nil {
		return err
	}

	cart, err := h.carts.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

// ListByCartPod godoc
// @Summary Food carts in a cart pod
// @Tags foodcarts
// @Produce json
// @Param cartPodId path string true "Cart pod ID"
// @Success 200 {array} model.FoodCart
// @Failure 404 {object} errors.ErrorResponse
// @Router /foodcarts/cartpod/{cartPodId} [get]
func (h *FoodCartHandler) ListByCartPod(c echo.Context) error {
	podID, err := pathID(c, "cartPodId", errors.ErrCartPodNotFound)
	if err != nil {
		return err
	}

	carts, err := h.carts.ListByCartPod(c.Request().Context(), podID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, nonNil(carts))
}

// NearFoodCarts godoc
// @Summary Food carts near a point
// @Description Nearest first. maxDistance is in kilometres.
// @Tags foodcarts
// @Produce json
// @Param longitude path number true "Longitude"
// @Param latitude path number true "Latitude"
// @Param maxDistance path number true "Maximum distance in km"
// @Success 200 {array} model.FoodCart
// @Failure 400 {object} errors.ErrorResponse
// @Router /foodcarts/near/{longitude}/{latitude}/{maxDistance} [get]
func (h *FoodCartHandler) NearFoodCarts(c echo.Context) error {
	origin, maxKm, err := nearParams(c)
	if err != nil {
		return err
	}

	carts, err := h.carts.Near(c.Request().Context(), origin, maxKm)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, nonNil(carts))
}

// CreateFoodCart godoc
// @Summary Create a food cart
// @Tags foodcarts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FoodCartRequest true "Food cart"
// @Success 201 {object} model.FoodCart
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /foodcarts [post]
func (h *FoodCartHandler) CreateFoodCart(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(errors.ErrUnauthenticated)
	}

	var req FoodCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.Create(c.Request().Context(), actor, req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, cart)
}

// UpdateFoodCart godoc
// @Summary Update a food cart
// @Description Only the owner of the cart or an admin may change it.
// @Tags foodcarts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Food cart ID"
// @Param request body UpdateFoodCartRequest true "Fields to change"
// @Success 200 {object} model.FoodCart
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /foodcarts/{id} [put]
func (h *FoodCartHandler) UpdateFoodCart(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrFoodCartNotFound)
	if err != nil {
		return err
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(errors.ErrUnauthenticated)
	}

	var req UpdateFoodCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.Update(c.Request().Context(), actor, id, service.FoodCartPatch{
		Name:             req.Name,
		Location:         req.Location,
		PodLocationImage: req.PodLocationImage,
		CartImage:        req.CartImage,
		MenuImages:       req.MenuImages,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

// DeleteFoodCart godoc
// @Summary Delete a food cart
// @Tags foodcarts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Food cart ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /foodcarts/{id} [delete]
func (h *FoodCartHandler) DeleteFoodCart(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrFoodCartNotFound)
	if err != nil {
		return err
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(errors.ErrUnauthenticated)
	}

	if err := h.carts.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Food cart deleted successfully"})
}

// AddReview godoc
// @Summary Review a food cart
// @Tags foodcarts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Food cart ID"
// @Param request body ReviewRequest true "Review"
// @Success 201 {object} model.FoodCart
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /foodcarts/{id}/reviews [post]
func (h *FoodCartHandler) AddReview(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrFoodCartNotFound)
	if err != nil {
		return err
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(errors.ErrUnauthenticated)
	}

	var req ReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.AddReview(c.Request().Context(), actor, id, service.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, cart)
}

// UploadImage godoc
// @Summary Upload a food cart image
// @Tags foodcarts
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file, at most 5MB"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /foodcarts/upload [post]
func (h *FoodCartHandler) UploadImage(c echo.Context) error {
	if h.images == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, errors.ErrorResponse{
			Error: "image uploads are not configured",
			Code:  "UPLOADS_DISABLED",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return respondError(errors.NewValidationError("image", "No file uploaded"))
	}
	if file.Size > storage.MaxImageSize || !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return respondError(errors.ErrInvalidImage)
	}

	src, err := file.Open()
	if err != nil {
		return respondError(err)
	}
	defer src.Close()

	url, err := h.images.Upload(c.Request().Context(), src)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, UploadResponse{ImageURL: url})
}

func nonNil(carts []model.FoodCart) []model.FoodCart {
	if carts == nil {
		return []model.FoodCart{}
	}
	return carts
}
