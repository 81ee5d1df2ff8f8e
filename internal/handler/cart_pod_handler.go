package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cartpod/internal/errors"
	"cartpod/internal/middleware"
	"cartpod/internal/model"
	"cartpod/internal/service"
)

// CartPodHandler serves the cart pod endpoints.
type CartPodHandler struct {
	pods  service.CartPodService
	carts service.FoodCartService
}

// NewCartPodHandler creates a new cart pod handler.
func NewCartPodHandler(pods service.CartPodService, carts service.FoodCartService) *CartPodHandler {
	return &CartPodHandler{pods: pods, carts: carts}
}

// CreateCartPodRequest represents a new cart pod.
type CreateCartPodRequest struct {
	Name             string          `json:"name" validate:"required"`
	Location         *model.Location `json:"location" validate:"required"`
	ArrangementImage string          `json:"arrangement_image" validate:"omitempty,url"`
}

// UpdateCartPodRequest holds the cart pod fields to change.
type UpdateCartPodRequest struct {
	Name             *string         `json:"name,omitempty"`
	Location         *model.Location `json:"location,omitempty"`
	ArrangementImage *string         `json:"arrangement_image,omitempty" validate:"omitempty,url"`
}

// ListCartPods godoc
// @Summary List cart pods
// @Tags cartpods
// @Produce json
// @Success 200 {array} model.CartPod
// @Failure 500 {object} errors.ErrorResponse
// @Router /cartpods [get]
func (h *CartPodHandler) ListCartPods(c echo.Context) error {
	pods, err := h.pods.List(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	if pods == nil {
		pods = []model.CartPod{}
	}
	return c.JSON(http.StatusOK, pods)
}

// GetCartPod godoc
// @Summary Get a cart pod
// @Tags cartpods
// @Produce json
// @Param id path string true "Cart pod ID"
// @Success 200 {object} model.CartPod
// @Failure 404 {object} errors.ErrorResponse
// @Router /cartpods/{id} [get]
func (h *CartPodHandler) GetCartPod(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrCartPodNotFound)
	if err != nil {
		return err
	}

	pod, err := h.pods.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, pod)
}

// NearCartPods godoc
// @Summary Cart pods near a point
// @Description Nearest first. maxDistance is in kilometres.
// @Tags cartpods
// @Produce json
// @Param longitude path number true "Longitude"
// @Param latitude path number true "Latitude"
// @Param maxDistance path number true "Maximum distance in km"
// @Success 200 {array} model.CartPod
// @Failure 400 {object} errors.ErrorResponse
// @Router /cartpods/near/{longitude}/{latitude}/{maxDistance} [get]
func (h *CartPodHandler) NearCartPods(c echo.Context) error {
	origin, maxKm, err := nearParams(c)
	if err != nil {
		return err
	}

	pods, err := h.pods.Near(c.Request().Context(), origin, maxKm)
	if err != nil {
		return respondError(err)
	}
	if pods == nil {
		pods = []model.CartPod{}
	}
	return c.JSON(http.StatusOK, pods)
}

// CreateCartPod godoc
// @Summary Create a cart pod
// @Tags cartpods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCartPodRequest true "Cart pod"
// @Success 201 {object} model.CartPod
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /cartpods [post]
func (h *CartPodHandler) CreateCartPod(c echo.Context) error {
	var req CreateCartPodRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pod, err := h.pods.Create(c.Request().Context(), service.CartPodInput{
		Name:             req.Name,
		Location:         *req.Location,
		ArrangementImage: req.ArrangementImage,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, pod)
}

// UpdateCartPod godoc
// @Summary Update a cart pod
// @Tags cartpods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart pod ID"
// @Param request body UpdateCartPodRequest true "Fields to change"
// @Success 200 {object} model.CartPod
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cartpods/{id} [put]
func (h *CartPodHandler) UpdateCartPod(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrCartPodNotFound)
	if err != nil {
		return err
	}

	var req UpdateCartPodRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pod, err := h.pods.Update(c.Request().Context(), id, service.CartPodPatch{
		Name:             req.Name,
		Location:         req.Location,
		ArrangementImage: req.ArrangementImage,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, pod)
}

// DeleteCartPod godoc
// @Summary Delete an empty cart pod
// @Tags cartpods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart pod ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cartpods/{id} [delete]
func (h *CartPodHandler) DeleteCartPod(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrCartPodNotFound)
	if err != nil {
		return err
	}

	if err := h.pods.Delete(c.Request().Context(), id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Cart pod deleted successfully"})
}

// CreateFoodCartInPod godoc
// @Summary Create a food cart inside a cart pod
// @Description The caller becomes the owner of the new cart.
// @Tags cartpods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart pod ID"
// @Param request body FoodCartRequest true "Food cart"
// @Success 201 {object} model.FoodCart
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cartpods/{id}/foodcarts [post]
func (h *CartPodHandler) CreateFoodCartInPod(c echo.Context) error {
	podID, err := pathID(c, "id", errors.ErrCartPodNotFound)
	if err != nil {
		return err
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(errors.ErrUnauthenticated)
	}

	var req FoodCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := req.input()
	in.CartPodID = podID

	cart, err := h.carts.Create(c.Request().Context(), actor, in)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, cart)
}

// nearParams reads the longitude, latitude and maxDistance path parameters.
func nearParams(c echo.Context) (model.Location, float64, error) {
	lng, err := strconv.ParseFloat(c.Param("longitude"), 64)
	if err != nil {
		return model.Location{}, 0, respondError(errors.NewValidationError("longitude", "Longitude must be a number"))
	}
	lat, err := strconv.ParseFloat(c.Param("latitude"), 64)
	if err != nil {
		return model.Location{}, 0, respondError(errors.NewValidationError("latitude", "Latitude must be a number"))
	}
	maxKm, err := strconv.ParseFloat(c.Param("maxDistance"), 64)
	if err != nil {
		return model.Location{}, 0, respondError(errors.NewValidationError("maxDistance", "Max distance must be a number"))
	}
	return model.Location{Longitude: lng, Latitude: lat}, maxKm, nil
}
