package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

type addressListPayload struct {
	global.ListPayload
	SelectedID string `json:"selectedId,omitempty"`
}

func addressView(s *storefront.Session) addressListPayload {
	view := addressListPayload{ListPayload: global.NewListPayload(s.Addresses.Addresses())}
	if selected, ok := s.Addresses.Selected(); ok {
		view.SelectedID = selected.ID
	}
	return view
}

// ensureAddresses loads the address book once per session so edits can find their target.
func (h *Handler) ensureAddresses(c *gin.Context, s *storefront.Session) bool {
	if s.Addresses.Loaded() {
		return true
	}
	_, ok := fetch(h, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Addresses.Load(ctx)
	})
	return ok
}

func (h *Handler) GetAddresses(c *gin.Context) {
	s := currentSession(c)
	if !h.ensureAddresses(c, s) {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addressView(s)))
}

func (h *Handler) CreateAddress(c *gin.Context) {
	var input models.AddressInput
	if !bindJSON(c, &input) {
		return
	}
	s := currentSession(c)
	if !h.ensureAddresses(c, s) {
		return
	}
	created, err := s.Addresses.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(created))
}

func (h *Handler) UpdateAddress(c *gin.Context) {
	var input models.AddressInput
	if !bindJSON(c, &input) {
		return
	}
	s := currentSession(c)
	if !h.ensureAddresses(c, s) {
		return
	}
	updated, err := s.Addresses.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(updated))
}

func (h *Handler) DeleteAddress(c *gin.Context) {
	s := currentSession(c)
	if !h.ensureAddresses(c, s) {
		return
	}
	if err := s.Addresses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addressView(s)))
}

func (h *Handler) SetDefaultAddress(c *gin.Context) {
	s := currentSession(c)
	if !h.ensureAddresses(c, s) {
		return
	}
	if err := s.Addresses.SetDefault(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addressView(s)))
}

// SelectAddress picks the delivery address for checkout. Nothing is sent to the API.
func (h *Handler) SelectAddress(c *gin.Context) {
	s := currentSession(c)
	if !h.ensureAddresses(c, s) {
		return
	}
	if err := s.Addresses.Select(c.Param("id")); err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addressView(s)))
}
