package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// sessionView is what the browser learns about its session. The token itself never
// leaves the server.
type sessionView struct {
	SignedIn  bool         `json:"signedIn"`
	UserID    string       `json:"userId,omitempty"`
	Role      string       `json:"role,omitempty"`
	IsAdmin   bool         `json:"isAdmin"`
	ItemCount int          `json:"itemCount"`
	User      *models.User `json:"user,omitempty"`
}

func (h *Handler) Register(c *gin.Context) {
	var input models.RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	if err := currentSession(c).Gateway.Register(c.Request.Context(), input); err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusCreated, global.APIResponse{
		Success: true,
		Message: "A verification code has been sent to your phone",
	})
}

// VerifyPhone signs the session in. The cart and address book are reloaded for the new
// account before answering.
func (h *Handler) VerifyPhone(c *gin.Context) {
	var input models.VerifyPhoneInput
	if !bindJSON(c, &input) {
		return
	}
	s := currentSession(c)
	ctx := c.Request.Context()

	result, err := s.Gateway.VerifyPhone(ctx, input)
	if err != nil {
		respondError(c, err, false)
		return
	}
	if err := s.Cart.Refresh(ctx); err != nil {
		h.logger.Warn("cart load after sign in failed", zap.Error(err))
	}

	view := sessionView{SignedIn: true, User: result.User, ItemCount: s.Cart.ItemCount()}
	if claims, ok := s.Claims(ctx); ok {
		view.UserID = claims.UserID
		view.Role = claims.Role
		view.IsAdmin = claims.IsAdmin()
	}
	c.JSON(http.StatusOK, global.SuccessResponse(view))
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var input models.ResendOTPInput
	if !bindJSON(c, &input) {
		return
	}
	if err := currentSession(c).Gateway.ResendOTP(c.Request.Context(), input); err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.APIResponse{Success: true, Message: "A new code has been sent"})
}

func (h *Handler) CheckUserExists(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Phone is required", []global.ValidationError{
			{Field: "phone", Message: "This field is required", Code: "required"},
		}))
		return
	}
	exists, err := currentSession(c).Gateway.CheckUserExists(c.Request.Context(), phone)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(models.ExistsResult{Exists: exists}))
}

func (h *Handler) Logout(c *gin.Context) {
	s := currentSession(c)
	if err := h.registry.SignOut(c.Request.Context(), s.ID); err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.APIResponse{Success: true, Message: "Signed out"})
}

func (h *Handler) GetSession(c *gin.Context) {
	s := currentSession(c)
	view := sessionView{ItemCount: s.Cart.ItemCount()}
	if claims, ok := s.Claims(c.Request.Context()); ok {
		view.SignedIn = true
		view.UserID = claims.UserID
		view.Role = claims.Role
		view.IsAdmin = claims.IsAdmin()
	}
	c.JSON(http.StatusOK, global.SuccessResponse(view))
}

func (h *Handler) GetProfile(c *gin.Context) {
	s := currentSession(c)
	user, ok := fetch(h, c, func(ctx context.Context) (*models.User, error) {
		return s.Gateway.Profile(ctx)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(user))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if !bindJSON(c, &update) {
		return
	}
	user, err := currentSession(c).Gateway.UpdateProfile(c.Request.Context(), update)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(user))
}
