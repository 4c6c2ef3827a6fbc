package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"amanah/internal/auth"
	"amanah/internal/database"
	"amanah/internal/services"
)

type AdminHandler struct {
	campaigns *services.CampaignService
	users     *services.UserService
	sync      *services.SyncService
}

func NewAdminHandler(campaigns *services.CampaignService, users *services.UserService, sync *services.SyncService) *AdminHandler {
	return &AdminHandler{campaigns: campaigns, users: users, sync: sync}
}

// kindFromRoute maps the route group to the aggregate collection.
func kindFromRoute(c *gin.Context) (database.AggregateKind, bool) {
	kind := database.AggregateKind(c.GetString("aggregate_kind"))
	if !kind.Valid() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown aggregate kind"})
		return "", false
	}
	return kind, true
}

// SetKind tags every request in a route group with its aggregate kind.
func SetKind(kind database.AggregateKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("aggregate_kind", string(kind))
		c.Next()
	}
}

func (h *AdminHandler) ListAggregates(c *gin.Context) {
	kind, ok := kindFromRoute(c)
	if !ok {
		return
	}

	campaigns, err := h.campaigns.List(c.Request.Context(), kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Ensure we return an empty array instead of null
	if campaigns == nil {
		campaigns = []database.Campaign{}
	}
	c.JSON(http.StatusOK, campaigns)
}

func (h *AdminHandler) CopyAggregate(c *gin.Context) {
	kind, ok := kindFromRoute(c)
	if !ok {
		return
	}

	var req struct {
		NewName           string `json:"new_name" binding:"required"`
		CopyBeneficiaries bool   `json:"copy_beneficiaries"`
		CopyDonations     bool   `json:"copy_donations"`
		CopyItemLists     bool   `json:"copy_item_lists"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := services.Actor{}
	if claims, ok := auth.GetClaimsFromContext(c); ok {
		actor.ID = claims.UID
		actor.Name = claims.Name
	}

	res := h.campaigns.Copy(c.Request.Context(), kind, c.Param("id"), req.NewName, services.CopyOptions{
		Beneficiaries: req.CopyBeneficiaries,
		Donations:     req.CopyDonations,
		ItemLists:     req.CopyItemLists,
	}, actor)

	c.JSON(statusFor(res), res)
}

func (h *AdminHandler) DeleteAggregate(c *gin.Context) {
	kind, ok := kindFromRoute(c)
	if !ok {
		return
	}

	res := h.campaigns.Delete(c.Request.Context(), kind, c.Param("id"))
	c.JSON(statusFor(res), res)
}

func (h *AdminHandler) SyncDonations(c *gin.Context) {
	res := h.sync.SyncDonationTypes(c.Request.Context())
	c.JSON(statusFor(res), res)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	res := h.users.Delete(c.Request.Context(), c.Param("email"))
	c.JSON(statusFor(res), res)
}

func (h *AdminHandler) UpdateUserContact(c *gin.Context) {
	var req struct {
		Email   string `json:"email"`
		LoginID string `json:"login_id"`
		Phone   string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.users.UpdateContact(c.Request.Context(), c.Param("email"), services.ContactUpdate{
		Email:   req.Email,
		LoginID: req.LoginID,
		Phone:   req.Phone,
	})
	c.JSON(statusFor(res), res)
}

func statusFor(res services.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch {
	case errors.Is(res.Err(), services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(res.Err(), services.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
