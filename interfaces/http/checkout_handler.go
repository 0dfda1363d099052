package http

import (
	"net/http"
	"strings"

	"coursemint/domain/dto"
	"coursemint/domain/model"
	"coursemint/usecase"

	"github.com/gin-gonic/gin"
)

// ICheckoutHandler serves the anonymous buyer flow.
type ICheckoutHandler interface {
	Checkout(ctx *gin.Context)
	ValidateAccess(ctx *gin.Context)
	Unlock(ctx *gin.Context)
}

type CheckoutHandler struct {
	entitlements usecase.IEntitlementUsecase
	contents     usecase.IContentUsecase
}

func NewCheckoutHandler(entitlements usecase.IEntitlementUsecase, contents usecase.IContentUsecase) ICheckoutHandler {
	return &CheckoutHandler{entitlements: entitlements, contents: contents}
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	res, err := h.entitlements.Issue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckoutRes{Code: res.Code, CheckoutURL: res.CheckoutURL, ReturnURL: res.ReturnURL})
}

func (h *CheckoutHandler) ValidateAccess(c *gin.Context) {
	var req dto.ValidateAccessReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid_input", Message: "code is required"})
		return
	}
	res, err := h.entitlements.Validate(c.Request.Context(), c.Param("id"), req.Code, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ValidateAccessRes{Granted: res == model.AccessGranted})
}

// Unlock is the buyer landing page: GET /c/:slug?access_code=CODE.
func (h *CheckoutHandler) Unlock(c *gin.Context) {
	slug := c.Param("slug")
	code := strings.TrimSpace(c.Query("access_code"))
	if code == "" {
		item, err := h.contents.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			respondError(c, err)
			return
		}
		if !item.Published {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "content_not_found", Message: "content not found"})
			return
		}
		c.JSON(http.StatusOK, item.Preview())
		return
	}

	res, err := h.entitlements.UnlockBySlug(c.Request.Context(), slug, code, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	if res.Result != model.AccessGranted {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "invalid_code",
			"message": "the access code is not valid for this content",
			"preview": res.Item.Preview(),
		})
		return
	}
	c.JSON(http.StatusOK, res.Item)
}
