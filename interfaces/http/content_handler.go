package http

import (
	"io"
	"math"
	"net/http"

	"coursemint/domain/apperror"
	"coursemint/domain/dto"
	"coursemint/domain/model"
	"coursemint/infrastructure/logger"
	"coursemint/usecase"

	"github.com/gin-gonic/gin"
)

type IContentHandler interface {
	Generate(ctx *gin.Context)
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	Update(ctx *gin.Context)
	Publish(ctx *gin.Context)
	Unpublish(ctx *gin.Context)
	Delete(ctx *gin.Context)
}

type ContentHandler struct {
	generation usecase.IGenerationUsecase
	contents   usecase.IContentUsecase
	maxUpload  int64
}

func NewContentHandler(generation usecase.IGenerationUsecase, contents usecase.IContentUsecase, maxUpload int64) IContentHandler {
	return &ContentHandler{generation: generation, contents: contents, maxUpload: maxUpload}
}

func (h *ContentHandler) Generate(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	var form dto.GenerateContentForm
	if err := c.ShouldBind(&form); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		respondError(c, apperror.Validation(apperror.CodeInvalidInput, err.Error()))
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, apperror.Validation(apperror.CodeInvalidInput, "file is required"))
		return
	}
	defer file.Close()

	// read one byte past the limit so the extractor can report the size violation
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		respondError(c, apperror.Validation(apperror.CodeInvalidInput, "could not read upload"))
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	item, err := h.generation.Generate(c.Request.Context(), usecase.GenerateRequest{
		OwnerID:     userID,
		Document:    data,
		MimeType:    mimeType,
		ContentType: form.ContentType,
		Title:       form.Title,
		Description: form.Description,
		Price:       form.Price,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ContentHandler) List(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	items, err := h.contents.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *ContentHandler) Get(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	item, err := h.contents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if item.OwnerID != userID {
		respondError(c, apperror.New(apperror.KindAuth, apperror.CodeForbidden, "content item belongs to another user"))
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Update(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	var req dto.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		respondError(c, apperror.Validation(apperror.CodeInvalidInput, "invalid request body"))
		return
	}
	patch := model.ContentPatch{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		KeyPoints:   req.KeyPoints,
	}
	if req.Price != nil {
		if *req.Price < 0 || math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0) {
			respondError(c, apperror.Validation(apperror.CodeInvalidInput, "price must be a non-negative number"))
			return
		}
		cents := int64(math.Round(*req.Price * 100))
		patch.PriceCents = &cents
	}
	if len(req.Body) > 0 {
		// the body shape depends on the stored content type
		current, err := h.contents.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		body, err := model.DecodeBody(current.ContentType, req.Body)
		if err != nil {
			respondError(c, apperror.Validation(apperror.CodeInvalidInput, err.Error()))
			return
		}
		patch.Body = body
	}
	item, err := h.contents.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Publish(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	item, err := h.contents.Publish(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Unpublish(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	item, err := h.contents.Unpublish(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	if err := h.contents.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
