package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seekmark/seekmark/internal/model"
	"github.com/seekmark/seekmark/internal/pkg/response"
	"github.com/seekmark/seekmark/internal/search"
)

type SearchHandler struct {
	engine *search.Engine
}

func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

type searchRequest struct {
	Keyword         string   `json:"keyword"`
	ExtraQueryTexts []string `json:"extra_query_texts"`
	Detailed        bool     `json:"detailed"`
}

type searchResponse struct {
	Results  []model.RankedResult `json:"results"`
	Degraded []string             `json:"degraded,omitempty"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Detailed {
		results, degraded, err := h.engine.SearchDetailed(
			c.Request.Context(), getUserID(c), req.Keyword, req.ExtraQueryTexts)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, searchResponse{Results: results, Degraded: degraded})
		return
	}
	results, err := h.engine.Search(
		c.Request.Context(), getUserID(c), req.Keyword, req.ExtraQueryTexts)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, searchResponse{Results: results})
}

type indexRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *SearchHandler) Index(c *gin.Context) {
	bookmarkID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookmarkID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid bookmark id")
		return
	}
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.engine.IndexDocument(c.Request.Context(), getUserID(c), bookmarkID, req.Title, req.Content); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *SearchHandler) Remove(c *gin.Context) {
	bookmarkID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookmarkID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid bookmark id")
		return
	}
	if err := h.engine.RemoveDocument(c.Request.Context(), getUserID(c), bookmarkID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
