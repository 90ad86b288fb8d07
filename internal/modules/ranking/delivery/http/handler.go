package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	community "anoa.com/communitywealth/internal/modules/community/service"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	ranking "anoa.com/communitywealth/internal/modules/ranking/service"
	status "anoa.com/communitywealth/internal/modules/status/service"
	"anoa.com/communitywealth/pkg/apperror"
	"anoa.com/communitywealth/pkg/format"
	"anoa.com/communitywealth/pkg/response"
	"anoa.com/communitywealth/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the page templates for gin's HTML renderer.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"number": format.Number,
		"inc":    func(i int) int { return i + 1 },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

type RankingHandler struct {
	service ranking.Service
	runner  *ranking.Runner
	latest  *status.Latest
}

func NewRankingHandler(service ranking.Service, runner *ranking.Runner, latest *status.Latest) *RankingHandler {
	return &RankingHandler{service: service, runner: runner, latest: latest}
}

type pageData struct {
	Link    string
	Status  string
	Entries []dto.RankedEntry
}

func (h *RankingHandler) Index(c *gin.Context) {
	data := pageData{}
	if s, ok := h.latest.Get(); ok {
		data.Status = s.Message
	}

	last, err := h.service.LastQuery(c.Request.Context())
	if err != nil && !errors.Is(err, apperror.ErrNoPreviousQuery) {
		response.ResponseError(c, err)
		return
	}
	if last != nil {
		data.Link = community.CommunityLink(last.CommunityID)
		data.Entries = last.Results
	}

	c.HTML(http.StatusOK, "index.html", data)
}

func (h *RankingHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	ticket, err := h.runner.Submit(c.Request.Context(), req.Link)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Accepted(c, ticket)
}

func (h *RankingHandler) Refresh(c *gin.Context) {
	ticket, err := h.runner.Refresh(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Accepted(c, ticket)
}

func (h *RankingHandler) GetLatest(c *gin.Context) {
	last, err := h.service.LastQuery(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, last)
}

func (h *RankingHandler) GetHistory(c *gin.Context) {
	var filter dto.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	if filter.Limit == 0 {
		filter.Limit = 10
	}

	runs, err := h.service.History(c.Request.Context(), filter.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, runs)
}

func (h *RankingHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	run, err := h.service.RunDetail(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, run)
}

func (h *RankingHandler) SearchMembers(c *gin.Context) {
	var filter dto.IndexSearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}

	hits, err := h.service.SearchMembers(c.Request.Context(), filter.Query, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hits, "query": filter.Query, "limit": limit})
}
