package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	community "anoa.com/communitywealth/internal/modules/community/service"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"anoa.com/communitywealth/internal/modules/ranking/repository"
	ranking "anoa.com/communitywealth/internal/modules/ranking/service"
	status "anoa.com/communitywealth/internal/modules/status/service"
	wealth "anoa.com/communitywealth/internal/modules/wealth/service"
	"anoa.com/communitywealth/pkg/kvstore"
	"anoa.com/communitywealth/pkg/roblox"
	"anoa.com/communitywealth/pkg/roblox/robloxtest"
	"github.com/gin-gonic/gin"
)

type testApp struct {
	router *gin.Engine
	runner *ranking.Runner
	svc    ranking.Service
	api    *robloxtest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := robloxtest.NewServer(t)
	api.AddGroup(77, []roblox.GroupMember{robloxtest.Member(1, "A"), robloxtest.Member(2, "B")})
	api.SetCollectibles(1, []roblox.Collectible{robloxtest.Item(15000)})
	api.SetCollectibles(2, []roblox.Collectible{robloxtest.Item(5000)})

	client := api.RobloxClient()
	latest := status.NewLatest()
	svc := ranking.NewRankingService(
		community.NewService(client, 0),
		ranking.NewAggregator(wealth.NewEstimator(client, 0, 0), 1),
		repository.NewLastQueryRepository(kvstore.NewMemory()),
		nil,
		nil,
		latest,
	)
	runner := ranking.NewRunner(svc, nil, 0)
	h := NewRankingHandler(svc, runner, latest)

	r := gin.New()
	r.SetHTMLTemplate(Templates())
	r.GET("/", h.Index)
	rankings := r.Group("/api/rankings")
	rankings.POST("/search", h.Search)
	rankings.POST("/refresh", h.Refresh)
	rankings.GET("/latest", h.GetLatest)
	rankings.GET("/history", h.GetHistory)
	rankings.GET("/history/:id", h.GetRun)
	rankings.GET("/search-index", h.SearchMembers)

	return &testApp{router: r, runner: runner, svc: svc, api: api}
}

func (a *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestSearchAcceptsAndRuns(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/rankings/search", `{"link":"https://www.roblox.com/communities/77/x"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var accepted struct {
		Data dto.RunTicket `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted.Data.CommunityID != 77 {
		t.Errorf("expected community 77, got %d", accepted.Data.CommunityID)
	}
	app.runner.Wait()

	w = app.do(http.MethodGet, "/api/rankings/latest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var latest struct {
		Data dto.LastQuery `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(latest.Data.Results) != 2 || latest.Data.Results[0].Username != "A" || latest.Data.Results[0].Wealth != 15000 {
		t.Errorf("unexpected latest %+v", latest.Data)
	}

	w = app.do(http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "1. A   15,000") || !strings.Contains(page, "2. B   0") {
		t.Errorf("page is missing ranked lines:\n%s", page)
	}
	if !strings.Contains(page, "Completed. Displaying top 2 members.") {
		t.Errorf("page is missing the final status")
	}
}

func TestSearchErrors(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		body string
		code int
	}{
		{`{}`, http.StatusBadRequest},
		{`{"link":"https://www.roblox.com/groups/77"}`, http.StatusBadRequest},
		{`{"link":"` + strings.Repeat("a", 2049) + `"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := app.do(http.MethodPost, "/api/rankings/search", tc.body)
		if w.Code != tc.code {
			t.Errorf("%.40s: expected %d, got %d: %s", tc.body, tc.code, w.Code, w.Body.String())
		}
	}
	if hits := app.api.TotalHits(); hits != 0 {
		t.Errorf("expected no upstream requests, got %d", hits)
	}
}

func TestRefreshAndLatestWithoutPreviousQuery(t *testing.T) {
	app := newTestApp(t)

	if w := app.do(http.MethodPost, "/api/rankings/refresh", ""); w.Code != http.StatusNotFound {
		t.Errorf("refresh: expected 404, got %d", w.Code)
	}
	if w := app.do(http.MethodGet, "/api/rankings/latest", ""); w.Code != http.StatusNotFound {
		t.Errorf("latest: expected 404, got %d", w.Code)
	}
	if w := app.do(http.MethodGet, "/", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "No results yet.") {
		t.Errorf("index: unexpected %d", w.Code)
	}

	if _, err := app.svc.Search(context.Background(), "https://www.roblox.com/communities/77"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if w := app.do(http.MethodPost, "/api/rankings/refresh", ""); w.Code != http.StatusAccepted {
		t.Errorf("refresh: expected 202, got %d", w.Code)
	}
	app.runner.Wait()
}

func TestDisabledFeatures(t *testing.T) {
	app := newTestApp(t)

	if w := app.do(http.MethodGet, "/api/rankings/history", ""); w.Code != http.StatusNotFound {
		t.Errorf("history: expected 404, got %d", w.Code)
	}
	if w := app.do(http.MethodGet, "/api/rankings/history?limit=500", ""); w.Code != http.StatusBadRequest {
		t.Errorf("history: expected 400 for limit, got %d", w.Code)
	}
	if w := app.do(http.MethodGet, "/api/rankings/history/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Errorf("run: expected 400, got %d", w.Code)
	}
	if w := app.do(http.MethodGet, "/api/rankings/search-index", ""); w.Code != http.StatusBadRequest {
		t.Errorf("search-index: expected 400 without q, got %d", w.Code)
	}
	if w := app.do(http.MethodGet, "/api/rankings/search-index?q=a", ""); w.Code != http.StatusNotFound {
		t.Errorf("search-index: expected 404, got %d", w.Code)
	}
}
