package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yoockh/yoosocial/internal/api/handlers"
	"github.com/yoockh/yoosocial/internal/models"
)

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var _ = Describe("ranked endpoints", func() {
	var (
		router *gin.Engine
		recs   *mockRecommendationService
		feed   *mockFeedService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		recs = &mockRecommendationService{}
		feed = &mockFeedService{}
		router.GET("/ai_sandbox/users/:user_id/recommendations", handlers.NewRecommendationHandler(recs).Recommend)
		router.GET("/feed", handlers.NewFeedHandler(feed).Feed)
	})

	It("maps recommendations to module ids with the cursor", func() {
		recs.recommendFn = func(_ context.Context, userID, cursor string, limit int) (*models.RankedResult, error) {
			Expect(userID).To(Equal("u1"))
			Expect(cursor).To(Equal("abc"))
			Expect(limit).To(Equal(2))
			return &models.RankedResult{
				Items:      []models.RankedItem{{ItemID: "m1", Score: 2}, {ItemID: "m2", Score: 1}},
				NextCursor: "next",
				HasMore:    true,
			}, nil
		}

		w := get(router, "/ai_sandbox/users/u1/recommendations?cursor=abc&limit=2")

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["hasMore"]).To(BeTrue())
		Expect(resp["nextCursor"]).To(Equal("next"))
		items := resp["items"].([]any)
		Expect(items).To(HaveLen(2))
		Expect(items[0]).To(HaveKeyWithValue("moduleId", "m1"))
		Expect(items[0]).To(HaveKeyWithValue("score", 2.0))
	})

	It("renders an empty page as an empty list", func() {
		w := get(router, "/ai_sandbox/users/u1/recommendations")

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["items"]).To(BeEmpty())
		Expect(resp["hasMore"]).To(BeFalse())
	})

	It("rejects a non-numeric limit", func() {
		w := get(router, "/ai_sandbox/users/u1/recommendations?limit=ten")

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("serves the feed for the userId query", func() {
		feed.feedFn = func(_ context.Context, userID, _ string, limit int) (*models.RankedResult, error) {
			Expect(userID).To(Equal("u9"))
			Expect(limit).To(Equal(0))
			return &models.RankedResult{Items: []models.RankedItem{{ItemID: "p1", Score: 0.5}}}, nil
		}

		w := get(router, "/feed?userId=u9")

		Expect(w.Code).To(Equal(http.StatusOK))
		items := decode(w)["items"].([]any)
		Expect(items[0]).To(HaveKeyWithValue("postId", "p1"))
	})

	It("flags degraded pages", func() {
		feed.feedFn = func(context.Context, string, string, int) (*models.RankedResult, error) {
			return &models.RankedResult{Degraded: true}, nil
		}

		w := get(router, "/feed?userId=u9")

		Expect(decode(w)["degraded"]).To(BeTrue())
	})
})

var _ = Describe("PreferenceHandler", func() {
	It("passes explicit edits through", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		svc := &mockPreferenceService{}
		svc.editFn = func(_ context.Context, userID string, add, remove []string) (*models.PreferenceVector, error) {
			Expect(add).To(Equal([]string{"golang"}))
			Expect(remove).To(BeEmpty())
			v := models.NewPreferenceVector(userID)
			v.InterestWeights["golang"] = 1
			return v, nil
		}
		router.PUT("/ai_sandbox/users/:user_id/preferences", handlers.NewPreferenceHandler(svc).Update)

		w := postJSON(router, http.MethodPut, "/ai_sandbox/users/u1/preferences", map[string]any{"addInterests": []string{"golang"}})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["interestWeights"]).To(HaveKeyWithValue("golang", 1.0))
	})
})
