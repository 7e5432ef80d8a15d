package handlers_test

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yoockh/yoosocial/internal/api/handlers"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

var _ = Describe("ProgressHandler", func() {
	var (
		router *gin.Engine
		svc    *mockProgressService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockProgressService{}
		h := handlers.NewProgressHandler(svc)
		router.POST("/ai_sandbox/users/:user_id/progress/:module_id", h.Update)
		router.PUT("/ai_sandbox/users/:user_id/progress/:module_id", h.Update)
	})

	It("returns the new state with timestamps", func() {
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		svc.updateFn = func(_ context.Context, userID, moduleID string, status models.ProgressStatus) (*models.ProgressRecord, error) {
			Expect(userID).To(Equal("u1"))
			Expect(moduleID).To(Equal("m1"))
			Expect(status).To(Equal(models.StatusInProgress))
			return &models.ProgressRecord{UserID: userID, ModuleID: moduleID, Status: status, StartedAt: &started}, nil
		}

		w := postJSON(router, http.MethodPut, "/ai_sandbox/users/u1/progress/m1", map[string]string{"status": "in_progress"})

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["status"]).To(Equal("in_progress"))
		Expect(resp["startedAt"]).To(Equal("2026-01-02T03:04:05Z"))
		Expect(resp).NotTo(HaveKey("completedAt"))
	})

	It("returns 422 naming both states for a rejected transition", func() {
		svc.updateFn = func(context.Context, string, string, models.ProgressStatus) (*models.ProgressRecord, error) {
			return nil, utils.E(utils.CodeInvalidTransition, "test", "invalid transition: not_started -> completed", nil)
		}

		w := postJSON(router, http.MethodPost, "/ai_sandbox/users/u1/progress/m1", map[string]string{"status": "completed"})

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		resp := decode(w)
		Expect(resp["code"]).To(Equal(string(utils.CodeInvalidTransition)))
		Expect(resp["message"]).To(Equal("invalid transition: not_started -> completed"))
	})

	It("returns 404 for an unknown module", func() {
		svc.updateFn = func(context.Context, string, string, models.ProgressStatus) (*models.ProgressRecord, error) {
			return nil, utils.E(utils.CodeNotFound, "test", "module not found", utils.ErrNotFound)
		}

		w := postJSON(router, http.MethodPost, "/ai_sandbox/users/u1/progress/nope", map[string]string{"status": "in_progress"})

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
