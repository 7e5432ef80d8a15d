package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yoockh/yoosocial/internal/api/handlers"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

func postJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewBuffer(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp
}

// as makes every request come from userID, as the JWT middleware would.
func as(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

var _ = Describe("ConversationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockConversationService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockConversationService{}
		h := handlers.NewConversationHandler(svc)
		router.POST("/conversations", h.Resolve)
		router.POST("/conversations/:conversation_id/messages", h.AppendMessage)
		router.GET("/users/:user_id/conversations", h.ListForUser)
	})

	It("returns 201 when the conversation is created", func() {
		svc.resolveFn = func(_ context.Context, ids []string) (*models.Conversation, bool, error) {
			Expect(ids).To(ConsistOf("a", "b"))
			return &models.Conversation{ID: "c1"}, true, nil
		}

		w := postJSON(router, http.MethodPost, "/conversations", map[string]any{"participantIds": []string{"a", "b"}})

		Expect(w.Code).To(Equal(http.StatusCreated))
		resp := decode(w)
		Expect(resp["conversationId"]).To(Equal("c1"))
		Expect(resp["created"]).To(BeTrue())
	})

	It("returns 200 for an existing conversation", func() {
		svc.resolveFn = func(context.Context, []string) (*models.Conversation, bool, error) {
			return &models.Conversation{ID: "c1"}, false, nil
		}

		w := postJSON(router, http.MethodPost, "/conversations", map[string]any{"participantIds": []string{"b", "a"}})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["created"]).To(BeFalse())
	})

	It("returns 400 with the code for invalid participants", func() {
		svc.resolveFn = func(context.Context, []string) (*models.Conversation, bool, error) {
			return nil, false, utils.E(utils.CodeInvalidArgument, "test", "invalid participants: at least two distinct users are required", nil)
		}

		w := postJSON(router, http.MethodPost, "/conversations", map[string]any{"participantIds": []string{"a"}})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		resp := decode(w)
		Expect(resp["code"]).To(Equal(string(utils.CodeInvalidArgument)))
		Expect(resp["message"]).To(ContainSubstring("two distinct users"))
	})

	It("returns 400 on invalid request body", func() {
		req := httptest.NewRequest(http.MethodPost, "/conversations", bytes.NewBufferString(`{`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("hides internal failure details", func() {
		svc.resolveFn = func(context.Context, []string) (*models.Conversation, bool, error) {
			return nil, false, errors.New("pq: connection refused to 10.0.0.3")
		}

		w := postJSON(router, http.MethodPost, "/conversations", map[string]any{"participantIds": []string{"a", "b"}})

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).NotTo(ContainSubstring("10.0.0.3"))
		Expect(decode(w)["code"]).To(Equal(string(utils.CodeInternal)))
	})

	It("returns 503 with the code when stores are unavailable", func() {
		svc.resolveFn = func(context.Context, []string) (*models.Conversation, bool, error) {
			return nil, false, utils.E(utils.CodeUnavailable, "test", "temporarily unavailable", utils.ErrUnavailable)
		}

		w := postJSON(router, http.MethodPost, "/conversations", map[string]any{"participantIds": []string{"a", "b"}})

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(decode(w)["code"]).To(Equal(string(utils.CodeUnavailable)))
	})

	It("returns 201 for an appended message", func() {
		svc.appendFn = func(_ context.Context, conversationID, senderID, text string) (*models.Message, error) {
			return &models.Message{MessageID: "m1", ConversationID: conversationID, SenderID: senderID, Text: text}, nil
		}

		w := postJSON(router, http.MethodPost, "/conversations/c1/messages", map[string]string{"senderId": "a", "text": "hi"})

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(decode(w)["messageId"]).To(Equal("m1"))
	})

	Context("with an authenticated caller", func() {
		BeforeEach(func() {
			router = gin.New()
			router.Use(as("a", "user"))
			h := handlers.NewConversationHandler(svc)
			router.POST("/conversations", h.Resolve)
			router.GET("/users/:user_id/conversations", h.ListForUser)
		})

		It("refuses conversations the caller is not part of", func() {
			w := postJSON(router, http.MethodPost, "/conversations", map[string]any{"participantIds": []string{"b", "c"}})

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("refuses listing another user's conversations", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/b/conversations", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})
})
