package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"fitforge/internal/cache"
	"fitforge/internal/events"
	"fitforge/internal/identity"
	"fitforge/internal/metrics"
	"fitforge/internal/middleware"
	"fitforge/internal/models"
	"fitforge/internal/payments"
	"fitforge/internal/services"
	"fitforge/internal/testutil"
	"fitforge/internal/validator"
)

const webhookSecret = "whsec_routes_test"

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *middleware.TokenMaker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	v := validator.New()
	c := cache.New(nil, "")
	bus := events.NewBus(events.NewInProcess(events.NewLogger(logrus.StandardLogger())), "test.")
	t.Cleanup(func() { _ = bus.Close() })
	tokens := middleware.NewTokenMaker("routes-test-secret", time.Hour)
	verifier, err := identity.NewFirebase(context.Background(), "")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	router := SetupRouter(Deps{
		DB:           db,
		Tokens:       tokens,
		Gatherer:     reg,
		Auth:         services.NewAuthService(db, tokens, verifier, v),
		Applications: services.NewApplicationService(db, v, bus, c),
		Catalog:      services.NewCatalogService(db, v, c, time.Minute),
		Slots:        services.NewSlotService(db, v),
		Community:    services.NewCommunityService(db, v),
		Payments:     services.NewPaymentService(db, payments.NewStripe("", webhookSecret), v, bus, c),
		AuthRate:     100,
		AuthBurst:    100,
	})
	return &testServer{router: router, db: db, tokens: tokens}
}

func (s *testServer) tokenFor(t *testing.T, email string, role models.Role) (string, models.User) {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: role}
	require.NoError(t, s.db.Create(&u).Error)
	token, err := s.tokens.Generate(u)
	require.NoError(t, err)
	return token, u
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var memberOnly = []struct{ method, path string }{
	{http.MethodGet, "/member/dashboard"},
	{http.MethodPost, "/apply-trainer"},
	{http.MethodPost, "/slots/1/book"},
	{http.MethodGet, "/booked-trainer"},
	{http.MethodPost, "/reviews"},
	{http.MethodPost, "/payments/bookings"},
	{http.MethodGet, "/member/booked-trainers"},
}

var adminOnly = []struct{ method, path string }{
	{http.MethodGet, "/admin/dashboard"},
	{http.MethodGet, "/admin/users"},
	{http.MethodGet, "/admin/trainers"},
	{http.MethodPut, "/admin/trainers/1/demote"},
	{http.MethodGet, "/admin/subscribers"},
	{http.MethodGet, "/admin/payments"},
	{http.MethodGet, "/admin/payments/export"},
	{http.MethodGet, "/admin/balance"},
	{http.MethodGet, "/applied-trainers"},
	{http.MethodGet, "/applied-trainers/1"},
	{http.MethodPut, "/applied-trainers/1/confirm"},
	{http.MethodPut, "/applied-trainers/1/reject"},
	{http.MethodPost, "/classes"},
}

func TestMemberRoutes_ForbiddenForTrainer(t *testing.T) {
	s := newTestServer(t)
	trainerToken, _ := s.tokenFor(t, "coach@x.io", models.RoleTrainer)

	for _, rt := range memberOnly {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := s.do(rt.method, rt.path, trainerToken, map[string]any{})
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)
		})
	}
}

func TestAdminRoutes_Gated(t *testing.T) {
	s := newTestServer(t)
	memberToken, _ := s.tokenFor(t, "m@x.io", models.RoleMember)

	for _, rt := range adminOnly {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, s.do(rt.method, rt.path, "", nil).Code)
			assert.Equal(t, http.StatusForbidden, s.do(rt.method, rt.path, memberToken, map[string]any{}).Code)
		})
	}
}

func TestApplicationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	memberToken, member := s.tokenFor(t, "m@x.io", models.RoleMember)
	adminToken, _ := s.tokenFor(t, "a@x.io", models.RoleAdmin)

	w := s.do(http.MethodPost, "/apply-trainer", memberToken, map[string]any{"fullName": "No Details"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")

	w = s.do(http.MethodPost, "/apply-trainer", memberToken, models.ApplicationDetails{
		FullName:       "Jane Doe",
		Email:          "jane@example.com",
		Age:            30,
		Expertise:      []string{"Yoga"},
		Specialization: "Mobility",
		AvailableDays:  []string{"Mon"},
		AvailableTime:  "08:00-10:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var app models.TrainerApplication
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))

	w = s.do(http.MethodPut, fmt.Sprintf("/applied-trainers/%d/reject", app.ID), adminToken, map[string]string{"rejectionReason": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/applied-trainers/%d/confirm", app.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, s.db.First(&user, member.ID).Error)
	assert.Equal(t, models.RoleTrainer, user.Role)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/applied-trainers/%d", app.ID), adminToken, nil).Code)

	w = s.do(http.MethodGet, "/trainers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jane Doe")
}

func TestAdminUsersRoleFilter(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.tokenFor(t, "a@x.io", models.RoleAdmin)
	s.tokenFor(t, "coach@x.io", models.RoleTrainer)

	w := s.do(http.MethodGet, "/admin/users?role=trainer", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "coach@x.io", users[0].Email)

	w = s.do(http.MethodGet, "/admin/users?role=owner", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestPostsPaginationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 13; i++ {
		require.NoError(t, s.db.Create(&models.Post{Title: fmt.Sprintf("p%d", i), Content: "c", Writer: "w@x.io"}).Error)
	}

	var page struct {
		Items      []models.Post       `json:"items"`
		Pagination services.Pagination `json:"pagination"`
	}
	w := s.do(http.MethodGet, "/posts?page=3&limit=6", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, services.Pagination{CurrentPage: 3, TotalPages: 3, TotalItems: 13, HasNextPage: false, HasPrevPage: true, Limit: 6}, page.Pagination)
}

func TestVotingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "v@x.io", models.RoleMember)
	post := models.Post{Title: "t", Content: "c", Writer: "w@x.io"}
	require.NoError(t, s.db.Create(&post).Error)

	path := fmt.Sprintf("/posts/%d", post.ID)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, path+"/upvote", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, path+"/upvote", token, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, path+"/upvote", token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, path+"/downvote", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/posts/999/upvote", token, nil).Code)
}

func seedPayment(t *testing.T, db *gorm.DB, intentID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Payment{
		UserID:          1,
		TrainerID:       1,
		PaymentIntentID: intentID,
		PaymentDate:     time.Now(),
		Status:          models.PaymentCompleted,
	}).Error)
}

func paymentStatus(t *testing.T, db *gorm.DB, intentID string) models.PaymentStatus {
	t.Helper()
	var p models.Payment
	require.NoError(t, db.Where("payment_intent_id = ?", intentID).First(&p).Error)
	return p.Status
}

func stripeEvent(typ, intentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_test","object":"event","type":%q,"data":{"object":{"id":%q,"object":"payment_intent"}}}`,
		typ, intentID,
	))
}

func postWebhook(s *testServer, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestStripeWebhook(t *testing.T) {
	s := newTestServer(t)
	seedPayment(t, s.db, "pi_hook")
	body := stripeEvent("payment_intent.payment_failed", "pi_hook")

	forged := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: body, Secret: "whsec_attacker"})
	w := postWebhook(s, body, forged.Header)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.PaymentCompleted, paymentStatus(t, s.db, "pi_hook"), "no mutation before verification")

	assert.Equal(t, http.StatusBadRequest, postWebhook(s, body, "").Code)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: body, Secret: webhookSecret})
	w = postWebhook(s, signed.Payload, signed.Header)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PaymentFailed, paymentStatus(t, s.db, "pi_hook"))

	ignored := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: stripeEvent("customer.created", "pi_hook"), Secret: webhookSecret})
	assert.Equal(t, http.StatusOK, postWebhook(s, ignored.Payload, ignored.Header).Code)
	assert.Equal(t, models.PaymentFailed, paymentStatus(t, s.db, "pi_hook"))
}

func TestStripeWebhook_OversizedBody(t *testing.T) {
	s := newTestServer(t)
	seedPayment(t, s.db, "pi_big")

	body := stripeEvent("payment_intent.payment_failed", "pi_big")
	padded := append(body[:len(body)-1:len(body)-1], []byte(`,"padding":"`+strings.Repeat("x", 1<<20)+`"}`)...)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: padded, Secret: webhookSecret})

	w := postWebhook(s, signed.Payload, signed.Header)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	assert.Equal(t, models.PaymentCompleted, paymentStatus(t, s.db, "pi_big"))
}

func TestStripeWebhook_LargeEventAccepted(t *testing.T) {
	s := newTestServer(t)
	seedPayment(t, s.db, "pi_wide")

	body := stripeEvent("payment_intent.payment_failed", "pi_wide")
	padded := append(body[:len(body)-1:len(body)-1], []byte(`,"padding":"`+strings.Repeat("x", 100<<10)+`"}`)...)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: padded, Secret: webhookSecret})

	w := postWebhook(s, signed.Payload, signed.Header)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PaymentFailed, paymentStatus(t, s.db, "pi_wide"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	s.do(http.MethodGet, "/classes", "", nil)
	w = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "fitforge_http_requests_total"))
}

func TestAuthOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "n@x.io", "password": "secret123", "name": "N"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodGet, "/me", res.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"member"`)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "n@x.io", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/firebase", "", map[string]string{"idToken": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
