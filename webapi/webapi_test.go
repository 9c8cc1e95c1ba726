package webapi_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/paydesk/infra/provider/mockchapa"
	infra_store "github.com/amirasaad/paydesk/infra/store"
	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/config"
	authsvc "github.com/amirasaad/paydesk/pkg/service/auth"
	"github.com/amirasaad/paydesk/pkg/testutils"
	"github.com/amirasaad/paydesk/webapi"
	"github.com/amirasaad/paydesk/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type list struct {
	Data  json.RawMessage `json:"data"`
	State string          `json:"state"`
	Error string          `json:"error"`
}

func testConfig() *config.App {
	return &config.App{
		Env:       "test",
		Jwt:       &config.Jwt{Secret: testutils.Secret, Expiry: time.Hour},
		Chapa:     &config.Chapa{Mock: true, ReturnURL: "http://localhost:3000/payment/success"},
		API:       &config.API{Timeout: time.Second},
		Store:     &config.Store{Driver: "memory", KeyPrefix: "paydesk:"},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Cache: &config.Cache{
			Transactions: 30 * time.Second,
			Transfers:    30 * time.Second,
			Users:        time.Minute,
			Admins:       time.Minute,
			Banks:        time.Hour,
		},
	}
}

func newApp(t *testing.T, cfg *config.App) (*fiber.App, *app.Manager) {
	t.Helper()
	hashes, err := authsvc.HashDemoPasswords(bcrypt.MinCost)
	require.NoError(t, err)
	m := app.NewManager(&app.Deps{
		Config:         cfg,
		Backend:        infra_store.NewMemory(),
		Gateway:        mockchapa.New(),
		Logger:         testutils.Logger(),
		PasswordHashes: hashes,
	})
	t.Cleanup(m.Close)
	return webapi.SetupApp(m), m
}

type APITestSuite struct {
	suite.Suite
	app *fiber.App
	m   *app.Manager
}

func (s *APITestSuite) SetupTest() {
	s.app, s.m = newApp(s.T(), testConfig())
}

func (s *APITestSuite) do(method, path, body, token string) *http.Response {
	return testutils.MakeRequestWithApp(s.app, method, path, body, token)
}

func (s *APITestSuite) login(email, password string) string {
	resp := s.do(fiber.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	env := testutils.DecodeJSON[envelope](s.T(), resp)
	var res authsvc.LoginResult
	s.Require().NoError(json.Unmarshal(env.Data, &res))
	s.Require().NotEmpty(res.Token)
	return res.Token
}

func (s *APITestSuite) ok(method, path, body, token string, status int) envelope {
	resp := s.do(method, path, body, token)
	s.Require().Equal(status, resp.StatusCode, "%s %s", method, path)
	return testutils.DecodeJSON[envelope](s.T(), resp)
}

func (s *APITestSuite) problem(method, path, body, token string, status int) common.ProblemDetails {
	resp := s.do(method, path, body, token)
	s.Require().Equal(status, resp.StatusCode, "%s %s", method, path)
	s.Equal("application/problem+json", resp.Header.Get(fiber.HeaderContentType))
	return testutils.DecodeJSON[common.ProblemDetails](s.T(), resp)
}

func decode[T any](s *APITestSuite, raw json.RawMessage) T {
	var v T
	s.Require().NoError(json.Unmarshal(raw, &v), string(raw))
	return v
}

func (s *APITestSuite) TestHealth() {
	resp := s.do(fiber.MethodGet, "/health", "", "")
	s.Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *APITestSuite) TestLogin() {
	s.problem(fiber.MethodPost, "/auth/login", `{"email":"admin@chapa.co","password":"wrong"}`, "", fiber.StatusUnauthorized)
	s.problem(fiber.MethodPost, "/auth/login", `{"email":"michael.johnson@example.com","password":"user123"}`, "", fiber.StatusForbidden)
	pd := s.problem(fiber.MethodPost, "/auth/login", `{"email":"not-an-email"}`, "", fiber.StatusUnprocessableEntity)
	s.NotNil(pd.Errors)
	s.problem(fiber.MethodPost, "/auth/login", `{`, "", fiber.StatusBadRequest)

	token := s.login("admin@chapa.co", "admin123")
	me := s.ok(fiber.MethodGet, "/auth/me", "", token, fiber.StatusOK)
	id := decode[authsvc.Identity](s, me.Data)
	s.Equal("admin@chapa.co", id.Email)

	s.ok(fiber.MethodPost, "/auth/logout", "", token, fiber.StatusOK)
}

func (s *APITestSuite) TestUnauthenticated() {
	s.problem(fiber.MethodGet, "/transactions", "", "", fiber.StatusBadRequest)
	resp := s.do(fiber.MethodGet, "/transactions", "", "not-a-jwt")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal("/login", resp.Header.Get(fiber.HeaderLocation))
	_ = resp.Body.Close()
}

func (s *APITestSuite) TestTransactions() {
	token := s.login("john.doe@example.com", "user123")

	resp := s.do(fiber.MethodGet, "/transactions?status=success&limit=2", "", token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	l := testutils.DecodeJSON[list](s.T(), resp)
	s.Equal("success", l.State)
	s.Empty(l.Error)
	page := decode[struct {
		Transactions []struct {
			ID string `json:"id"`
		} `json:"transactions"`
		Total   int  `json:"total"`
		HasMore bool `json:"hasMore"`
	}](s, l.Data)
	s.Equal(5, page.Total)
	s.True(page.HasMore)
	s.Require().Len(page.Transactions, 2)
	s.Equal("tx_007", page.Transactions[0].ID)

	s.problem(fiber.MethodGet, "/transactions?minAmount=abc", "", token, fiber.StatusUnprocessableEntity)

	resp = s.do(fiber.MethodGet, "/transactions?userId=nobody", "", token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	byUser := testutils.DecodeJSON[list](s.T(), resp)
	s.Zero(decode[struct {
		Total int `json:"total"`
	}](s, byUser.Data).Total)

	recent := s.ok(fiber.MethodGet, "/transactions/recent?limit=3", "", token, fiber.StatusOK)
	s.Len(decode[[]json.RawMessage](s, recent.Data), 3)

	stats := s.ok(fiber.MethodGet, "/transactions/stats", "", token, fiber.StatusOK)
	s.Equal(8, decode[struct {
		Total int `json:"totalTransactions"`
	}](s, stats.Data).Total)

	s.problem(fiber.MethodGet, "/transactions/tx_404", "", token, fiber.StatusNotFound)

	cancelled := s.ok(fiber.MethodPost, "/transactions/tx_002/cancel", "", token, fiber.StatusOK)
	s.Equal("cancelled", decode[struct {
		Status string `json:"status"`
	}](s, cancelled.Data).Status)
	s.problem(fiber.MethodPost, "/transactions/tx_001/cancel", "", token, fiber.StatusUnprocessableEntity)

	wallet := s.ok(fiber.MethodGet, "/wallet/balance?currency=usd", "", token, fiber.StatusOK)
	s.Equal("USD", decode[struct {
		Currency string `json:"currency"`
	}](s, wallet.Data).Currency)

	banks := s.ok(fiber.MethodGet, "/banks", "", token, fiber.StatusOK)
	s.NotEmpty(decode[[]json.RawMessage](s, banks.Data))
}

func (s *APITestSuite) TestPaymentAndVerification() {
	token := s.login("john.doe@example.com", "user123")

	s.problem(fiber.MethodPost, "/payments/initialize", `{"amount":"0","currency":"ETB","firstName":"John","lastName":"Doe"}`, token, fiber.StatusUnprocessableEntity)

	started := s.ok(fiber.MethodPost, "/payments/initialize",
		`{"amount":"150","currency":"ETB","firstName":"John","lastName":"Doe","description":"Top up"}`,
		token, fiber.StatusCreated)
	res := decode[struct {
		TxRef       string `json:"txRef"`
		CheckoutURL string `json:"checkoutUrl"`
		Transaction struct {
			UserID string `json:"userId"`
			Status string `json:"status"`
		} `json:"transaction"`
	}](s, started.Data)
	s.Regexp(`^chapa_`, res.TxRef)
	s.Contains(res.CheckoutURL, res.TxRef)
	s.Equal("pending", res.Transaction.Status)
	s.NotEmpty(res.Transaction.UserID)

	verified := s.ok(fiber.MethodPost, "/transactions/verify", `{"reference":"`+res.TxRef+`"}`, token, fiber.StatusOK)
	out := decode[struct {
		Status  string `json:"status"`
		Tracked bool   `json:"tracked"`
		Updated bool   `json:"updated"`
	}](s, verified.Data)
	s.Equal("success", out.Status)
	s.True(out.Tracked)
	s.True(out.Updated)

	s.problem(fiber.MethodPost, "/transactions/verify", `{"reference":"chapa_unknown"}`, token, fiber.StatusBadGateway)
	s.problem(fiber.MethodPost, "/transactions/verify", `{}`, token, fiber.StatusUnprocessableEntity)
}

func (s *APITestSuite) TestAdminRoutes() {
	user := s.login("john.doe@example.com", "user123")
	s.problem(fiber.MethodGet, "/admin/transfers", "", user, fiber.StatusForbidden)

	admin := s.login("admin@chapa.co", "admin123")
	resp := s.do(fiber.MethodGet, "/admin/transfers", "", admin)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Len(decode[[]json.RawMessage](s, testutils.DecodeJSON[list](s.T(), resp).Data), 3)

	pd := s.problem(fiber.MethodPost, "/admin/transfers", `{"currency":"ETB","recipient":"John Doe","accountNumber":"1000123456"}`, admin, fiber.StatusUnprocessableEntity)
	s.Contains(pd.Errors, "bankCode")

	created := s.ok(fiber.MethodPost, "/admin/transfers",
		`{"amount":"5000","currency":"ETB","recipient":"John Doe","accountNumber":"1000123456","bankCode":"CBE"}`,
		admin, fiber.StatusCreated)
	tr := decode[struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}](s, created.Data)
	s.Equal("pending", tr.Status)

	verified := s.ok(fiber.MethodPost, "/admin/transfers/verify", `{"reference":"`+tr.Reference+`"}`, admin, fiber.StatusOK)
	s.Equal("completed", decode[struct {
		Status string `json:"status"`
	}](s, verified.Data).Status)

	toggled := s.ok(fiber.MethodPost, "/admin/users/3/toggle", "", admin, fiber.StatusOK)
	s.True(decode[struct {
		IsActive bool `json:"isActive"`
	}](s, toggled.Data).IsActive)
	s.problem(fiber.MethodPost, "/admin/users/999/deactivate", "", admin, fiber.StatusNotFound)

	resp = s.do(fiber.MethodDelete, "/admin/users/8", "", admin)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.do(fiber.MethodGet, "/admin/admins", "", admin)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	s.problem(fiber.MethodPost, "/admin/admins", `{"email":"ops@chapa.co","name":"Ops","role":"admin"}`, admin, fiber.StatusForbidden)
}

func (s *APITestSuite) TestSuperAdminManagesAdmins() {
	super := s.login("superadmin@chapa.co", "super123")

	created := s.ok(fiber.MethodPost, "/admin/admins", `{"email":"ops@chapa.co","name":"Ops","role":"admin"}`, super, fiber.StatusCreated)
	a := decode[struct {
		ID string `json:"id"`
	}](s, created.Data)
	s.Require().NotEmpty(a.ID)

	s.problem(fiber.MethodPost, "/admin/admins", `{"email":"ops@chapa.co","name":"Ops","role":"admin"}`, super, fiber.StatusUnprocessableEntity)

	updated := s.ok(fiber.MethodPatch, "/admin/admins/"+a.ID, `{"name":"Operations"}`, super, fiber.StatusOK)
	s.Equal("Operations", decode[struct {
		Name string `json:"name"`
	}](s, updated.Data).Name)

	s.ok(fiber.MethodPost, "/admin/admins/"+a.ID+"/deactivate", "", super, fiber.StatusOK)
	s.ok(fiber.MethodPost, "/admin/admins/"+a.ID+"/reactivate", "", super, fiber.StatusOK)
	resp := s.do(fiber.MethodDelete, "/admin/admins/"+a.ID, "", super)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()
	s.problem(fiber.MethodDelete, "/admin/admins/"+a.ID, "", super, fiber.StatusNotFound)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = &config.RateLimit{MaxRequests: 5, Window: time.Second}
	fiberApp, _ := newApp(t, cfg)

	for i := range 6 {
		resp := testutils.MakeRequestWithApp(fiberApp, fiber.MethodGet, "/health", "", "")
		_ = resp.Body.Close()
		if i < 5 {
			require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		} else {
			require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode, "request %d", i+1)
		}
	}

	time.Sleep(1100 * time.Millisecond)
	resp := testutils.MakeRequestWithApp(fiberApp, fiber.MethodGet, "/health", "", "")
	defer resp.Body.Close() //nolint: errcheck
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
