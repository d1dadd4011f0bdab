package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/addresscheck"
	"github.com/chezgustave/ordering/internal/hash"
	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/repo"
	"github.com/chezgustave/ordering/internal/service/cart"
	"github.com/chezgustave/ordering/internal/service/coupon"
	"github.com/chezgustave/ordering/internal/service/fulfillment"
	"github.com/chezgustave/ordering/internal/service/order"
	"github.com/chezgustave/ordering/internal/session"
)

var testSecret = []byte("test-secret")

func pastTime() time.Time   { return time.Now().Add(-24 * time.Hour) }
func futureTime() time.Time { return time.Now().Add(24 * time.Hour) }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.MenuItem{}, &models.CartItem{}, &models.Coupon{},
		&models.Order{}, &models.OrderItem{},
	))

	r := repo.NewGormRepo(db)
	cartSvc := &cart.Service{Store: r, Catalog: r}
	couponSvc := &coupon.Service{Repo: r}
	orderSvc := &order.Service{
		Repo: r,
		Cart: cartSvc,
		Selectors: fulfillment.NewRegistry(
			&fulfillment.Delivery{Checker: &addresscheck.ZipPrefixValidator{}, DefaultFee: dec("5.00")},
			&fulfillment.Pickup{},
		),
		TaxRate:      dec("0.10"),
		NumberPrefix: "CG",
	}

	operatorHash, err := hash.HashPassword("letmein")
	require.NoError(t, err)

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHandler{
			JWTSecret:    testSecret,
			OperatorUser: "gustave",
			OperatorHash: operatorHash,
		},
		CartHandler:   &CartHTTP{Svc: cartSvc, JWTSecret: testSecret},
		OrderHandler:  &OrderHTTP{Svc: orderSvc, JWTSecret: testSecret},
		CouponHandler: &CouponHTTP{Svc: couponSvc},
		MenuHandler:   &MenuHTTP{Repo: r, Index: "menu"},
	})
	return e, db
}

// do runs a request through the server, carrying over any cookies.
func do(e *echo.Echo, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func seedMenu(t *testing.T, db *gorm.DB) (*models.MenuItem, *models.MenuItem) {
	t.Helper()
	a := models.MenuItem{Name: "Margherita", Price: dec("10.00"), Category: "pizza", Available: true}
	b := models.MenuItem{Name: "Quattro Stagioni", Price: dec("15.00"), Category: "pizza", Available: true}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	return &a, &b
}

func TestCartEndpoints(t *testing.T) {
	e, db := newTestServer(t)
	seedMenu(t, db)

	rec := do(e, http.MethodPost, "/api/cart", `{"menu_item_id":1,"quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := sessionCookie(t, rec)
	cookies := []*http.Cookie{ck}

	rec = do(e, http.MethodGet, "/api/cart", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var cartBody struct {
		Items     []models.CartItem `json:"items"`
		Total     decimal.Decimal   `json:"total"`
		ItemCount uint              `json:"item_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartBody))
	require.Len(t, cartBody.Items, 1)
	require.Equal(t, uint(2), cartBody.ItemCount)
	require.True(t, cartBody.Total.Equal(dec("20.00")))

	// A different session sees its own, empty cart.
	rec = do(e, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartBody))
	require.Empty(t, cartBody.Items)

	rec = do(e, http.MethodPatch, "/api/cart/1", `{"quantity":5}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/cart", `{"menu_item_id":999}`, cookies)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodDelete, "/api/cart/1", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodDelete, "/api/cart/1", "", cookies)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderEndpoint(t *testing.T) {
	e, db := newTestServer(t)
	seedMenu(t, db)

	// Ordering an empty cart is rejected.
	rec := do(e, http.MethodPost, "/api/orders", `{"delivery_mode":"pickup"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/cart", `{"menu_item_id":1,"quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := []*http.Cookie{sessionCookie(t, rec)}

	body := `{
		"delivery_mode": "delivery",
		"delivery_address": "12 rue de la Paix",
		"delivery_zip": "75002",
		"client_first_name": "Jean",
		"client_last_name": "Dupont",
		"client_phone": "0612345678"
	}`
	rec = do(e, http.MethodPost, "/api/orders", body, cookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.OrderNumber)
	require.True(t, created.Total.Equal(dec("25.00")), "total = %s", created.Total)

	rec = do(e, http.MethodGet, "/api/orders/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/orders/99", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCouponValidateEndpoint(t *testing.T) {
	e, db := newTestServer(t)
	require.NoError(t, db.Create(&models.Coupon{
		Code:          "FIVE",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: dec("5.00"),
		ValidFrom:     pastTime(),
		ValidUntil:    futureTime(),
		IsActive:      true,
	}).Error)

	rec := do(e, http.MethodPost, "/api/coupons/validate", `{"code":"five","order_amount":"40.00"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		DiscountAmount decimal.Decimal `json:"discount_amount"`
		NewTotal       decimal.Decimal `json:"new_total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.DiscountAmount.Equal(dec("5.00")))
	require.True(t, res.NewTotal.Equal(dec("35.00")))

	rec = do(e, http.MethodPost, "/api/coupons/validate", `{"code":"NOPE","order_amount":"40.00"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/admin/orders", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/api/admin/login", `{"username":"gustave","password":"wrong"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/api/admin/login", `{"username":"gustave","password":"letmein"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var access *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "accessToken" {
			access = ck
		}
	}
	require.NotNil(t, access)

	rec = do(e, http.MethodGet, "/api/admin/orders", "", []*http.Cookie{access})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestMenuEndpoints(t *testing.T) {
	e, db := newTestServer(t)
	seedMenu(t, db)

	rec := do(e, http.MethodGet, "/api/menu", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/menu/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/menu/99", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Search is degraded, not broken, without elasticsearch.
	rec = do(e, http.MethodGet, "/api/menu/search?q=pizza", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
