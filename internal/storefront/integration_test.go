package storefront

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/api"
	"github.com/mmeshcher/storefront/internal/handler"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

func newBackend(t *testing.T, warmup time.Duration) *httptest.Server {
	t.Helper()

	repo := repository.NewMemoryRepository()
	require.NoError(t, repository.Seed(context.Background(), repo))

	h := handler.NewHandler(service.NewService(repo), nil, middleware.NewAuthMiddleware("integration"))
	srv := httptest.NewServer(h.SetupRouter(middleware.NewWarmup(warmup).Middleware))
	t.Cleanup(srv.Close)
	return srv
}

func newIntegrationService(hosts ...string) *Service {
	client := api.NewClient(hosts, api.WithBackoff(time.Millisecond), api.WithTimeout(2*time.Second))
	return NewService(client, nil, nil)
}

func TestIntegration_ShoppingFlow(t *testing.T) {
	srv := newBackend(t, 0)
	svc := newIntegrationService(srv.URL + "/api")
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Phone: "9911 2233", Password: "secret1", Confirm: "secret1", Name: "Bat"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Credentials{Phone: "99112233", Password: "secret1", Confirm: "secret1"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "User already exists", apiErr.Message)

	svc.Logout()
	_, err = svc.Login(ctx, Credentials{Phone: "+97699112233", Password: "wrong-password"})
	assert.Equal(t, 401, api.StatusOf(err))

	_, err = svc.Login(ctx, Credentials{Phone: "+97699112233", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bat", user.DisplayName())

	food := model.Category("Хоол")
	products, err := svc.ListProducts(ctx, &food)
	require.NoError(t, err)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.Equal(t, food, p.Category)
	}

	product, err := svc.GetProduct(ctx, products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, products[0].Name, product.Name)

	receipt, err := svc.CreateProductOrder(ctx, product.ID, ProductOrderForm{CustomerName: "Bat", Phone: "99112233", Quantity: 2})
	require.NoError(t, err)
	assert.Len(t, receipt.ShortID(), 6)

	created, err := svc.CreateOrder(ctx, OrderForm{TrackingNumber: "TRK-1"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCreated, created.Status)

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, created.ID, orders[0].ID)
}

func TestIntegration_UnknownProduct(t *testing.T) {
	srv := newBackend(t, 0)
	svc := newIntegrationService(srv.URL + "/api")

	_, err := svc.GetProduct(context.Background(), "missing")
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, api.KindProtocol, apiErr.Kind)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestIntegration_WarmingBackendFailsOverToReadyHost(t *testing.T) {
	warming := newBackend(t, time.Hour)
	ready := newBackend(t, 0)
	svc := newIntegrationService(warming.URL+"/api", ready.URL+"/api")

	products, err := svc.ListProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}

func TestIntegration_WarmingBackendOnly(t *testing.T) {
	warming := newBackend(t, time.Hour)
	svc := newIntegrationService(warming.URL + "/api")

	_, err := svc.ListProducts(context.Background(), nil)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, middleware.DatastoreNotConnected, apiErr.Message)
}
