package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/api"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/session"
)

type stubRequester struct {
	payload string
	err     error

	calls []api.Request
}

func (s *stubRequester) Do(_ context.Context, req api.Request) (api.Envelope, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return api.Envelope{}, s.err
	}

	dec := json.NewDecoder(strings.NewReader(s.payload))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		panic(err)
	}
	return api.Envelope{Payload: payload}, nil
}

func (s *stubRequester) last() api.Request {
	return s.calls[len(s.calls)-1]
}

const authPayload = `{"success":true,"token":"tok-1","user":{"id":"u1","phone":"+97699112233","name":"Bat"}}`

func TestLogin_StartsSession(t *testing.T) {
	stub := &stubRequester{payload: authPayload}
	svc := NewService(stub, nil, nil)

	auth, err := svc.Login(context.Background(), Credentials{Phone: "9911 2233", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", auth.Token)

	req := stub.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/auth/login", req.Path)
	assert.Equal(t, authRequest{Phone: "+97699112233", Password: "secret1"}, req.Body)

	assert.Equal(t, "tok-1", svc.Session().Token())
	u, ok := svc.Session().User()
	require.True(t, ok)
	assert.Equal(t, "Bat", u.DisplayName())
}

func TestLogin_ValidatesInputBeforeCalling(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{name: "bad phone", creds: Credentials{Phone: "12", Password: "secret1"}, want: ErrInvalidPhone},
		{name: "short password", creds: Credentials{Phone: "99112233", Password: "  abc "}, want: ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRequester{payload: authPayload}
			svc := NewService(stub, nil, nil)

			_, err := svc.Login(context.Background(), tt.creds)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, stub.calls)
		})
	}
}

func TestRegister_RequiresMatchingConfirmation(t *testing.T) {
	stub := &stubRequester{payload: authPayload}
	svc := NewService(stub, nil, nil)

	_, err := svc.Register(context.Background(), Credentials{Phone: "99112233", Password: "secret1", Confirm: "secret2"})
	require.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, stub.calls)

	_, err = svc.Register(context.Background(), Credentials{Phone: "99112233", Password: "secret1", Confirm: "secret1", Name: " Bat "})
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/register", stub.last().Path)
	assert.Equal(t, authRequest{Phone: "+97699112233", Password: "secret1", Name: "Bat"}, stub.last().Body)
}

func TestCredentials_PasswordIsTrimmed(t *testing.T) {
	stub := &stubRequester{payload: authPayload}
	svc := NewService(stub, nil, nil)

	_, err := svc.Register(context.Background(), Credentials{Phone: "99112233", Password: "secret1", Confirm: "secret1 "})
	require.NoError(t, err)
	assert.Equal(t, authRequest{Phone: "+97699112233", Password: "secret1"}, stub.last().Body)

	_, err = svc.Login(context.Background(), Credentials{Phone: "99112233", Password: "  secret1  "})
	require.NoError(t, err)
	assert.Equal(t, authRequest{Phone: "+97699112233", Password: "secret1"}, stub.last().Body)
}

func TestLogin_MissingTokenIsMalformed(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"user":{"id":"u1","phone":"+97699112233"}}`}
	svc := NewService(stub, nil, nil)

	_, err := svc.Login(context.Background(), Credentials{Phone: "99112233", Password: "secret1"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, api.KindMalformed, apiErr.Kind)
	assert.Equal(t, 500, apiErr.Status)
	assert.False(t, svc.Session().Authenticated())
}

func TestLogin_PropagatesPipelineError(t *testing.T) {
	pipelineErr := &api.Error{Kind: api.KindProtocol, Message: "Invalid credentials", Status: 401}
	stub := &stubRequester{err: pipelineErr}
	svc := NewService(stub, nil, nil)

	_, err := svc.Login(context.Background(), Credentials{Phone: "99112233", Password: "secret1"})
	assert.Same(t, pipelineErr, err)
}

func TestProfile(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"user":{"id":"u1","phone":"+97699112233","name":"Dorj"}}`}
	sess := session.New()
	svc := NewService(stub, sess, nil)

	_, err := svc.Profile(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, stub.calls)

	sess.Start("tok-2", nil)
	user, err := svc.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dorj", user.DisplayName())
	assert.Equal(t, "tok-2", stub.last().Token)

	stored, ok := sess.User()
	require.True(t, ok)
	assert.Equal(t, "u1", stored.ID)
}

func TestLogout(t *testing.T) {
	sess := session.New()
	sess.Start("tok", nil)
	svc := NewService(&stubRequester{}, sess, nil)

	svc.Logout()
	assert.False(t, sess.Authenticated())
}

const productsPayload = `[
	{"_id":"p1","name":"Бууз","price":"3500","category":"Хоол"},
	{"_id":"p2","name":"Гурил","price":12000,"category":"Хүнс"},
	{"name":"без id","price":1,"category":"Хоол"},
	{"_id":"p3","name":"Хуушуур","price":2500,"category":"Хоол"}
]`

func TestListProducts_FiltersByCategoryPreservingOrder(t *testing.T) {
	stub := &stubRequester{payload: productsPayload}
	svc := NewService(stub, nil, nil)

	category := model.Category("Хоол")
	products, err := svc.ListProducts(context.Background(), &category)
	require.NoError(t, err)

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p1", "p3"}, ids)
	assert.Equal(t, "Хоол", stub.last().Query.Get("category"))
}

func TestListProducts_WithoutCategory(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"products":` + productsPayload + `}`}
	svc := NewService(stub, nil, nil)

	products, err := svc.ListProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Nil(t, stub.last().Query)
}

func TestListProducts_InvalidShape(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"products":"nope"}`}
	svc := NewService(stub, nil, nil)

	_, err := svc.ListProducts(context.Background(), nil)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid products response", apiErr.Message)
	assert.Equal(t, api.KindMalformed, apiErr.Kind)
}

func TestGetProduct(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"product":{"_id":"p 1","name":"Бууз","price":3500,"category":"Хоол"}}`}
	svc := NewService(stub, nil, nil)

	product, err := svc.GetProduct(context.Background(), "p 1")
	require.NoError(t, err)
	assert.Equal(t, "Бууз", product.Name)
	assert.Equal(t, "/api/products/p%201", stub.last().Path)

	stub.payload = `{"success":true,"product":{"name":"без id"}}`
	_, err = svc.GetProduct(context.Background(), "p1")
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid product response", apiErr.Message)

	_, err = svc.GetProduct(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingProduct)
}

func TestCreateProductOrder(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"order":{"_id":"65f0c2a1b2c3d4e5f6a7b8c9"}}`}
	svc := NewService(stub, nil, nil)

	receipt, err := svc.CreateProductOrder(context.Background(), "p1", ProductOrderForm{
		CustomerName: " Bat ",
		Phone:        "99112233",
		Quantity:     0,
		Note:         "  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "a7b8c9", receipt.ShortID())

	req := stub.last()
	assert.Equal(t, "/api/products/p1/order", req.Path)
	assert.Equal(t, productOrderRequest{CustomerName: "Bat", Phone: "99112233", Quantity: 1}, req.Body)

	raw, err := json.Marshal(req.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "note")
}

func TestCreateProductOrder_Validation(t *testing.T) {
	stub := &stubRequester{payload: `{}`}
	svc := NewService(stub, nil, nil)

	_, err := svc.CreateProductOrder(context.Background(), "p1", ProductOrderForm{CustomerName: "Bat"})
	require.ErrorIs(t, err, ErrMissingCustomer)

	_, err = svc.CreateProductOrder(context.Background(), "", ProductOrderForm{CustomerName: "Bat", Phone: "1"})
	require.ErrorIs(t, err, ErrMissingProduct)
	assert.Empty(t, stub.calls)
}

func TestCreateProductOrder_MissingOrderID(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"order":{}}`}
	svc := NewService(stub, nil, nil)

	_, err := svc.CreateProductOrder(context.Background(), "p1", ProductOrderForm{CustomerName: "Bat", Phone: "1", Quantity: 2})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid order response", apiErr.Message)
}

func TestOrders(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true,"orders":[{"_id":"o1","trackingNumber":"TRK1","price":"1500","weightKg":"1.5"},{"_id":"o2"}]}`}
	sess := session.New()
	svc := NewService(stub, sess, nil)

	_, err := svc.ListOrders(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = svc.CreateOrder(context.Background(), OrderForm{TrackingNumber: "X"})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	sess.Start("tok", nil)
	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusCreated, orders[0].Status)
	assert.InDelta(t, 1.5, orders[0].WeightKg, 1e-9)
	assert.Equal(t, "tok", stub.last().Token)

	_, err = svc.CreateOrder(context.Background(), OrderForm{TrackingNumber: "  "})
	require.ErrorIs(t, err, ErrMissingTrackingNumber)

	stub.payload = `{"success":true,"order":{"_id":"o3","trackingNumber":"TRK3","status":"CREATED"}}`
	order, err := svc.CreateOrder(context.Background(), OrderForm{TrackingNumber: " TRK3 ", Note: "fragile"})
	require.NoError(t, err)
	assert.Equal(t, "TRK3", order.TrackingNumber)
	assert.Equal(t, orderRequest{TrackingNumber: "TRK3", Note: "fragile"}, stub.last().Body)

	stub.payload = `{"success":true,"order":null}`
	_, err = svc.CreateOrder(context.Background(), OrderForm{TrackingNumber: "TRK4"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid create order response", apiErr.Message)
}

func TestListOrders_InvalidShape(t *testing.T) {
	stub := &stubRequester{payload: `{"success":true}`}
	sess := session.New()
	sess.Start("tok", nil)
	svc := NewService(stub, sess, nil)

	_, err := svc.ListOrders(context.Background())
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid orders response", apiErr.Message)
}
