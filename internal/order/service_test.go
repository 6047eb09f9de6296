package order

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notgodfather/canteenapp/internal/cart"
	"github.com/notgodfather/canteenapp/internal/payment"
)

type fakeGateway struct {
	createFunc func(ctx context.Context, req payment.CreateOrderRequest) (payment.CreateOrderResult, error)
	fetchFunc  func(ctx context.Context, orderID string) (payment.Status, error)
	created    []payment.CreateOrderRequest
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (payment.CreateOrderResult, error) {
	f.created = append(f.created, req)
	if f.createFunc != nil {
		return f.createFunc(ctx, req)
	}
	return payment.CreateOrderResult{PaymentSessionID: "session_test", CFOrderID: "cf_1"}, nil
}

func (f *fakeGateway) FetchOrderStatus(ctx context.Context, orderID string) (payment.Status, error) {
	if f.fetchFunc != nil {
		return f.fetchFunc(ctx, orderID)
	}
	return payment.StatusActive, nil
}

func (f *fakeGateway) Mode() string { return "sandbox" }

type fakeRepo struct {
	createFunc   func(ctx context.Context, o *Order) error
	markPaidFunc func(ctx context.Context, orderID string) (bool, error)
	getFunc      func(ctx context.Context, orderID string) (*Order, error)

	created  []*Order
	paid     map[string]int
	statuses map[string]Status
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{paid: map[string]int{}, statuses: map[string]Status{}}
}

func (f *fakeRepo) Create(ctx context.Context, o *Order) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, o)
	}
	f.created = append(f.created, o)
	f.statuses[o.OrderID] = o.Status
	return nil
}

func (f *fakeRepo) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	if f.markPaidFunc != nil {
		return f.markPaidFunc(ctx, orderID)
	}
	f.paid[orderID]++
	st, known := f.statuses[orderID]
	if !known || st == StatusPaid {
		return false, nil
	}
	f.statuses[orderID] = StatusPaid
	return true, nil
}

func (f *fakeRepo) GetByOrderID(ctx context.Context, orderID string) (*Order, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, orderID)
	}
	for _, o := range f.created {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return nil, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishOrderPaid(ctx context.Context, o *Order) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, o.OrderID)
	return nil
}

func newTestService(g Gateway, r Repository, p PaidPublisher) *Service {
	logger := log.New(io.Discard, "", 0)
	return NewService(g, r, p, "http://localhost:8080", logger)
}

func TestCreateOrder_Success(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeRepo()
	svc := newTestService(gw, repo, nil)

	items := []cart.Item{{ID: "1", Name: "Tea", Price: 10, Quantity: 2}}
	res, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, items)
	require.NoError(t, err)

	assert.Equal(t, 20.0, res.Amount)
	assert.Equal(t, "INR", res.Currency)
	assert.Equal(t, "session_test", res.PaymentSessionID)
	assert.Equal(t, "cf_1", res.CFOrderID)
	assert.Equal(t, "sandbox", res.EnvMode)
	assert.Regexp(t, `^order_[0-9a-f]{24}$`, res.OrderID)

	// pending row recorded before the gateway call
	require.Len(t, repo.created, 1)
	assert.Equal(t, res.OrderID, repo.created[0].OrderID)
	assert.Equal(t, StatusPending, repo.created[0].Status)
	assert.Equal(t, "u1", repo.created[0].UserID)

	// gateway got the server-computed amount and the URL templates
	require.Len(t, gw.created, 1)
	assert.Equal(t, 20.0, gw.created[0].Amount)
	assert.Contains(t, gw.created[0].ReturnURL, "{order_id}")
	assert.Equal(t, "http://localhost:8080/api/cashfree/webhook", gw.created[0].NotifyURL)
	assert.Equal(t, "Guest", gw.created[0].Customer.Name)
}

func TestCreateOrder_MissingUser(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw, newFakeRepo(), nil)

	_, err := svc.CreateOrder(context.Background(), User{}, []cart.Item{{Price: 1, Quantity: 1}})
	require.ErrorIs(t, err, ErrMissingUser)
	assert.Empty(t, gw.created)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw, newFakeRepo(), nil)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, nil)
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, gw.created)
}

func TestCreateOrder_NegativePrice(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeRepo()
	svc := newTestService(gw, repo, nil)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, []cart.Item{{Price: -5, Quantity: 1}})
	require.ErrorIs(t, err, cart.ErrInvalidAmount)
	assert.Empty(t, gw.created)
	assert.Empty(t, repo.created)
}

func TestCreateOrder_ZeroTotalRejected(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw, newFakeRepo(), nil)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, []cart.Item{{Price: 10, Quantity: 0}})
	require.ErrorIs(t, err, cart.ErrInvalidAmount)
	assert.Empty(t, gw.created)
}

func TestCreateOrder_GatewayErrorSurfaced(t *testing.T) {
	gw := &fakeGateway{
		createFunc: func(ctx context.Context, req payment.CreateOrderRequest) (payment.CreateOrderResult, error) {
			return payment.CreateOrderResult{}, &payment.RejectedError{StatusCode: 401, Details: []byte(`{"message":"auth"}`)}
		},
	}
	svc := newTestService(gw, newFakeRepo(), nil)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, []cart.Item{{Price: 10, Quantity: 1}})

	var rejected *payment.RejectedError
	require.ErrorAs(t, err, &rejected)
	// only one gateway call was made: no retry
	assert.Len(t, gw.created, 1)
}

func TestVerifyOrder_ReturnsStatusVerbatim(t *testing.T) {
	gw := &fakeGateway{
		fetchFunc: func(ctx context.Context, orderID string) (payment.Status, error) {
			return payment.StatusExpired, nil
		},
	}
	repo := newFakeRepo()
	svc := newTestService(gw, repo, nil)

	status, err := svc.VerifyOrder(context.Background(), "order_x")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusExpired, status)
	// verify never writes
	assert.Empty(t, repo.paid)
}

func webhookPayload(orderID, status string) []byte {
	return []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"` + orderID + `"},"payment":{"payment_status":"` + status + `"}}}`)
}

func TestHandleWebhook_MarksPaidAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newTestService(&fakeGateway{}, repo, pub)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, []cart.Item{{ID: "1", Name: "Tea", Price: 10, Quantity: 2}})
	require.NoError(t, err)
	orderID := repo.created[0].OrderID

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookPayload(orderID, "SUCCESS")))

	assert.Equal(t, StatusPaid, repo.statuses[orderID])
	assert.Equal(t, []string{orderID}, pub.published)
}

func TestHandleWebhook_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newTestService(&fakeGateway{}, repo, pub)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, []cart.Item{{ID: "1", Name: "Tea", Price: 10, Quantity: 2}})
	require.NoError(t, err)
	orderID := repo.created[0].OrderID

	evt := webhookPayload(orderID, "SUCCESS")
	require.NoError(t, svc.HandleWebhook(context.Background(), evt))
	require.NoError(t, svc.HandleWebhook(context.Background(), evt))

	// one paid record, one published event, regardless of replays
	assert.Equal(t, StatusPaid, repo.statuses[orderID])
	assert.Len(t, pub.published, 1)
}

func TestHandleWebhook_IgnoresNonSuccess(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(&fakeGateway{}, repo, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookPayload("order_x", "FAILED")))
	assert.Empty(t, repo.paid)
}

func TestHandleWebhook_IgnoresUnknownOrder(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newTestService(&fakeGateway{}, repo, pub)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookPayload("order_never_created", "SUCCESS")))
	assert.Empty(t, pub.published)
}

func TestHandleWebhook_UnparseablePayloadAcknowledged(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(&fakeGateway{}, repo, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("not json")))
	assert.Empty(t, repo.paid)
}

func TestHandleWebhook_RepoErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.markPaidFunc = func(ctx context.Context, orderID string) (bool, error) {
		return false, errors.New("db down")
	}
	svc := newTestService(&fakeGateway{}, repo, nil)

	err := svc.HandleWebhook(context.Background(), webhookPayload("order_x", "SUCCESS"))
	require.Error(t, err)
}

func TestSavePaidOrder_DelegatesToMarkPaid(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(&fakeGateway{}, repo, nil)

	_, err := svc.CreateOrder(context.Background(), User{UID: "u1"}, []cart.Item{{ID: "1", Name: "Tea", Price: 10, Quantity: 2}})
	require.NoError(t, err)
	orderID := repo.created[0].OrderID

	require.NoError(t, svc.SavePaidOrder(context.Background(), orderID))
	require.NoError(t, svc.SavePaidOrder(context.Background(), orderID))
	assert.Equal(t, StatusPaid, repo.statuses[orderID])
}
