package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-orders/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	return conn
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	srv := newHubServer(t, hub)
	defer srv.Close()

	owner := dial(t, srv, "u1", nil)
	defer owner.Close()
	other := dial(t, srv, "u2", nil)
	defer other.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount("u1") == 1 && hub.ClientCount("u2") == 1
	}, time.Second, 10*time.Millisecond)

	hub.NotifyOrderUpdate(&models.Order{OrderID: "ORD1", UserID: "u1", OrderStatus: models.OrderStatusShipped})

	require.NoError(t, owner.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := owner.ReadMessage()
	require.NoError(t, err)

	var update OrderUpdate
	require.NoError(t, json.Unmarshal(payload, &update))
	assert.Equal(t, "order_update", update.Type)
	require.NotNil(t, update.Order)
	assert.Equal(t, "ORD1", update.Order.OrderID)
	assert.Equal(t, models.OrderStatusShipped, update.Order.OrderStatus)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "another user's subscriber must not receive the update")

	owner.Close()
	other.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount("u1") == 0 && hub.ClientCount("u2") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubFansOutToEveryConnectionOfOwner(t *testing.T) {
	hub := NewHub(nil)
	srv := newHubServer(t, hub)

	first := dial(t, srv, "u1", nil)
	defer first.Close()
	second := dial(t, srv, "u1", nil)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.ClientCount("u1") == 2 }, time.Second, 10*time.Millisecond)

	hub.NotifyOrderUpdate(&models.Order{OrderID: "ORD1", UserID: "u1"})
	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"ORD1"`)
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"https://shop.example.com"})
	srv := newHubServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=u1"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, "u1", http.Header{"Origin": {"https://shop.example.com"}})
	conn.Close()
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := newHubServer(t, hub)

	conn := dial(t, srv, "u1", nil)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("u1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotifyWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub(nil)
	hub.NotifyOrderUpdate(&models.Order{OrderID: "ORD1", UserID: "u1"})
	hub.NotifyOrderUpdate(nil)
	assert.Zero(t, hub.ClientCount("u1"))
}
