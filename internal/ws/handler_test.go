package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderhash/internal/limitorder"
	"orderhash/internal/manager"

	"github.com/coder/websocket"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var localRouter = ethcommon.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func newTestServer(t *testing.T) (*manager.Manager, string) {
	t.Helper()

	hasher, err := limitorder.NewHasher(uint256.NewInt(limitorder.LocalChainID), localRouter)
	require.NoError(t, err)
	m := manager.NewManager(hasher, nil, zap.NewNop())

	ws := &WSServer{manager: m, logger: zap.NewNop()}
	srv := httptest.NewServer(ws.Serve())
	t.Cleanup(func() {
		m.Close()
		srv.Close()
	})

	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func waitForReceivers(t *testing.T, m *manager.Manager, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Receivers() == n }, time.Second, 5*time.Millisecond)
}

func TestRecordsAreStreamed(t *testing.T) {
	m, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, url)
	waitForReceivers(t, m, 1)

	record, err := m.HashLimitOrder(ctx, limitorder.ExampleLimitOrder(), false)
	require.NoError(t, err)

	typ, msg, err := c.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)
	require.True(t, strings.HasPrefix(string(msg), manager.RecordEvent+" "))

	var got manager.Record
	require.NoError(t, json.Unmarshal(msg[len(manager.RecordEvent)+1:], &got))
	require.Equal(t, record.ID, got.ID)
	require.Equal(t, record.OrderHash, got.OrderHash)
}

func TestLookupEvent(t *testing.T) {
	m, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record, err := m.HashMultiLimitOrder(ctx, limitorder.ExampleMultiLimitOrder(), false)
	require.NoError(t, err)

	c := dial(t, ctx, url)
	waitForReceivers(t, m, 1)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(manager.LookupEvent+" "+record.OrderHash.Hex())))
	_, msg, err := c.Read(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(msg), manager.RecordEvent+" "))
	require.Contains(t, string(msg), record.ID.String())

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("PING")))
	_, msg, err = c.Read(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(msg), manager.ErrorEvent+" "))
}

func TestDisconnectUnregisters(t *testing.T) {
	m, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, url)
	waitForReceivers(t, m, 1)

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
	waitForReceivers(t, m, 0)
}
