package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/transaction"
)

var testAddress = "aleo1" + strings.Repeat("z", 58)

type fakeWallet struct {
	mu          sync.Mutex
	connectFn   func(opts ConnectOptions) (any, error)
	connectOpts []ConnectOptions
	publicKey   string
	txResult    any
	txErr       error
	txCalls     int
	records     any
	recordsErr  error
	signResult  any
	disconnects int
	handlers    map[string]func(any)
}

func (f *fakeWallet) Connect(_ context.Context, opts ConnectOptions) (any, error) {
	f.mu.Lock()
	f.connectOpts = append(f.connectOpts, opts)
	f.mu.Unlock()
	if f.connectFn == nil {
		return testAddress, nil
	}
	return f.connectFn(opts)
}

func (f *fakeWallet) Disconnect(context.Context) error {
	f.disconnects++
	return errors.New("extension went away")
}

func (f *fakeWallet) RequestTransaction(_ context.Context, _ *transaction.Request) (any, error) {
	f.txCalls++
	return f.txResult, f.txErr
}

func (f *fakeWallet) RequestRecords(context.Context, string) (any, error) {
	return f.records, f.recordsErr
}

func (f *fakeWallet) SignMessage(context.Context, []byte) (any, error) {
	return f.signResult, nil
}

func (f *fakeWallet) PublicKey() string { return f.publicKey }

func (f *fakeWallet) On(event string, handler func(any)) {
	if f.handlers == nil {
		f.handlers = make(map[string]func(any))
	}
	f.handlers[event] = handler
}

type plaintextWallet struct {
	*fakeWallet
	plaintexts any
}

func (p *plaintextWallet) RequestRecordPlaintexts(context.Context, string) (any, error) {
	return p.plaintexts, nil
}

type selectorWallet struct{ account any }

func (s *selectorWallet) Connect(context.Context, ConnectOptions) (any, error) { return true, nil }

func (s *selectorWallet) GetSelectedAccount(context.Context) (any, error) { return s.account, nil }

type accessWallet struct{}

func (accessWallet) RequestAccess(context.Context) (any, error) {
	return map[string]any{"address": testAddress}, nil
}

func testOptions() Options {
	return Options{
		DecryptPermission: "OnChainHistory",
		Network:           "testnetbeta",
		Programs:          []string{"aurav2zkp.aleo"},
		InstallURL:        "https://www.leo.app/",
	}
}

func connected(t *testing.T, f *fakeWallet) *Gateway {
	t.Helper()
	g := NewGateway(f, testOptions())
	_, err := g.Connect(context.Background())
	require.NoError(t, err)
	return g
}

func TestExtractAddressShapes(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   string
	}{
		{"bare string", testAddress, testAddress},
		{"address field", map[string]any{"address": testAddress}, testAddress},
		{"publicKey field", map[string]any{"publicKey": testAddress}, testAddress},
		{"address wins over publicKey", map[string]any{"publicKey": "b", "address": "a"}, "a"},
		{"empty address falls through", map[string]any{"address": "", "publicKey": "pk"}, "pk"},
		{"boolean", true, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAddress(tt.result))
		})
	}
}

func TestExtractTransactionIDShapes(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   string
	}{
		{"bare string", "at1abc", "at1abc"},
		{"transactionId", map[string]any{"transactionId": "at1a"}, "at1a"},
		{"id", map[string]any{"id": "req-1"}, "req-1"},
		{"txId", map[string]any{"txId": "at1b"}, "at1b"},
		{"transaction_id", map[string]any{"transaction_id": "at1c"}, "at1c"},
		{"order", map[string]any{"txId": "later", "transactionId": "first"}, "first"},
		{"numeric id ignored", map[string]any{"id": 42.0}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTransactionID(tt.result))
		})
	}
}

func TestRecordListShapes(t *testing.T) {
	list, ok := RecordList([]any{"a"})
	assert.True(t, ok)
	assert.Len(t, list, 1)

	list, ok = RecordList(map[string]any{"records": []any{"a", "b"}})
	assert.True(t, ok)
	assert.Len(t, list, 2)

	list, ok = RecordList(nil)
	assert.True(t, ok)
	assert.Empty(t, list)

	_, ok = RecordList("nope")
	assert.False(t, ok)
}

func TestExtractSignatureShapes(t *testing.T) {
	assert.Equal(t, "sign1xyz", ExtractSignature("sign1xyz"))
	assert.Equal(t, "sign1xyz", ExtractSignature(map[string]any{"signature": "sign1xyz"}))
	assert.Equal(t, "0aff", ExtractSignature([]any{10.0, 255.0}))
	assert.Equal(t, "0aff", ExtractSignature(map[string]any{"signature": []any{10.0, 255.0}}))
	assert.Equal(t, "", ExtractSignature([]any{300.0}))
}

func TestConnectWithoutExtension(t *testing.T) {
	g := NewGateway(nil, testOptions())

	st, err := g.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.KindNotInstalled, failure.KindOf(err))
	assert.Contains(t, failure.Message(err), "https://www.leo.app/")
	assert.False(t, st.Available)
	assert.Equal(t, "https://www.leo.app/", st.InstallURL)
	assert.Equal(t, "disconnected", st.State)
}

func TestConnectPassesOptions(t *testing.T) {
	f := &fakeWallet{}
	g := connected(t, f)

	assert.Equal(t, testAddress, g.Address())
	require.Len(t, f.connectOpts, 1)
	assert.Equal(t, "OnChainHistory", f.connectOpts[0].DecryptPermission)
	assert.Equal(t, []string{"aurav2zkp.aleo"}, f.connectOpts[0].Programs)
}

func TestConnectRetriesWithDefaults(t *testing.T) {
	f := &fakeWallet{connectFn: func(opts ConnectOptions) (any, error) {
		if opts.DecryptPermission != "" {
			return nil, errors.New("unsupported permission")
		}
		return map[string]any{"publicKey": testAddress}, nil
	}}
	g := connected(t, f)
	assert.Len(t, f.connectOpts, 2)
	assert.Equal(t, testAddress, g.Address())
}

func TestConnectFallsBackToPublicKeyProperty(t *testing.T) {
	f := &fakeWallet{
		connectFn: func(ConnectOptions) (any, error) { return map[string]any{"ok": true}, nil },
		publicKey: testAddress,
	}
	g := connected(t, f)
	assert.Equal(t, testAddress, g.Address())
}

func TestConnectFallsBackToSelectedAccount(t *testing.T) {
	g := NewGateway(&selectorWallet{account: map[string]any{"address": testAddress}}, testOptions())
	st, err := g.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, testAddress, st.Address)
}

func TestConnectWithRequestAccess(t *testing.T) {
	g := NewGateway(accessWallet{}, testOptions())
	st, err := g.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAddress, st.Address)
}

func TestConnectWithoutAddressStaysDisconnected(t *testing.T) {
	f := &fakeWallet{connectFn: func(ConnectOptions) (any, error) { return map[string]any{}, nil }}
	g := NewGateway(f, testOptions())

	st, err := g.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.KindUnrecognizedResponse, failure.KindOf(err))
	assert.False(t, st.Connected)
	assert.False(t, st.Connecting)

	// The control stays usable: a later attempt can succeed.
	f.publicKey = testAddress
	st, err = g.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
}

func TestConnectRejectedByUser(t *testing.T) {
	f := &fakeWallet{connectFn: func(ConnectOptions) (any, error) { return nil, errors.New("User rejected the request") }}
	g := NewGateway(f, testOptions())

	st, err := g.Connect(context.Background())
	assert.Equal(t, failure.KindUserRejected, failure.KindOf(err))
	assert.Equal(t, "disconnected", st.State)
}

func TestRequestTransactionRequiresSession(t *testing.T) {
	f := &fakeWallet{txResult: "at1abc"}
	g := NewGateway(f, testOptions())

	_, err := g.RequestTransaction(context.Background(), &transaction.Request{})
	assert.Equal(t, failure.KindNotConnected, failure.KindOf(err))
	assert.Equal(t, 0, f.txCalls)
}

func TestRequestTransactionNormalizesID(t *testing.T) {
	f := &fakeWallet{txResult: map[string]any{"txId": "at1confirmed"}}
	g := connected(t, f)

	id, err := g.RequestTransaction(context.Background(), &transaction.Request{})
	require.NoError(t, err)
	assert.Equal(t, "at1confirmed", id)

	f.txResult = map[string]any{"id": "8c0e-request"}
	id, err = g.RequestTransaction(context.Background(), &transaction.Request{})
	require.NoError(t, err)
	assert.Equal(t, "8c0e-request", id)

	f.txResult = map[string]any{"status": "ok"}
	_, err = g.RequestTransaction(context.Background(), &transaction.Request{})
	assert.Equal(t, failure.KindUnrecognizedResponse, failure.KindOf(err))
}

func TestRequestTransactionClassifiesErrors(t *testing.T) {
	f := &fakeWallet{txErr: errors.New("Error: Unspent record not found")}
	g := connected(t, f)

	_, err := g.RequestTransaction(context.Background(), &transaction.Request{})
	require.Error(t, err)
	assert.Equal(t, failure.KindStaleRecord, failure.KindOf(err))
	assert.Equal(t, failure.RemedyRefresh, failure.KindOf(err).Remedy())
}

func TestRequestRecordsDecodes(t *testing.T) {
	f := &fakeWallet{records: map[string]any{"records": []any{
		map[string]any{
			"id":         "r1",
			"spent":      false,
			"recordName": "CreditBadge",
			"program_id": "aurav2zkp.aleo",
			"data": map[string]any{
				"income_bracket":   "3u8.private",
				"expiry_timestamp": "1731536000u64.private",
			},
		},
		map[string]any{"id": 7.0, "spent": "true", "recordName": "LoanPosition"},
		"{ owner: " + testAddress + ".private, principal: 5000000000u64.private, pool_id: 1u8.private }",
		42.0,
	}}}
	g := connected(t, f)

	records, err := g.RequestRecords(context.Background(), "aurav2zkp.aleo")
	require.NoError(t, err)
	require.Len(t, records, 3)

	badge := records[0]
	assert.Equal(t, RecordCreditBadge, badge.RecordName)
	bracket, ok := badge.IntField("income_bracket")
	assert.True(t, ok)
	assert.Equal(t, int64(3), bracket)
	assert.NotNil(t, badge.Raw)

	assert.Equal(t, "7", records[1].ID)
	assert.True(t, records[1].Spent)

	loan := records[2]
	assert.Equal(t, RecordLoanPosition, loan.RecordName)
	assert.Equal(t, testAddress, loan.Owner)
	principal, _ := loan.IntField("principal")
	assert.Equal(t, int64(5000000000), principal)
	input, err := loan.Input()
	require.NoError(t, err)
	assert.Equal(t, loan.Plaintext, input)
}

func TestRequestRecordsUnrecognizedShape(t *testing.T) {
	f := &fakeWallet{records: "garbage"}
	g := connected(t, f)

	_, err := g.RequestRecords(context.Background(), "aurav2zkp.aleo")
	assert.Equal(t, failure.KindUnrecognizedResponse, failure.KindOf(err))
}

func TestRequestRecordPlaintexts(t *testing.T) {
	pt := "{ owner: aleo1x.private, income_bracket: 2u8.private }"

	direct := &plaintextWallet{fakeWallet: &fakeWallet{}, plaintexts: []any{pt}}
	g := NewGateway(direct, testOptions())
	_, err := g.Connect(context.Background())
	require.NoError(t, err)
	list, err := g.RequestRecordPlaintexts(context.Background(), "aurav2zkp.aleo")
	require.NoError(t, err)
	assert.Equal(t, []any{pt}, list)

	fallback := &fakeWallet{records: []any{
		map[string]any{"id": "a", "plaintext": pt},
		map[string]any{"id": "b"},
	}}
	g = connected(t, fallback)
	list, err = g.RequestRecordPlaintexts(context.Background(), "aurav2zkp.aleo")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, pt, list[0])
	assert.Equal(t, map[string]any{"id": "b"}, list[1])
}

func TestSignMessage(t *testing.T) {
	f := &fakeWallet{signResult: map[string]any{"signature": []any{1.0, 2.0}}}
	g := connected(t, f)

	sig, err := g.SignMessage(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "0102", sig)
}

func TestDisconnectEventsAndHooks(t *testing.T) {
	f := &fakeWallet{}
	g := connected(t, f)

	cleared := 0
	g.OnDisconnect(func() { cleared++ })

	other := "aleo1" + strings.Repeat("y", 58)
	f.handlers[EventAccountChange](map[string]any{"address": other})
	assert.Equal(t, other, g.Address())

	f.handlers[EventDisconnect](nil)
	assert.Equal(t, "", g.Address())
	assert.Equal(t, "disconnected", g.Status().State)
	assert.Equal(t, 1, cleared)
}

func TestDisconnectIgnoresProviderError(t *testing.T) {
	f := &fakeWallet{}
	g := connected(t, f)

	require.NoError(t, g.Disconnect(context.Background()))
	assert.Equal(t, 1, f.disconnects)
	assert.False(t, g.Status().Connected)
}

func TestReconnect(t *testing.T) {
	f := &fakeWallet{}
	g := connected(t, f)

	st, err := g.Reconnect(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, 1, f.disconnects)
	assert.Len(t, f.connectOpts, 2)
}
