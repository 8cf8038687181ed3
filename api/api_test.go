package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

type testOwner struct {
	key  *ec.PrivateKey
	addr owner.Address
}

func newTestOwner(t *testing.T) testOwner {
	t.Helper()
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := owner.FromPublicKey(key.PubKey())
	require.NoError(t, err)
	return testOwner{key: key, addr: addr}
}

type fixture struct {
	owners []testOwner
	engine *multisig.Engine
	server *httptest.Server
	now    time.Time
}

// newFixture starts a 2-of-3 gateway with a fixed clock.
func newFixture(t *testing.T, exec multisig.Executor) *fixture {
	t.Helper()
	f := &fixture{now: time.Unix(1_700_000_000, 0)}
	addrs := make([]owner.Address, 3)
	for i := range addrs {
		f.owners = append(f.owners, newTestOwner(t))
		addrs[i] = f.owners[i].addr
	}

	opts := []multisig.Option{}
	if exec != nil {
		opts = append(opts, multisig.WithExecutor(exec))
	}
	e, err := multisig.New(addrs, 2, opts...)
	require.NoError(t, err)
	f.engine = e

	g, err := NewGateway(e, GatewayConfig{Now: func() time.Time { return f.now }})
	require.NoError(t, err)
	f.server = httptest.NewServer(g)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) client(key *ec.PrivateKey) *Client {
	c := NewClient(f.server.URL, key)
	c.Now = func() time.Time { return f.now }
	return c
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se *StatusError
	require.True(t, errors.As(err, &se), "expected StatusError, got %v", err)
	return se.Code
}

// ---------------------------------------------------------------------------
// Lifecycle over HTTP
// ---------------------------------------------------------------------------

func TestGateway_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	o1, o2 := f.client(f.owners[0].key), f.client(f.owners[1].key)
	payee := newTestOwner(t).addr

	bal, err := f.client(nil).Deposit(ctx, payee, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal)

	idx, err := o1.Submit(ctx, payee.Hex(), 400, []byte{0xca, 0xfe})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	tx, err := o1.Confirm(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, []owner.Address{f.owners[0].addr}, tx.Confirmations)

	_, err = o1.Execute(ctx, idx)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.ErrorIs(t, err, multisig.ErrState)

	f.now = f.now.Add(time.Second)
	_, err = o2.Confirm(ctx, idx)
	require.NoError(t, err)

	ok, err := o1.IsConfirmed(ctx, idx, f.owners[1].addr)
	require.NoError(t, err)
	assert.True(t, ok)

	tx, err = o2.Execute(ctx, idx)
	require.NoError(t, err)
	assert.True(t, tx.Executed)
	assert.Equal(t, payee, tx.To)
	assert.Equal(t, []byte{0xca, 0xfe}, tx.Data)

	bal, err = o1.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), bal)

	pending, err := o1.Transactions(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := o1.Transactions(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	owners, err := o1.Owners(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, owners.Threshold)
	assert.Len(t, owners.Owners, 3)
}

func TestGateway_RevokeAndNotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	o1 := f.client(f.owners[0].key)

	idx, err := o1.Submit(ctx, newTestOwner(t).addr.Hex(), 0, nil)
	require.NoError(t, err)
	_, err = o1.Confirm(ctx, idx)
	require.NoError(t, err)

	f.now = f.now.Add(time.Second)
	tx, err := o1.Revoke(ctx, idx)
	require.NoError(t, err)
	assert.Empty(t, tx.Confirmations)

	_, err = o1.Transaction(ctx, 9)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.ErrorIs(t, err, multisig.ErrNoSuchTransaction)
}

// ---------------------------------------------------------------------------
// Status mapping
// ---------------------------------------------------------------------------

func TestGateway_NonOwnerForbidden(t *testing.T) {
	f := newFixture(t, nil)
	outsider := f.client(newTestOwner(t).key)

	_, err := outsider.Submit(context.Background(), f.owners[0].addr.Hex(), 1, nil)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.ErrorIs(t, err, multisig.ErrAuthorization)
}

func TestGateway_ExecutionFailureIs422(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	o1, o2 := f.client(f.owners[0].key), f.client(f.owners[1].key)

	idx, err := o1.Submit(ctx, f.owners[2].addr.Hex(), 50, nil)
	require.NoError(t, err)
	_, err = o1.Confirm(ctx, idx)
	require.NoError(t, err)
	_, err = o2.Confirm(ctx, idx)
	require.NoError(t, err)

	// No deposit, so the balance cannot cover the value.
	_, err = o2.Execute(ctx, idx)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	assert.ErrorIs(t, err, multisig.ErrExecution)

	tx, err := o1.Transaction(ctx, idx)
	require.NoError(t, err)
	assert.False(t, tx.Executed)
}

func TestGateway_BadRequests(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	o1 := f.client(f.owners[0].key)

	_, err := o1.Submit(ctx, "not-an-address", 1, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.client(nil).Deposit(ctx, f.owners[0].addr, 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	resp, err := http.Post(f.server.URL+"/deposits", "application/json", bytes.NewReader([]byte(`{"amount":"x"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(f.server.URL + "/transactions/0/confirmations/zz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New("disk on fire"), http.StatusInternalServerError},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{multisig.ErrNotOwner, http.StatusForbidden},
		{multisig.ErrNoSuchTransaction, http.StatusNotFound},
		{multisig.ErrAlreadyExecuted, http.StatusConflict},
		{multisig.ErrInsufficientConfirmations, http.StatusConflict},
		{multisig.ErrExecutionFailed, http.StatusUnprocessableEntity},
		{multisig.ErrRollbackFailed, http.StatusUnprocessableEntity},
		{multisig.ErrInvalidAmount, http.StatusBadRequest},
		{ErrBadRequest, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

// ---------------------------------------------------------------------------
// Request authentication
// ---------------------------------------------------------------------------

func signedRequest(t *testing.T, f *fixture, key *ec.PrivateKey, path string, body []byte, at time.Time) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, SignRequest(req, body, key, at))
	return req
}

func TestAuth_MissingHeaders(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := http.Post(f.server.URL+"/transactions", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_Replay(t *testing.T) {
	f := newFixture(t, nil)
	body := []byte(`{"to":"` + f.owners[2].addr.Hex() + `","value":1}`)
	req := signedRequest(t, f, f.owners[0].key, "/transactions", body, f.now)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	again, err := http.NewRequest(http.MethodPost, f.server.URL+"/transactions", bytes.NewReader(body))
	require.NoError(t, err)
	again.Header = req.Header.Clone()
	resp, err = http.DefaultClient.Do(again)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n, err := f.engine.TransactionCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

// secp256k1 group order.
var curveN, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// highS rewrites a DER signature (hex) with S replaced by N-S.
func highS(t *testing.T, sigHex string) string {
	t.Helper()
	der, err := hex.DecodeString(sigHex)
	require.NoError(t, err)
	require.Equal(t, byte(0x30), der[0])
	require.Equal(t, byte(0x02), der[2])
	rLen := int(der[3])
	r := der[4 : 4+rLen]
	require.Equal(t, byte(0x02), der[4+rLen])
	sLen := int(der[5+rLen])
	sVal := new(big.Int).SetBytes(der[6+rLen : 6+rLen+sLen])

	flipped := new(big.Int).Sub(curveN, sVal).Bytes()
	if flipped[0]&0x80 != 0 {
		flipped = append([]byte{0x00}, flipped...)
	}
	out := []byte{0x30, byte(4 + len(r) + len(flipped)), 0x02, byte(len(r))}
	out = append(out, r...)
	out = append(out, 0x02, byte(len(flipped)))
	out = append(out, flipped...)
	return hex.EncodeToString(out)
}

func TestAuth_MalleatedSignatureReplay(t *testing.T) {
	f := newFixture(t, nil)
	body := []byte(`{"to":"` + f.owners[2].addr.Hex() + `","value":1}`)
	req := signedRequest(t, f, f.owners[0].key, "/transactions", body, f.now)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	again, err := http.NewRequest(http.MethodPost, f.server.URL+"/transactions", bytes.NewReader(body))
	require.NoError(t, err)
	again.Header = req.Header.Clone()
	malleated := highS(t, req.Header.Get(HeaderSignature))
	require.NotEqual(t, req.Header.Get(HeaderSignature), malleated)
	again.Header.Set(HeaderSignature, malleated)

	resp, err = http.DefaultClient.Do(again)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n, err := f.engine.TransactionCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestAuth_HighSRejected(t *testing.T) {
	f := newFixture(t, nil)
	body := []byte(`{"to":"` + f.owners[2].addr.Hex() + `","value":1}`)
	req := signedRequest(t, f, f.owners[0].key, "/transactions", body, f.now)
	req.Header.Set(HeaderSignature, highS(t, req.Header.Get(HeaderSignature)))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n, err := f.engine.TransactionCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuth_StaleTimestamp(t *testing.T) {
	f := newFixture(t, nil)
	body := []byte(`{"to":"` + f.owners[2].addr.Hex() + `","value":1}`)

	for _, at := range []time.Time{f.now.Add(-DefaultMaxSkew - time.Minute), f.now.Add(DefaultMaxSkew + time.Minute)} {
		resp, err := http.DefaultClient.Do(signedRequest(t, f, f.owners[0].key, "/transactions", body, at))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestAuth_TamperedBody(t *testing.T) {
	f := newFixture(t, nil)
	signed := []byte(`{"to":"` + f.owners[2].addr.Hex() + `","value":1}`)
	sent := []byte(`{"to":"` + f.owners[2].addr.Hex() + `","value":999}`)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/transactions", bytes.NewReader(sent))
	require.NoError(t, err)
	require.NoError(t, SignRequest(req, signed, f.owners[0].key, f.now))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_WrongPath(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Submit(f.owners[0].addr, f.owners[2].addr, 0, nil)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/transactions/0/confirm", nil)
	require.NoError(t, err)
	// Signature over a different path.
	other, err := http.NewRequest(http.MethodPost, f.server.URL+"/transactions/0/revoke", nil)
	require.NoError(t, err)
	require.NoError(t, SignRequest(other, nil, f.owners[0].key, f.now))
	req.Header = other.Header

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignRequest_NilKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", nil)
	assert.ErrorIs(t, SignRequest(req, nil, nil, time.Now()), ErrNilParam)
}

func TestNewGateway_NilEngine(t *testing.T) {
	_, err := NewGateway(nil, GatewayConfig{})
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestGateway_Serve(t *testing.T) {
	f := newFixture(t, nil)
	g, err := NewGateway(f.engine, GatewayConfig{})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Serve(ctx, l) }()

	c := NewClient("http://"+l.Addr().String(), nil)
	require.Eventually(t, func() bool {
		_, err := c.Balance(context.Background())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
