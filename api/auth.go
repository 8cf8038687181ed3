package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libmultisig-go/owner"
)

// Signature headers carried by every mutating request.
const (
	HeaderPubKey    = "X-Msig-PubKey"
	HeaderTimestamp = "X-Msig-Timestamp"
	HeaderSignature = "X-Msig-Signature"
)

// DefaultMaxSkew bounds the distance between a request timestamp and the
// server clock.
const DefaultMaxSkew = 5 * time.Minute

// maxBodySize caps request bodies read for signing.
const maxBodySize = 1 << 20

// SigningHash returns SHA-256("method\npath\ntimestamp\nbody").
func SigningHash(method, path, timestamp string, body []byte) []byte {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n", method, path, timestamp)
	h.Write(body)
	return h.Sum(nil)
}

// SignRequest sets the signature headers on req for key. body must be the
// exact bytes sent.
func SignRequest(req *http.Request, body []byte, key *ec.PrivateKey, now time.Time) error {
	if key == nil {
		return fmt.Errorf("%w: key", ErrNilParam)
	}
	ts := strconv.FormatInt(now.Unix(), 10)
	sig, err := key.Sign(SigningHash(req.Method, req.URL.Path, ts, body))
	if err != nil {
		return fmt.Errorf("api: sign request: %w", err)
	}
	req.Header.Set(HeaderPubKey, hex.EncodeToString(key.PubKey().Compressed()))
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderSignature, hex.EncodeToString(sig.Serialize()))
	return nil
}

type callerKey struct{}

// Caller returns the authenticated owner address stored by the auth middleware.
func Caller(ctx context.Context) (owner.Address, bool) {
	a, ok := ctx.Value(callerKey{}).(owner.Address)
	return a, ok
}

// authenticator verifies request signatures and remembers accepted requests
// until their timestamps fall out of the skew window.
type authenticator struct {
	maxSkew time.Duration
	now     func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func newAuthenticator(maxSkew time.Duration, now func() time.Time) *authenticator {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	if now == nil {
		now = time.Now
	}
	return &authenticator{maxSkew: maxSkew, now: now, seen: make(map[string]time.Time)}
}

// verify checks the signature headers of r against body and returns the
// caller address.
func (a *authenticator) verify(r *http.Request, body []byte) (owner.Address, error) {
	pubHex := r.Header.Get(HeaderPubKey)
	tsStr := r.Header.Get(HeaderTimestamp)
	sigHex := r.Header.Get(HeaderSignature)
	if pubHex == "" || tsStr == "" || sigHex == "" {
		return owner.Zero, ErrMissingAuth
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return owner.Zero, fmt.Errorf("%w: timestamp %q", ErrStaleTimestamp, tsStr)
	}
	now := a.now()
	skew := now.Sub(time.Unix(ts, 0))
	if skew > a.maxSkew || skew < -a.maxSkew {
		return owner.Zero, fmt.Errorf("%w: off by %s", ErrStaleTimestamp, skew.Round(time.Second))
	}

	pubBytes, err := hex.DecodeString(pubHex)
	if err != nil {
		return owner.Zero, fmt.Errorf("%w: public key encoding", ErrBadSignature)
	}
	pub, err := ec.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return owner.Zero, fmt.Errorf("%w: public key: %w", ErrBadSignature, err)
	}
	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return owner.Zero, fmt.Errorf("%w: signature encoding", ErrBadSignature)
	}
	sig, err := ec.ParseDERSignature(sigBytes)
	if err != nil {
		return owner.Zero, fmt.Errorf("%w: signature: %w", ErrBadSignature, err)
	}
	// Serialize emits strict low-S DER; anything else is a malleated form.
	if !bytes.Equal(sig.Serialize(), sigBytes) {
		return owner.Zero, fmt.Errorf("%w: non-canonical signature", ErrBadSignature)
	}
	digest := SigningHash(r.Method, r.URL.Path, tsStr, body)
	if !sig.Verify(digest, pub) {
		return owner.Zero, ErrBadSignature
	}

	// Requests are remembered by signer and signed content, so a re-encoded
	// signature over the same request is still a replay.
	if err := a.remember(hex.EncodeToString(append(pub.Compressed(), digest...)), now); err != nil {
		return owner.Zero, err
	}
	return owner.FromPublicKey(pub)
}

func (a *authenticator) remember(key string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for s, at := range a.seen {
		if now.Sub(at) > 2*a.maxSkew {
			delete(a.seen, s)
		}
	}
	if _, dup := a.seen[key]; dup {
		return ErrReplay
	}
	a.seen[key] = now
	return nil
}

// authenticated wraps h so it only runs for correctly signed requests. The
// body is buffered and restored for h.
func (g *Gateway) authenticated(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeError(w, fmt.Errorf("%w: read body: %w", ErrBadRequest, err))
			return
		}
		caller, err := g.auth.verify(r, body)
		if err != nil {
			log.Debugf("rejected %s %s: %v", r.Method, r.URL.Path, err)
			writeError(w, fmt.Errorf("%w: %w", ErrUnauthenticated, err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		h(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	}
}
