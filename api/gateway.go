// Package api exposes a multisig engine over HTTP.
//
// Reads are open. Submit, confirm, revoke and execute must be signed by an
// owner key (see SignRequest); the caller is the address of the signing key.
// Deposits are unauthenticated.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/op/go-logging"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

var log = logging.MustGetLogger("API")

// AddressResolver turns a recipient string into an address. paymail.Resolver
// satisfies it.
type AddressResolver interface {
	Resolve(s string) (owner.Address, error)
}

type parseResolver struct{}

func (parseResolver) Resolve(s string) (owner.Address, error) { return owner.Parse(s) }

// GatewayConfig configures a Gateway. The zero value is usable.
type GatewayConfig struct {
	// Resolver resolves submit recipients; nil accepts hex and base58 only.
	Resolver AddressResolver

	// MaxSkew bounds request timestamps; zero means DefaultMaxSkew.
	MaxSkew time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time
}

// Gateway serves the HTTP API for one engine.
type Gateway struct {
	engine   *multisig.Engine
	resolver AddressResolver
	auth     *authenticator
	router   *mux.Router
}

// NewGateway builds the router for engine.
func NewGateway(engine *multisig.Engine, cfg GatewayConfig) (*Gateway, error) {
	if engine == nil {
		return nil, ErrNilParam
	}
	g := &Gateway{
		engine:   engine,
		resolver: cfg.Resolver,
		auth:     newAuthenticator(cfg.MaxSkew, cfg.Now),
	}
	if g.resolver == nil {
		g.resolver = parseResolver{}
	}
	g.router = g.newRouter()
	return g, nil
}

func (g *Gateway) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/owners", g.handleGETOwners).Methods(http.MethodGet)
	r.HandleFunc("/balance", g.handleGETBalance).Methods(http.MethodGet)
	r.HandleFunc("/transactions", g.handleGETTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{index:[0-9]+}", g.handleGETTransaction).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{index:[0-9]+}/confirmations/{address}", g.handleGETConfirmation).Methods(http.MethodGet)

	r.HandleFunc("/deposits", g.handlePOSTDeposit).Methods(http.MethodPost)
	r.HandleFunc("/transactions", g.authenticated(g.handlePOSTSubmit)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{index:[0-9]+}/confirm", g.authenticated(g.handlePOSTConfirm)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{index:[0-9]+}/revoke", g.authenticated(g.handlePOSTRevoke)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{index:[0-9]+}/execute", g.authenticated(g.handlePOSTExecute)).Methods(http.MethodPost)
	return r
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

// Serve handles connections on l until ctx is cancelled, then shuts down
// gracefully.
func (g *Gateway) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           g,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("API listening on %s", l.Addr())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
