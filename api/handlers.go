package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

// OwnersResponse is the body of GET /owners.
type OwnersResponse struct {
	Owners    []owner.Address `json:"owners"`
	Threshold int             `json:"threshold"`
}

// BalanceResponse is the body of GET /balance and POST /deposits.
type BalanceResponse struct {
	Balance uint64 `json:"balance"`
}

// ConfirmationResponse is the body of GET /transactions/{index}/confirmations/{address}.
type ConfirmationResponse struct {
	Confirmed bool `json:"confirmed"`
}

// SubmitRequest is the body of POST /transactions. Data is hex.
type SubmitRequest struct {
	To    string `json:"to"`
	Value uint64 `json:"value"`
	Data  string `json:"data,omitempty"`
}

// SubmitResponse is the body returned by POST /transactions.
type SubmitResponse struct {
	Index uint64 `json:"index"`
}

// DepositRequest is the body of POST /deposits.
type DepositRequest struct {
	From   owner.Address `json:"from"`
	Amount uint64        `json:"amount"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (g *Gateway) handleGETOwners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OwnersResponse{
		Owners:    g.engine.Owners(),
		Threshold: g.engine.Threshold(),
	})
}

func (g *Gateway) handleGETBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := g.engine.Balance()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: bal})
}

func (g *Gateway) handleGETTransactions(w http.ResponseWriter, r *http.Request) {
	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))

	var (
		txs []*multisig.Transaction
		err error
	)
	if pending {
		txs, err = g.engine.Pending()
	} else {
		txs, err = g.engine.Transactions()
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if txs == nil {
		txs = []*multisig.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (g *Gateway) handleGETTransaction(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tx, err := g.engine.Transaction(index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (g *Gateway) handleGETConfirmation(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	addr, err := owner.Parse(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	ok, err := g.engine.IsConfirmed(index, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmationResponse{Confirmed: ok})
}

func (g *Gateway) handlePOSTDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	bal, err := g.engine.Deposit(req.From, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: bal})
}

func (g *Gateway) handlePOSTSubmit(w http.ResponseWriter, r *http.Request) {
	caller, _ := Caller(r.Context())

	var req SubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	to, err := g.resolver.Resolve(req.To)
	if err != nil {
		writeError(w, fmt.Errorf("%w: recipient: %w", ErrBadRequest, err))
		return
	}
	data, err := hex.DecodeString(req.Data)
	if err != nil {
		writeError(w, fmt.Errorf("%w: data is not hex", ErrBadRequest))
		return
	}
	index, err := g.engine.Submit(caller, to, req.Value, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{Index: index})
}

func (g *Gateway) handlePOSTConfirm(w http.ResponseWriter, r *http.Request) {
	g.transition(w, r, func(caller owner.Address, index uint64) error {
		return g.engine.Confirm(caller, index)
	})
}

func (g *Gateway) handlePOSTRevoke(w http.ResponseWriter, r *http.Request) {
	g.transition(w, r, func(caller owner.Address, index uint64) error {
		return g.engine.Revoke(caller, index)
	})
}

func (g *Gateway) handlePOSTExecute(w http.ResponseWriter, r *http.Request) {
	g.transition(w, r, func(caller owner.Address, index uint64) error {
		return g.engine.Execute(r.Context(), caller, index)
	})
}

// transition runs op for the authenticated caller and responds with the
// updated transaction.
func (g *Gateway) transition(w http.ResponseWriter, r *http.Request, op func(owner.Address, uint64) error) {
	caller, _ := Caller(r.Context())
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(caller, index); err != nil {
		writeError(w, err)
		return
	}
	tx, err := g.engine.Transaction(index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func pathIndex(r *http.Request) (uint64, error) {
	s := mux.Vars(r)["index"]
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrBadRequest, s)
	}
	return index, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// StatusCode maps an error to the HTTP status the API reports for it.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, multisig.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, multisig.ErrNoSuchTransaction):
		return http.StatusNotFound
	case errors.Is(err, multisig.ErrState):
		return http.StatusConflict
	case errors.Is(err, multisig.ErrExecution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBadRequest), errors.Is(err, multisig.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		log.Errorf("internal error: %v", err)
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(out)
}
