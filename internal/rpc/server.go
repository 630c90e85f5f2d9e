// Package rpc exposes a pool over HTTP: transactions are posted to /tx as
// Message envelopes, /status snapshots the tree and fee policy, and /events
// streams pool records over a websocket.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"shieldedpool/internal/transactions/deposit"
	"shieldedpool/internal/transactions/swap"
	"shieldedpool/internal/transactions/withdraw"
	"shieldedpool/internal/zerocash"
)

const maxBodyBytes = 1 << 20

// Limiter decides whether a client may submit another transaction.
type Limiter interface {
	Allow(key string) bool
}

// Observer is told the outcome of every transaction.
type Observer interface {
	ObserveTransaction(kind, outcome string, d time.Duration)
}

type Options struct {
	Addr     string
	Limiter  Limiter
	Observer Observer
	Logger   *zap.Logger
	// Hub serves /events when set.
	Hub *Hub
}

type Server struct {
	pool     *zerocash.Pool
	opts     Options
	logger   *zap.Logger
	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener
}

func NewServer(pool *zerocash.Pool, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pool:   pool,
		opts:   opts,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/tx", s.txHandler)
	s.mux.HandleFunc("/status", s.statusHandler)
	if opts.Hub != nil {
		s.mux.HandleFunc("/events", opts.Hub.ServeWS)
	}
	return s
}

// Mount adds an extra handler, such as health or metrics.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) Handler() http.Handler { return s.mux }

// Start listens on Options.Addr and serves in a new goroutine. It returns
// once the listener is bound.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		s.logger.Info("rpc server starting", zap.String("addr", listener.Addr().String()))
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("rpc server failed", zap.Error(err))
		}
		s.logger.Info("rpc server stopped")
	}()
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.opts.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// txHandler decodes the envelope and dispatches on its type.
func (s *Server) txHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Limiter != nil && !s.opts.Limiter.Allow(clientKey(r)) {
		s.writeJSON(w, http.StatusTooManyRequests, TxResponse{Kind: "rate_limited"})
		return
	}

	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		s.logger.Debug("bad request", zap.Error(err))
		s.writeJSON(w, http.StatusBadRequest, TxResponse{Kind: "bad_request", Error: err.Error()})
		return
	}

	start := time.Now()
	resp, err := s.dispatch(r.Context(), msg)
	outcome := zerocash.Kind(err)
	if s.opts.Observer != nil && !errors.Is(err, errBadRequest) {
		s.opts.Observer.ObserveTransaction(msg.Type, outcome, time.Since(start))
	}
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, errBadRequest) {
			outcome = "bad_request"
		}
		s.logger.Info("transaction rejected",
			zap.String("type", msg.Type),
			zap.String("sender", msg.SenderID),
			zap.String("kind", outcome),
			zap.Error(err),
		)
		s.writeJSON(w, status, TxResponse{Kind: outcome, Error: err.Error()})
		return
	}
	resp.Kind = outcome
	s.writeJSON(w, http.StatusOK, resp)
}

var errBadRequest = errors.New("bad request")

func (s *Server) dispatch(ctx context.Context, msg Message) (TxResponse, error) {
	switch msg.Type {
	case TypeDeposit:
		var p DepositPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return TxResponse{}, fmt.Errorf("%w: deposit payload: %v", errBadRequest, err)
		}
		proof, err := p.Proof.Decode()
		if err != nil {
			return TxResponse{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if err := verifyPayer(&p); err != nil {
			return TxResponse{}, err
		}
		res, err := deposit.Process(ctx, s.pool, &deposit.Request{
			Proof:           proof,
			ExtData:         zerocash.ExtDataMinified{ExtAmount: p.ExtAmount, Fee: p.Fee},
			EncryptedOutput: p.EncryptedOutput,
			Asset:           p.Asset,
			Payer:           p.Payer,
			FeeRecipient:    p.FeeRecipient,
			Namespace:       p.Namespace,
		})
		if err != nil {
			return TxResponse{}, err
		}
		return TxResponse{Index: res.Index, Amount: res.Amount, Fee: res.Fee}, nil

	case TypeWithdraw:
		var p WithdrawPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return TxResponse{}, fmt.Errorf("%w: withdraw payload: %v", errBadRequest, err)
		}
		proof, err := p.Proof.Decode()
		if err != nil {
			return TxResponse{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		res, err := withdraw.Process(ctx, s.pool, &withdraw.Request{
			Proof:           proof,
			ExtData:         zerocash.ExtDataMinified{ExtAmount: p.ExtAmount, Fee: p.Fee},
			EncryptedOutput: p.EncryptedOutput,
			Asset:           p.Asset,
			Recipient:       p.Recipient,
			FeeRecipient:    p.FeeRecipient,
			Namespace:       p.Namespace,
		})
		if err != nil {
			return TxResponse{}, err
		}
		return TxResponse{Index: res.Index, Amount: res.Amount, Fee: res.Fee}, nil

	case TypeSwap:
		var p SwapPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return TxResponse{}, fmt.Errorf("%w: swap payload: %v", errBadRequest, err)
		}
		proof, err := p.Proof.Decode()
		if err != nil {
			return TxResponse{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		res, err := swap.Process(ctx, s.pool, &swap.Request{
			Proof: proof,
			ExtData: zerocash.SwapExtDataMinified{
				ExtAmount:       p.ExtAmount,
				ExtMinAmountOut: p.ExtMinAmountOut,
				Fee:             p.Fee,
			},
			EncryptedOutput: p.EncryptedOutput,
			AssetIn:         p.AssetIn,
			AssetOut:        p.AssetOut,
			FeeRecipient:    p.FeeRecipient,
			Payload:         p.Payload,
			Namespace:       p.Namespace,
		})
		if err != nil {
			return TxResponse{}, err
		}
		return TxResponse{
			Index:       res.Index,
			Amount:      res.AmountIn,
			AmountOut:   res.AmountOut,
			RealizedFee: res.RealizedFee,
		}, nil

	default:
		return TxResponse{}, fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type)
	}
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, Status(s.pool))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}

func statusFor(err error) int {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	switch zerocash.Kind(err) {
	case "unauthorized":
		return http.StatusUnauthorized
	case "double_spend":
		return http.StatusConflict
	case "external_adapter_failure":
		return http.StatusBadGateway
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// clientKey identifies the caller for rate limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
