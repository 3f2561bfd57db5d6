package api

import (
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/activity"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/metrics"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"strings"
)

const WalletHeader = "X-Wallet"

type Server struct {
	service      marketplace.Service
	faucet       marketplace.Faucet
	feed         activity.Feed
	activityRepo repository.ActivityRepository
	metrics      *metrics.Metrics
	limiter      *walletLimiter
}

type Options struct {
	RateLimit float64
	Burst     int
	// Faucet enables the /dev routes when set.
	Faucet marketplace.Faucet
}

func NewServer(
	service marketplace.Service,
	feed activity.Feed,
	activityRepo repository.ActivityRepository,
	m *metrics.Metrics,
	opts Options,
) *Server {
	return &Server{
		service:      service,
		faucet:       opts.Faucet,
		feed:         feed,
		activityRepo: activityRepo,
		metrics:      m,
		limiter:      newWalletLimiter(opts.RateLimit, opts.Burst),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.limiter.middleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/marketplace", s.handleInitialize).Methods(http.MethodPost)
	r.HandleFunc("/marketplace", s.handleGetMarketplace).Methods(http.MethodGet)

	r.HandleFunc("/listings", s.handleList).Methods(http.MethodPost)
	r.HandleFunc("/listings/{asset}/{seller}", s.handleGetListing).Methods(http.MethodGet)
	r.HandleFunc("/listings/{asset}/{seller}", s.handleUpdateListing).Methods(http.MethodPut)
	r.HandleFunc("/listings/{asset}/{seller}", s.handleCancelListing).Methods(http.MethodDelete)
	r.HandleFunc("/listings/{asset}/{seller}/buy", s.handleBuy).Methods(http.MethodPost)

	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/activity", s.handleActivity).Methods(http.MethodGet)
	r.HandleFunc("/assets/{asset}/activity", s.handleAssetActivity).Methods(http.MethodGet)

	dev := r.PathPrefix("/dev").Subrouter()
	dev.HandleFunc("/fund", s.handleFund).Methods(http.MethodPost)
	dev.HandleFunc("/mint", s.handleMint).Methods(http.MethodPost)
	dev.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	dev.HandleFunc("/balances/{owner}", s.handleBalances).Methods(http.MethodGet)

	r.NotFoundHandler = notFoundHandler()

	return r
}

// PruneLimiters drops rate limit state of idle wallets.
func (s *Server) PruneLimiters() {
	s.limiter.Prune()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

type initializeRequest struct {
	Fee uint16 `json:"fee"`
}

type listRequest struct {
	Asset string `json:"asset"`
	Price uint64 `json:"price"`
}

type updateRequest struct {
	Price uint64 `json:"price"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	wallet, err := getWallet(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req initializeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.InitializeMarketplace(r.Context(), wallet, req.Fee)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleGetMarketplace(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.GetMarketplace(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	wallet, err := getWallet(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req listRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.List(r.Context(), wallet, req.Asset, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.service.GetListing(r.Context(), getListingKey(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	wallet, err := getWallet(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.UpdateListing(r.Context(), wallet, getListingKey(r), req.Price)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	wallet, err := getWallet(r)
	if err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.CancelListing(r.Context(), wallet, getListingKey(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	wallet, err := getWallet(r)
	if err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.Buy(r.Context(), wallet, getListingKey(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Stats())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	activities, err := s.activityRepo.GetRecentActivity(r.Context(), getLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleAssetActivity(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]

	activities, err := s.activityRepo.GetAssetActivity(r.Context(), asset, getLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

func getWallet(r *http.Request) (string, error) {
	wallet := strings.TrimSpace(r.Header.Get(WalletHeader))
	if wallet == "" {
		return "", ErrMissingWallet
	}

	return wallet, nil
}

func getListingKey(r *http.Request) entity.ListingKey {
	vars := mux.Vars(r)

	return entity.ListingKey{Asset: vars["asset"], Seller: vars["seller"]}
}

func getLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}

	return limit
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBody, err)
	}

	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().With(zap.Error(err)).Error("Api: Request failed")
	}

	writeJSON(w, status, errorResponse{err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Warn("Api: Failed to write response")
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{"page not found"})
	})
}
