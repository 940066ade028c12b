// Package mockapi is an in-memory stand-in for the marketplace backend. It
// serves the same HTTP surface the client consumes and backs the end-to-end
// tests and local development.
package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"fooddonation/internal/domain"
	mw "fooddonation/internal/middleware"
)

const maxUploadBytes = 10 << 20

// Options configures the simulated backend.
type Options struct {
	Tokens *mw.Tokens
	Logger *zerolog.Logger
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// LoginRateLimit caps login attempts per client IP per minute; 0 disables it.
	LoginRateLimit int
	Now            func() time.Time
}

// Server holds the simulated backend state.
type Server struct {
	store  *store
	tokens *mw.Tokens
	logger zerolog.Logger
	rate   int
	hits   atomic.Int64
}

// New builds a backend with seeded categories and no users.
func New(opts Options) *Server {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = mw.NewTokens("dev-secret", 0)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Server{
		store:  newStore(cost, now),
		tokens: tokens,
		logger: logger,
		rate:   opts.LoginRateLimit,
	}
}

// Hits reports how many HTTP requests the server has received.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// Register creates an account directly, bypassing HTTP.
func (s *Server) Register(reg domain.Registration) (string, error) {
	return s.store.register(reg)
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		s.count,
		mw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		mw.Logger(s.logger),
	)

	login := r.With()
	if s.rate > 0 {
		login = r.With(mw.RateLimit(s.rate, time.Minute))
	}
	login.Post("/auth/login", s.login)
	r.Post("/api/users/register", s.register)
	r.Get("/category", s.categories)
	r.Get("/uploads/{name}", s.upload)

	r.Group(func(r chi.Router) {
		r.Use(mw.Bearer(s.tokens))
		r.Post("/user/change-password", s.changePassword)
		r.Route("/food", func(r chi.Router) {
			r.Get("/", s.listAll)
			r.Get("/mydonatedfood", s.listMine)
			r.Get("/requests", s.listRequested)
			r.Get("/approved-requests", s.listApproved)
			r.Get("/myaccount", s.myAccount)
			r.Post("/add-food", s.addFood)
			r.Post("/request/{id}", s.requestFood)
			r.Patch("/update-requests/{id}", s.updateRequests)
			r.Get("/{id}", s.getFood)
			r.Delete("/{id}", s.deleteFood)
		})
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) error(w http.ResponseWriter, code int, msg string) {
	s.json(w, code, map[string]string{"error": msg})
}

func (s *Server) outcome(w http.ResponseWriter, code int, success bool, msg string) {
	s.json(w, code, map[string]any{"success": success, "message": msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	profile, err := s.store.authenticate(req.Email, req.Password)
	if err != nil {
		s.error(w, http.StatusUnauthorized, err.Error())
		return
	}
	token, err := s.tokens.Issue(profile.ID, profile.Email)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("mockapi: issue token")
		s.error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.json(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeJSON(r, &reg); err != nil {
		s.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	for _, v := range []string{reg.Name, reg.Email, reg.Password, reg.Phone, reg.Address} {
		if strings.TrimSpace(v) == "" {
			s.error(w, http.StatusBadRequest, "All fields are required")
			return
		}
	}
	if _, err := s.store.register(reg); err != nil {
		s.error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.json(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil || req.NewPassword == "" {
		s.error(w, http.StatusBadRequest, "New password is required")
		return
	}
	if err := s.store.changePassword(mw.UserIDFromContext(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		s.error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.json(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	s.json(w, http.StatusOK, s.store.categories)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	data, ok := s.store.upload("uploads/" + chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (s *Server) listAll(w http.ResponseWriter, r *http.Request) {
	s.json(w, http.StatusOK, s.store.list(nil))
}

func (s *Server) listMine(w http.ResponseWriter, r *http.Request) {
	uid := mw.UserIDFromContext(r.Context())
	s.json(w, http.StatusOK, s.store.list(func(l *listing) bool { return l.ownerID == uid }))
}

func (s *Server) listRequested(w http.ResponseWriter, r *http.Request) {
	uid := mw.UserIDFromContext(r.Context())
	s.json(w, http.StatusOK, s.store.list(func(l *listing) bool {
		for _, req := range l.donation.Requests {
			if req.UserID == uid {
				return true
			}
		}
		return false
	}))
}

func (s *Server) listApproved(w http.ResponseWriter, r *http.Request) {
	uid := mw.UserIDFromContext(r.Context())
	s.json(w, http.StatusOK, s.store.list(func(l *listing) bool {
		return l.ownerID == uid && l.donation.Status == domain.StatusApproved
	}))
}

func (s *Server) myAccount(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.store.profile(mw.UserIDFromContext(r.Context()))
	if !ok {
		s.error(w, http.StatusNotFound, "User not found")
		return
	}
	s.json(w, http.StatusOK, profile)
}

func (s *Server) getFood(w http.ResponseWriter, r *http.Request) {
	d, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		s.error(w, http.StatusNotFound, errNotFound.Error())
		return
	}
	s.json(w, http.StatusOK, d)
}

func (s *Server) addFood(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.outcome(w, http.StatusBadRequest, false, "invalid multipart payload")
		return
	}
	get := func(key string) string { return strings.TrimSpace(r.FormValue(key)) }
	for _, key := range []string{"foodItem", "description", "quantity", "location", "availableTill"} {
		if get(key) == "" {
			s.outcome(w, http.StatusBadRequest, false, key+" is required")
			return
		}
	}
	availableTill, err := time.Parse(time.RFC3339, get("availableTill"))
	if err != nil {
		s.outcome(w, http.StatusBadRequest, false, "availableTill must be an ISO-8601 timestamp")
		return
	}
	file, _, err := r.FormFile("images")
	if err != nil {
		s.outcome(w, http.StatusBadRequest, false, "Image is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		s.outcome(w, http.StatusBadRequest, false, "Image is required")
		return
	}
	id, err := s.store.addDonation(mw.UserIDFromContext(r.Context()), domain.Donation{
		FoodItem:      r.FormValue("foodItem"),
		Description:   r.FormValue("description"),
		Quantity:      r.FormValue("quantity"),
		Location:      r.FormValue("location"),
		AvailableTill: availableTill,
		Notes:         r.FormValue("notes"),
		Images:        []string{s.store.saveUpload(data)},
	})
	if err != nil {
		s.outcome(w, http.StatusUnauthorized, false, err.Error())
		return
	}
	s.json(w, http.StatusCreated, map[string]any{"success": true, "message": "Food item added successfully", "id": id})
}

func (s *Server) requestFood(w http.ResponseWriter, r *http.Request) {
	err := s.store.request(chi.URLParam(r, "id"), mw.UserIDFromContext(r.Context()))
	switch {
	case errors.Is(err, errNotFound):
		s.outcome(w, http.StatusNotFound, false, err.Error())
	case err != nil:
		s.outcome(w, http.StatusOK, false, err.Error())
	default:
		s.outcome(w, http.StatusOK, true, "Your request has been submitted.")
	}
}

func (s *Server) updateRequests(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestStatus string `json:"requestStatus"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.RequestStatus != domain.StatusApproved && req.RequestStatus != domain.StatusRejected {
		s.error(w, http.StatusBadRequest, "requestStatus must be Approved or Rejected")
		return
	}
	if err := s.store.decide(chi.URLParam(r, "id"), mw.UserIDFromContext(r.Context()), req.RequestStatus); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.json(w, http.StatusOK, map[string]string{"message": "Request status updated"})
}

func (s *Server) deleteFood(w http.ResponseWriter, r *http.Request) {
	if err := s.store.remove(chi.URLParam(r, "id"), mw.UserIDFromContext(r.Context())); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.json(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNotFound):
		s.error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errForbidden):
		s.error(w, http.StatusForbidden, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("mockapi: store failure")
		s.error(w, http.StatusInternalServerError, err.Error())
	}
}
