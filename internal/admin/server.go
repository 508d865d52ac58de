package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"genmarket-bot/internal/models"
	"genmarket-bot/internal/service"
)

// Notifier sends a message to a Telegram chat. Satisfied by *tgbotapi.BotAPI.
type Notifier interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Server is the manager surface: confirm or reject reported payments, credit
// accounts, read stats and broadcast announcements. Everything sits behind
// basic auth.
type Server struct {
	addr      string
	username  string
	password  string
	log       *slog.Logger
	ledger    *service.LedgerService
	bot       Notifier
	broadcast *rate.Limiter
	router    *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, ledger *service.LedgerService, bot Notifier, broadcastPerSecond float64) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if broadcastPerSecond <= 0 {
		broadcastPerSecond = 20
	}

	s := &Server{
		addr:      addr,
		username:  username,
		password:  password,
		log:       log,
		ledger:    ledger,
		bot:       bot,
		broadcast: rate.NewLimiter(rate.Limit(broadcastPerSecond), 1),
		router:    r,
	}
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Route("/payments", func(r chi.Router) {
			r.Get("/pending", s.handleListPending)
			r.Get("/completed", s.handleListCompleted)
			r.Post("/{id}/confirm", s.handleConfirm)
			r.Post("/{id}/reject", s.handleReject)
		})
		protected.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/{telegramID}/credit", s.handleCredit)
		})
		protected.Get("/stats", s.handleStats)
		protected.Post("/broadcast", s.handleBroadcast)
	})
	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin shutdown error", "err", err)
		}
	}()

	s.log.Info("admin panel listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin listen: %w", err)
	}
	return nil
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	events, err := s.ledger.PendingEvents(r.Context(), queryLimit(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eventViews(events))
}

func (s *Server) handleListCompleted(w http.ResponseWriter, r *http.Request) {
	events, err := s.ledger.CompletedEvents(r.Context(), queryLimit(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eventViews(events))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, models.StatusCompleted)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, models.StatusRejected)
}

type settleRequest struct {
	Comment string `json:"comment"`
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request, status models.RewardStatus) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req settleRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	event, err := s.ledger.UpdateRewardStatus(r.Context(), id, status, req.Comment)
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrAlreadySettled):
		http.Error(w, "payment already settled", http.StatusConflict)
		return
	case err != nil:
		s.internalError(w, err)
		return
	}

	s.notifySettled(r.Context(), event)
	s.writeJSON(w, http.StatusOK, eventView(event))
}

// notifySettled tells the user the outcome. Best effort: a delivery failure
// never rolls back the ledger transition.
func (s *Server) notifySettled(ctx context.Context, event *models.RewardEvent) {
	account, err := s.ledger.AccountByID(ctx, event.AccountID)
	if err != nil {
		s.log.Error("load account for notification", "event_id", event.ID, "err", err)
		return
	}
	var text string
	if event.Status == models.StatusCompleted {
		text = fmt.Sprintf("✅ Платёж на %s %s подтверждён. Баланс пополнен!", event.Amount, event.Currency)
	} else {
		text = fmt.Sprintf("❌ Платёж на %s %s отклонён.", event.Amount, event.Currency)
		if event.Comment != "" {
			text += "\nПричина: " + event.Comment
		}
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(account.TelegramID, text)); err != nil {
		s.log.Error("notify settled", "telegram_id", account.TelegramID, "err", err)
	}
}

type creditRequest struct {
	Amount  string `json:"amount"`
	Comment string `json:"comment"`
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	telegramID, err := parseID(chi.URLParam(r, "telegramID"))
	if err != nil {
		http.Error(w, "invalid telegram id", http.StatusBadRequest)
		return
	}
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	account, event, err := s.ledger.AdminCredit(r.Context(), telegramID, amount, req.Comment)
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.internalError(w, err)
		return
	}

	text := fmt.Sprintf("💰 Ваш баланс пополнен на %s %s.", event.Amount, event.Currency)
	if _, err := s.bot.Send(tgbotapi.NewMessage(account.TelegramID, text)); err != nil {
		s.log.Error("notify credit", "telegram_id", account.TelegramID, "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"event":   eventView(event),
		"balance": account.Balance,
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context(), queryLimit(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	views := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountResponse{
			ID:         a.ID,
			TelegramID: a.TelegramID,
			Username:   a.Username,
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			Balance:    a.Balance,
			IsAdmin:    a.IsAdmin,
			CreatedAt:  a.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type broadcastRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	ids, err := s.ledger.ListTelegramIDs(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}

	count := 0
	for _, id := range ids {
		if err := s.broadcast.Wait(ctx); err != nil {
			break
		}
		if _, err := s.bot.Send(tgbotapi.NewMessage(id, req.Message)); err != nil {
			s.log.Error("send broadcast", "telegram_id", id, "err", err)
			continue
		}
		count++
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"sent":  count,
		"total": len(ids),
	})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="genmarket"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("admin handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

type eventResponse struct {
	ID          int64               `json:"id"`
	AccountID   int64               `json:"account_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	Status      models.RewardStatus `json:"status"`
	Method      models.RewardMethod `json:"method"`
	Comment     string              `json:"comment,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

type accountResponse struct {
	ID         int64           `json:"id"`
	TelegramID int64           `json:"telegram_id"`
	Username   string          `json:"username,omitempty"`
	FirstName  string          `json:"first_name,omitempty"`
	LastName   string          `json:"last_name,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
	IsAdmin    bool            `json:"is_admin"`
	CreatedAt  time.Time       `json:"created_at"`
}

func eventView(e *models.RewardEvent) eventResponse {
	return eventResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Status:      e.Status,
		Method:      e.Method,
		Comment:     e.Comment,
		CreatedAt:   e.CreatedAt,
		CompletedAt: e.CompletedAt,
	}
}

func eventViews(events []models.RewardEvent) []eventResponse {
	views := make([]eventResponse, 0, len(events))
	for i := range events {
		views = append(views, eventView(&events[i]))
	}
	return views
}
