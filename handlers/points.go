// handlers/points.go
package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"activity-points/events"
	"activity-points/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type AddPointsRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

type DonateRequest struct {
	Amount    int    `json:"amount"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type TransferRequest struct {
	Amount      int    `json:"amount"`
	RecipientID string `json:"recipientId"`
	Note        string `json:"note"`
}

type ConvertRequest struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

func newEntry(typ string, amount int, description string, now time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:          uuid.NewString(),
		Type:        typ,
		Amount:      amount,
		Description: description,
		Date:        now.Format("2006-01-02"),
		Timestamp:   now,
	}
}

// credit adds to total and available.
func credit(l *models.Ledger, typ string, amount int, description string, now time.Time) {
	l.Total += amount
	l.Available += amount
	l.History = append(l.History, newEntry(typ, amount, description, now))
}

// canCredit reports whether amount fits into the ledger's counters.
func canCredit(l models.Ledger, amount int) bool {
	return l.Total <= math.MaxInt-amount && l.Available <= math.MaxInt-amount
}

func withNote(s, note string) string {
	if note == "" {
		return s
	}
	return s + ": " + note
}

func GetPoints(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := callerID(r)
		ledger, ok, err := env.Store.Ledgers.Get(r.Context(), userID)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !ok {
			ledger = models.NewLedger(userID)
		}
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{"points": ledger})
	}
}

func PointsHistory(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ledger, ok, err := env.Store.Ledgers.Get(r.Context(), callerID(r))
		if err != nil {
			internalError(w, r, err)
			return
		}
		history := []models.HistoryEntry{}
		if ok && ledger.History != nil {
			history = ledger.History
		}
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{"history": history})
	}
}

func ConversionRates(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{"rates": models.Rates})
	}
}

func AddPoints(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddPointsRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		if req.Amount <= 0 {
			respondErr(w, r, errInvalidAmount)
			return
		}

		userID := callerID(r)
		now := time.Now().UTC()
		ledger, err := env.Store.Ledgers.Update(r.Context(), userID, func(l models.Ledger, exists bool) (models.Ledger, error) {
			if !exists {
				l = models.NewLedger(userID)
			}
			if !canCredit(l, req.Amount) {
				return l, errInvalidAmount
			}
			credit(&l, models.EntryEarned, req.Amount, orDefault(req.Description, "Points added"), now)
			return l, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.PointsAdded, userID, map[string]int{"amount": req.Amount})

		respondSuccess(w, http.StatusOK, fmt.Sprintf("Added %d points", req.Amount), map[string]interface{}{
			"points": ledger,
		})
	}
}

func DonatePoints(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DonateRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		if req.Amount <= 0 {
			respondErr(w, r, errInvalidAmount)
			return
		}

		userID := callerID(r)
		now := time.Now().UTC()
		recipient := orDefault(req.Recipient, "charity")
		ledger, err := env.Store.Ledgers.Update(r.Context(), userID, func(l models.Ledger, exists bool) (models.Ledger, error) {
			if !exists || l.Available < req.Amount {
				return l, errInsufficient
			}
			l.Available -= req.Amount
			l.Donated += req.Amount
			l.History = append(l.History, newEntry(models.EntryDonated, req.Amount,
				withNote("Donated to "+recipient, req.Message), now))
			return l, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.PointsDonated, userID, map[string]interface{}{
			"amount":    req.Amount,
			"recipient": recipient,
		})

		respondSuccess(w, http.StatusOK, fmt.Sprintf("Donated %d points", req.Amount), map[string]interface{}{
			"points": ledger,
		})
	}
}

// TransferPoints debits the sender and then credits the recipient, creating
// the recipient's ledger when needed. A failed credit is compensated on the
// sender's ledger.
func TransferPoints(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransferRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		req.RecipientID = strings.TrimSpace(req.RecipientID)
		if req.Amount <= 0 {
			respondErr(w, r, errInvalidAmount)
			return
		}
		if req.RecipientID == "" {
			respondError(w, http.StatusBadRequest, "Recipient is required")
			return
		}

		ctx := r.Context()
		senderID := callerID(r)
		if req.RecipientID == senderID {
			respondError(w, http.StatusBadRequest, "Cannot transfer points to yourself")
			return
		}

		now := time.Now().UTC()
		debit := newEntry(models.EntryTransferred, -req.Amount,
			withNote("Transferred to "+req.RecipientID, req.Note), now)
		sender, err := env.Store.Ledgers.Update(ctx, senderID, func(l models.Ledger, exists bool) (models.Ledger, error) {
			if !exists || l.Available < req.Amount {
				return l, errInsufficient
			}
			l.Available -= req.Amount
			l.Utilized += req.Amount
			l.History = append(l.History, debit)
			return l, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}

		_, err = env.Store.Ledgers.Update(ctx, req.RecipientID, func(l models.Ledger, exists bool) (models.Ledger, error) {
			if !exists {
				l = models.NewLedger(req.RecipientID)
			}
			if !canCredit(l, req.Amount) {
				return l, errInvalidAmount
			}
			credit(&l, models.EntryReceived, req.Amount, withNote("Received from "+senderID, req.Note), now)
			return l, nil
		})
		if err != nil {
			refundTransfer(r, env, senderID, debit)
			respondErr(w, r, err)
			return
		}
		env.publish(ctx, events.PointsTransferred, senderID, map[string]interface{}{
			"amount":      req.Amount,
			"recipientId": req.RecipientID,
		})

		respondSuccess(w, http.StatusOK, fmt.Sprintf("Transferred %d points to %s", req.Amount, req.RecipientID), map[string]interface{}{
			"points": sender,
		})
	}
}

// refundTransfer reverses a sender debit whose matching credit failed.
func refundTransfer(r *http.Request, env *Env, senderID string, debit models.HistoryEntry) {
	amount := -debit.Amount
	_, err := env.Store.Ledgers.Update(r.Context(), senderID, func(l models.Ledger, exists bool) (models.Ledger, error) {
		l.Available += amount
		l.Utilized -= amount
		kept := l.History[:0]
		for _, e := range l.History {
			if e.ID != debit.ID {
				kept = append(kept, e)
			}
		}
		l.History = kept
		return l, nil
	})
	if err != nil {
		log.Error().Err(err).Str("user", senderID).Int("amount", amount).Msg("transfer refund failed")
	}
}

func ConvertPoints(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConvertRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		if req.Amount <= 0 {
			respondErr(w, r, errInvalidAmount)
			return
		}
		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		rate, ok := models.Rates[currency]
		if !ok {
			respondError(w, http.StatusBadRequest, "Valid currency is required (USD, EUR, GBP, INR)")
			return
		}

		converted := decimal.NewFromInt(int64(req.Amount)).Mul(decimal.NewFromFloat(rate)).Round(2)
		userID := callerID(r)
		now := time.Now().UTC()
		ledger, err := env.Store.Ledgers.Update(r.Context(), userID, func(l models.Ledger, exists bool) (models.Ledger, error) {
			if !exists || l.Available < req.Amount {
				return l, errInsufficient
			}
			l.Available -= req.Amount
			l.Utilized += req.Amount
			l.History = append(l.History, newEntry(models.EntryConverted, -req.Amount,
				fmt.Sprintf("Converted to %s %s", currency, converted.StringFixed(2)), now))
			return l, nil
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		env.publish(r.Context(), events.PointsConverted, userID, map[string]interface{}{
			"amount":   req.Amount,
			"currency": currency,
		})

		respondSuccess(w, http.StatusOK,
			fmt.Sprintf("Converted %d points to %s %s", req.Amount, currency, converted.StringFixed(2)),
			map[string]interface{}{
				"convertedAmount": converted.InexactFloat64(),
				"currency":        currency,
				"points":          ledger,
			})
	}
}
