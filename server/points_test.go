package server

import (
	"context"
	"math"
	"net/http"
	"testing"

	"activity-points/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testAPI) ledger(userID string) models.Ledger {
	a.t.Helper()
	l, ok, err := a.store.Ledgers.Get(context.Background(), userID)
	require.NoError(a.t, err)
	require.True(a.t, ok, "ledger %s", userID)
	return l
}

func TestGetPointsAndHistory(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodGet, "/points", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 550, body.Get("points.available").Int())
	assert.EqualValues(t, 1500, body.Get("points.total").Int())

	_, body = api.do(http.MethodGet, "/points", api.tokenFor("nobody"), nil)
	assert.EqualValues(t, 0, body.Get("points.total").Int())

	_, body = api.do(http.MethodGet, "/points/history", "", nil)
	assert.Len(t, body.Get("history").Array(), 4)

	_, body = api.do(http.MethodGet, "/points/history", api.tokenFor("nobody"), nil)
	assert.True(t, body.Get("history").IsArray())
	assert.Empty(t, body.Get("history").Array())
}

func TestRates(t *testing.T) {
	api := newTestAPI(t)

	_, body := api.do(http.MethodGet, "/points/rates", "", nil)
	assert.Equal(t, 0.01, body.Get("rates.USD").Float())
	assert.Equal(t, 0.009, body.Get("rates.EUR").Float())
	assert.Equal(t, 0.008, body.Get("rates.GBP").Float())
	assert.Equal(t, 0.83, body.Get("rates.INR").Float())
}

func TestAddPoints(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodPost, "/points/add", "", map[string]int{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid amount is required", body.Get("error").String())

	rec, body = api.do(http.MethodPost, "/points/add", "", map[string]interface{}{"amount": 25, "description": "Quiz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Added 25 points", body.Get("message").String())

	l := api.ledger("demo")
	assert.Equal(t, 1525, l.Total)
	assert.Equal(t, 575, l.Available)
	assert.True(t, l.Balanced())
	last := l.History[len(l.History)-1]
	assert.Equal(t, models.EntryEarned, last.Type)
	assert.Equal(t, "Quiz", last.Description)
}

func TestConvertExample(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodPost, "/points/convert", "", map[string]interface{}{"amount": 100, "currency": "USD"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1.0, body.Get("convertedAmount").Float())
	assert.Equal(t, "USD", body.Get("currency").String())
	assert.EqualValues(t, 450, body.Get("points.available").Int())
	assert.Equal(t, "Converted 100 points to USD 1.00", body.Get("message").String())

	l := api.ledger("demo")
	assert.Equal(t, 800, l.Utilized)
	assert.True(t, l.Balanced())
	assert.Equal(t, -100, l.History[len(l.History)-1].Amount)
}

func TestConvertRoundsToCents(t *testing.T) {
	api := newTestAPI(t)

	_, body := api.do(http.MethodPost, "/points/convert", "", map[string]interface{}{"amount": 333, "currency": "eur"})
	assert.Equal(t, 3.0, body.Get("convertedAmount").Float())

	_, body = api.do(http.MethodPost, "/points/convert", "", map[string]interface{}{"amount": 7, "currency": "INR"})
	assert.Equal(t, 5.81, body.Get("convertedAmount").Float())

	rec, body := api.do(http.MethodPost, "/points/convert", "", map[string]interface{}{"amount": 7, "currency": "JPY"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid currency is required (USD, EUR, GBP, INR)", body.Get("error").String())
}

func TestDebitsBeyondAvailableLeaveLedgerUnchanged(t *testing.T) {
	api := newTestAPI(t)
	before := api.ledger("demo")

	requests := map[string]interface{}{
		"/points/donate":   map[string]interface{}{"amount": 551},
		"/points/transfer": map[string]interface{}{"amount": 551, "recipientId": "user-001"},
		"/points/convert":  map[string]interface{}{"amount": 551, "currency": "USD"},
	}
	for path, req := range requests {
		rec, body := api.do(http.MethodPost, path, "", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "Insufficient points", body.Get("error").String(), path)
	}

	assert.Equal(t, before, api.ledger("demo"))
	_, ok, err := api.store.Ledgers.Get(context.Background(), "user-001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDonate(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodPost, "/points/donate", "", map[string]interface{}{
		"amount": 50, "recipient": "Food Bank", "message": "keep going",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Donated 50 points", body.Get("message").String())

	l := api.ledger("demo")
	assert.Equal(t, 500, l.Available)
	assert.Equal(t, 300, l.Donated)
	assert.True(t, l.Balanced())
	assert.Equal(t, "Donated to Food Bank: keep going", l.History[len(l.History)-1].Description)

	api.do(http.MethodPost, "/points/donate", "", map[string]interface{}{"amount": 10})
	l = api.ledger("demo")
	assert.Equal(t, "Donated to charity", l.History[len(l.History)-1].Description)
}

func TestTransfer(t *testing.T) {
	api := newTestAPI(t)
	ana, tok := api.register("ana", "a@x.com")

	rec, body := api.do(http.MethodPost, "/points/transfer", tok, map[string]interface{}{"amount": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Recipient is required", body.Get("error").String())

	rec, _ = api.do(http.MethodPost, "/points/transfer", tok, map[string]interface{}{"amount": 10, "recipientId": ana})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = api.do(http.MethodPost, "/points/transfer", tok, map[string]interface{}{
		"amount": 40, "recipientId": "demo", "note": "thanks",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Transferred 40 points to demo", body.Get("message").String())

	sender := api.ledger(ana)
	assert.Equal(t, 60, sender.Available)
	assert.Equal(t, 40, sender.Utilized)
	assert.True(t, sender.Balanced())
	assert.Equal(t, models.EntryTransferred, sender.History[len(sender.History)-1].Type)
	assert.Equal(t, -40, sender.History[len(sender.History)-1].Amount)

	recipient := api.ledger("demo")
	assert.Equal(t, 1540, recipient.Total)
	assert.Equal(t, 590, recipient.Available)
	assert.True(t, recipient.Balanced())
	assert.Equal(t, models.EntryReceived, recipient.History[len(recipient.History)-1].Type)
}

func TestTransferCreatesRecipientLedger(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(http.MethodPost, "/points/transfer", "", map[string]interface{}{"amount": 5, "recipientId": "newcomer"})
	require.Equal(t, http.StatusOK, rec.Code)

	l := api.ledger("newcomer")
	assert.Equal(t, 5, l.Total)
	assert.Equal(t, 5, l.Available)
	assert.Len(t, l.History, 1)
}

func TestCreditsThatWouldOverflowAreRejected(t *testing.T) {
	api := newTestAPI(t)
	ana, tok := api.register("ana", "a@x.com")
	before := api.ledger(ana)

	rec, body := api.do(http.MethodPost, "/points/add", tok, map[string]interface{}{"amount": math.MaxInt})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid amount is required", body.Get("error").String())
	assert.Equal(t, before, api.ledger(ana))

	full := models.NewLedger("whale")
	full.Total = math.MaxInt - 5
	full.Available = math.MaxInt - 5
	_, err := api.store.Ledgers.Set(context.Background(), "whale", full)
	require.NoError(t, err)
	demo := api.ledger("demo")

	rec, body = api.do(http.MethodPost, "/points/transfer", "", map[string]interface{}{"amount": 10, "recipientId": "whale"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid amount is required", body.Get("error").String())
	assert.Equal(t, demo, api.ledger("demo"))
	assert.Equal(t, full, api.ledger("whale"))
}
