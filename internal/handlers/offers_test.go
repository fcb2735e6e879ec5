package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/mocks"
	"bitsbarter/internal/models"
	"bitsbarter/internal/repositories"
	"bitsbarter/internal/ws"
)

type offerMocks struct {
	offers   *mocks.OfferRepositoryMock
	chats    *mocks.ChatRepositoryMock
	listings *mocks.ListingRepositoryMock
}

func setupOfferRouter(t *testing.T, userID string) (*gin.Engine, offerMocks) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := offerMocks{
		offers:   new(mocks.OfferRepositoryMock),
		chats:    new(mocks.ChatRepositoryMock),
		listings: new(mocks.ListingRepositoryMock),
	}
	handler := NewOfferHandler(m.offers, m.chats, m.listings, ws.NewHub(), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.POST("/offers/send", handler.SendOffer)
	r.POST("/offers/action", handler.ActOnOffer)
	r.GET("/offers/check", handler.CheckOffer)
	return r, m
}

func (m offerMocks) assertExpectations(t *testing.T) {
	m.offers.AssertExpectations(t)
	m.chats.AssertExpectations(t)
	m.listings.AssertExpectations(t)
}

var (
	offerChat    = models.Chat{ID: "c1", ListingID: "l42", BuyerID: "u2", SellerID: "u1"}
	offerListing = models.Listing{ID: "l42", SellerID: "u1", PriceSats: 100000, Status: models.ListingActive}
)

func TestSendOfferSuccess(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()
	m.listings.On("GetListing", mock.Anything, "l42").Return(offerListing, nil).Once()
	m.offers.On("ProposeOffer", mock.Anything, offerChat, "u2", int64(50000), mock.Anything).
		Return(models.Offer{ID: "o1", ChatID: "c1", ListingID: "l42", FromUserID: "u2", ToUserID: "u1", AmountSats: 50000, Status: models.OfferPending}, nil).Once()

	body := bytes.NewBufferString(`{"chatId":"c1","listingId":"l42","amountSat":50000}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		OK    bool         `json:"ok"`
		Offer models.Offer `json:"offer"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.OK)
	assert.Equal(t, models.OfferPending, resp.Offer.Status)
	m.assertExpectations(t)
}

func TestSendOfferExceedsPrice(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()
	m.listings.On("GetListing", mock.Anything, "l42").Return(offerListing, nil).Once()

	body := bytes.NewBufferString(`{"chatId":"c1","listingId":"l42","amountSat":150000}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds listing price")
	m.offers.AssertNotCalled(t, "ProposeOffer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSendOfferNonPositiveAmount(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()
	m.listings.On("GetListing", mock.Anything, "l42").Return(offerListing, nil).Once()

	body := bytes.NewBufferString(`{"chatId":"c1","listingId":"l42","amountSat":0}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	m.assertExpectations(t)
}

func TestSendOfferInactiveListing(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	sold := offerListing
	sold.Status = models.ListingSold
	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()
	m.listings.On("GetListing", mock.Anything, "l42").Return(sold, nil).Once()

	body := bytes.NewBufferString(`{"chatId":"c1","listingId":"l42","amountSat":50000}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not active")
	m.assertExpectations(t)
}

func TestSendOfferNotParticipant(t *testing.T) {
	router, m := setupOfferRouter(t, "u3")

	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()

	body := bytes.NewBufferString(`{"chatId":"c1","listingId":"l42","amountSat":50000}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	m.assertExpectations(t)
}

func TestSendOfferDuplicatePending(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()
	m.listings.On("GetListing", mock.Anything, "l42").Return(offerListing, nil).Once()
	m.offers.On("ProposeOffer", mock.Anything, offerChat, "u2", int64(50000), mock.Anything).
		Return(models.Offer{}, apperrors.New(apperrors.Conflict, "a pending offer for this listing already exists")).Once()

	body := bytes.NewBufferString(`{"chatId":"c1","listingId":"l42","amountSat":50000}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	m.assertExpectations(t)
}

func TestActOnOfferAccept(t *testing.T) {
	router, m := setupOfferRouter(t, "u1")

	m.offers.On("ActOnOffer", mock.Anything, "o1", "u1", models.ActionAccept).
		Return(models.Offer{ID: "o1", ChatID: "c1", Status: models.OfferAccepted}, nil).Once()

	body := bytes.NewBufferString(`{"offerId":"o1","action":"accept"}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/action", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"accepted"`)
	m.assertExpectations(t)
}

func TestActOnOfferAlreadyTerminal(t *testing.T) {
	router, m := setupOfferRouter(t, "u1")

	m.offers.On("ActOnOffer", mock.Anything, "o1", "u1", models.ActionDecline).
		Return(models.Offer{}, apperrors.Newf(apperrors.Conflict, "offer is already %s", models.OfferAccepted)).Once()

	body := bytes.NewBufferString(`{"offerId":"o1","action":"decline"}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/action", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already accepted")
	m.assertExpectations(t)
}

func TestActOnOfferExpired(t *testing.T) {
	router, m := setupOfferRouter(t, "u1")

	m.offers.On("ActOnOffer", mock.Anything, "o1", "u1", models.ActionAccept).
		Return(models.Offer{}, apperrors.New(apperrors.Expired, "offer has expired")).Once()

	body := bytes.NewBufferString(`{"offerId":"o1","action":"accept"}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/action", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGone, rec.Code)
	m.assertExpectations(t)
}

func TestActOnOfferWrongActor(t *testing.T) {
	router, m := setupOfferRouter(t, "u3")

	m.offers.On("ActOnOffer", mock.Anything, "o1", "u3", models.ActionRevoke).
		Return(models.Offer{}, apperrors.New(apperrors.Forbidden, "not allowed to revoke this offer")).Once()

	body := bytes.NewBufferString(`{"offerId":"o1","action":"revoke"}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/action", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	m.assertExpectations(t)
}

func TestActOnOfferInvalidAction(t *testing.T) {
	router, m := setupOfferRouter(t, "u1")

	body := bytes.NewBufferString(`{"offerId":"o1","action":"haggle"}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/action", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	m.offers.AssertNotCalled(t, "ActOnOffer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestActOnOfferNotFound(t *testing.T) {
	router, m := setupOfferRouter(t, "u1")

	m.offers.On("ActOnOffer", mock.Anything, "missing", "u1", models.ActionAccept).
		Return(models.Offer{}, repositories.ErrOfferNotFound).Once()

	body := bytes.NewBufferString(`{"offerId":"missing","action":"accept"}`)
	req := httptest.NewRequest(http.MethodPost, "/offers/action", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	m.assertExpectations(t)
}

func TestCheckOffer(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	m.chats.On("GetChat", mock.Anything, "c1").Return(offerChat, nil).Once()
	m.offers.On("CheckOffer", mock.Anything, "c1", "l42", "u2").
		Return(repositories.OfferCheck{CanPropose: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/offers/check?chatId=c1&listingId=l42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_propose":true`)
	m.assertExpectations(t)
}

func TestCheckOfferMissingParams(t *testing.T) {
	router, m := setupOfferRouter(t, "u2")

	req := httptest.NewRequest(http.MethodGet, "/offers/check?chatId=c1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	m.assertExpectations(t)
}
