package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bitsbarter/internal/models"
	"bitsbarter/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) ResolveChat(ctx context.Context, listingID string, buyerID string, sellerID string) (models.Chat, error) {
	args := m.Called(ctx, listingID, buyerID, sellerID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) HideChatForUser(ctx context.Context, chatID string, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) UnhideChatForUser(ctx context.Context, chatID string, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID string, senderID string, text string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID string, requesterID string, page int, limit int) (models.MessagePage, error) {
	args := m.Called(ctx, chatID, requesterID, page, limit)
	var result models.MessagePage
	if val := args.Get(0); val != nil {
		result = val.(models.MessagePage)
	}
	return result, args.Error(1)
}

type OfferRepositoryMock struct {
	mock.Mock
}

func (m *OfferRepositoryMock) ProposeOffer(ctx context.Context, chat models.Chat, fromUserID string, amountSats int64, expiresAt *time.Time) (models.Offer, error) {
	args := m.Called(ctx, chat, fromUserID, amountSats, expiresAt)
	var offer models.Offer
	if val := args.Get(0); val != nil {
		offer = val.(models.Offer)
	}
	return offer, args.Error(1)
}

func (m *OfferRepositoryMock) GetOffer(ctx context.Context, offerID string) (models.Offer, error) {
	args := m.Called(ctx, offerID)
	var offer models.Offer
	if val := args.Get(0); val != nil {
		offer = val.(models.Offer)
	}
	return offer, args.Error(1)
}

func (m *OfferRepositoryMock) ActOnOffer(ctx context.Context, offerID string, actorID string, action string) (models.Offer, error) {
	args := m.Called(ctx, offerID, actorID, action)
	var offer models.Offer
	if val := args.Get(0); val != nil {
		offer = val.(models.Offer)
	}
	return offer, args.Error(1)
}

func (m *OfferRepositoryMock) CheckOffer(ctx context.Context, chatID string, listingID string, userID string) (repositories.OfferCheck, error) {
	args := m.Called(ctx, chatID, listingID, userID)
	var check repositories.OfferCheck
	if val := args.Get(0); val != nil {
		check = val.(repositories.OfferCheck)
	}
	return check, args.Error(1)
}

func (m *OfferRepositoryMock) ExpireOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) EnsureUser(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetUsername(ctx context.Context, id string, username string) error {
	args := m.Called(ctx, id, username)
	return args.Error(0)
}

func (m *UserRepositoryMock) TouchLastActive(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ListingRepositoryMock struct {
	mock.Mock
}

func (m *ListingRepositoryMock) CreateListing(ctx context.Context, sellerID string, title string, priceSats int64) (models.Listing, error) {
	args := m.Called(ctx, sellerID, title, priceSats)
	var listing models.Listing
	if val := args.Get(0); val != nil {
		listing = val.(models.Listing)
	}
	return listing, args.Error(1)
}

func (m *ListingRepositoryMock) GetListing(ctx context.Context, id string) (models.Listing, error) {
	args := m.Called(ctx, id)
	var listing models.Listing
	if val := args.Get(0); val != nil {
		listing = val.(models.Listing)
	}
	return listing, args.Error(1)
}

func (m *ListingRepositoryMock) SetStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *ListingRepositoryMock) DeleteListing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type BlockRepositoryMock struct {
	mock.Mock
}

func (m *BlockRepositoryMock) Block(ctx context.Context, blockerID string, blockedID string) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) Unblock(ctx context.Context, blockerID string, blockedID string) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.OfferRepository = (*OfferRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.ListingRepository = (*ListingRepositoryMock)(nil)
var _ repositories.BlockRepository = (*BlockRepositoryMock)(nil)
