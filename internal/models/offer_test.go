package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferIsExpiredAt(t *testing.T) {
	now := time.Now()

	open := Offer{}
	assert.False(t, open.IsExpiredAt(now), "offer without expiry never expires")

	future := Offer{ExpiresAt: sql.NullTime{Time: now.Add(time.Hour), Valid: true}}
	assert.False(t, future.IsExpiredAt(now))

	past := Offer{ExpiresAt: sql.NullTime{Time: now.Add(-time.Second), Valid: true}}
	assert.True(t, past.IsExpiredAt(now))

	exact := Offer{ExpiresAt: sql.NullTime{Time: now, Valid: true}}
	assert.True(t, exact.IsExpiredAt(now))
}

func TestValidAction(t *testing.T) {
	assert.True(t, ValidAction(ActionAccept))
	assert.True(t, ValidAction(ActionDecline))
	assert.True(t, ValidAction(ActionRevoke))
	assert.False(t, ValidAction("haggle"))
	assert.False(t, ValidAction(""))
}

func TestActionTarget(t *testing.T) {
	cases := map[string]string{
		ActionAccept:  OfferAccepted,
		ActionDecline: OfferDeclined,
		ActionRevoke:  OfferRevoked,
	}
	for action, want := range cases {
		got, err := ActionTarget(action)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ActionTarget("haggle")
	assert.Error(t, err)
}

func TestActorFor(t *testing.T) {
	offer := Offer{FromUserID: "proposer", ToUserID: "recipient"}

	assert.Equal(t, "recipient", offer.ActorFor(ActionAccept))
	assert.Equal(t, "recipient", offer.ActorFor(ActionDecline))
	assert.Equal(t, "proposer", offer.ActorFor(ActionRevoke))
}

func TestChatParticipants(t *testing.T) {
	chat := Chat{BuyerID: "u1", SellerID: "u2"}

	assert.True(t, chat.HasParticipant("u1"))
	assert.True(t, chat.HasParticipant("u2"))
	assert.False(t, chat.HasParticipant("u3"))
	assert.Equal(t, "u2", chat.OtherParticipant("u1"))
	assert.Equal(t, "u1", chat.OtherParticipant("u2"))
}

func TestMessageViewFor(t *testing.T) {
	msg := Message{ID: 5, ChatID: "c1", SenderID: "u1", Text: "hi"}

	mine := msg.ViewFor("u1")
	assert.True(t, mine.IsFromCurrentUser)

	theirs := msg.ViewFor("u2")
	assert.False(t, theirs.IsFromCurrentUser)
	assert.Equal(t, "hi", theirs.Text)
}
