package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	card := "4111111111111111"

	assert.Equal(t, "topup:find_by_id:id:7", ByID(EntityTopup, 7))
	assert.True(t, strings.HasPrefix(ByCard(EntitySaldo, card), "saldo:find_by_card:card:"))
	assert.NotContains(t, ByCard(EntitySaldo, card), card)
	assert.Equal(t, ByCard(EntitySaldo, card), ByCard(EntitySaldo, card))
	assert.NotEqual(t, ByCard(EntitySaldo, card), ByCard(EntitySaldo, "4000000000000002"))
	assert.Equal(t, "transaction:find_by_merchant:merchant:3:page:1:size:10", ByMerchant(EntityTransaction, 3, 1, 10))
}

func TestPatterns(t *testing.T) {
	assert.Equal(t, "topup:find_all:*", AllLists(EntityTopup))
	assert.True(t, strings.HasPrefix(List(EntityTopup, 2, 20, "x"), "topup:find_all:"))
	assert.Equal(t, "transaction:find_by_merchant:merchant:3:*", AllByMerchant(EntityTransaction, 3))
	assert.Equal(t, "withdraw:*", AllOf(EntityWithdraw))
	assert.False(t, strings.HasPrefix(GenerationKey("withdraw"), "withdraw:"))

	assert.True(t, IsPattern(AllLists(EntityTopup)))
	assert.False(t, IsPattern(ByID(EntityTopup, 1)))
}
