package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type EntityType string

const (
	EntitySaldo       EntityType = "saldo"
	EntityCard        EntityType = "card"
	EntityMerchant    EntityType = "merchant"
	EntityTopup       EntityType = "topup"
	EntityWithdraw    EntityType = "withdraw"
	EntityTransfer    EntityType = "transfer"
	EntityTransaction EntityType = "transaction"
)

type KeyType string

const (
	KeyFindByID       KeyType = "find_by_id"
	KeyFindAll        KeyType = "find_all"
	KeyFindByCard     KeyType = "find_by_card"
	KeyFindByMerchant KeyType = "find_by_merchant"
	KeyFindByAPIKey   KeyType = "find_by_api_key"
)

// Fingerprint hashes a card number, api key or search term so raw values
// never appear in cache keys.
func Fingerprint(value string) string {
	return strconv.FormatUint(xxhash.Sum64String(value), 16)
}

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(string(entity))
	b.WriteByte(':')
	b.WriteString(string(keyType))
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

func ByID(entity EntityType, id uint) string {
	return GenerateKey(entity, KeyFindByID, "id", id)
}

func ByCard(entity EntityType, card string) string {
	return GenerateKey(entity, KeyFindByCard, "card", Fingerprint(card))
}

func List(entity EntityType, page, pageSize int, search string) string {
	return GenerateKey(entity, KeyFindAll, "page", page, "size", pageSize, "search", Fingerprint(search))
}

func ByMerchant(entity EntityType, merchantID uint, page, pageSize int) string {
	return GenerateKey(entity, KeyFindByMerchant, "merchant", merchantID, "page", page, "size", pageSize)
}

func ByAPIKey(entity EntityType, apiKey string, page, pageSize int) string {
	return GenerateKey(entity, KeyFindByAPIKey, "key", Fingerprint(apiKey), "page", page, "size", pageSize)
}

// Patterns used for invalidation. They follow Redis glob syntax.

func AllLists(entity EntityType) string {
	return GenerateKey(entity, KeyFindAll) + ":*"
}

// AllOf matches every key of entity.
func AllOf(entity EntityType) string {
	return string(entity) + ":*"
}

func AllByMerchant(entity EntityType, merchantID uint) string {
	return GenerateKey(entity, KeyFindByMerchant, "merchant", merchantID) + ":*"
}

func AllByAPIKey(entity EntityType, apiKey string) string {
	return GenerateKey(entity, KeyFindByAPIKey, "key", Fingerprint(apiKey)) + ":*"
}

// GenerationKey holds the invalidation counter of an entity. It sits outside
// every entity namespace so no invalidation pattern can match it.
func GenerationKey(entity string) string {
	return "generation:" + entity
}

// IsPattern reports whether key contains glob metacharacters.
func IsPattern(key string) bool {
	return strings.ContainsAny(key, "*?[")
}
