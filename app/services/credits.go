package services

import (
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"socialpost/app/models"

	"golang.org/x/crypto/blake2b"
)

// GenerationKey derives the idempotency key of a request that carries no
// request id from its product, trimmed prompt and platform set. Platform
// order does not change the key.
func GenerationKey(productID, prompt string, platforms []models.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	sort.Strings(names)
	digest := blake2b.Sum256([]byte(strings.Join([]string{
		strings.TrimSpace(productID),
		strings.TrimSpace(prompt),
		strings.Join(names, ","),
	}, "|")))
	return "gen:" + hex.EncodeToString(digest[:16])
}

// CreditLedger tracks the generation credits of the shop. Deductions are
// idempotent: a key that was already charged is never charged again.
type CreditLedger struct {
	mutex   sync.Mutex
	balance int
	charged map[string]int
}

// NewCreditLedger creates a ledger with an opening balance.
func NewCreditLedger(balance int) *CreditLedger {
	if balance < 0 {
		balance = 0
	}
	return &CreditLedger{
		balance: balance,
		charged: make(map[string]int),
	}
}

// Balance returns the remaining credits.
func (l *CreditLedger) Balance() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.balance
}

// Check reports an InsufficientCreditsError when amount cannot be covered.
func (l *CreditLedger) Check(amount int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.balance < amount || l.balance <= 0 {
		return &InsufficientCreditsError{Balance: l.balance, Required: amount}
	}
	return nil
}

// Charged reports whether key has already been charged.
func (l *CreditLedger) Charged(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	_, ok := l.charged[key]
	return ok
}

// Deduct charges amount under key. It returns false without charging when
// the key was charged before.
func (l *CreditLedger) Deduct(key string, amount int) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if _, ok := l.charged[key]; ok {
		return false, nil
	}
	if l.balance < amount || l.balance <= 0 {
		return false, &InsufficientCreditsError{Balance: l.balance, Required: amount}
	}
	l.balance -= amount
	l.charged[key] = amount
	return true, nil
}

// Grant adds credits, e.g. after a purchase.
func (l *CreditLedger) Grant(amount int) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if amount > 0 {
		l.balance += amount
	}
	return l.balance
}
