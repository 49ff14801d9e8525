// Package valueobject contains domain value objects for the insights service.
package valueobject

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ScopeKind selects which accounts a query covers.
type ScopeKind string

const (
	ScopeAll           ScopeKind = "all"
	ScopeAccount       ScopeKind = "account"
	ScopeUnifiedDebit  ScopeKind = "unified_debit"
	ScopeUnifiedCredit ScopeKind = "unified_credit"
)

// AccountScope is the account filter of a query.
type AccountScope struct {
	Kind      ScopeKind
	AccountID uuid.UUID // Set when Kind is ScopeAccount
}

// AllAccounts is the scope covering every visible account.
var AllAccounts = AccountScope{Kind: ScopeAll}

// SingleAccount returns the scope for one account. The account may itself be
// a unified account, which is resolved at query time.
func SingleAccount(id uuid.UUID) AccountScope {
	return AccountScope{Kind: ScopeAccount, AccountID: id}
}

// ParseAccountScope parses "all", "unified_debit", "unified_credit" or "account:<uuid>".
// An empty string means all accounts.
func ParseAccountScope(s string) (AccountScope, error) {
	switch s {
	case "", string(ScopeAll):
		return AllAccounts, nil
	case string(ScopeUnifiedDebit):
		return AccountScope{Kind: ScopeUnifiedDebit}, nil
	case string(ScopeUnifiedCredit):
		return AccountScope{Kind: ScopeUnifiedCredit}, nil
	}

	raw, ok := strings.CutPrefix(s, string(ScopeAccount)+":")
	if !ok {
		return AccountScope{}, fmt.Errorf("unknown account scope %q", s)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return AccountScope{}, fmt.Errorf("parse account id %q: %w", raw, err)
	}
	return SingleAccount(id), nil
}

// String formats the scope in the form accepted by ParseAccountScope.
func (s AccountScope) String() string {
	if s.Kind == ScopeAccount {
		return string(ScopeAccount) + ":" + s.AccountID.String()
	}
	if s.Kind == "" {
		return string(ScopeAll)
	}
	return string(s.Kind)
}
