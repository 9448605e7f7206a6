// Package session tracks the signed-in account and its shopping cart.
package session

import (
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

// Session carries the state of one signed-in user. It is created on login
// and discarded on logout; nothing about the current user lives outside it.
type Session struct {
	AccountID string
	Username  string
	Role      ledger.Role
	Cart      *ledger.Cart
}

// New opens a session for a freshly authenticated account.
func New(account ledger.Account) *Session {
	return &Session{
		AccountID: account.AccountID,
		Username:  account.Username,
		Role:      account.Role,
		Cart:      ledger.NewCart(),
	}
}

// IsAdmin reports whether the session may open the admin panel.
func (session *Session) IsAdmin() bool {
	return session.Role.CanAccessAdminPanel()
}

// IsPrimaryAdmin reports whether the session may switch between the
// customer gateway and the admin panel.
func (session *Session) IsPrimaryAdmin() bool {
	return session.Role.CanAccessGatewayMenu()
}
