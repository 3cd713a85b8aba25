package port

import (
	"context"
	"io"

	"github.com/garyjia/training-procurement/internal/domain/entity"
)

// SessionStore issues and resolves bearer tokens for authenticated identities
type SessionStore interface {
	Issue(ctx context.Context, identity entity.Identity) (string, error)
	Resolve(ctx context.Context, token string) (entity.Identity, error)
	Revoke(ctx context.Context, token string) error
}

// PasswordHasher hashes and verifies user passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AlertSender delivers operator alerts (partial failures, inconsistencies)
type AlertSender interface {
	SendAlert(ctx context.Context, title string, lines []string) error
}

// LedgerExporter renders invoices as a spreadsheet
type LedgerExporter interface {
	WriteLedger(ctx context.Context, invoices []*entity.Invoice, w io.Writer) error
}
