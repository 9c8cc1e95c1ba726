package transaction

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Type classifies the direction of a transaction.
type Type string

const (
	TypePayment  Type = "payment"
	TypePayout   Type = "payout"
	TypeTransfer Type = "transfer"
	TypeRefund   Type = "refund"
)

// Currency codes accepted for payments.
const (
	CurrencyETB = "ETB"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// Transaction is a payment recorded for a user.
type Transaction struct {
	domain.Model
	UserID      string            `json:"userId"`
	Amount      decimal.Decimal   `json:"amount"`
	Currency    string            `json:"currency"`
	Status      Status            `json:"status"`
	Type        Type              `json:"type"`
	Reference   string            `json:"reference"`
	Description string            `json:"description,omitempty"`
	Recipient   string            `json:"recipient,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (t *Transaction) GetReference() string { return t.Reference }

// StatusFor projects a gateway status onto the transaction enum.
func StatusFor(s domain.GatewayStatus) Status {
	switch s {
	case domain.GatewaySucceeded:
		return StatusSuccess
	case domain.GatewayFailed:
		return StatusFailed
	case domain.GatewayProcessing:
		return StatusProcessing
	default:
		return StatusPending
	}
}

// ApplyGatewayStatus sets the projected status and reports whether it changed.
func (t *Transaction) ApplyGatewayStatus(s domain.GatewayStatus) bool {
	next := StatusFor(s)
	if t.Status == next {
		return false
	}
	t.Status = next
	return true
}

// Cancellable reports whether the transaction may still be cancelled.
func (t *Transaction) Cancellable() bool {
	return t.Status == StatusPending || t.Status == StatusProcessing
}

// Filter narrows a transaction list. Zero values mean "no constraint".
type Filter struct {
	UserID    string           `json:"userId,omitempty"`
	Status    Status           `json:"status,omitempty"`
	Type      Type             `json:"type,omitempty"`
	Search    string           `json:"search,omitempty"`
	MinAmount *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

// DefaultLimit is the page size used when Filter.Limit is unset.
const DefaultLimit = 10

// Params renders the filter as flat key/value pairs for cache keys and
// query strings. Unset fields are omitted.
func (f Filter) Params() map[string]string {
	p := make(map[string]string)
	if f.UserID != "" {
		p["userId"] = f.UserID
	}
	if f.Status != "" {
		p["status"] = string(f.Status)
	}
	if f.Type != "" {
		p["type"] = string(f.Type)
	}
	if f.Search != "" {
		p["search"] = f.Search
	}
	if f.MinAmount != nil {
		p["minAmount"] = f.MinAmount.String()
	}
	if f.MaxAmount != nil {
		p["maxAmount"] = f.MaxAmount.String()
	}
	p["limit"] = strconv.Itoa(f.limit())
	if f.Offset > 0 {
		p["offset"] = strconv.Itoa(f.Offset)
	}
	return p
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Matches reports whether t belongs in a list narrowed by f.
func (f Filter) Matches(t Transaction) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Reference), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Recipient), q) {
			return false
		}
	}
	return true
}

// Page is one window of a filtered list. It remembers the filter that built
// it so single-row updates can keep it consistent.
type Page struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	HasMore      bool          `json:"hasMore"`

	filter Filter
}

// Filter returns the filter the page was built with.
func (p Page) Filter() Filter { return p.filter }

func (p Page) complete() bool { return max(p.filter.Offset, 0) == 0 && !p.HasMore }

// Merge writes an updated row into the page. It reports false when the page
// cannot be kept consistent without the rows around it, in which case p is
// returned unchanged and must be rebuilt from the full list.
func (p Page) Merge(t Transaction) (Page, bool) {
	i := slices.IndexFunc(p.Transactions, func(x Transaction) bool { return x.ID == t.ID })
	switch {
	case i < 0 && p.complete() && !p.filter.Matches(t):
		return p, true
	case i < 0:
		return p, false
	case p.filter.Matches(t):
		p.Transactions = slices.Clone(p.Transactions)
		p.Transactions[i] = t
		return p, true
	case p.HasMore:
		return p, false
	default:
		return p.Without(t.ID), true
	}
}

// Without drops the row with id and shrinks Total to match. Rows from the
// following page are not pulled in.
func (p Page) Without(id string) Page {
	i := slices.IndexFunc(p.Transactions, func(x Transaction) bool { return x.ID == id })
	if i < 0 {
		return p
	}
	p.Transactions = slices.Delete(slices.Clone(p.Transactions), i, i+1)
	p.Total--
	p.HasMore = max(p.filter.Offset, 0)+len(p.Transactions) < p.Total
	return p
}

// Apply filters, sorts newest first and paginates all.
func (f Filter) Apply(all []Transaction) Page {
	matched := make([]Transaction, 0, len(all))
	for _, t := range all {
		if f.Matches(t) {
			matched = append(matched, t)
		}
	}
	SortNewestFirst(matched)
	total := len(matched)
	start := min(max(f.Offset, 0), total)
	end := min(start+f.limit(), total)
	return Page{
		Transactions: matched[start:end],
		Total:        total,
		HasMore:      end < total,
		filter:       f,
	}
}

// SortNewestFirst orders by CreatedAt descending, ties by id.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
