package bank

// Bank is a transfer destination known to the gateway.
type Bank struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Slug          string `json:"slug,omitempty"`
	Swift         string `json:"swift,omitempty"`
	AcctLength    int    `json:"acctLength,omitempty"`
	Currency      string `json:"currency,omitempty"`
	IsActive      bool   `json:"isActive"`
	IsMobileMoney bool   `json:"isMobileMoney"`
}

// Find returns the bank with the given code.
func Find(banks []Bank, code string) (Bank, bool) {
	for _, b := range banks {
		if b.Code == code {
			return b, true
		}
	}
	return Bank{}, false
}
