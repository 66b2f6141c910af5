package model

// Product is a tradable instrument as known to the catalog.
type Product struct {
	ID            string `json:"product_id" db:"product_id"`
	BaseCurrency  string `json:"base_currency" db:"base_currency"`
	QuoteCurrency string `json:"quote_currency" db:"quote_currency"`
	DisplayName   string `json:"display_name" db:"display_name"`
	Status        string `json:"status" db:"status"`
}

// Name returns the display name, falling back to the product id.
func (p Product) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}
