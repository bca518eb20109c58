package ledger

// Listing is a marketplace offer.
//
// INVARIANTS:
//   - Sold <= Qty at all times
//   - Active is forced false once Sold == Qty
//   - a listing with Sold > 0 cannot be deleted
type Listing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	SellerID string `json:"sellerId"`
	Active   bool   `json:"active"`
	Qty      int    `json:"qty"`
	Sold     int    `json:"sold"`
}

// InStock reports whether the listing still has unsold capacity.
func (l *Listing) InStock() bool {
	return l.Sold < l.Qty
}

// ReleaseUnit returns one sold unit to stock after a cancellation or
// refund, reasserting Active when capacity remains.
func (l *Listing) ReleaseUnit() {
	if l.Sold > 0 {
		l.Sold--
	}
	if l.InStock() {
		l.Active = true
	}
}

// TakeUnit consumes one unit of stock, deactivating on sell-out.
// Callers must check InStock first.
func (l *Listing) TakeUnit() {
	l.Sold++
	if l.Sold >= l.Qty {
		l.Active = false
	}
}
