package ledger

import "slices"

// State is the domain half of a snapshot: every entity the merge engine
// mutates, plus the monotonic version counter polled by clients.
//
// Entities live in slices, not maps, because State round-trips through
// JSON as a document and slice order is part of the contract: Txs and
// Notifications are newest-first, Users/Listings/Rights are in creation
// order.
type State struct {
	Users         []User         `json:"users"`
	Txs           []Transaction  `json:"txs"`
	Listings      []Listing      `json:"listings"`
	Rights        []Right        `json:"rights"`
	Notifications []Notification `json:"notifications"`

	// VTick increments on every successful mutating operation. Polling
	// clients compare it against their last seen value.
	VTick int64 `json:"vTick"`
}

// NewState creates an empty state holding only the house account.
// The house starts at zero balance; fees and roulette entry fees fund it.
func NewState() *State {
	return &State{
		Users: []User{{ID: HouseID, Name: HouseName}},
	}
}

// User returns the user with the given id, or nil.
func (s *State) User(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// UserByName returns the user whose normalized name matches, or nil.
func (s *State) UserByName(name string) *User {
	want := NormalizeName(name)
	for i := range s.Users {
		if NormalizeName(s.Users[i].Name) == want {
			return &s.Users[i]
		}
	}
	return nil
}

// House returns the pooled house account.
// The house always exists in a well-formed state.
func (s *State) House() *User {
	return s.User(HouseID)
}

// Listing returns the listing with the given id, or nil.
func (s *State) Listing(id string) *Listing {
	for i := range s.Listings {
		if s.Listings[i].ID == id {
			return &s.Listings[i]
		}
	}
	return nil
}

// Right returns the right with the given id, or nil.
func (s *State) Right(id string) *Right {
	for i := range s.Rights {
		if s.Rights[i].ID == id {
			return &s.Rights[i]
		}
	}
	return nil
}

// RemoveListing deletes a listing by id. Reports whether it was present.
func (s *State) RemoveListing(id string) bool {
	for i := range s.Listings {
		if s.Listings[i].ID == id {
			s.Listings = slices.Delete(s.Listings, i, i+1)
			return true
		}
	}
	return false
}

// RemoveRight deletes a right by id. Reports whether it was present.
func (s *State) RemoveRight(id string) bool {
	for i := range s.Rights {
		if s.Rights[i].ID == id {
			s.Rights = slices.Delete(s.Rights, i, i+1)
			return true
		}
	}
	return false
}

// PrependTx inserts a ledger entry at the head (newest first).
func (s *State) PrependTx(tx Transaction) {
	s.Txs = slices.Insert(s.Txs, 0, tx)
}

// PrependNotification inserts a notification at the head (newest first).
func (s *State) PrependNotification(n Notification) {
	s.Notifications = slices.Insert(s.Notifications, 0, n)
}

// TotalBalance sums every user balance including the house. Used by the
// conservation checks: transfer/buy/roulette never change this sum.
func (s *State) TotalBalance() int64 {
	var total int64
	for i := range s.Users {
		total += s.Users[i].Balance
	}
	return total
}

// Clone deep-copies the state. Merge passes mutate only the clone so the
// caller's snapshot is never aliased.
func (s *State) Clone() *State {
	return &State{
		Users:         slices.Clone(s.Users),
		Txs:           slices.Clone(s.Txs),
		Listings:      slices.Clone(s.Listings),
		Rights:        slices.Clone(s.Rights),
		Notifications: slices.Clone(s.Notifications),
		VTick:         s.VTick,
	}
}
