package entity

// Delegation lets Delegate move up to Amount units of Asset out of Owner's custody.
// There is at most one per (Asset, Owner).
type Delegation struct {
	Asset    string `json:"asset"`
	Owner    string `json:"owner"`
	Delegate string `json:"delegate"`
	Amount   uint64 `json:"amount"`
}
