package model

type DonationStatus string

const (
	StatusPending DonationStatus = "PENDING"
	StatusSuccess DonationStatus = "SUCCESS"
	StatusFailed  DonationStatus = "FAILED"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a donation may move from -> to.
// SUCCESS -> FAILED is an operator-only regression and needs override.
// Re-asserting the current status is always allowed; nothing returns to PENDING.
func CanTransition(from, to DonationStatus, override bool) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	switch to {
	case StatusPending:
		return false
	case StatusSuccess:
		return true
	case StatusFailed:
		if from == StatusSuccess {
			return override
		}
		return true
	}
	return false
}
