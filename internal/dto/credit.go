package dto

// CreditBalanceDTO represents the credit balance of a user or organization
type CreditBalanceDTO struct {
	OrganizationID   *uint64 `json:"organization_id,omitempty"`
	OrganizationName string  `json:"organization_name,omitempty"`
	Unspent          int64   `json:"unspent"`
	Spent            int64   `json:"spent"`
}

// CreditsResponse lists the user's balance and each organization's balance
type CreditsResponse struct {
	User          CreditBalanceDTO   `json:"user"`
	Organizations []CreditBalanceDTO `json:"organizations"`
}
