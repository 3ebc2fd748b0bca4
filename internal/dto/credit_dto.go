package dto

type CreditBalanceResponse struct {
	Credits       int  `json:"credits"`
	Authenticated bool `json:"authenticated"`
}
