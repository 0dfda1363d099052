package dto

type CheckoutRes struct {
	Code        string `json:"code"`
	CheckoutURL string `json:"checkout_url"`
	ReturnURL   string `json:"return_url"`
}

type ValidateAccessReq struct {
	Code string `json:"code" binding:"required"`
}

type ValidateAccessRes struct {
	Granted bool `json:"granted"`
}
