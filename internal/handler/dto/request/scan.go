package request

type ScanRequest struct {
	Code string `json:"code" binding:"required"`
}

type ConfirmPaymentRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}
