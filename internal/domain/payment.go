package domain

type Customer struct {
	FirstName string
	Email     string
	Phone     string
}

type PaymentItem struct {
	ID    string
	Name  string
	Price int64
}

type PaymentCallbacks struct {
	Finish  string
	Error   string
	Pending string
}

type PaymentRequest struct {
	OrderID   string
	Amount    int64
	Customer  Customer
	Item      PaymentItem
	Callbacks PaymentCallbacks
}

type PaymentSession struct {
	OrderID     string `json:"orderId"`
	Token       string `json:"snapToken"`
	RedirectURL string `json:"redirectUrl"`
}

// GatewayNotification is the body of a payment webhook, also returned by
// the gateway's transaction status query.
type GatewayNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}
