// Package provider is the client for the payment provider's HTTP API:
// transactions (payment intents), physical readers, and hosted checkout
// sessions. Amounts are minor currency units throughout.
package provider

// Transaction statuses reported by the provider.
const (
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusRequiresConfirmation  = "requires_confirmation"
	IntentStatusRequiresCapture       = "requires_capture"
	IntentStatusProcessing            = "processing"
	IntentStatusSucceeded             = "succeeded"
	IntentStatusCanceled              = "canceled"
)

// Payment method types a transaction can accept.
const (
	MethodCardPresent = "card_present"
	MethodPushPayment = "push_payment"
)

// MetadataOrderKey is the metadata key carrying the POS order id on every
// transaction and checkout session, so a webhook or poll can resolve the
// order without a lookup table.
const MetadataOrderKey = "pos_order_id"

type Intent struct {
	ID                string            `json:"id"`
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency"`
	Status            string            `json:"status"`
	CaptureMethod     string            `json:"capture_method"`
	PaymentMethods    []string          `json:"payment_method_types"`
	PaymentMethodType string            `json:"payment_method_type,omitempty"`
	ChargeID          string            `json:"charge_id,omitempty"`
	ReceiptURL        string            `json:"receipt_url,omitempty"`
	LastErrorCode     string            `json:"last_error_code,omitempty"`
	LastErrorMessage  string            `json:"last_error_message,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Created           int64             `json:"created"`
}

// OrderID returns the POS order id embedded in the transaction metadata.
func (i *Intent) OrderID() string {
	return i.Metadata[MetadataOrderKey]
}

type CreateIntentParams struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	CaptureMethod  string            `json:"capture_method,omitempty"`
	PaymentMethods []string          `json:"payment_method_types,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Reader is a physical payment terminal registered with the provider.
type Reader struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	DeviceType   string `json:"device_type,omitempty"`
	Status       string `json:"status"` // online | offline
	SerialNumber string `json:"serial_number,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
	ActionStatus string `json:"action_status,omitempty"`
}

// Checkout session statuses.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	SessionPaid   = "paid"
	SessionUnpaid = "unpaid"
)

type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	IntentID      string            `json:"payment_intent,omitempty"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// OrderID returns the POS order id embedded in the session metadata.
func (s *CheckoutSession) OrderID() string {
	return s.Metadata[MetadataOrderKey]
}

type CreateCheckoutParams struct {
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
