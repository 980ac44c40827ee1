package domain

import "fmt"

// Purchase error codes. These indicate data-integrity problems that need
// manual reconciliation, so they carry enough context to follow up.
const (
	ErrCodeNoEmail             = "no-email"
	ErrCodeNoAssociatedProduct = "no-associated-product"
)

// PurchaseError is a fatal domain error raised while recording a purchase.
type PurchaseError struct {
	Code              string
	CheckoutSessionID string
	Email             string
	ProductIdentifier string
}

func (e *PurchaseError) Error() string {
	return fmt.Sprintf("purchase error %s: session=%s email=%s product=%s",
		e.Code, e.CheckoutSessionID, e.Email, e.ProductIdentifier)
}

func NewPurchaseError(code, checkoutSessionID, email, productIdentifier string) *PurchaseError {
	return &PurchaseError{
		Code:              code,
		CheckoutSessionID: checkoutSessionID,
		Email:             email,
		ProductIdentifier: productIdentifier,
	}
}
