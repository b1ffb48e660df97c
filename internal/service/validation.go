package service

import (
	"net/mail"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// ValidateCreateOrderRequest validates a checkout submission.
func ValidateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if req == nil {
		return errors.NewValidationError("body", "request body is required")
	}

	if strings.TrimSpace(req.PaymentID) == "" {
		return errors.NewValidationError("paymentId", "payment ID is required")
	}

	if err := ValidateDeliveryInfo(&req.DeliveryInfo); err != nil {
		return err
	}

	if len(req.Items.Items()) == 0 {
		return errors.NewValidationError("items", "at least one item with a positive quantity is required")
	}

	if req.TotalCost < 0 {
		return errors.NewValidationError("totalCost", "total cost cannot be negative")
	}

	return nil
}

// ValidateDeliveryInfo checks that every mandatory delivery field is present.
func ValidateDeliveryInfo(info *models.DeliveryInfo) error {
	required := []struct {
		field string
		value string
	}{
		{"deliveryInfo.firstName", info.FirstName},
		{"deliveryInfo.lastName", info.LastName},
		{"deliveryInfo.email", info.Email},
		{"deliveryInfo.phone", info.Phone},
		{"deliveryInfo.address", info.Address},
		{"deliveryInfo.city", info.City},
		{"deliveryInfo.postalCode", info.PostalCode},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.NewValidationError(r.field, "is required")
		}
	}

	if !isValidEmail(info.Email) {
		return errors.NewValidationError("deliveryInfo.email", "invalid email format")
	}

	return nil
}

// ValidateCreateIntentRequest validates a payment intent request.
func ValidateCreateIntentRequest(req *models.CreateIntentRequest) error {
	if req == nil {
		return errors.NewValidationError("body", "request body is required")
	}
	if req.Amount <= 0 {
		return errors.NewValidationError("amount", "amount must be positive")
	}
	if ToMinorUnits(req.Amount) <= 0 {
		return errors.NewValidationError("amount", "amount is below the smallest currency unit")
	}
	if req.Currency != "" && len(req.Currency) != 3 {
		return errors.NewValidationError("currency", "currency must be a 3-letter ISO code")
	}
	return nil
}

// ValidateVerifyPaymentRequest checks the checkout callback fields.
func ValidateVerifyPaymentRequest(req *models.VerifyPaymentRequest) error {
	if req.IntentID == "" {
		return errors.NewValidationError("razorpay_order_id", "is required")
	}
	if req.PaymentID == "" {
		return errors.NewValidationError("razorpay_payment_id", "is required")
	}
	if req.Signature == "" {
		return errors.NewValidationError("razorpay_signature", "is required")
	}
	return nil
}

// ValidateSignupRequest validates a new account.
func ValidateSignupRequest(req *models.SignupRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return errors.NewValidationError("username", "username is required")
	}
	if !isValidEmail(req.Email) {
		return errors.NewValidationError("email", "invalid email format")
	}
	if len(req.Password) < 6 {
		return errors.NewValidationError("password", "password must be at least 6 characters")
	}
	return nil
}

// ValidateAddProductRequest validates a catalog entry.
func ValidateAddProductRequest(req *models.AddProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError("name", "name is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return errors.NewValidationError("category", "category is required")
	}
	if req.NewPrice < 0 || req.OldPrice < 0 {
		return errors.NewValidationError("new_price", "prices cannot be negative")
	}
	return nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
