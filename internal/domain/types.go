package domain

import (
	"strings"
	"time"
)

// Gender narrows a perfume to its marketed audience.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderUnisex Gender = "unisex"
)

// PerfumeType distinguishes house originals from inspired-by blends.
type PerfumeType string

const (
	PerfumeTypeOriginal PerfumeType = "originals"
	PerfumeTypeInspired PerfumeType = "inspired"
)

// ProductVariant is a purchasable size of a product. Price fields are in
// whole rupees; a nil price means the variant is not individually priced.
type ProductVariant struct {
	Size          string `firestore:"size" json:"size"`
	Price         *int64 `firestore:"price" json:"price,omitempty"`
	DiscountPrice *int64 `firestore:"discountPrice" json:"discountPrice,omitempty"`
	InStock       bool   `firestore:"inStock" json:"inStock"`
	PhotoURL      string `firestore:"photoUrl" json:"photoUrl,omitempty"`
}

// ProductAccord is a scent family with its share of the fragrance profile.
type ProductAccord struct {
	Name       string `firestore:"name" json:"name"`
	Percentage int    `firestore:"percentage" json:"percentage"`
	ColorHex   string `firestore:"colorHex" json:"colorHex,omitempty"`
}

// Product is a catalog entry. Documents written by older admin builds may
// miss fields, so repositories decode them defensively.
type Product struct {
	ID              string           `firestore:"-" json:"id"`
	Name            string           `firestore:"name" json:"name"`
	Slug            string           `firestore:"slug" json:"slug"`
	Brand           string           `firestore:"brand" json:"brand,omitempty"`
	Gender          Gender           `firestore:"gender" json:"gender,omitempty"`
	PerfumeType     PerfumeType      `firestore:"perfumeType" json:"perfumeType,omitempty"`
	CoverImageURL   string           `firestore:"coverImageUrl" json:"coverImageUrl,omitempty"`
	DescriptionHTML string           `firestore:"descriptionHtml" json:"descriptionHtml,omitempty"`
	Variants        []ProductVariant `firestore:"variants" json:"variants"`
	MainAccords     []ProductAccord  `firestore:"mainAccords" json:"mainAccords,omitempty"`
	CreatedAt       time.Time        `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time        `firestore:"updatedAt" json:"updatedAt"`
}

// CartItem is one line of a cart. ID is the product/variant key chosen by
// the storefront; two adds with the same ID merge into one line.
type CartItem struct {
	ID       string `firestore:"id" json:"id"`
	Name     string `firestore:"name" json:"name"`
	ImageURL string `firestore:"imageUrl" json:"imageUrl,omitempty"`
	Brand    string `firestore:"brand" json:"brand,omitempty"`
	Size     string `firestore:"size" json:"size,omitempty"`
	Price    *int64 `firestore:"price" json:"price,omitempty"`
	Quantity int    `firestore:"quantity" json:"quantity"`
}

// Cart is the server-held cart for one storefront session.
type Cart struct {
	ID        string     `firestore:"-" json:"id"`
	SessionID string     `firestore:"sessionId" json:"sessionId"`
	Items     []CartItem `firestore:"items" json:"items"`
	CreatedAt time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `firestore:"updatedAt" json:"updatedAt"`
}

// Count returns the total number of units across all lines.
func (c Cart) Count() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Total sums price*quantity over lines with a known price. Lines without a
// price contribute nothing rather than failing the whole cart.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		if item.Price == nil {
			continue
		}
		total += *item.Price * int64(item.Quantity)
	}
	return total
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus normalises raw input into a known status.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusProcessing:
		return OrderStatusProcessing, true
	case OrderStatusCompleted:
		return OrderStatusCompleted, true
	case OrderStatusCancelled:
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD         PaymentMethod = "cod"
	PaymentMethodBankDeposit PaymentMethod = "bank_deposit"
)

// ParsePaymentMethod normalises raw input into a known payment method.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentMethodCOD:
		return PaymentMethodCOD, true
	case PaymentMethodBankDeposit:
		return PaymentMethodBankDeposit, true
	default:
		return "", false
	}
}

// OrderItem is a cart line frozen into an order. Unlike CartItem the price
// is resolved; unpriced lines are stored with price zero.
type OrderItem struct {
	ProductID string `firestore:"productId" json:"productId"`
	Name      string `firestore:"name" json:"name"`
	ImageURL  string `firestore:"imageUrl" json:"imageUrl,omitempty"`
	Brand     string `firestore:"brand" json:"brand,omitempty"`
	Size      string `firestore:"size" json:"size,omitempty"`
	Price     int64  `firestore:"price" json:"price"`
	Quantity  int    `firestore:"quantity" json:"quantity"`
}

// Customer is the contact block captured at checkout.
type Customer struct {
	Name    string `firestore:"name" json:"name"`
	Phone   string `firestore:"phone" json:"phone"`
	Address string `firestore:"address" json:"address"`
	City    string `firestore:"city" json:"city"`
	Email   string `firestore:"email" json:"email,omitempty"`
	Notes   string `firestore:"notes" json:"notes,omitempty"`
}

// Order is the persisted record of a placed order. Money fields are frozen
// at creation; status updates never touch them.
type Order struct {
	ID            string        `firestore:"-" json:"id"`
	OrderNumber   string        `firestore:"orderNumber" json:"orderNumber"`
	Items         []OrderItem   `firestore:"items" json:"items"`
	Subtotal      int64         `firestore:"subtotal" json:"subtotal"`
	DeliveryFee   int64         `firestore:"deliveryFee" json:"deliveryFee"`
	Total         int64         `firestore:"total" json:"total"`
	Status        OrderStatus   `firestore:"status" json:"status"`
	PaymentMethod PaymentMethod `firestore:"paymentMethod" json:"paymentMethod"`
	BankSlipURL   string        `firestore:"bankSlipUrl" json:"bankSlipUrl,omitempty"`
	Customer      Customer      `firestore:"customer" json:"customer"`
	CreatedAt     time.Time     `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `firestore:"updatedAt" json:"updatedAt"`
}

// DefaultDeliveryFee applies when the settings document is missing or has
// no usable fee.
const DefaultDeliveryFee int64 = 350

// StoreSettings is the singleton store configuration document.
type StoreSettings struct {
	DeliveryFee int64     `firestore:"deliveryFee" json:"deliveryFee"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// OrderMetrics is the per-status breakdown shown on the admin dashboard.
type OrderMetrics struct {
	Total      int   `json:"total"`
	Pending    int   `json:"pending"`
	Processing int   `json:"processing"`
	Completed  int   `json:"completed"`
	Cancelled  int   `json:"cancelled"`
	Revenue    int64 `json:"revenue"`
}

// ComputeOrderMetrics recomputes counts and completed-order revenue from a
// full order list. Linear scan; the store operates at boutique scale.
func ComputeOrderMetrics(orders []Order) OrderMetrics {
	m := OrderMetrics{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case OrderStatusPending:
			m.Pending++
		case OrderStatusProcessing:
			m.Processing++
		case OrderStatusCompleted:
			m.Completed++
			m.Revenue += o.Total
		case OrderStatusCancelled:
			m.Cancelled++
		}
	}
	return m
}
