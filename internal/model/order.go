package model

import "time"

const (
	StatusCreated    = "created"
	StatusProcessing = "processing"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID              string    `json:"id"`
	Template        string    `json:"template"`
	Price           float64   `json:"price"`
	DeliveryTime    string    `json:"deliveryTime"`
	Customer        Customer  `json:"customer"`
	Lyrics          string    `json:"lyrics"`
	Status          string    `json:"status"`
	AudioURL        string    `json:"audioUrl,omitempty"`
	ClientTimestamp string    `json:"timestamp,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TemplateData is the template metadata echoed back by the ordering client.
type TemplateData struct {
	Name         string  `json:"name,omitempty"`
	Price        float64 `json:"price"`
	DeliveryTime string  `json:"deliveryTime"`
}

type OrderRequest struct {
	Template     string            `json:"template"`
	TemplateData *TemplateData     `json:"templateData"`
	FormData     map[string]string `json:"formData"`
	Timestamp    string            `json:"timestamp"`
}

// Acknowledgment is returned to the caller before delivery starts.
type Acknowledgment struct {
	Success           bool      `json:"success"`
	OrderID           string    `json:"orderId"`
	Message           string    `json:"message"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
}
