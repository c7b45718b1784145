package domain

import (
	"encoding/json"
	"time"
)

// Status de pagamento. O status é texto livre na base; estas são as
// constantes observadas pelo sistema.
const (
	PaymentToPay   = "A Pagar"
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Payment representa uma cobrança de consulta.
// Um pagamento criado a partir de um agendamento herda a data da consulta
// como vencimento e nasce com o status "A Pagar".
type Payment struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patientId"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	DueDate       time.Time `json:"dueDate"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relações (preenchidas apenas nas listagens com join)
	Patient *Patient `json:"patient,omitempty"`
}

// PaymentRequest é o payload de entrada para criação/atualização direta de pagamento.
// Amount aceita número ou string JSON (json.Number) e é coagido para decimal
// pelo serviço.
type PaymentRequest struct {
	PatientID     string      `json:"patientId"`
	AppointmentID string      `json:"appointmentId"`
	Amount        json.Number `json:"amount"`
	Status        string      `json:"status"`
	DueDate       string      `json:"dueDate"`
}
