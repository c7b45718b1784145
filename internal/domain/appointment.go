package domain

import (
	"encoding/json"
	"time"
)

// Status possíveis de uma consulta. "scheduled" é o padrão na criação.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Modalidades de atendimento.
const (
	AppointmentRemote   = "remoto"
	AppointmentInPerson = "presencial"
)

// Appointment representa uma consulta agendada.
// Toda consulta pertence a exatamente um paciente e ao psicólogo padrão;
// os pagamentos associados são mantidos consistentes pelo serviço de consultas.
type Appointment struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patientId"`
	PsychologistID string    `json:"psychologistId"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
	Type           string    `json:"type,omitempty"`
	Link           string    `json:"link,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relações (preenchidas apenas nas listagens com join)
	Patient  *Patient  `json:"patient,omitempty"`
	Payments []Payment `json:"payments,omitempty"`
}

// AppointmentRequest é o payload de entrada para agendar ou remarcar uma consulta.
// Date chega como string; Amount aceita número ou string JSON (json.Number) e
// é coagido para decimal pelo serviço antes de qualquer acesso ao banco.
type AppointmentRequest struct {
	PatientID string      `json:"patientId"`
	Date      string      `json:"date"`
	Amount    json.Number `json:"amount"`
	Type      string      `json:"type"`
	Link      string      `json:"link"`
}

// DescriptionRequest é o payload para atualizar apenas a descrição da consulta.
type DescriptionRequest struct {
	Description string `json:"description"`
}
