package domain

import "time"

// Patient representa um paciente do consultório (a Entidade central do cadastro).
// A idade é um valor derivado, recalculado a cada escrita a partir da data de
// nascimento — nunca calculado na leitura.
type Patient struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Birthdate *time.Time `json:"birthdate"`
	Age       *int       `json:"age"`
	Contact   string     `json:"contact"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PatientRequest é o payload de entrada para criação e atualização de paciente.
// Birthdate chega como string ("AAAA-MM-DD") e é interpretada pelo serviço.
type PatientRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Birthdate string `json:"birthdate"`
	Contact   string `json:"contact"`
}
