package domain

import "time"

// DashboardFilter carrega os filtros já resolvidos do dashboard.
// Zero significa "sem filtro" naquele eixo; o ano, quando não filtrado,
// é resolvido para o ano corrente pelo serviço.
type DashboardFilter struct {
	Day   int
	Month int
	Year  int
}

// PsychologistCount agrupa o total de consultas por psicólogo.
type PsychologistCount struct {
	PsychologistID string `json:"psychologistId"`
	Total          int    `json:"total"`
}

// AppointmentSummary é uma linha da listagem de últimos agendamentos,
// com paciente e psicólogo já juntados.
type AppointmentSummary struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Status           string    `json:"status"`
	PatientName      string    `json:"patientName"`
	PsychologistName string    `json:"psychologistName"`
}

// PendingPayment é uma linha da listagem de pagamentos pendentes,
// com o vencimento já formatado para exibição (dd/mm/aaaa).
type PendingPayment struct {
	ID          string  `json:"id"`
	PatientName string  `json:"patientName"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate"`
}

// DashboardView é a visão agregada consumida pelo painel.
// Todos os valores têm padrão zero/vazio quando não há linhas.
type DashboardView struct {
	TotalPacientes        int                 `json:"totalPacientes"`
	TotalConsultas        int                 `json:"totalConsultas"`
	ConsultasConcluidas   int                 `json:"consultasConcluidas"`
	FaturamentoDiario     float64             `json:"faturamentoDiario"`
	FaturamentoMensal     float64             `json:"faturamentoMensal"`
	FaturamentoAnual      float64             `json:"faturamentoAnual"`
	ConsultasPorPsicologo []PsychologistCount `json:"consultasPorPsicologo"`
	UltimosAgendamentos   []AppointmentSummary `json:"ultimosAgendamentos"`
	PagamentosPendentes   []PendingPayment    `json:"pagamentosPendentes"`
}
