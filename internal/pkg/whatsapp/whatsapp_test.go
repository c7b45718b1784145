package whatsapp_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"psiagenda/internal/domain"
	"psiagenda/internal/pkg/whatsapp"
)

// TestScheduled testa a montagem da mensagem de agendamento e do deep link.
func TestScheduled(t *testing.T) {
	date := time.Date(2026, time.September, 10, 14, 30, 0, 0, time.Local)

	notification := whatsapp.Scheduled("Ana", "5511999999999", date, 150.5, domain.AppointmentInPerson, "")

	assert.Equal(t, "Olá Ana, sua consulta foi agendada para 10/09/2026 14:30.\n💰 Valor: R$ 150.50", notification.Message)
	assert.True(t, strings.HasPrefix(notification.URL, "https://wa.me/5511999999999?text="))

	// O texto do link deve decodificar de volta para a mensagem original.
	encoded := strings.TrimPrefix(notification.URL, "https://wa.me/5511999999999?text=")
	decoded, err := url.QueryUnescape(encoded)
	assert.NoError(t, err)
	assert.Equal(t, notification.Message, decoded)
}

// TestScheduled_RemoteWithLink testa a linha de acesso em atendimentos remotos.
func TestScheduled_RemoteWithLink(t *testing.T) {
	date := time.Date(2026, time.September, 10, 14, 30, 0, 0, time.Local)

	notification := whatsapp.Scheduled("Ana", "5511999999999", date, 200, domain.AppointmentRemote, "https://meet.example.com/abc")

	assert.Contains(t, notification.Message, "Atendimento remoto: https://meet.example.com/abc")
	assert.Contains(t, notification.Message, "R$ 200.00")
}

// TestScheduled_RemoteWithoutLink testa que remoto sem link omite a linha de acesso.
func TestScheduled_RemoteWithoutLink(t *testing.T) {
	date := time.Date(2026, time.September, 10, 14, 30, 0, 0, time.Local)

	notification := whatsapp.Scheduled("Ana", "5511999999999", date, 200, domain.AppointmentRemote, "")

	assert.NotContains(t, notification.Message, "Atendimento remoto")
}

// TestRescheduled testa a mensagem de remarcação com o novo link.
func TestRescheduled(t *testing.T) {
	date := time.Date(2026, time.October, 2, 9, 0, 0, 0, time.Local)

	notification := whatsapp.Rescheduled("Bruno", "5511988888888", date, 180, domain.AppointmentRemote, "https://meet.example.com/xyz")

	assert.Contains(t, notification.Message, "sua consulta foi atualizada para 02/10/2026 09:00")
	assert.Contains(t, notification.Message, "Novo link: https://meet.example.com/xyz")
	assert.True(t, strings.HasPrefix(notification.URL, "https://wa.me/5511988888888?text="))
}
