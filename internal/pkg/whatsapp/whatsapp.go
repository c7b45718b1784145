package whatsapp

import (
	"fmt"
	"net/url"
	"time"

	"psiagenda/internal/domain"
)

// Pacote de composição de notificações via WhatsApp.
// Aqui só montamos o texto e o deep link (wa.me); o envio em si é feito
// pelo cliente de mensagens de quem abrir o link — nenhuma chamada de rede.

// Notification agrupa a mensagem legível e o deep link correspondente.
type Notification struct {
	Message string `json:"message"`
	URL     string `json:"whatsappURL"`
}

// dateLayout é o formato curto pt-BR de data/hora usado nas mensagens.
const dateLayout = "02/01/2006 15:04"

// Scheduled monta a notificação de consulta agendada para o paciente.
// Se o atendimento for remoto e houver link, a linha de acesso é incluída.
func Scheduled(patientName, phone string, date time.Time, amount float64, appointmentType, link string) Notification {
	message := fmt.Sprintf("Olá %s, sua consulta foi agendada para %s.", patientName, date.Format(dateLayout))
	if appointmentType == domain.AppointmentRemote && link != "" {
		message += fmt.Sprintf("\nAtendimento remoto: %s", link)
	}
	message += fmt.Sprintf("\n💰 Valor: R$ %.2f", amount)

	return Notification{
		Message: message,
		URL:     deepLink(phone, message),
	}
}

// Rescheduled monta a notificação de consulta remarcada/atualizada.
func Rescheduled(patientName, phone string, date time.Time, amount float64, appointmentType, link string) Notification {
	message := fmt.Sprintf("Olá %s, sua consulta foi atualizada para %s.", patientName, date.Format(dateLayout))
	if appointmentType == domain.AppointmentRemote && link != "" {
		message += fmt.Sprintf("\nNovo link: %s", link)
	}
	message += fmt.Sprintf("\n💰 Valor: R$ %.2f", amount)

	return Notification{
		Message: message,
		URL:     deepLink(phone, message),
	}
}

// deepLink monta a URL wa.me com a mensagem já codificada.
func deepLink(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}
