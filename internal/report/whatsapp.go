package report

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"faxina/internal/core"
)

// WhatsAppMessage builds the plain-text summary shared over WhatsApp.
// Asterisks are WhatsApp bold markers.
func WhatsAppMessage(payments []core.Payment, labels []string, generatedAt time.Time) string {
	s := core.Summarize(payments)

	var b strings.Builder
	b.WriteString("🧹 *RELATÓRIO FAXINA*\n\n")
	if len(labels) > 0 {
		fmt.Fprintf(&b, "📅 *Filtro:* %s\n\n", strings.Join(labels, " | "))
	}

	b.WriteString("📊 *RESUMO:*\n")
	fmt.Fprintf(&b, "• Total de faxinas: %d\n", s.Count)
	fmt.Fprintf(&b, "• Realizadas: %d (%d%%)\n", s.CompletedCount, s.CompletedPercent)
	fmt.Fprintf(&b, "• Pagas: %d (%d%%)\n\n", s.PaidCount, s.PaidPercent)

	b.WriteString("💰 *VALORES:*\n")
	fmt.Fprintf(&b, "• Total: %s\n", s.Total.Display())
	fmt.Fprintf(&b, "• Recebido: %s\n", s.Received.Display())
	fmt.Fprintf(&b, "• Pendente: %s\n\n", s.Pending.Display())

	b.WriteString("📱 Relatório gerado pelo Sistema Faxina\n")
	fmt.Fprintf(&b, "🕐 %s", generatedAt.Format("02/01/2006 15:04"))
	return b.String()
}

// WhatsAppLink returns a wa.me share link. An empty phone opens the contact
// picker. Non-digits in phone are dropped.
func WhatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	// QueryEscape encodes spaces as "+", which WhatsApp shows literally.
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}
