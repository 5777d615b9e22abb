package attendance

import (
	"fmt"
	"time"

	"gymtrack/internal/member"
)

// Alert tags shown to the front desk at check-in time.
const (
	AlertCumpleanos    = "Cumpleaños"
	AlertVencida       = "Membresía Vencida"
	AlertPagoPendiente = "Pago Pendiente"
)

// ComposeAlerts derives the advisory tags for a member at a given moment.
// Pure: same member and clock yield the same tags, in declaration order.
func ComposeAlerts(m member.Member, now time.Time) []string {
	var alerts []string

	if len(m.FechaNacimiento) >= 10 && m.FechaNacimiento[5:10] == now.Format("2006-01-02")[5:10] {
		alerts = append(alerts, AlertCumpleanos)
	}
	if m.Status == member.StatusVencido {
		alerts = append(alerts, AlertVencida)
	}
	if m.Deuda > 0 {
		alerts = append(alerts, AlertPagoPendiente)
	}

	if exp := m.Expiry(); !exp.IsZero() {
		days := daysUntil(now, exp)
		if days > 0 && days <= 5 {
			alerts = append(alerts, fmt.Sprintf("Vence en %d días", days))
		}
	}
	return alerts
}

// daysUntil is the ceiling of the distance from now to the expiry date.
func daysUntil(now, expiry time.Time) int {
	diff := expiry.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}
