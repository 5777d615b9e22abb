package member

import "time"

// Status is the membership standing.
type Status string

const (
	StatusActivo    Status = "ACTIVO"
	StatusVencido   Status = "VENCIDO"
	StatusPendiente Status = "PENDIENTE"
)

// DateLayout is the wire format for membership dates.
const DateLayout = "2006-01-02"

// Member is a gym member as held by the registry. Dates travel as
// YYYY-MM-DD strings, matching the registry contract.
type Member struct {
	ID               string  `json:"id"`
	Nombre           string  `json:"nombre"`
	Email            string  `json:"email"`
	Telefono         string  `json:"telefono,omitempty"`
	Foto             string  `json:"foto,omitempty"`
	PlanID           string  `json:"planId"`
	Status           Status  `json:"status"`
	Deuda            float64 `json:"deuda"`
	FechaRegistro    string  `json:"fechaRegistro"`
	FechaVencimiento string  `json:"fechaVencimiento"`
	FechaNacimiento  string  `json:"fechaNacimiento,omitempty"`
}

// InGoodStanding reports whether the member can enter without a warning.
func (m Member) InGoodStanding() bool {
	return m.Status != StatusVencido && m.Deuda <= 0
}

// Expiry parses the membership expiry date. Zero time when unset or invalid.
func (m Member) Expiry() time.Time {
	t, err := time.Parse(DateLayout, m.FechaVencimiento)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Plan is a membership plan from the catalog.
type Plan struct {
	ID            string   `json:"id"`
	Nombre        string   `json:"nombre"`
	Costo         float64  `json:"costo"`
	DuracionMeses int      `json:"duracionMeses"`
	Beneficios    []string `json:"beneficios,omitempty"`
}
