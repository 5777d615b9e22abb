package member

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a member id does not exist in the registry.
var ErrNotFound = errors.New("member not found")

// Registry holds the member roll in memory. The attendance core treats it
// as read-only; mutations come from the dashboard endpoints.
type Registry struct {
	mu      sync.RWMutex
	members []Member
	plans   []Plan
}

// NewRegistry returns an empty registry with the plan catalog loaded.
func NewRegistry() *Registry {
	return &Registry{plans: planCatalog()}
}

// Seed replaces the roll with the provided members.
func (r *Registry) Seed(members []Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append([]Member(nil), members...)
}

// List returns a snapshot of all members.
func (r *Registry) List() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Get returns the member with the given id, or ErrNotFound.
func (r *Registry) Get(id string) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.ID == id {
			return m, nil
		}
	}
	return Member{}, ErrNotFound
}

// Create adds a member, assigning an id when absent.
func (r *Registry) Create(m Member) (Member, error) {
	if m.Nombre == "" {
		return Member{}, errors.New("nombre required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusPendiente
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.ID == m.ID {
			return Member{}, errors.New("member id already exists")
		}
	}
	r.members = append(r.members, m)
	return m, nil
}

// Update replaces the member with the same id.
func (r *Registry) Update(m Member) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.members {
		if existing.ID == m.ID {
			r.members[i] = m
			return m, nil
		}
	}
	return Member{}, ErrNotFound
}

// Delete removes a member from the roll.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.members {
		if existing.ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SetFoto updates the reference photo URL used for face identification.
func (r *Registry) SetFoto(id, fotoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].ID == id {
			r.members[i].Foto = fotoURL
			return nil
		}
	}
	return ErrNotFound
}

// Plans returns the membership plan catalog.
func (r *Registry) Plans() []Plan {
	out := make([]Plan, len(r.plans))
	copy(out, r.plans)
	return out
}

func planCatalog() []Plan {
	return []Plan{
		{ID: "1", Nombre: "Plan Básico", Costo: 350, DuracionMeses: 1, Beneficios: []string{"Acceso Gimnasio", "App Móvil"}},
		{ID: "2", Nombre: "Plan Premium", Costo: 800, DuracionMeses: 3, Beneficios: []string{"Acceso Total", "Instructor Personal", "Invitado Gratis"}},
		{ID: "3", Nombre: "Plan Anual", Costo: 2800, DuracionMeses: 12, Beneficios: []string{"Acceso Total", "2 Meses Gratis", "Evaluación Médica"}},
	}
}
