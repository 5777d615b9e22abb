package member

// SeedMembers is the development roster loaded when no other source is
// configured.
func SeedMembers() []Member {
	return []Member{
		{
			ID:               "m1",
			Nombre:           "Juan Pérez",
			Email:            "juan@example.com",
			Telefono:         "5215512345678",
			Foto:             "https://picsum.photos/seed/juan/100/100",
			PlanID:           "1",
			Status:           StatusActivo,
			Deuda:            0,
			FechaRegistro:    "2024-01-15",
			FechaVencimiento: "2024-02-15",
			FechaNacimiento:  "1990-05-12",
		},
		{
			ID:               "m2",
			Nombre:           "Maria García",
			Email:            "maria@example.com",
			Telefono:         "5215587654321",
			Foto:             "https://picsum.photos/seed/maria/100/100",
			PlanID:           "2",
			Status:           StatusActivo,
			Deuda:            0,
			FechaRegistro:    "2023-12-10",
			FechaVencimiento: "2024-03-10",
			FechaNacimiento:  "1985-11-20",
		},
		{
			ID:               "m3",
			Nombre:           "Roberto Gomez",
			Email:            "robert@example.com",
			Telefono:         "5215599887766",
			Foto:             "https://picsum.photos/seed/robert/100/100",
			PlanID:           "1",
			Status:           StatusVencido,
			Deuda:            350,
			FechaRegistro:    "2024-01-01",
			FechaVencimiento: "2024-02-01",
			FechaNacimiento:  "1995-02-28",
		},
	}
}
