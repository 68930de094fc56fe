package domain

type Temple struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// CanonicalTemples is the bundled fallback list used when the temple
// directory cannot be reached. The ids must match the directory's
// database ids.
func CanonicalTemples() []Temple {
	return []Temple{
		{ID: 1, Name: "Somnath Temple"},
		{ID: 2, Name: "Dwarkadhish Temple"},
		{ID: 3, Name: "Nageshwar Jyotirlinga"},
		{ID: 4, Name: "Rukmini Devi Temple"},
	}
}
