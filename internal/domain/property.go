package domain

import "time"

type PropertyType string

const (
	TypeCasa         PropertyType = "casa"
	TypeDepartamento PropertyType = "departamento"
	TypeTerreno      PropertyType = "terreno"
	TypeLocal        PropertyType = "local"
	TypeOficina      PropertyType = "oficina"
)

var PropertyTypes = []PropertyType{TypeCasa, TypeDepartamento, TypeTerreno, TypeLocal, TypeOficina}

type PropertyStatus string

const (
	StatusDisponible PropertyStatus = "disponible"
	StatusVendida    PropertyStatus = "vendida"
	StatusAlquilada  PropertyStatus = "alquilada"
	StatusReservada  PropertyStatus = "reservada"
)

var PropertyStatuses = []PropertyStatus{StatusDisponible, StatusVendida, StatusAlquilada, StatusReservada}

type Property struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        float64         `json:"price"`
	Address      string          `json:"address"`
	Type         PropertyType    `json:"type"`
	Status       PropertyStatus  `json:"status"`
	Bedrooms     *int            `json:"bedrooms"`
	Bathrooms    *int            `json:"bathrooms"`
	AreaSize     *float64        `json:"area_size"`
	ContactEmail string          `json:"contact_email"`
	ContactPhone *string         `json:"contact_phone"`
	AgentID      *string         `json:"agent_id"`
	PublishedAt  time.Time       `json:"published_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Images       []PropertyImage `json:"images"`
	Agent        *Agent          `json:"agent,omitempty"`
}

// PropertyPatch carries a partial update; nil fields are left untouched.
type PropertyPatch struct {
	Title        *string
	Description  *string
	Price        *float64
	Address      *string
	Type         *PropertyType
	Status       *PropertyStatus
	Bedrooms     *int
	Bathrooms    *int
	AreaSize     *float64
	ContactEmail *string
	ContactPhone *string
}

func (p PropertyPatch) Empty() bool {
	return p == PropertyPatch{}
}

// MainImage returns the image flagged main, if any.
func (p Property) MainImage() *PropertyImage {
	for i := range p.Images {
		if p.Images[i].IsMain {
			return &p.Images[i]
		}
	}
	return nil
}
