package domain

type Service struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price"`
}

// EffectivePrice is the amount charged for the service; an absent price is free.
func (s Service) EffectivePrice() float64 {
	if s.Price == nil {
		return 0
	}
	return *s.Price
}

// LandingService is one of the fixed practice-area cards shown on the public landing page.
type LandingService struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var LandingServices = []LandingService{
	{
		Title:       "Consultoría Legal",
		Description: "Asesoría jurídica especializada en operaciones inmobiliarias y contratos.",
	},
	{
		Title:       "Due Diligence",
		Description: "Revisión integral de la situación legal de inmuebles antes de comprar o invertir.",
	},
	{
		Title:       "Gestión de Contratos",
		Description: "Redacción, revisión y negociación de contratos de compraventa y arrendamiento.",
	},
}
