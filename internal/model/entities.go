package model

// Certification is an eco-label held by a provider.
type Certification struct {
	Ref
	Nom            string `json:"nom" validate:"required"`
	Organisme      string `json:"organisme,omitempty"`
	Type           string `json:"type,omitempty"`
	DateObtention  string `json:"dateObtention,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateExpiration string `json:"dateExpiration,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description    string `json:"description,omitempty"`
}

// Event is a scheduled happening (/evenement).
type Event struct {
	Ref
	Nom          string  `json:"nom" validate:"required"`
	Description  string  `json:"description,omitempty"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Lieu         string  `json:"lieu,omitempty"`
	Capacite     int     `json:"capacite,omitempty" validate:"gte=0"`
	Prix         float64 `json:"prix,omitempty" validate:"gte=0"`
	Organisateur string  `json:"organisateur,omitempty"`
}

// Restaurant can be booked through the reservation endpoints.
type Restaurant struct {
	Ref
	Nom         string `json:"nom" validate:"required"`
	Adresse     string `json:"adresse,omitempty"`
	Ville       string `json:"ville,omitempty"`
	TypeCuisine string `json:"typeCuisine,omitempty"`
	Capacite    int    `json:"capacite,omitempty" validate:"gte=0"`
	Telephone   string `json:"telephone,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Description string `json:"description,omitempty"`
}

// Product is a local product offered on the platform (/produit).
type Product struct {
	Ref
	Nom         string  `json:"nom" validate:"required"`
	Description string  `json:"description,omitempty"`
	Prix        float64 `json:"prix" validate:"gte=0"`
	Categorie   string  `json:"categorie,omitempty"`
	Stock       int     `json:"stock,omitempty" validate:"gte=0"`
	Producteur  string  `json:"producteur,omitempty"`
}

// Accommodation is a place to stay (/hebergement).
type Accommodation struct {
	Ref
	Nom         string  `json:"nom" validate:"required"`
	Type        string  `json:"type,omitempty"`
	Adresse     string  `json:"adresse,omitempty"`
	Ville       string  `json:"ville,omitempty"`
	PrixNuit    float64 `json:"prixNuit,omitempty" validate:"gte=0"`
	Capacite    int     `json:"capacite,omitempty" validate:"gte=0"`
	LabelEco    bool    `json:"labelEco,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Difficulty levels understood by the activity filter.
const (
	DifficultyEasy   = "facile"
	DifficultyMedium = "moyen"
	DifficultyHard   = "difficile"
)

// Activity is a guided activity (/activite).
type Activity struct {
	Ref
	Nom         string  `json:"nom" validate:"required"`
	Description string  `json:"description,omitempty"`
	Difficulte  string  `json:"difficulte,omitempty" validate:"omitempty,oneof=facile moyen difficile"`
	Duree       string  `json:"duree,omitempty"`
	Prix        float64 `json:"prix,omitempty" validate:"gte=0"`
	Destination string  `json:"destination,omitempty"`
}

// Destination is a region or site (/destination).
type Destination struct {
	Ref
	Nom         string `json:"nom" validate:"required"`
	Pays        string `json:"pays,omitempty"`
	Region      string `json:"region,omitempty"`
	Climat      string `json:"climat,omitempty"`
	Description string `json:"description,omitempty"`
}

// Energy is an energy consumption record (/api/energies).
type Energy struct {
	Ref
	Type         string  `json:"type" validate:"required"`
	Source       string  `json:"source,omitempty"`
	Consommation float64 `json:"consommation" validate:"gte=0"`
	Unite        string  `json:"unite,omitempty"`
	Date         string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Renouvelable bool    `json:"renouvelable"`
}

// CarbonFootprint is a carbon footprint entry (/api/empreinte_carbone).
type CarbonFootprint struct {
	Ref
	Activite string  `json:"activite" validate:"required"`
	Valeur   float64 `json:"valeur" validate:"gte=0"`
	Unite    string  `json:"unite,omitempty"`
	Date     string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Image    string  `json:"image,omitempty"`
}
