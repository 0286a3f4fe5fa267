package api

import (
	"context"
	"io"
	"net/url"
	"sort"
	"strconv"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/validate"
)

// API groups every backend client over one transport.
type API struct {
	Certifications *Resource[model.Certification]
	Events         *Resource[model.Event]
	Restaurants    *Resource[model.Restaurant]
	Products       *Resource[model.Product]
	Accommodations *Resource[model.Accommodation]
	Activities     *Activities
	Destinations   *Resource[model.Destination]
	Energies       *Resource[model.Energy]
	Carbon         *Carbon
	Reservations   *Reservations
	AI             *AI
	Auth           *Auth

	catalog map[string]Browsable
}

// New builds the API over c.
func New(c *httpclient.Client) *API {
	a := &API{
		Certifications: NewResource[model.Certification](c, "certification", "/certification"),
		Events:         NewResource[model.Event](c, "event", "/evenement"),
		Restaurants:    NewResource[model.Restaurant](c, "restaurant", "/restaurant"),
		Products:       NewResource[model.Product](c, "product", "/produit"),
		Accommodations: NewResource[model.Accommodation](c, "accommodation", "/hebergement"),
		Activities:     &Activities{Resource: NewResource[model.Activity](c, "activity", "/activite")},
		Destinations:   NewResource[model.Destination](c, "destination", "/destination"),
		Energies:       NewResource[model.Energy](c, "energy", "/api/energies"),
		Carbon:         &Carbon{Resource: NewResource[model.CarbonFootprint](c, "carbon", "/api/empreinte_carbone")},
		Reservations:   &Reservations{c: c},
		AI:             &AI{c: c},
		Auth:           &Auth{c: c},
	}
	a.catalog = map[string]Browsable{}
	for _, b := range []Browsable{
		a.Certifications, a.Events, a.Restaurants, a.Products, a.Accommodations,
		a.Activities, a.Destinations, a.Energies, a.Carbon,
	} {
		a.catalog[b.Name()] = b
	}
	return a
}

// Catalog returns the resource registered under name.
func (a *API) Catalog(name string) (Browsable, bool) {
	b, ok := a.catalog[name]
	return b, ok
}

// CatalogNames lists the browsable resources in order.
func (a *API) CatalogNames() []string {
	out := make([]string, 0, len(a.catalog))
	for k := range a.catalog {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Activities adds the difficulty filter to the activity resource.
type Activities struct {
	*Resource[model.Activity]
}

// ByDifficulty lists activities of one difficulty level.
func (a *Activities) ByDifficulty(ctx context.Context, level string) ([]model.Activity, error) {
	switch level {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		return nil, errs.NewValidation("difficulte", "oneof")
	}
	return a.List(ctx, httpclient.Query(url.Values{"difficulte": {level}}))
}

// Image is an uploaded picture.
type Image struct {
	Filename string
	Content  io.Reader
}

// Carbon adds image uploads to the carbon footprint resource.
type Carbon struct {
	*Resource[model.CarbonFootprint]
}

func carbonForm(in *model.CarbonFootprint, img Image) *httpclient.Multipart {
	f := map[string]string{
		"activite": in.Activite,
		"valeur":   strconv.FormatFloat(in.Valeur, 'f', -1, 64),
	}
	if in.Unite != "" {
		f["unite"] = in.Unite
	}
	if in.Date != "" {
		f["date"] = in.Date
	}
	return &httpclient.Multipart{
		Fields: f,
		Files:  []httpclient.FilePart{{Field: "image", Filename: img.Filename, Content: img.Content}},
	}
}

// CreateWithImage posts in together with an image as multipart form data.
func (cb *Carbon) CreateWithImage(ctx context.Context, in *model.CarbonFootprint, img Image) (*model.CarbonFootprint, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if img.Content == nil {
		return nil, errs.NewValidation("image", "required")
	}
	var out model.CarbonFootprint
	if err := cb.c.Post(ctx, cb.path, carbonForm(in, img), &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWithImage replaces the record at id and its image.
func (cb *Carbon) UpdateWithImage(ctx context.Context, id string, in *model.CarbonFootprint, img Image) (*model.CarbonFootprint, error) {
	p, err := cb.item(id)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if img.Content == nil {
		return nil, errs.NewValidation("image", "required")
	}
	var out model.CarbonFootprint
	if err := cb.c.Put(ctx, p, carbonForm(in, img), &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}
