package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/model"
)

// ------- generic builders -------

// save creates in, or updates the record id when id is set.
func save[T any](ctx context.Context, r *api.Resource[T], id string, in *T) (*T, error) {
	if id == "" {
		return r.Create(ctx, in)
	}
	return r.Update(ctx, id, in)
}

// typedFlags declares -id and -json; fields given as flags override the JSON document.
func typedFlags(a *app, name string) (fs *flag.FlagSet, id, doc *string) {
	fs = a.flags(name)
	id = fs.String("id", "", "id or uri to update (create when empty)")
	doc = fs.String("json", "", "record as JSON file ('-'=stdin)")
	return fs, id, doc
}

// parseTyped loads the -json document into v, then applies the flags on top.
func parseTyped(a *app, fs *flag.FlagSet, doc *string, args []string, v any) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *doc == "" {
		return nil
	}
	b, err := readAll(a.in, *doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", *doc, err)
	}
	// flags win over the document
	return fs.Parse(args)
}

// typedCommand builds an add-<resource> command. bind declares the
// record's flags on fs.
func typedCommand[T any](res func(*api.API) *api.Resource[T], bind func(fs *flag.FlagSet, v *T)) command {
	return command{
		route: guarded("/catalog/edit", guideOnly...),
		usage: "[-id <id|uri>] [-json <file|->] [fields]",
		run: func(ctx context.Context, a *app, args []string) error {
			r := res(a.api)
			var v T
			fs, id, doc := typedFlags(a, "add-"+r.Name())
			bind(fs, &v)
			if err := parseTyped(a, fs, doc, args, &v); err != nil {
				return err
			}
			out, err := save(ctx, r, *id, &v)
			if err != nil {
				return err
			}
			a.printJSON(out)
			return nil
		},
	}
}

// ------- commands -------

func typedCommands() map[string]command {
	return map[string]command{
		"add-certification": typedCommand(
			func(c *api.API) *api.Resource[model.Certification] { return c.Certifications },
			func(fs *flag.FlagSet, v *model.Certification) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.StringVar(&v.Organisme, "organisme", "", "issuing body")
				fs.StringVar(&v.Type, "type", "", "label type")
				fs.StringVar(&v.DateObtention, "obtained", "", "YYYY-MM-DD")
				fs.StringVar(&v.DateExpiration, "expires", "", "YYYY-MM-DD")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-event": typedCommand(
			func(c *api.API) *api.Resource[model.Event] { return c.Events },
			func(fs *flag.FlagSet, v *model.Event) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.StringVar(&v.Date, "date", "", "YYYY-MM-DD")
				fs.StringVar(&v.Lieu, "lieu", "", "place")
				fs.IntVar(&v.Capacite, "capacite", 0, "capacity")
				fs.Float64Var(&v.Prix, "prix", 0, "price")
				fs.StringVar(&v.Organisateur, "organisateur", "", "organiser")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-restaurant": typedCommand(
			func(c *api.API) *api.Resource[model.Restaurant] { return c.Restaurants },
			func(fs *flag.FlagSet, v *model.Restaurant) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.StringVar(&v.Adresse, "adresse", "", "address")
				fs.StringVar(&v.Ville, "ville", "", "city")
				fs.StringVar(&v.TypeCuisine, "cuisine", "", "cuisine")
				fs.IntVar(&v.Capacite, "capacite", 0, "seats")
				fs.StringVar(&v.Telephone, "telephone", "", "phone")
				fs.StringVar(&v.Email, "email", "", "email")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-product": typedCommand(
			func(c *api.API) *api.Resource[model.Product] { return c.Products },
			func(fs *flag.FlagSet, v *model.Product) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.Float64Var(&v.Prix, "prix", 0, "price")
				fs.StringVar(&v.Categorie, "categorie", "", "category")
				fs.IntVar(&v.Stock, "stock", 0, "stock")
				fs.StringVar(&v.Producteur, "producteur", "", "producer")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-accommodation": typedCommand(
			func(c *api.API) *api.Resource[model.Accommodation] { return c.Accommodations },
			func(fs *flag.FlagSet, v *model.Accommodation) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.StringVar(&v.Type, "type", "", "kind")
				fs.StringVar(&v.Adresse, "adresse", "", "address")
				fs.StringVar(&v.Ville, "ville", "", "city")
				fs.Float64Var(&v.PrixNuit, "prix-nuit", 0, "price per night")
				fs.IntVar(&v.Capacite, "capacite", 0, "capacity")
				fs.BoolVar(&v.LabelEco, "label-eco", false, "eco label")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-activity": typedCommand(
			func(c *api.API) *api.Resource[model.Activity] { return c.Activities.Resource },
			func(fs *flag.FlagSet, v *model.Activity) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.StringVar(&v.Difficulte, "difficulte", "", "facile, moyen or difficile")
				fs.StringVar(&v.Duree, "duree", "", "duration")
				fs.Float64Var(&v.Prix, "prix", 0, "price")
				fs.StringVar(&v.Destination, "destination", "", "destination uri")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-destination": typedCommand(
			func(c *api.API) *api.Resource[model.Destination] { return c.Destinations },
			func(fs *flag.FlagSet, v *model.Destination) {
				fs.StringVar(&v.Nom, "nom", "", "name")
				fs.StringVar(&v.Pays, "pays", "", "country")
				fs.StringVar(&v.Region, "region", "", "region")
				fs.StringVar(&v.Climat, "climat", "", "climate")
				fs.StringVar(&v.Description, "description", "", "description")
			}),
		"add-energy": typedCommand(
			func(c *api.API) *api.Resource[model.Energy] { return c.Energies },
			func(fs *flag.FlagSet, v *model.Energy) {
				fs.StringVar(&v.Type, "type", "", "energy type")
				fs.StringVar(&v.Source, "source", "", "source")
				fs.Float64Var(&v.Consommation, "consommation", 0, "consumption")
				fs.StringVar(&v.Unite, "unite", "", "unit")
				fs.StringVar(&v.Date, "date", "", "YYYY-MM-DD")
				fs.BoolVar(&v.Renouvelable, "renouvelable", false, "renewable")
			}),
		"add-carbon": {
			route: guarded("/catalog/edit", guideOnly...),
			usage: "[-id <id|uri>] [-json <file|->] [-image <file>] [fields]",
			run:   cmdAddCarbon,
		},
	}
}

// cmdAddCarbon is add-<resource> for carbon entries, with an optional image upload.
func cmdAddCarbon(ctx context.Context, a *app, args []string) error {
	var v model.CarbonFootprint
	fs, id, doc := typedFlags(a, "add-carbon")
	fs.StringVar(&v.Activite, "activite", "", "activity")
	fs.Float64Var(&v.Valeur, "valeur", 0, "value")
	fs.StringVar(&v.Unite, "unite", "", "unit")
	fs.StringVar(&v.Date, "date", "", "YYYY-MM-DD")
	image := fs.String("image", "", "image file")
	if err := parseTyped(a, fs, doc, args, &v); err != nil {
		return err
	}

	var (
		out *model.CarbonFootprint
		err error
	)
	if *image == "" {
		out, err = save(ctx, a.api.Carbon.Resource, *id, &v)
	} else {
		name, f, ferr := openFile(*image)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		img := api.Image{Filename: name, Content: f}
		if *id == "" {
			out, err = a.api.Carbon.CreateWithImage(ctx, &v, img)
		} else {
			out, err = a.api.Carbon.UpdateWithImage(ctx, *id, &v, img)
		}
	}
	if err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}
