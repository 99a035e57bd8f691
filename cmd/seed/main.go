package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ladla-backend/internal/admin"
	"ladla-backend/internal/config"
	"ladla-backend/internal/db"
	"ladla-backend/internal/pricing"
	"ladla-backend/internal/utils"
)

type seedFormula struct {
	Nom          string
	Prix         float64
	Duree        string
	Icone        string
	Services     []string
	PremiumPrice *float64
}

func price(v float64) *float64 { return &v }

var essentials = []string{"Aspiration habitacle", "Nettoyage plastiques", "Vitres intérieures"}
var complete = append([]string{"Shampoing sièges", "Nettoyage tapis", "Décontamination jantes"}, essentials...)

// Base prices per category, in euros: essentielle, integrale, prestige.
var basePrices = map[string][3]float64{
	pricing.CategoryPetiteCitadine: {49, 89, 139},
	pricing.CategoryCitadine:       {59, 99, 149},
	pricing.CategoryBerline:        {69, 119, 169},
	pricing.CategorySUV:            {79, 139, 189},
}

var premiumPrices = map[string]float64{
	pricing.CategoryPetiteCitadine: 100,
	pricing.CategoryCitadine:       110,
	pricing.CategoryBerline:        120,
	pricing.CategorySUV:            140,
}

func formulasFor(category string) []seedFormula {
	p := basePrices[category]
	return []seedFormula{
		{Nom: "Formule Essentielle", Prix: p[0], Duree: "1h30", Icone: "sparkles", Services: essentials},
		{Nom: "Formule Intégrale", Prix: p[1], Duree: "3h", Icone: "car", Services: complete, PremiumPrice: price(premiumPrices[category])},
		{Nom: "Formule Prestige", Prix: p[2], Duree: "4h30", Icone: "crown", Services: append([]string{"Lustrage carrosserie"}, complete...), PremiumPrice: price(premiumPrices[category])},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoWait()+30*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoWait(), logger)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	now := time.Now().In(cfg.Location())
	inserted := 0
	for _, category := range pricing.Categories {
		for _, f := range formulasFor(category) {
			id := category + "-" + utils.Slugify(f.Nom)
			update := bson.M{
				"$setOnInsert": bson.M{
					"_id":                 id,
					"category":            category,
					"nom":                 f.Nom,
					"prix":                f.Prix,
					"duree":               f.Duree,
					"icone":               f.Icone,
					"services":            f.Services,
					"lavage_premium":      f.PremiumPrice != nil,
					"lavage_premium_prix": f.PremiumPrice,
					"created_at":          now,
					"updated_at":          now,
				},
			}
			res, err := cols.Formulas.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
			if err != nil {
				log.Fatalf("seed formula %s: %v", id, err)
			}
			if res.UpsertedCount > 0 {
				inserted++
			}
		}
	}
	logger.Info("seed formulas: ok", slog.Int("inserted", inserted))

	admins := admin.NewService(admin.NewRepository(cols.AdminUsers), nil, cfg.Location())
	created, err := admins.Bootstrap(ctx, cfg.AdminUser, cfg.AdminPassword)
	switch {
	case err != nil:
		log.Fatalf("seed admin: %v", err)
	case created:
		logger.Info("seed admin: created", slog.String("username", cfg.AdminUser))
	case cfg.AdminPassword == "":
		logger.Info("seed admin: ADMIN_PASSWORD missing, skipping")
	default:
		logger.Info("seed admin: an admin already exists, skipping")
	}

	logger.Info("seed completed")
}
