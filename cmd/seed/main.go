package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vending/internal/auth"
	"vending/internal/config"
	"vending/internal/db"
	apperrors "vending/internal/errors"
	"vending/internal/logger"
	"vending/internal/model"
	"vending/internal/repository"
	"vending/internal/service"
)

// SeedProduct is a product owned by a seeded seller.
type SeedProduct struct {
	ProductName     string `json:"product_name"`
	Cost            int64  `json:"cost"`
	AmountAvailable int64  `json:"amount_available"`
}

// SeedUser is a demo account.
type SeedUser struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Role     model.Role    `json:"role"`
	Deposit  int64         `json:"deposit"`
	Products []SeedProduct `json:"products"`
}

// SeedData is the layout of the seed file.
type SeedData struct {
	Users []SeedUser `json:"users"`
}

func main() {
	source := flag.String("file", "cmd/seed/seed.json", "seed file path or http(s) URL")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logrus.Info("starting seed")

	gormDB, err := db.Open(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("connect database")
	}
	if err := db.Migrate(gormDB); err != nil {
		logrus.WithError(err).Fatal("migrate")
	}

	data, err := loadSeedData(*source)
	if err != nil {
		logrus.WithError(err).Fatal("load seed data")
	}
	logrus.WithField("users", len(data.Users)).Info("seed data loaded")

	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	sessions := auth.NewSessionStore(repository.NewSessionRepository(gormDB))
	authService := service.NewAuthService(userRepo, auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL), sessions)
	productService := service.NewProductService(productRepo, nil)

	users, products, err := seed(context.Background(), userRepo, authService, productService, data)
	if err != nil {
		logrus.WithError(err).Fatal("seed")
	}

	logrus.WithFields(logrus.Fields{
		"users_created":    users,
		"products_created": products,
	}).Info("seed completed")
}

// loadSeedData reads the seed file from disk or fetches it over HTTP.
func loadSeedData(source string) (*SeedData, error) {
	var r io.Reader
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch seed data: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var data SeedData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &data, nil
}

// seed creates missing users and products. Existing usernames and product
// names are left untouched so the command can be re-run.
func seed(
	ctx context.Context,
	userRepo repository.UserRepository,
	authService service.AuthService,
	productService service.ProductService,
	data *SeedData,
) (usersCreated, productsCreated int, err error) {
	for _, su := range data.Users {
		user, err := userRepo.FindByUsername(ctx, su.Username)
		switch {
		case err == nil:
			logrus.WithField("username", su.Username).Info("user exists, skipping")
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, err = authService.Register(ctx, su.Username, su.Password, su.Role)
			if err != nil {
				return usersCreated, productsCreated, fmt.Errorf("register %s: %w", su.Username, err)
			}
			if su.Deposit > 0 {
				if err := userRepo.IncrementDeposit(ctx, user.ID, su.Deposit); err != nil {
					return usersCreated, productsCreated, fmt.Errorf("deposit for %s: %w", su.Username, err)
				}
			}
			usersCreated++
		default:
			return usersCreated, productsCreated, fmt.Errorf("find %s: %w", su.Username, err)
		}

		if user.Role != model.RoleSeller {
			continue
		}
		for _, sp := range su.Products {
			_, err := productService.Create(ctx, user.ID, sp.ProductName, sp.Cost, sp.AmountAvailable)
			if errors.Is(err, apperrors.ErrDuplicateProductName) {
				continue
			}
			if err != nil {
				return usersCreated, productsCreated, fmt.Errorf("create product %s: %w", sp.ProductName, err)
			}
			productsCreated++
		}
	}
	return usersCreated, productsCreated, nil
}
