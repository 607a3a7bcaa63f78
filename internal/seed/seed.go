// Package seed loads the starting catalog and the first admin account.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

//go:embed flavours.yaml
var defaultFlavours []byte

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "seed").Logger()

func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "seed").Logger()
}

type flavourFile struct {
	Flavours []flavourEntry `yaml:"flavours"`
}

type flavourEntry struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
	Price       string  `yaml:"price"`
	ImageURL    *string `yaml:"image_url"`
	IsAvailable *bool   `yaml:"is_available"`
}

// ParseFlavours decodes a YAML flavour list. An empty document yields the
// built-in catalog.
func ParseFlavours(data []byte) ([]entity.FlavourInput, error) {
	if len(data) == 0 {
		data = defaultFlavours
	}

	var file flavourFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse flavours: %w", err)
	}

	inputs := make([]entity.FlavourInput, 0, len(file.Flavours))
	for i, f := range file.Flavours {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			return nil, fmt.Errorf("flavour %d (%s): invalid price %q: %w", i, f.Name, f.Price, err)
		}
		name := f.Name
		inputs = append(inputs, entity.FlavourInput{
			Name:        &name,
			Description: f.Description,
			Price:       &price,
			ImageURL:    f.ImageURL,
			IsAvailable: f.IsAvailable,
		})
	}
	return inputs, nil
}

// LoadFlavours reads path, or the built-in catalog when path is empty.
func LoadFlavours(path string) ([]entity.FlavourInput, error) {
	if path == "" {
		return ParseFlavours(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFlavours(data)
}

// Flavours creates every flavour whose name is not taken yet and returns how
// many were created. Seeding twice is a no-op.
func Flavours(ctx context.Context, flavours *service.FlavourService, inputs []entity.FlavourInput) (int, error) {
	created := 0
	for _, in := range inputs {
		f, err := flavours.Create(ctx, in)
		if errors.Is(err, service.ErrConflict) {
			logger.Info().Str("name", *in.Name).Msg("Flavour exists, skipping")
			continue
		}
		if err != nil {
			return created, err
		}
		logger.Info().Int("id", f.ID).Str("name", f.Name).Msg("Flavour seeded")
		created++
	}
	return created, nil
}

// Admin creates the admin account unless the username is already taken.
func Admin(ctx context.Context, auth *service.AuthService, username, password string) (bool, error) {
	_, err := auth.CreateAdmin(ctx, username, password)
	if errors.Is(err, service.ErrConflict) {
		logger.Info().Str("username", username).Msg("Admin exists, skipping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logger.Info().Str("username", username).Msg("Admin created")
	return true, nil
}
