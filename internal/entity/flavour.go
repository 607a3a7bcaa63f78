package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Flavour struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"-"`
}

// FlavourInput is the payload for creating a flavour. Name and Price are
// pointers so a missing field can be told apart from a zero value.
type FlavourInput struct {
	Name        *string          `json:"name" yaml:"name"`
	Description *string          `json:"description" yaml:"description"`
	Price       *decimal.Decimal `json:"price" yaml:"price"`
	ImageURL    *string          `json:"image_url" yaml:"image_url"`
	IsAvailable *bool            `json:"is_available" yaml:"is_available"`
}

// FlavourPatch carries a partial flavour update.
type FlavourPatch struct {
	Name        Optional[string]          `json:"name"`
	Description Optional[string]          `json:"description"`
	Price       Optional[decimal.Decimal] `json:"price"`
	ImageURL    Optional[string]          `json:"image_url"`
	IsAvailable Optional[bool]            `json:"is_available"`
}

// Empty reports whether the patch changes nothing.
func (p FlavourPatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set && !p.Price.Set && !p.ImageURL.Set && !p.IsAvailable.Set
}

/*
Schema (sqlite shown, mysql equivalent in migrations):

CREATE TABLE flavours (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(100) NOT NULL UNIQUE,
	description TEXT,
	price DECIMAL(10,2) NOT NULL,
	image_url VARCHAR(500),
	is_available BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);
*/
