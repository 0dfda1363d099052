package repository

import "context"

type ProductInput struct {
	Name        string
	Description string
	PriceCents  int64
}

type CheckoutInput struct {
	ProductRef  string
	RedirectURL string
	AccessCode  string
	PriceCents  int64
}

// ICommerce is the remote commerce provider. Every call takes a fresh access token.
type ICommerce interface {
	CreateProduct(ctx context.Context, accessToken string, in ProductInput) (string, error)
	ArchiveProduct(ctx context.Context, accessToken, productRef string) error
	CreateCheckout(ctx context.Context, accessToken string, in CheckoutInput) (string, error)
}
