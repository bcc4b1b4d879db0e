package domain

import "context"

type Repository interface {
	ListCountries(ctx context.Context) ([]Country, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	ListLanguages(ctx context.Context) ([]Language, error)
	CountryExists(ctx context.Context, id int64) (bool, error)
	CurrencyExists(ctx context.Context, id int64) (bool, error)
	LanguageExists(ctx context.Context, id int64) (bool, error)
}
