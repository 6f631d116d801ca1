package stripe

import "github.com/mstgnz/paybridge/provider"

// Register Stripe provider with the default registry
func init() {
	provider.Register(providerName, NewProvider)
}
