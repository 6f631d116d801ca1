package paypal

import "github.com/mstgnz/paybridge/provider"

// Register PayPal provider with the default registry
func init() {
	provider.Register(providerName, NewProvider)
}
