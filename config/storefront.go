package config

// Storefront route paths, relative to STOREFRONT_BASE_URL.
const (
	RouteHome       = "/"
	RouteContact    = "/pages/contact"
	RouteTrackOrder = "/pages/track-order"
)

// StorefrontURL resolves a route path against the configured base URL.
func StorefrontURL(route string) string {
	return AppConfig.StorefrontBaseURL + route
}

// HomeURL is the URL the content surface starts on.
func HomeURL() string {
	return StorefrontURL(RouteHome)
}
