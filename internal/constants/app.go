package constants

const (
	AppName = "storefront"

	StorageKeyCart          = "cart"
	StorageKeyAuthToken     = "auth_token"
	StorageKeyWishlistGuest = "wishlist_guest"
)
