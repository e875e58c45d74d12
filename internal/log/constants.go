package log

const (
	KeyAppName        = "app"
	KeyTag            = "tag"
	KeyProcess        = "process"
	KeyConfig         = "config"
	KeyEndpoint       = "endpoint"
	KeyStatusCode     = "statusCode"
	KeyUserID         = "userId"
	KeyProductID      = "productId"
	KeyQuantity       = "quantity"
	KeyOrderID        = "orderId"
	KeyOrderStatus    = "orderStatus"
	KeyWishlistItemID = "wishlistItemId"
	KeyCategoryID     = "categoryId"
	KeyCouponCode     = "couponCode"
	KeyPincode        = "pincode"
	KeyStorageKey     = "storageKey"
	KeyStorageMode    = "storageMode"
	KeyItemCount      = "itemCount"
	KeySubtotal       = "subtotal"
	KeyPaymentMethod  = "paymentMethod"
)
