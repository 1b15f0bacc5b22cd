package mockshop

import "errors"

var (
	errUserExists     = errors.New("mockshop: user already exists")
	errNoSuchUser     = errors.New("mockshop: no such user")
	errCodeMismatch   = errors.New("mockshop: confirmation code mismatch")
	errNoSuchFlower   = errors.New("mockshop: no such flower")
	errNoSuchCartItem = errors.New("mockshop: no such cart item")
	errNoSuchOrder    = errors.New("mockshop: no such order")
	errNoSuchAddress  = errors.New("mockshop: no such address")
	errEmptyCart      = errors.New("mockshop: cart is empty")
	errMissingBearer  = errors.New("missing bearer token")
	errBadAuthScheme  = errors.New("invalid authorization scheme")
)
