package service

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrVariantSoldOut  = errors.New("variant sold out")
	ErrQuantityLimit   = errors.New("quantity exceeds line limit")
	ErrSessionInvalid  = errors.New("cart session invalid")
	ErrSessionMissing  = errors.New("cart session missing")
)
