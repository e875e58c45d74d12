// Package courier wraps the pincode serviceability lookup. A transport
// failure is a distinct outcome from "not serviceable" and callers must
// not collapse the two.
package courier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/internal/api"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

var ErrInvalidPincode = errors.New("pincode must be 6 numeric digits")

type Serviceability struct {
	Serviceable    bool            `json:"serviceable"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Cod            bool            `json:"cod"`
}

type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) Client {
	return Client{api: apiClient}
}

// IsCompletePincode reports whether pin is exactly 6 numeric digits.
func IsCompletePincode(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (t Client) CheckPincode(c context.Context, pincode string) (Serviceability, error) {
	c, span := otel.Tracer.Start(c, "CourierClient CheckPincode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CourierClient CheckPincode").
		Str(log.KeyPincode, pincode).
		Logger()

	if !IsCompletePincode(pincode) {
		inErrors.HandleError(ErrInvalidPincode, span)
		logger.Error().Err(ErrInvalidPincode).Msg(ErrInvalidPincode.Error())
		return Serviceability{}, ErrInvalidPincode
	}

	logger.Info().Msg("checking pincode serviceability")
	result := Serviceability{}
	if err := t.api.Get(c, "/couriers/pincode/"+pincode, &result); err != nil {
		err = fmt.Errorf("failed checking pincode=%s with error=%w", pincode, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Serviceability{}, err
	}
	logger.Info().
		Bool("serviceable", result.Serviceable).
		Bool("cod", result.Cod).
		Msg("checked pincode serviceability")
	return result, nil
}
