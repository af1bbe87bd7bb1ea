package currency

import "errors"

var (
	// ErrRateSource indicates the remote rate API was unreachable or
	// returned a non-success response.
	ErrRateSource = errors.New("exchange rate source error")

	// ErrRateUnavailable indicates that no live rate and no cached rate
	// exist for the requested pair.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
