// Package services defines the business logic for scrape jobs, stored
// reviews, and rating statistics. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrJobNotFound indicates that no scrape job exists for the requested
	// identifier.
	ErrJobNotFound = errors.New("scrape job not found")

	// ErrInvalidASIN is returned when a submitted product identifier is
	// empty or not a plausible ASIN.
	ErrInvalidASIN = errors.New("invalid ASIN")

	// ErrInvalidMarketplace is returned when the storefront code is not one
	// of the supported marketplaces.
	ErrInvalidMarketplace = errors.New("unsupported marketplace")

	// ErrInvalidSource is returned when the requested source kind is
	// neither direct nor provider.
	ErrInvalidSource = errors.New("invalid source kind")

	// ErrSourceMisconfigured is returned at submission time when the
	// requested source cannot run with the current configuration, e.g. the
	// provider kind without credentials.
	ErrSourceMisconfigured = errors.New("source not configured")

	// ErrQueueBusy is returned when the job queue cannot accept another
	// submission right now.
	ErrQueueBusy = errors.New("scrape queue busy")
)
