package core

import (
	"errors"
	"fmt"
)

// Input errors. They are reported to the user and roll the upload back.
var (
	ErrTooFewLines   = errors.New("CSV file must contain a header row and at least one data row")
	ErrNoDataRows    = errors.New("could not parse any data rows from the CSV file")
	ErrNotCSV        = errors.New("please upload a valid .csv file")
	ErrNoLocations   = errors.New("no locations found in the selected column")
	ErrUnknownColumn = errors.New("unknown column")
)

// Oracle errors.
var (
	ErrGeocode = errors.New("failed to geocode locations, please check your locations and try again")
	// ErrStaleResult marks a geocode result superseded by a newer request.
	ErrStaleResult = errors.New("geocode result superseded by a newer request")
)

// InputError wraps a malformed-input failure with the file it came from.
type InputError struct {
	File string
	Err  error
}

func (e *InputError) Error() string {
	if e.File == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// OracleError wraps an upstream geocoding failure. Err is always ErrGeocode;
// Cause keeps the transport or decode error for logs.
type OracleError struct {
	Cause error
}

func (e *OracleError) Error() string {
	if e.Cause == nil {
		return ErrGeocode.Error()
	}
	return fmt.Sprintf("%v: %v", ErrGeocode, e.Cause)
}

func (e *OracleError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrGeocode}
	}
	return []error{ErrGeocode, e.Cause}
}

// UserMessage returns the text shown to the user for err. Causes are kept
// out of the message; they belong in logs.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var oracleErr *OracleError
	if errors.As(err, &oracleErr) {
		return ErrGeocode.Error()
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Err.Error()
	}
	return err.Error()
}
