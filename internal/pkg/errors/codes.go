package errors

import "net/http"

var (
	ErrLocalityNotFound = New(
		"LOCALITY_NOT_FOUND",
		"Locality not found",
		http.StatusNotFound,
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Session not found or expired",
		http.StatusNotFound,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidLayer = New(
		"INVALID_LAYER",
		"Unknown base layer or overlay",
		http.StatusBadRequest,
	)

	ErrNoSelection = New(
		"NO_SELECTION",
		"No locality is selected in this session",
		http.StatusConflict,
	)

	ErrAsyncUnavailable = New(
		"ASYNC_UNAVAILABLE",
		"Asynchronous processing is not configured",
		http.StatusServiceUnavailable,
	)

	ErrMineralNotFound = New(
		"MINERAL_NOT_FOUND",
		"No image registered for this mineral",
		http.StatusNotFound,
	)

	ErrSpeechUnavailable = New(
		"SPEECH_UNAVAILABLE",
		"Speech synthesis failed",
		http.StatusBadGateway,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrRequestTimeout = New(
		"REQUEST_TIMEOUT",
		"Request deadline exceeded",
		http.StatusGatewayTimeout,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
