package api

import "github.com/dkowalski/libris-api/internal/api/shared"

// Aliases into the shared package so handlers stay terse.
var (
	RespondWithJSON        = shared.RespondWithJSON
	RespondWithError       = shared.RespondWithError
	RespondWithErrorAndLog = shared.RespondWithErrorAndLog
	DecodeJSON             = shared.DecodeJSON
)
