package models

import dErrors "trustrag/pkg/domain-errors"

var (
	errMessageRequired = dErrors.New(dErrors.CodeValidation, "message is required")
	errInvalidSeverity = dErrors.New(dErrors.CodeValidation, "severity must be one of CRITICAL, HIGH, MEDIUM, LOW")
)
