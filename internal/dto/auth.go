package dto

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// SyncResponse acknowledges a sync trigger.
type SyncResponse struct {
	Mensaje       string `json:"mensaje"`
	Sincronizando bool   `json:"sincronizando"`
}

// SyncStatusResponse reports whether a platform sync is running.
type SyncStatusResponse struct {
	Sincronizando bool `json:"sincronizando"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Mensaje string `json:"mensaje"`
}
