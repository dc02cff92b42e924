package models

// Campaign states as stored by the content API
const (
	CampaignStatusDraft     = "borrador"
	CampaignStatusScheduled = "programado"
	CampaignStatusSent      = "enviado"
	CampaignStatusCancelled = "cancelado"
)

// SentinelCampaignName is the internal record that stores contact groups
// inside the campaign collection. It is never a real campaign.
const SentinelCampaignName = "Gestión de Grupos de Contactos"

// Campaign represents a normalized campaign record
type Campaign struct {
	ID           int64                   `json:"id"`
	Name         string                  `json:"nombre"`
	Subject      string                  `json:"asunto"`
	SendAt       string                  `json:"Fechas,omitempty"`
	Status       string                  `json:"estado"`
	HTML         string                  `json:"contenidoHTML,omitempty"`
	Contacts     string                  `json:"contactos,omitempty"` // comma-joined emails
	Groups       *ContactGroups          `json:"gruposdecontactosJSON,omitempty"`
	Interactions map[string]*Interaction `json:"interaccion_destinatario,omitempty"`
	Owner        *User                   `json:"usuario,omitempty"`
}

// IsSentinel reports whether c is the internal contact group record
func (c Campaign) IsSentinel() bool {
	return c.Name == SentinelCampaignName
}

// ContactGroups is the embedded group snapshot of a campaign
type ContactGroups struct {
	Groups []CampaignGroup `json:"grupos"`
}

// CampaignGroup is one contact group embedded in a campaign
type CampaignGroup struct {
	ID       any            `json:"id,omitempty"`
	Name     string         `json:"nombre"`
	Contacts []GroupContact `json:"contactos"`
}

// GroupContact is a contact as embedded in a campaign group
type GroupContact struct {
	Name  string `json:"nombre"`
	Email string `json:"email"`
	Phone string `json:"telefono"`
}

// Interaction holds per-recipient engagement, keyed by sanitized email
type Interaction struct {
	Opens      int     `json:"opens"`
	Clicks     int     `json:"clicks"`
	Spent      float64 `json:"dinero_gastado"`
	Registered bool    `json:"se_registro_en_pagina"`
}

// CampaignInput is the payload for creating or updating a campaign
type CampaignInput struct {
	Name     string          `json:"nombre" validate:"required,max=200"`
	Subject  string          `json:"asunto" validate:"required,max=300"`
	HTML     string          `json:"contenidoHTML"`
	SendAt   string          `json:"Fechas" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Groups   []CampaignGroup `json:"grupos" validate:"required_without=Contacts"`
	Contacts []string        `json:"contactos" validate:"required_without=Groups,dive,email"`
	OwnerID  int64           `json:"usuario" validate:"gt=0"`
}

// Pagination mirrors the content API pagination meta block
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// CampaignPage is one page of campaigns
type CampaignPage struct {
	Campaigns  []Campaign `json:"campaigns"`
	Pagination Pagination `json:"pagination"`
	Stale      bool       `json:"stale,omitempty"` // served from local cache
}
