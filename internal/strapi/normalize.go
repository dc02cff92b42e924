package strapi

import (
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/foxzi/mailpanel/internal/models"
)

// ErrNoIdentity is returned when a record carries no usable id
var ErrNoIdentity = errors.New("record has no usable id")

// ExtractFlat flattens a record that may wrap its fields under "attributes".
// The outer id always wins over attributes.id. Records without an
// attributes object are returned unchanged.
func ExtractFlat(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}
	attrs, ok := record["attributes"].(map[string]any)
	if !ok {
		return record
	}

	flat := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		flat[k] = v
	}
	delete(flat, "id")
	if id, ok := record["id"]; ok {
		flat["id"] = id
	}
	return flat
}

// RecordID returns the positive id of a record, or 0
func RecordID(record map[string]any) int64 {
	if record == nil {
		return 0
	}
	id, err := cast.ToInt64E(record["id"])
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// ParseCampaign coerces a flat campaign record into a fully defaulted campaign
func ParseCampaign(record map[string]any) (models.Campaign, error) {
	id := RecordID(record)
	if id == 0 {
		return models.Campaign{}, ErrNoIdentity
	}

	c := models.Campaign{
		ID:           id,
		Name:         cast.ToString(record["nombre"]),
		Subject:      cast.ToString(record["asunto"]),
		SendAt:       cast.ToString(record["Fechas"]),
		Status:       cast.ToString(record["estado"]),
		HTML:         cast.ToString(record["contenidoHTML"]),
		Contacts:     cast.ToString(record["contactos"]),
		Groups:       ParseContactGroups(record["gruposdecontactosJSON"]),
		Interactions: ParseInteractions(record["interaccion_destinatario"]),
	}
	if c.Status == "" {
		c.Status = models.CampaignStatusDraft
	}
	if owner, ok := record["usuario"].(map[string]any); ok {
		if flat := ExtractFlat(unwrapData(owner)); RecordID(flat) != 0 {
			u := ParseUser(flat, true)
			c.Owner = &u
		}
	}
	return c, nil
}

// ParseContactGroups decodes the embedded group snapshot which may be an
// object or a JSON encoded string. Anything else yields nil.
func ParseContactGroups(v any) *models.ContactGroups {
	var data []byte
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		data = []byte(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		data = b
	}

	raw := struct {
		Groups []struct {
			ID       any              `json:"id"`
			Name     any              `json:"nombre"`
			Contacts []map[string]any `json:"contactos"`
		} `json:"grupos"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	groups := &models.ContactGroups{Groups: make([]models.CampaignGroup, 0, len(raw.Groups))}
	for _, g := range raw.Groups {
		group := models.CampaignGroup{
			ID:       g.ID,
			Name:     cast.ToString(g.Name),
			Contacts: make([]models.GroupContact, 0, len(g.Contacts)),
		}
		for _, c := range g.Contacts {
			group.Contacts = append(group.Contacts, models.GroupContact{
				Name:  cast.ToString(c["nombre"]),
				Email: cast.ToString(c["email"]),
				Phone: cast.ToString(c["telefono"]),
			})
		}
		groups.Groups = append(groups.Groups, group)
	}
	return groups
}

// ParseInteractions decodes the per-recipient engagement map. Numeric
// fields may arrive as numbers or strings.
func ParseInteractions(v any) map[string]*models.Interaction {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		v = decoded
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]*models.Interaction, len(m))
	for key, raw := range m {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out[key] = &models.Interaction{
			Opens:      cast.ToInt(entry["opens"]),
			Clicks:     cast.ToInt(entry["clicks"]),
			Spent:      cast.ToFloat64(entry["dinero_gastado"]),
			Registered: cast.ToBool(entry["se_registro_en_pagina"]),
		}
	}
	return out
}

// ParseUser coerces a flat user record, defaulting every optional field.
// found reports whether the record is a real owner; it drives the role default.
func ParseUser(record map[string]any, found bool) models.User {
	now := time.Now()
	u := models.User{
		ID:        RecordID(record),
		Username:  cast.ToString(record["username"]),
		Email:     cast.ToString(record["email"]),
		Provider:  "local",
		Confirmed: true,
		CreatedAt: now,
		UpdatedAt: now,
		Role:      models.RolePublic,
	}
	if found {
		u.Role = models.RoleAuthenticated
	}
	if record == nil {
		return u
	}

	if p := cast.ToString(record["provider"]); p != "" {
		u.Provider = p
	}
	if v, ok := record["confirmed"]; ok && v != nil {
		u.Confirmed = cast.ToBool(v)
	}
	if v, ok := record["blocked"]; ok && v != nil {
		u.Blocked = cast.ToBool(v)
	}
	if t, err := cast.ToTimeE(record["createdAt"]); err == nil && !t.IsZero() {
		u.CreatedAt = t
	}
	if t, err := cast.ToTimeE(record["updatedAt"]); err == nil && !t.IsZero() {
		u.UpdatedAt = t
	}
	if r := roleName(record); r != "" {
		u.Role = r
	}
	return u
}

func roleName(record map[string]any) string {
	if r := cast.ToString(record["rol"]); r != "" {
		return r
	}
	role, ok := record["role"].(map[string]any)
	if !ok {
		return ""
	}
	role = ExtractFlat(unwrapData(role))
	if t := cast.ToString(role["type"]); t != "" {
		return t
	}
	return strings.ToLower(cast.ToString(role["name"]))
}

// unwrapData strips a relational {"data": {...}} wrapper
func unwrapData(m map[string]any) map[string]any {
	if data, ok := m["data"].(map[string]any); ok {
		return data
	}
	return m
}
