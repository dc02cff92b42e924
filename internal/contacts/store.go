// Package contacts keeps the local contact and group collections.
package contacts

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/store"
	"github.com/foxzi/mailpanel/internal/validation"
)

// Store provides CRUD over contacts and groups
type Store struct {
	db       *store.DB
	contacts *store.Collection[models.Contact]
	groups   *store.Collection[string]
	ids      *idGenerator
}

// New creates a contact store on top of db
func New(db *store.DB) *Store {
	return &Store{
		db:       db,
		contacts: store.NewCollection[models.Contact](db, store.KeyContacts),
		groups:   store.NewCollection[string](db, store.KeyGroups),
		ids:      newIDGenerator(),
	}
}

// ListContacts returns every contact
func (s *Store) ListContacts(ctx context.Context) ([]models.Contact, error) {
	return s.contacts.Load(ctx)
}

// ListGroups returns every group name in insertion order
func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	return s.groups.Load(ctx)
}

// AddContact appends a new contact and returns it with its id
func (s *Store) AddContact(ctx context.Context, in models.ContactInput) (models.Contact, error) {
	if err := validation.Struct(in); err != nil {
		return models.Contact{}, err
	}

	c := models.Contact{
		ID:    s.ids.Next(),
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
		Group: in.Group,
	}
	err := s.contacts.Modify(ctx, func(list []models.Contact) ([]models.Contact, error) {
		return append(list, c), nil
	})
	if err != nil {
		return models.Contact{}, fmt.Errorf("failed to add contact: %w", err)
	}
	return c, nil
}

// UpdateContact applies patch to the contact with id. Unknown ids are a no-op.
// It reports whether a contact was updated.
func (s *Store) UpdateContact(ctx context.Context, id int64, patch models.ContactPatch) (bool, error) {
	if err := validation.Struct(patch); err != nil {
		return false, err
	}

	updated := false
	err := s.contacts.Modify(ctx, func(list []models.Contact) ([]models.Contact, error) {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			applyPatch(&list[i], patch)
			updated = true
			break
		}
		return list, nil
	})
	return updated, err
}

func applyPatch(c *models.Contact, p models.ContactPatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Group != nil {
		c.Group = *p.Group
	}
}

// RemoveContact deletes the contact with id. Unknown ids are a no-op.
func (s *Store) RemoveContact(ctx context.Context, id int64) (bool, error) {
	removed := false
	err := s.contacts.Modify(ctx, func(list []models.Contact) ([]models.Contact, error) {
		before := len(list)
		list = slices.DeleteFunc(list, func(c models.Contact) bool { return c.ID == id })
		removed = len(list) != before
		return list, nil
	})
	return removed, err
}

// AddGroup adds name to the group list unless it is already present
func (s *Store) AddGroup(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validation.Errorf("group name is required")
	}
	return s.groups.Modify(ctx, func(groups []string) ([]string, error) {
		if slices.Contains(groups, name) {
			return groups, nil
		}
		return append(groups, name), nil
	})
}

// RemoveGroup deletes name and moves its contacts to the first remaining
// group, or to "" when no group remains. Both collections are written in
// one transaction.
func (s *Store) RemoveGroup(ctx context.Context, name string) error {
	return s.db.Update(ctx, func(tx *store.Tx) error {
		groups, err := s.groups.LoadTx(tx)
		if err != nil {
			return err
		}
		list, err := s.contacts.LoadTx(tx)
		if err != nil {
			return err
		}

		groups = slices.DeleteFunc(groups, func(g string) bool { return g == name })
		fallback := ""
		if len(groups) > 0 {
			fallback = groups[0]
		}
		for i := range list {
			if list[i].Group == name {
				list[i].Group = fallback
			}
		}

		if err := s.groups.SaveTx(tx, groups); err != nil {
			return err
		}
		return s.contacts.SaveTx(tx, list)
	})
}

// RenameGroup removes oldName, adds newName and moves every contact of
// oldName to newName.
func (s *Store) RenameGroup(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return validation.Errorf("group name is required")
	}
	return s.db.Update(ctx, func(tx *store.Tx) error {
		groups, err := s.groups.LoadTx(tx)
		if err != nil {
			return err
		}
		idx := slices.Index(groups, oldName)
		if idx < 0 {
			return ErrGroupNotFound
		}
		if oldName == newName {
			return nil
		}
		groups = slices.Delete(groups, idx, idx+1)
		if !slices.Contains(groups, newName) {
			groups = append(groups, newName)
		}

		list, err := s.contacts.LoadTx(tx)
		if err != nil {
			return err
		}
		for i := range list {
			if list[i].Group == oldName {
				list[i].Group = newName
			}
		}

		if err := s.groups.SaveTx(tx, groups); err != nil {
			return err
		}
		return s.contacts.SaveTx(tx, list)
	})
}

// ErrGroupNotFound is returned when renaming an unknown group
var ErrGroupNotFound = errors.New("group not found")

// ContactsByGroup returns the contacts whose group is name
func (s *Store) ContactsByGroup(ctx context.Context, name string) ([]models.Contact, error) {
	list, err := s.contacts.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Contact{}
	for _, c := range list {
		if c.Group == name {
			out = append(out, c)
		}
	}
	return out, nil
}

// EmailsByGroup returns the emails of the contacts in name
func (s *Store) EmailsByGroup(ctx context.Context, name string) ([]string, error) {
	list, err := s.ContactsByGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(list))
	for _, c := range list {
		emails = append(emails, c.Email)
	}
	return emails, nil
}

// EmailsFromGroups returns the deduplicated, comma-joined emails of every
// contact in any of names, in first-seen order
func (s *Store) EmailsFromGroups(ctx context.Context, names []string) (string, error) {
	list, err := s.contacts.Load(ctx)
	if err != nil {
		return "", err
	}
	seen := make(map[string]bool)
	var emails []string
	for _, name := range names {
		for _, c := range list {
			if c.Group != name || c.Email == "" || seen[c.Email] {
				continue
			}
			seen[c.Email] = true
			emails = append(emails, c.Email)
		}
	}
	return strings.Join(emails, ","), nil
}

// CountInGroup returns the number of contacts in name
func (s *Store) CountInGroup(ctx context.Context, name string) (int, error) {
	list, err := s.ContactsByGroup(ctx, name)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// ImportCSV adds every row of a CSV with an email column to group.
// Rows without an email are skipped; the whole import is one write.
func (s *Store) ImportCSV(ctx context.Context, reader io.Reader, group string) (*models.ContactImportResult, error) {
	result := &models.ContactImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	emailIdx, nameIdx, phoneIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "email", "e-mail", "correo":
			emailIdx = i
		case "name", "nombre", "full_name":
			nameIdx = i
		case "phone", "telefono", "teléfono":
			phoneIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, validation.Errorf("email column not found in CSV")
	}

	var added []models.Contact
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		result.Total++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", result.Total, err))
			result.Skipped++
			continue
		}

		in := models.ContactInput{
			Email: column(record, emailIdx),
			Name:  column(record, nameIdx),
			Phone: column(record, phoneIdx),
			Group: group,
		}
		if in.Email == "" {
			result.Skipped++
			continue
		}
		if err := validation.Struct(in); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %v", result.Total, in.Email, err))
			result.Skipped++
			continue
		}

		added = append(added, models.Contact{
			ID:    s.ids.Next(),
			Name:  in.Name,
			Email: in.Email,
			Phone: in.Phone,
			Group: group,
		})
	}

	if len(added) > 0 {
		err = s.contacts.Modify(ctx, func(list []models.Contact) ([]models.Contact, error) {
			return append(list, added...), nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import contacts: %w", err)
		}
	}
	result.Imported = len(added)

	return result, nil
}

func column(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
