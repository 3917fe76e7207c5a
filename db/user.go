package db

import (
	"context"
	"fmt"

	"github.com/carelock/carelock/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ======================================================================================
// Users

/*
DefineNewUser define new user

	@param ctx context.Context - execution context
	@param name string - user display name
	@param role models.UserRoleENUMType - user role
	@param ledgerIdentity string - the user's ledger identity, or empty
	@returns user entry
*/
func (d *databaseImpl) DefineNewUser(
	ctx context.Context, name string, role models.UserRoleENUMType, ledgerIdentity string,
) (models.User, error) {
	newEntry := UserDBEntry{
		User: models.User{
			ID:                    uuid.NewString(),
			Name:                  name,
			Role:                  role,
			LedgerIdentity:        ledgerIdentity,
			PendingConnections:    datatypes.JSONSlice[string]{},
			SuccessfulConnections: datatypes.JSONSlice[string]{},
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.User{}, fmt.Errorf("new user '%s' is not valid [%w]", name, err)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.User{}, fmt.Errorf("new user '%s' failed insert [%w]", name, tmp.Error)
	}

	// Record this event
	if _, err := d.RecordSystemEvent(
		ctx,
		models.SystemEventTypeUserRegistered,
		models.SystemEventUserRelated{UserID: newEntry.ID},
	); err != nil {
		return models.User{}, fmt.Errorf(
			"failed to log register user '%s' audit event [%w]", name, err,
		)
	}

	return newEntry.User, nil
}

// getUserEntry find a user by ID
func (d *databaseImpl) getUserEntry(userID string) (UserDBEntry, error) {
	var entry UserDBEntry
	err := d.db.Where("id = ?", userID).First(&entry).Error
	return entry, err
}

/*
GetUser fetch a user by ID

	@param ctx context.Context - execution context
	@param userID string - user ID
	@returns user entry
*/
func (d *databaseImpl) GetUser(_ context.Context, userID string) (models.User, error) {
	entry, err := d.getUserEntry(userID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch user %s [%w]", userID, err)
	}

	return entry.User, nil
}

/*
ListUsers list users

	@param ctx context.Context - execution context
	@param filters UserQueryFilter - entry listing filter
	@return list of users
*/
func (d *databaseImpl) ListUsers(
	_ context.Context, filters UserQueryFilter,
) ([]models.User, error) {
	query := d.db.Model(&UserDBEntry{})

	if len(filters.TargetRoles) > 0 {
		query = query.Where("role in ?", filters.TargetRoles)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at desc")

	var entries []UserDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list users [%w]", tmp.Error)
	}

	result := []models.User{}
	for _, entry := range entries {
		result = append(result, entry.User)
	}

	return result, nil
}

// ======================================================================================
// Connection membership sets
//
// All mutations are idempotent so an interrupted two-user update can be
// replayed safely.

// mutateUserEntry fetch, mutate, and persist one user entry
func (d *databaseImpl) mutateUserEntry(userID string, mutate func(*UserDBEntry)) error {
	entry, err := d.getUserEntry(userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user %s [%w]", userID, err)
	}

	mutate(&entry)

	if err := d.validator.Struct(&entry); err != nil {
		return fmt.Errorf("mutated user %s is not valid [%w]", userID, err)
	}

	if tmp := d.db.Save(&entry); tmp.Error != nil {
		return fmt.Errorf("failed to update user %s [%w]", userID, tmp.Error)
	}

	return nil
}

// addToSet append an ID to a membership set if not already present
func addToSet(set datatypes.JSONSlice[string], id string) datatypes.JSONSlice[string] {
	for _, existing := range set {
		if existing == id {
			return set
		}
	}
	return append(set, id)
}

// removeFromSet drop an ID from a membership set
func removeFromSet(set datatypes.JSONSlice[string], id string) datatypes.JSONSlice[string] {
	result := datatypes.JSONSlice[string]{}
	for _, existing := range set {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}

/*
AddPendingConnection add a user ID to another user's pending connection set

	@param ctx context.Context - execution context
	@param userID string - the user whose set is mutated
	@param otherID string - the ID being added
*/
func (d *databaseImpl) AddPendingConnection(
	_ context.Context, userID string, otherID string,
) error {
	return d.mutateUserEntry(userID, func(entry *UserDBEntry) {
		entry.PendingConnections = addToSet(entry.PendingConnections, otherID)
	})
}

/*
RemovePendingConnection remove a user ID from another user's pending connection set

	@param ctx context.Context - execution context
	@param userID string - the user whose set is mutated
	@param otherID string - the ID being removed
*/
func (d *databaseImpl) RemovePendingConnection(
	_ context.Context, userID string, otherID string,
) error {
	return d.mutateUserEntry(userID, func(entry *UserDBEntry) {
		entry.PendingConnections = removeFromSet(entry.PendingConnections, otherID)
	})
}

/*
AddSuccessfulConnection add a user ID to another user's successful connection set

	@param ctx context.Context - execution context
	@param userID string - the user whose set is mutated
	@param otherID string - the ID being added
*/
func (d *databaseImpl) AddSuccessfulConnection(
	_ context.Context, userID string, otherID string,
) error {
	return d.mutateUserEntry(userID, func(entry *UserDBEntry) {
		entry.SuccessfulConnections = addToSet(entry.SuccessfulConnections, otherID)
	})
}

/*
RemoveSuccessfulConnection remove a user ID from another user's successful
connection set

	@param ctx context.Context - execution context
	@param userID string - the user whose set is mutated
	@param otherID string - the ID being removed
*/
func (d *databaseImpl) RemoveSuccessfulConnection(
	_ context.Context, userID string, otherID string,
) error {
	return d.mutateUserEntry(userID, func(entry *UserDBEntry) {
		entry.SuccessfulConnections = removeFromSet(entry.SuccessfulConnections, otherID)
	})
}
