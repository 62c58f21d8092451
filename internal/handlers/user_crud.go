package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/accounts/internal/models"
	"github.com/example/accounts/internal/store"
	"github.com/example/accounts/internal/utils"
)

// UserHandler exposes the generic CRUD surface over user records plus
// read access to the related sub-resources. All operations delegate
// straight to the store.
type UserHandler struct {
	store *store.UserStore
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(userStore *store.UserStore) *UserHandler {
	return &UserHandler{store: userStore}
}

// Count returns the number of users matching the where clause.
func (h *UserHandler) Count(c *fiber.Ctx) error {
	where, err := utils.ParseWhere(c)
	if err != nil {
		return err
	}

	count, err := h.store.Count(where)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"count": count})
}

// Find returns users matching the filter.
func (h *UserHandler) Find(c *fiber.Ctx) error {
	filter, err := utils.ParseFilter(c)
	if err != nil {
		return err
	}

	users, err := h.store.Find(filter)
	if err != nil {
		return err
	}

	return c.JSON(users)
}

// FindByID returns a single user.
func (h *UserHandler) FindByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	user, err := h.store.FindByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(user)
}

type userPatch struct {
	Mobile   *string `json:"mobile" form:"mobile"`
	Email    *string `json:"email" form:"email"`
	Name     *string `json:"name" form:"name"`
	Verified *bool   `json:"verified" form:"verified"`
}

func (p userPatch) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Mobile != nil {
		updates["mobile"] = *p.Mobile
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Verified != nil {
		updates["verified"] = *p.Verified
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
	}
	return updates
}

// UpdateAll applies a partial update to every user matching the where
// clause and returns the affected count.
func (h *UserHandler) UpdateAll(c *fiber.Ctx) error {
	var patch userPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := patch.updates()
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	where, err := utils.ParseWhere(c)
	if err != nil {
		return err
	}

	count, err := h.store.UpdateAll(updates, where)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"count": count})
}

// UpdateByID applies a partial update to one user.
func (h *UserHandler) UpdateByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var patch userPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := patch.updates()
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	found, err := h.store.UpdateByID(id, updates)
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReplaceByID overwrites one user record.
func (h *UserHandler) ReplaceByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	found, err := h.store.ReplaceByID(id, &user)
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteByID removes one user.
func (h *UserHandler) DeleteByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	found, err := h.store.DeleteByID(id)
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetProfile returns the user's profile sub-resource.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	profile, err := h.store.FindProfileByUserID(id)
	if err != nil {
		return err
	}
	if profile == nil {
		return fiber.NewError(fiber.StatusNotFound, "profile not found")
	}

	return c.JSON(profile)
}

// ListSessions returns the user's login history.
func (h *UserHandler) ListSessions(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	sessions, err := h.store.FindSessionsByUserID(id)
	if err != nil {
		return err
	}

	return c.JSON(sessions)
}

// ListRoles returns the roles joined to the user.
func (h *UserHandler) ListRoles(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	roles, err := h.store.FindRolesByUserID(id)
	if err != nil {
		return err
	}

	return c.JSON(roles)
}

// ListTracks returns the tracks joined to the user.
func (h *UserHandler) ListTracks(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	tracks, err := h.store.FindTracksByUserID(id)
	if err != nil {
		return err
	}

	return c.JSON(tracks)
}

// ListJournals returns the user's journal entries.
func (h *UserHandler) ListJournals(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	journals, err := h.store.FindJournalsByUserID(id)
	if err != nil {
		return err
	}

	return c.JSON(journals)
}
