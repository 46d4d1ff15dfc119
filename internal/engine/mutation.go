package engine

import (
	"context"
	"net/mail"
	"strings"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine/cache"
)

// Logical operation names for the at-most-one-in-flight rule. A second
// call for the same operation while one is pending fails with ErrBusy
// before any network activity.
const (
	opLogin         = "login"
	opLogout        = "logout"
	opRegister      = "register"
	opUpdateUser    = "update_user"
	opCreateProduct = "create_product"
	opUpdateProduct = "update_product"
	opDeleteProduct = "delete_product"
)

// runMutation enforces the in-flight rule and logs the outcome. On
// failure the cache is left untouched: either the call and its
// invalidation both happen, or neither does.
func (e *Engine) runMutation(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if !e.mutations.acquire(op) {
		return ErrBusy
	}
	defer e.mutations.release(op)

	log := e.logger.With().Str("component", "engine").Str("operation", op).Logger()
	log.Debug().Msg("mutation started")

	if err := fn(ctx); err != nil {
		log.Debug().Err(err).Msg("mutation failed, cache untouched")
		return err
	}
	log.Info().Msg("mutation applied")
	return nil
}

// invalidateProducts marks every (products, *) key stale and eagerly
// refetches the ones with live subscribers.
func (e *Engine) invalidateProducts() {
	e.store.InvalidateResource(resourceProducts)
	fetchers := e.fetchers.byResource(resourceProducts)
	keys := make([]cache.Key, 0, len(fetchers))
	for _, f := range fetchers {
		keys = append(keys, f.key)
	}
	e.refetchInvalidated(keys)
}

// invalidateSession marks the session entry stale so the gate re-probes.
func (e *Engine) invalidateSession() {
	e.store.Invalidate(SessionKey())
	e.refetchInvalidated([]cache.Key{SessionKey()})
}

// Login authenticates and invalidates the session entry; the caller
// observes the new identity through the next probe.
func (e *Engine) Login(ctx context.Context, username, password string) error {
	if err := validateLogin(username, password); err != nil {
		return err
	}
	return e.runMutation(ctx, opLogin, func(ctx context.Context) error {
		if err := e.client.Login(ctx, api.LoginRequest{Username: username, Password: password}); err != nil {
			return err
		}
		e.invalidateSession()
		return nil
	})
}

// Logout ends the session. After invalidating the session entry the
// whole cache is cleared so nothing from the previous identity is
// observable by the next one; the session entry is then re-seeded
// signed-out so the gate reports anonymous without another probe.
func (e *Engine) Logout(ctx context.Context) error {
	return e.runMutation(ctx, opLogout, func(ctx context.Context) error {
		if err := e.client.Logout(ctx); err != nil {
			return err
		}
		e.store.Invalidate(SessionKey())
		e.store.Clear()
		// No freshness window, so the next probe still revalidates.
		e.store.Put(SessionKey(), cache.Entry{
			Status:    cache.StatusSuccess,
			Data:      (*api.User)(nil),
			FetchedAt: e.now(),
		})
		return nil
	})
}

// Register creates an account and invalidates the session entry.
// Validation failures surface before any call is made.
func (e *Engine) Register(ctx context.Context, username, email, password, confirm string) error {
	if err := validateRegistration(username, email, password, confirm); err != nil {
		return err
	}
	return e.runMutation(ctx, opRegister, func(ctx context.Context) error {
		if err := e.client.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password}); err != nil {
			return err
		}
		e.invalidateSession()
		return nil
	})
}

// UpdateProfile updates the caller's account. The returned user is
// written through to the session entry so views show it immediately,
// and the entry is still invalidated so the next probe reconfirms it.
func (e *Engine) UpdateProfile(ctx context.Context, req api.UpdateUserRequest) (*api.User, error) {
	if err := validateProfile(req); err != nil {
		return nil, err
	}
	var updated *api.User
	err := e.runMutation(ctx, opUpdateUser, func(ctx context.Context) error {
		user, callErr := e.client.UpdateUser(ctx, req)
		if callErr != nil {
			return callErr
		}
		updated = user
		e.store.Put(SessionKey(), cache.Entry{
			Status:    cache.StatusSuccess,
			Data:      user,
			FetchedAt: e.now(),
		})
		e.invalidateSession()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CreateProduct creates a listing. The created entity is written
// through to its own detail key only; list membership and ordering are
// the backend's concern, so every (products, *) key is invalidated
// instead of being patched locally.
func (e *Engine) CreateProduct(ctx context.Context, payload api.ProductPayload) (*api.Product, error) {
	if err := validateProduct(payload); err != nil {
		return nil, err
	}
	var created *api.Product
	err := e.runMutation(ctx, opCreateProduct, func(ctx context.Context) error {
		product, callErr := e.client.CreateProduct(ctx, payload)
		if callErr != nil {
			return callErr
		}
		created = product
		e.invalidateProducts()
		e.writeThroughDetail(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProduct overwrites a listing, with the same cache policy as
// CreateProduct.
func (e *Engine) UpdateProduct(ctx context.Context, id uint, payload api.ProductPayload) (*api.Product, error) {
	if err := validateProduct(payload); err != nil {
		return nil, err
	}
	var updated *api.Product
	err := e.runMutation(ctx, opUpdateProduct, func(ctx context.Context) error {
		product, callErr := e.client.UpdateProduct(ctx, id, payload)
		if callErr != nil {
			return callErr
		}
		updated = product
		e.invalidateProducts()
		e.writeThroughDetail(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProduct removes a listing and invalidates the products family.
func (e *Engine) DeleteProduct(ctx context.Context, id uint) error {
	return e.runMutation(ctx, opDeleteProduct, func(ctx context.Context) error {
		if err := e.client.DeleteProduct(ctx, id); err != nil {
			return err
		}
		e.invalidateProducts()
		return nil
	})
}

// writeThroughDetail stores a mutation's returned entity under its own
// detail key, fresh, so an immediate detail read needs no refetch.
func (e *Engine) writeThroughDetail(product *api.Product) {
	if product == nil {
		return
	}
	e.store.Put(ProductDetailKey(product.ID), cache.Entry{
		Status:     cache.StatusSuccess,
		Data:       product,
		FetchedAt:  e.now(),
		StaleAfter: e.productTTL,
	})
}

func validateLogin(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &api.ValidationError{Field: "username", Message: "cannot be empty"}
	}
	if password == "" {
		return &api.ValidationError{Field: "password", Message: "cannot be empty"}
	}
	return nil
}

func validateRegistration(username, email, password, confirm string) error {
	if err := validateLogin(username, password); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &api.ValidationError{Field: "email", Message: "malformed address"}
	}
	if password != confirm {
		return &api.ValidationError{Message: "passwords do not match"}
	}
	return nil
}

func validateProfile(req api.UpdateUserRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return &api.ValidationError{Field: "username", Message: "cannot be empty"}
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return &api.ValidationError{Field: "email", Message: "malformed address"}
		}
	}
	return nil
}

func validateProduct(payload api.ProductPayload) error {
	if strings.TrimSpace(payload.Name) == "" {
		return &api.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if err := payload.Price.Validate(); err != nil {
		return &api.ValidationError{Field: "price", Message: err.Error()}
	}
	return nil
}
