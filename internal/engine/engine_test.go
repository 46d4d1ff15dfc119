package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/estoreapp/estore-cli/internal/api"
)

// fakeClient is a scriptable api.Client that counts calls per name.
// Handlers default to empty successes; tests override what they need.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	loginFn          func(req api.LoginRequest) error
	logoutFn         func() error
	registerFn       func(req api.RegisterRequest) error
	getMeFn          func() (*api.User, error)
	updateUserFn     func(req api.UpdateUserRequest) (*api.User, error)
	getAllUsersFn    func() ([]api.User, error)
	searchProductsFn func(keyword string) ([]api.Product, error)
	getProductFn     func(id uint) (*api.Product, error)
	createProductFn  func(p api.ProductPayload) (*api.Product, error)
	updateProductFn  func(id uint, p api.ProductPayload) (*api.Product, error)
	deleteProductFn  func(id uint) error
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeClient) Login(_ context.Context, req api.LoginRequest) error {
	f.record("login")
	if f.loginFn != nil {
		return f.loginFn(req)
	}
	return nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.record("logout")
	if f.logoutFn != nil {
		return f.logoutFn()
	}
	return nil
}

func (f *fakeClient) Register(_ context.Context, req api.RegisterRequest) error {
	f.record("register")
	if f.registerFn != nil {
		return f.registerFn(req)
	}
	return nil
}

func (f *fakeClient) GetMe(context.Context) (*api.User, error) {
	f.record("get_me")
	if f.getMeFn != nil {
		return f.getMeFn()
	}
	return nil, nil
}

func (f *fakeClient) UpdateUser(_ context.Context, req api.UpdateUserRequest) (*api.User, error) {
	f.record("update_user")
	if f.updateUserFn != nil {
		return f.updateUserFn(req)
	}
	return &api.User{Username: req.Username}, nil
}

func (f *fakeClient) GetAllUsers(context.Context) ([]api.User, error) {
	f.record("get_all_users")
	if f.getAllUsersFn != nil {
		return f.getAllUsersFn()
	}
	return []api.User{}, nil
}

func (f *fakeClient) SearchProducts(_ context.Context, keyword string) ([]api.Product, error) {
	f.record("search_products")
	if f.searchProductsFn != nil {
		return f.searchProductsFn(keyword)
	}
	return []api.Product{}, nil
}

func (f *fakeClient) GetProduct(_ context.Context, id uint) (*api.Product, error) {
	f.record("get_product")
	if f.getProductFn != nil {
		return f.getProductFn(id)
	}
	return &api.Product{ID: id}, nil
}

func (f *fakeClient) CreateProduct(_ context.Context, p api.ProductPayload) (*api.Product, error) {
	f.record("create_product")
	if f.createProductFn != nil {
		return f.createProductFn(p)
	}
	return &api.Product{ID: 1, Name: p.Name, Price: p.Price}, nil
}

func (f *fakeClient) UpdateProduct(_ context.Context, id uint, p api.ProductPayload) (*api.Product, error) {
	f.record("update_product")
	if f.updateProductFn != nil {
		return f.updateProductFn(id, p)
	}
	return &api.Product{ID: id, Name: p.Name, Price: p.Price}, nil
}

func (f *fakeClient) DeleteProduct(_ context.Context, id uint) error {
	f.record("delete_product")
	if f.deleteProductFn != nil {
		return f.deleteProductFn(id)
	}
	return nil
}

var _ api.Client = (*fakeClient)(nil)

// newTestEngine wires an Engine to a fake client with a generous TTL so
// freshness behavior is deterministic in tests.
func newTestEngine(client *fakeClient) *Engine {
	return New(Options{
		Client:     client,
		ProductTTL: time.Minute,
		Logger:     zerolog.Nop(),
	})
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

var errBackendDown = errors.New("backend: connection refused")
