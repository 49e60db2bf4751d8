package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aanand-mishra/alunos-api/internal/backend"
	"github.com/aanand-mishra/alunos-api/internal/storage"
	"github.com/aanand-mishra/alunos-api/internal/types"
	"github.com/aanand-mishra/alunos-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory storage.Storage used to exercise the service
// without a database.
type memStore struct {
	mu     sync.Mutex
	nextID int
	rows   []types.Student // insertion order
	fail   error           // returned as a BackendError by every call when set
}

func (m *memStore) failure(op string) error {
	if m.fail != nil {
		return storage.Fail(op, m.fail)
	}
	return nil
}

func (m *memStore) indexOf(id string) int {
	for i, s := range m.rows {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (m *memStore) emailTaken(email, exceptID string) bool {
	for _, s := range m.rows {
		if s.Email == email && s.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *memStore) ListStudents(_ context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("mem.ListStudents"); err != nil {
		return nil, err
	}
	out := make([]types.Student, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *memStore) GetStudent(_ context.Context, id string) (types.Student, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("mem.GetStudent"); err != nil {
		return types.Student{}, false, err
	}
	if i := m.indexOf(id); i >= 0 {
		return m.rows[i], true, nil
	}
	return types.Student{}, false, nil
}

func (m *memStore) InsertStudent(_ context.Context, in types.StudentInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("mem.InsertStudent"); err != nil {
		return "", err
	}
	if m.emailTaken(in.Email, "") {
		return "", fmt.Errorf("mem.InsertStudent: %w", storage.ErrDuplicateKey)
	}
	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.rows = append(m.rows, types.Student{
		ID:        id,
		Name:      in.Name,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
		Email:     in.Email,
		CreatedAt: time.Now(),
	})
	return id, nil
}

func (m *memStore) ReplaceStudent(_ context.Context, id string, in types.StudentInput) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("mem.ReplaceStudent"); err != nil {
		return false, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	if m.emailTaken(in.Email, id) {
		return false, fmt.Errorf("mem.ReplaceStudent: %w", storage.ErrDuplicateKey)
	}
	m.rows[i].Name = in.Name
	m.rows[i].Phone = in.Phone
	m.rows[i].BirthDate = in.BirthDate
	m.rows[i].Email = in.Email
	return true, nil
}

func (m *memStore) DeleteStudent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("mem.DeleteStudent"); err != nil {
		return false, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return true, nil
}

func (m *memStore) Close(_ context.Context) error { return nil }

func newSelector(t *testing.T) (*backend.Selector, *memStore, *memStore) {
	t.Helper()

	rel, doc := &memStore{}, &memStore{}
	sel := backend.NewSelector(map[backend.Kind]backend.Connector{
		backend.Relational: func(context.Context) (storage.Storage, error) { return rel, nil },
		backend.Document:   func(context.Context) (storage.Storage, error) { return doc, nil },
	}, nil)

	return sel, rel, doc
}

func newService(t *testing.T) (*Service, *memStore) {
	t.Helper()

	sel, rel, _ := newSelector(t)
	require.NoError(t, sel.Select(context.Background(), backend.Relational))
	return New(sel), rel
}

func validInput(email string) types.StudentInput {
	return types.StudentInput{
		Name:      "Maria Silva",
		Phone:     "11999990000",
		BirthDate: "2000-01-01",
		Email:     email,
	}
}

func TestService_NoBackendSelected(t *testing.T) {
	sel, _, _ := newSelector(t)
	svc := New(sel)
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, backend.ErrNoBackendSelected)

	_, err = svc.Get(ctx, "1")
	assert.ErrorIs(t, err, backend.ErrNoBackendSelected)

	_, err = svc.Create(ctx, validInput("a@example.com"))
	assert.ErrorIs(t, err, backend.ErrNoBackendSelected)

	err = svc.Update(ctx, "1", validInput("a@example.com"))
	assert.ErrorIs(t, err, backend.ErrNoBackendSelected)

	err = svc.Delete(ctx, "1")
	assert.ErrorIs(t, err, backend.ErrNoBackendSelected)
}

func TestService_CreateThenGet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := validInput("maria@example.com")
	id, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Phone, got.Phone)
	assert.Equal(t, in.BirthDate, got.BirthDate)
	assert.Equal(t, in.Email, got.Email)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestService_ValidationBlocksWrites(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	bad := validInput("maria@example.com")
	bad.Name = "Jo"

	_, err := svc.Create(ctx, bad)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.FieldName, verr.Field)
	assert.Empty(t, store.rows)

	id, err := svc.Create(ctx, validInput("maria@example.com"))
	require.NoError(t, err)

	bad.Name = "Maria"
	bad.Email = "no-at-sign"
	err = svc.Update(ctx, id, bad)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.FieldEmail, verr.Field)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", got.Email)
}

func TestService_DuplicateEmail(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("dup@x.com"))
	require.NoError(t, err)

	t.Run("case is normalized before the store sees it", func(t *testing.T) {
		_, err := svc.Create(ctx, validInput("  DUP@X.com"))
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.Len(t, store.rows, 1)
	})

	t.Run("update onto another record's email", func(t *testing.T) {
		other, err := svc.Create(ctx, validInput("other@x.com"))
		require.NoError(t, err)

		err = svc.Update(ctx, other, validInput("dup@x.com"))
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput("maria@example.com"))
	require.NoError(t, err)
	before, err := svc.Get(ctx, id)
	require.NoError(t, err)

	updated := types.StudentInput{
		Name:      "Maria Souza",
		Phone:     "21988887777",
		BirthDate: "1999-12-31",
		Email:     "Souza@Example.com",
	}
	require.NoError(t, svc.Update(ctx, id, updated))

	after, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", after.Name)
	assert.Equal(t, "souza@example.com", after.Email)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	assert.ErrorIs(t, svc.Update(ctx, "999", updated), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)
}

func TestService_ListNewestFirst(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	students, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	a, err := svc.Create(ctx, validInput("a@example.com"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, validInput("b@example.com"))
	require.NoError(t, err)

	students, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, []string{b, a}, []string{students[0].ID, students[1].ID})
}

func TestService_BackendsAreIndependent(t *testing.T) {
	sel, _, _ := newSelector(t)
	svc := New(sel)
	ctx := context.Background()

	require.NoError(t, sel.Select(ctx, backend.Relational))
	_, err := svc.Create(ctx, validInput("x@example.com"))
	require.NoError(t, err)

	require.NoError(t, sel.Select(ctx, backend.Document))
	students, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	// Same email is free in the other backend.
	_, err = svc.Create(ctx, validInput("x@example.com"))
	assert.NoError(t, err)
}

func TestService_BackendErrorsPassThrough(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	store.fail = errors.New("disk I/O error")

	_, err := svc.List(ctx)

	var backendErr *storage.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "disk I/O error", backendErr.Detail())
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, validInput("a@example.com"))
	require.ErrorAs(t, err, &backendErr)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}
