package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/storage"
)

var testDB *sql.DB

// Tests need a local MySQL with the schema from schema.sql applied; without
// one the whole package is skipped.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/printshop_test?parseTime=true"
	}

	var err error
	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		fmt.Println("skipping mysql tests:", err)
		os.Exit(0)
	}
	defer testDB.Close()

	if err := testDB.Ping(); err != nil {
		fmt.Println("skipping mysql tests, db unavailable:", err)
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func cleanupTestDB(t *testing.T) {
	tables := []string{"order_assignments", "order_items", "orders", "sessions", "employees", "clients", "products"}
	for _, table := range tables {
		_, err := testDB.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func createTestClient(t *testing.T, s *Storage, first, last string) int64 {
	now := time.Now().UTC().Truncate(time.Second)
	id, err := s.CreateClient(context.Background(), &storage.Client{
		FirstName: first,
		LastName:  last,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return id
}

func createTestEmployee(t *testing.T, s *Storage, first, last, email string) int64 {
	now := time.Now().UTC().Truncate(time.Second)
	id, err := s.CreateEmployee(context.Background(), &storage.Employee{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		Position:     "employee",
		PasswordHash: "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtest",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return id
}

func TestStorage_CreateAndGetOrder(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}
	ctx := context.Background()

	clientID := createTestClient(t, s, "Anna", "Smith")
	empID := createTestEmployee(t, s, "Bob", "Ray", "bob@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	started := now.Add(-time.Hour)
	order := &storage.Order{
		Status:   storage.OrderInProgress,
		Customer: clientID,
		Priority: storage.PriorityHigh,
		Items: []storage.OrderItem{
			{
				ID:                  uuid.NewString(),
				ProductNameSnapshot: "Vinyl sticker",
				PriceSnapshot:       12.5,
				Quantity:            3,
				ItemStatus:          storage.ItemPrinting,
				Attachments:         []string{"a.png"},
				DisabledStages:      []storage.ItemStatus{storage.ItemCutting},
				Assignments: []storage.Assignment{
					{
						Stage:      storage.ItemPrinting,
						AssignedTo: &empID,
						AssignedAt: now.Add(-2 * time.Hour),
						StartedAt:  &started,
						IsActive:   true,
					},
				},
			},
			{
				ID:                  uuid.NewString(),
				ProductNameSnapshot: "Banner",
				PriceSnapshot:       40,
				Quantity:            1,
				ItemStatus:          storage.ItemToDo,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.CreateOrder(ctx, order)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.GetOrder(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, storage.OrderInProgress, got.Status)
	require.NotNil(t, got.CustomerName)
	assert.Equal(t, "Anna Smith", *got.CustomerName)
	require.Len(t, got.Items, 2)

	// items read back in the order they were written
	assert.Equal(t, "Vinyl sticker", got.Items[0].ProductNameSnapshot)
	assert.Equal(t, []string{"a.png"}, got.Items[0].Attachments)
	assert.Equal(t, []storage.ItemStatus{storage.ItemCutting}, got.Items[0].DisabledStages)

	require.Len(t, got.Items[0].Assignments, 1)
	a := got.Items[0].Assignments[0]
	assert.True(t, a.IsActive)
	require.NotNil(t, a.AssignedTo)
	assert.Equal(t, empID, *a.AssignedTo)
	require.NotNil(t, a.AssignedToName)
	assert.Equal(t, "Bob Ray", *a.AssignedToName)
	require.NotNil(t, a.StartedAt)

	assert.Empty(t, got.Items[1].Assignments)
}

func TestStorage_GetOrderNotFound(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}

	_, err := s.GetOrder(context.Background(), 99999)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestStorage_UpdateOrderReplacesItems(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}
	ctx := context.Background()

	clientID := createTestClient(t, s, "Carl", "Young")
	now := time.Now().UTC().Truncate(time.Second)

	order := &storage.Order{
		Status:   storage.OrderToDo,
		Customer: clientID,
		Priority: storage.PriorityNormal,
		Items: []storage.OrderItem{
			{ID: uuid.NewString(), ProductNameSnapshot: "Flyer", PriceSnapshot: 5, Quantity: 100, ItemStatus: storage.ItemToDo},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.CreateOrder(ctx, order)
	require.NoError(t, err)

	stored, err := s.GetOrder(ctx, id)
	require.NoError(t, err)

	stored.Status = storage.OrderInProgress
	stored.Items[0].ItemStatus = storage.ItemPrinting
	stored.Items = append(stored.Items, storage.OrderItem{
		ID:                  uuid.NewString(),
		ProductNameSnapshot: "Poster",
		PriceSnapshot:       15,
		Quantity:            2,
		ItemStatus:          storage.ItemToDo,
	})
	stored.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdateOrder(ctx, stored))

	got, err := s.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, storage.OrderInProgress, got.Status)
	require.Len(t, got.Items, 2)
	assert.Equal(t, storage.ItemPrinting, got.Items[0].ItemStatus)
	assert.Equal(t, "Poster", got.Items[1].ProductNameSnapshot)
}

func TestStorage_ListOrdersFilter(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}
	ctx := context.Background()

	clientID := createTestClient(t, s, "Anna", "Smith")
	now := time.Now().UTC().Truncate(time.Second)

	for i, status := range []storage.OrderStatus{storage.OrderToDo, storage.OrderInProgress, storage.OrderDone} {
		_, err := s.CreateOrder(ctx, &storage.Order{
			Status:    status,
			Customer:  clientID,
			Priority:  storage.PriorityNormal,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		})
		require.NoError(t, err)
	}

	all, err := s.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	done, err := s.ListOrders(ctx, OrderFilter{Status: storage.OrderDone})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, storage.OrderDone, done[0].Status)

	page, err := s.ListOrders(ctx, OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestStorage_OrdersCreatedBetween(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}
	ctx := context.Background()

	clientID := createTestClient(t, s, "Anna", "Smith")
	now := time.Now().UTC().Truncate(time.Second)

	for _, age := range []time.Duration{time.Hour, 48 * time.Hour} {
		_, err := s.CreateOrder(ctx, &storage.Order{
			Status:    storage.OrderToDo,
			Customer:  clientID,
			Priority:  storage.PriorityLow,
			CreatedAt: now.Add(-age),
			UpdatedAt: now.Add(-age),
		})
		require.NoError(t, err)
	}

	got, err := s.OrdersCreatedBetween(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStorage_EmployeeDuplicateEmail(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}

	createTestEmployee(t, s, "Bob", "Ray", "dup@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	_, err := s.CreateEmployee(context.Background(), &storage.Employee{
		FirstName:    "Rob",
		LastName:     "Day",
		Email:        "dup@example.com",
		Position:     "employee",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestStorage_SessionLifecycle(t *testing.T) {
	cleanupTestDB(t)
	s := &Storage{db: testDB}
	ctx := context.Background()

	empID := createTestEmployee(t, s, "Bob", "Ray", "bob@example.com")
	now := time.Now().UTC().Truncate(time.Second)

	id, err := s.CreateSession(ctx, &storage.Session{
		EmployeeID: empID,
		TokenHash:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	})
	require.NoError(t, err)

	sess, err := s.GetSessionByTokenHash(ctx, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, empID, sess.EmployeeID)
	assert.Nil(t, sess.RevokedAt)

	require.NoError(t, s.RevokeSession(ctx, id, now))

	sess, err = s.GetSessionByTokenHash(ctx, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	require.NotNil(t, sess.RevokedAt)

	// revoking twice fails, the row is already dead
	err = s.RevokeSession(ctx, id, now)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
