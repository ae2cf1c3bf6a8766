package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// memLocal is an in-memory LocalStore.
type memLocal struct {
	mu    sync.Mutex
	carts map[string]Items
}

func newMemLocal() *memLocal { return &memLocal{carts: map[string]Items{}} }

func (m *memLocal) Load(ctx context.Context, key string) (Items, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[key]
	return items.clone(), ok, nil
}

func (m *memLocal) Save(ctx context.Context, key string, items Items) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[key] = items.clone()
	return nil
}

func (m *memLocal) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, key)
	return nil
}

// mockDynamo implements just enough of the carts table: items keyed by user_id.
type mockDynamo struct {
	mu       sync.Mutex
	table    map[string]map[string]types.AttributeValue
	putCalls int
	putErr   error
	getErr   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{table: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return nil, m.putErr
	}
	pk := in.Item["user_id"].(*types.AttributeValueMemberS).Value
	m.table[pk] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	pk := in.Key["user_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.table[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := in.Key["user_id"].(*types.AttributeValueMemberS).Value
	delete(m.table, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return &dyn.QueryOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	return &dyn.ScanOutput{}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *mockDynamo) storedItems(t *testing.T, userID string) Items {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.table[userID]
	if !ok {
		return nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
		t.Fatalf("unmarshal stored cart: %v", err)
	}
	return rec.Items
}

func seedRemote(t *testing.T, m *mockDynamo, userID string, items Items) {
	t.Helper()
	item, err := attributevalue.MarshalMap(Record{UserID: userID, Items: items, UpdatedAt: time.Now().Format(time.RFC3339)})
	if err != nil {
		t.Fatalf("marshal seed cart: %v", err)
	}
	m.mu.Lock()
	m.table[userID] = item
	m.mu.Unlock()
}

func newTestService(local LocalStore, mock *mockDynamo) *Service {
	// long debounce so only Flush triggers remote writes in tests
	return NewService(local, NewMirrorStore(mock, "carts"), zap.NewNop(), time.Hour)
}

func TestLoad_RemoteWinsIfNonEmpty(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	owner := Owner{UserID: "u1"}

	_ = local.Save(context.Background(), owner.key(), Items{line("L", 1, 1)})
	seedRemote(t, mock, "u1", Items{line("R", 2, 2)})

	svc := newTestService(local, mock)
	items, mode := svc.Get(context.Background(), owner)

	if mode != ModeRemoteSynced {
		t.Fatalf("expected remote-synced mode, got %s", mode)
	}
	if len(items) != 1 || items[0].ProductID != "R" {
		t.Fatalf("expected remote cart to win, got %+v", items)
	}
	// local copy refreshed from remote
	localItems, _, _ := local.Load(context.Background(), owner.key())
	if len(localItems) != 1 || localItems[0].ProductID != "R" {
		t.Fatalf("expected local copy replaced, got %+v", localItems)
	}
}

func TestLoad_AdoptsLocalWhenRemoteEmpty(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	owner := Owner{UserID: "u1"}

	_ = local.Save(context.Background(), owner.key(), Items{line("L", 5, 2)})

	svc := newTestService(local, mock)
	items, _ := svc.Get(context.Background(), owner)

	if len(items) != 1 || items[0].ProductID != "L" {
		t.Fatalf("expected local cart adopted, got %+v", items)
	}
	stored := mock.storedItems(t, "u1")
	if len(stored) != 1 || stored[0].ProductID != "L" {
		t.Fatalf("expected local cart pushed to remote, got %+v", stored)
	}
}

func TestMutate_DebounceCoalescesIntoOneWrite(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	owner := Owner{UserID: "u1"}
	svc := newTestService(local, mock)

	ctx := context.Background()
	svc.Mutate(ctx, owner, func(it Items) Items { return it.Add(line("A", 10, 0), 1) })
	svc.Mutate(ctx, owner, func(it Items) Items { return it.Add(line("B", 20, 0), 1) })
	svc.Mutate(ctx, owner, func(it Items) Items { return it.UpdateQuantity("A", 3) })
	svc.Flush(ctx, owner)

	if mock.putCalls != 1 {
		t.Fatalf("expected exactly 1 remote write, got %d", mock.putCalls)
	}
	stored := mock.storedItems(t, "u1")
	a, ok := Items(stored).Find("A")
	if !ok || a.Quantity != 3 {
		t.Fatalf("expected final state written, got %+v", stored)
	}
}

func TestPermissionFailure_LatchesLocalOnly(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	mock.putErr = &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}
	owner := Owner{UserID: "u1"}
	svc := newTestService(local, mock)

	ctx := context.Background()
	svc.Mutate(ctx, owner, func(it Items) Items { return it.Add(line("A", 10, 0), 1) })
	svc.Flush(ctx, owner)

	if mock.putCalls != 1 {
		t.Fatalf("expected the single failing write, got %d", mock.putCalls)
	}

	// subsequent mutations must not attempt another remote write
	svc.Mutate(ctx, owner, func(it Items) Items { return it.Add(line("B", 20, 0), 1) })
	svc.Flush(ctx, owner)

	if mock.putCalls != 1 {
		t.Fatalf("latch failed: %d remote writes after permission error", mock.putCalls)
	}

	items, mode := svc.Get(ctx, owner)
	if mode != ModeLocalOnly {
		t.Fatalf("expected local-only mode, got %s", mode)
	}
	if len(items) != 2 {
		t.Fatalf("local operation should continue, got %+v", items)
	}
}

func TestAnonymousOwner_NeverWritesRemote(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	owner := Owner{SessionID: "sess-1"}
	svc := newTestService(local, mock)

	ctx := context.Background()
	svc.Mutate(ctx, owner, func(it Items) Items { return it.Add(line("A", 10, 0), 1) })
	svc.Flush(ctx, owner)

	if mock.putCalls != 0 {
		t.Fatalf("anonymous cart reached the mirror: %d writes", mock.putCalls)
	}
	localItems, _, _ := local.Load(ctx, owner.key())
	if len(localItems) != 1 {
		t.Fatalf("expected local copy saved, got %+v", localItems)
	}
}

func TestMergeOnLogin_ExactlyOnce(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	svc := newTestService(local, mock)
	ctx := context.Background()

	// anonymous session queues one item before login
	anon := Owner{SessionID: "sess-1"}
	svc.Mutate(ctx, anon, func(it Items) Items { return it.Add(line("A", 100, 0), 1) })

	merged := svc.MergeOnLogin(ctx, "sess-1", "u1")
	if len(merged) != 1 {
		t.Fatalf("expected 1 line after merge, got %+v", merged)
	}
	a, _ := merged.Find("A")
	if a.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", a.Quantity)
	}
	stored := mock.storedItems(t, "u1")
	if len(stored) != 1 {
		t.Fatalf("expected merged cart written through, got %+v", stored)
	}

	// a second login with the same session id must not duplicate the line
	merged = svc.MergeOnLogin(ctx, "sess-1", "u1")
	a, _ = merged.Find("A")
	if a.Quantity != 1 {
		t.Fatalf("merge applied twice: quantity %d", a.Quantity)
	}
}

func TestClear_RemovesBothCopies(t *testing.T) {
	local := newMemLocal()
	mock := newMockDynamo()
	owner := Owner{UserID: "u1"}
	seedRemote(t, mock, "u1", Items{line("A", 10, 1)})
	svc := newTestService(local, mock)
	ctx := context.Background()

	svc.Clear(ctx, owner)

	items, _ := svc.Get(ctx, owner)
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
	if stored := mock.storedItems(t, "u1"); stored != nil {
		t.Fatalf("expected remote copy deleted, got %+v", stored)
	}
}
