package appointments

import (
	"context"
	"fmt"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, _ ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.items[strAttr(in.Item, "appointment_id")] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, _ ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	return &dyn.GetItemOutput{Item: f.items[strAttr(in.Key, "appointment_id")]}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, _ ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	item := f.items[strAttr(in.Key, "appointment_id")]
	if item == nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if v, ok := in.ExpressionAttributeValues[":s"]; ok {
		item["status"] = v
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, _ ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	delete(f.items, strAttr(in.Key, "appointment_id"))
	return &dyn.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dyn.QueryInput, _ ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return &dyn.QueryOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dyn.ScanInput, _ ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	out := &dyn.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, _ ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, fmt.Errorf("unexpected TransactWriteItems")
}

func TestCreate_DefaultsTypeAndStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeDynamo(), "appointments")

	created, err := store.Create(ctx, Appointment{
		UserID:    "u1",
		UserEmail: "asha@example.com",
		Date:      "2026-09-10",
		Time:      "11:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Type != TypeConsultation {
		t.Errorf("type = %q, want default consultation", created.Type)
	}
	if created.Status != StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.AppointmentID == "" {
		t.Error("no appointment id assigned")
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeDynamo(), "appointments")

	created, err := store.Create(ctx, Appointment{UserID: "u1", Date: "2026-09-10", Time: "11:00", Type: TypeSite})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.UpdateStatus(ctx, created.AppointmentID, StatusConfirmed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.UpdateStatus(ctx, created.AppointmentID, "maybe"); err == nil {
		t.Error("invalid status accepted")
	}
	if err := store.UpdateStatus(ctx, "missing", StatusConfirmed); err == nil {
		t.Error("update of missing booking accepted")
	}
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeDynamo(), "appointments")

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour)}
	i := 0
	store.nowFunc = func() time.Time {
		tm := times[i]
		i++
		return tm
	}

	for n := 0; n < 3; n++ {
		if _, err := store.Create(ctx, Appointment{UserID: fmt.Sprintf("u%d", n), Date: "2026-09-10", Time: "11:00"}); err != nil {
			t.Fatalf("create %d: %v", n, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d bookings, want 3", len(list))
	}
	for n := 1; n < len(list); n++ {
		if list[n].CreatedAt.After(list[n-1].CreatedAt) {
			t.Fatalf("bookings out of order: %v before %v", list[n-1].CreatedAt, list[n].CreatedAt)
		}
	}
}
