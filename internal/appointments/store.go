package appointments

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// Consultation types a customer can book.
const (
	TypeConsultation = "consultation"
	TypeVideo        = "video"
	TypeSite         = "site"
)

// Appointment statuses (admin-driven).
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is one consultation booking. Status starts pending and is
// moved along from the admin back office.
type Appointment struct {
	AppointmentID string    `dynamodbav:"appointment_id" json:"appointment_id"` // PK
	UserID        string    `dynamodbav:"user_id" json:"user_id"`
	UserEmail     string    `dynamodbav:"user_email" json:"user_email"`
	Date          string    `dynamodbav:"date" json:"date"`
	Time          string    `dynamodbav:"time" json:"time"`
	Type          string    `dynamodbav:"type" json:"type"`
	Notes         string    `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	Status        string    `dynamodbav:"status" json:"status"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Store encapsulates the appointments table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	newID     func() string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
}

// Create stores a booking with status pending.
func (s *Store) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.Type == "" {
		a.Type = TypeConsultation
	}
	a.AppointmentID = s.newID()
	a.Status = StatusPending
	a.CreatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return nil, fmt.Errorf("marshal appointment: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put appointment: %w", err)
	}
	return &a, nil
}

// List returns all bookings, newest first, for the admin back office.
func (s *Store) List(ctx context.Context) ([]Appointment, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{TableName: &s.tableName})
	if err != nil {
		return nil, fmt.Errorf("scan appointments: %w", err)
	}
	bookings := make([]Appointment, 0, len(out.Items))
	for _, item := range out.Items {
		var a Appointment
		if err := attributevalue.UnmarshalMap(item, &a); err != nil {
			return nil, fmt.Errorf("unmarshal appointment: %w", err)
		}
		bookings = append(bookings, a)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

// UpdateStatus moves a booking along the admin workflow.
func (s *Store) UpdateStatus(ctx context.Context, appointmentID, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid appointment status %q", status)
	}
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"appointment_id": &types.AttributeValueMemberS{Value: appointmentID},
		},
		UpdateExpression:    awsString("SET #s = :s, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(appointment_id)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":  &types.AttributeValueMemberS{Value: status},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
