package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// EmailIndex is the GSI used for login lookups.
const EmailIndex = "email-index"

// Profile is the stored user record. PasswordHash never leaves the server.
type Profile struct {
	UserID       string    `dynamodbav:"user_id" json:"user_id"` // PK
	Email        string    `dynamodbav:"email" json:"email"`     // GSI PK
	Name         string    `dynamodbav:"name" json:"name"`
	Phone        string    `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Role         string    `dynamodbav:"role" json:"role"`
	PasswordHash string    `dynamodbav:"password_hash" json:"-"`
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at" json:"updated_at"`

	// pending password reset, if any
	ResetTokenHash   string `dynamodbav:"reset_token_hash,omitempty" json:"-"`
	ResetTokenExpiry int64  `dynamodbav:"reset_token_expiry,omitempty" json:"-"`
}

// Store encapsulates the users table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName, nowFunc: time.Now}
}

// Create writes a new profile, failing if the user id already exists.
func (s *Store) Create(ctx context.Context, p Profile) error {
	now := s.nowFunc()
	p.CreatedAt = now
	p.UpdatedAt = now
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(user_id)"),
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return fmt.Errorf("user %s already exists", p.UserID)
		}
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// GetByID fetches a profile. Returns (nil, nil) if absent.
func (s *Store) GetByID(ctx context.Context, userID string) (*Profile, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

// GetByEmail queries the email GSI. Returns (nil, nil) if absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	index := EmailIndex
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &index,
		KeyConditionExpression: awsString("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query profile by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var p Profile
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

// UpdateDetails sets the mutable profile fields.
func (s *Store) UpdateDetails(ctx context.Context, userID, name, phone string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:    awsString("SET #n = :n, phone = :p, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(user_id)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":  &types.AttributeValueMemberS{Value: name},
			":p":  &types.AttributeValueMemberS{Value: phone},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetResetToken stores a pending password-reset token hash with its expiry.
func (s *Store) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:    awsString("SET reset_token_hash = :h, reset_token_expiry = :e"),
		ConditionExpression: awsString("attribute_exists(user_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h": &types.AttributeValueMemberS{Value: tokenHash},
			":e": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiry.Unix())},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash and consumes any pending reset token.
func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:    awsString("SET password_hash = :p, updated_at = :ua REMOVE reset_token_hash, reset_token_expiry"),
		ConditionExpression: awsString("attribute_exists(user_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":  &types.AttributeValueMemberS{Value: passwordHash},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// List scans every profile for the admin back office.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{TableName: &s.tableName})
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	profiles := make([]Profile, 0, len(out.Items))
	for _, item := range out.Items {
		var p Profile
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func awsString(s string) *string { return &s }
